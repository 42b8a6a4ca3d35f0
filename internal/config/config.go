// Package config loads the watchdog configuration.
//
// Values come from, in increasing precedence: built-in defaults, an optional YAML
// file named by WATCHDOG_CONFIG (with ${VAR} expansion), and environment
// variables. A .env file in the working directory is loaded into the
// environment first when present.
package config

import (
	"log/slog"
	"time"
)

// Config is the root configuration.
type Config struct {
	Upstream UpstreamConfig `yaml:"upstream"`
	Store    StoreConfig    `yaml:"store"`
	Alert    AlertConfig    `yaml:"alert"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Redis    RedisConfig    `yaml:"redis"`
	Server   ServerConfig   `yaml:"server"`
}

// UpstreamConfig describes the monitored market-data API.
type UpstreamConfig struct {
	URL           string        `yaml:"url" validate:"required,url"`
	APIKey        string        `yaml:"api_key"`
	APIKeyParam   string        `yaml:"api_key_param" validate:"required"`
	Variant       string        `yaml:"variant" validate:"oneof=timeseries nested-data array records"`
	Timeout       time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxRetries    int           `yaml:"max_retries" validate:"gte=0,lte=10"`
	Backoff       time.Duration `yaml:"backoff" validate:"gte=0"`
	RetryStatuses []int         `yaml:"retry_statuses" validate:"dive,gte=100,lte=599"`
	RatePerMinute int           `yaml:"rate_per_minute" validate:"gte=0"`
}

// Store backends.
const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendNone     = "none"
)

// StoreConfig selects and configures the summary store.
type StoreConfig struct {
	Backend         string `yaml:"backend" validate:"oneof=mongo postgres sqlite none"`
	MongoURI        string `yaml:"mongodb_uri"` // empty disables the mongo store
	MongoDB         string `yaml:"mongodb_db" validate:"required"`
	MongoCollection string `yaml:"mongodb_collection" validate:"required"`
	DSN             string `yaml:"database_dsn"`
	RunMigrations   bool   `yaml:"run_migrations"`
}

// AlertConfig configures the alert email.
type AlertConfig struct {
	From           string `yaml:"from_email" validate:"required,email"`
	To             string `yaml:"to_email" validate:"required,email"`
	SendGridAPIKey string `yaml:"sendgrid_api_key" validate:"required"`
}

// MonitorConfig configures the pipeline itself.
type MonitorConfig struct {
	SuiteName        string        `yaml:"expectation_suite_name" validate:"required"`
	QualityThreshold float64       `yaml:"quality_threshold" validate:"gte=0,lte=100"`
	PollInterval     time.Duration `yaml:"poll_interval" validate:"gte=0"` // 0 disables polling
	PollTimeout      time.Duration `yaml:"poll_timeout" validate:"gte=0"`
}

// RedisConfig configures the optional cache. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	TTL      time.Duration `yaml:"ttl" validate:"gte=0"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr      string `yaml:"addr" validate:"required"`
	JWTSecret string `yaml:"jwt_secret"` // empty disables request auth
	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// Default returns the configuration with every default applied.
func Default() Config {
	return Config{
		Upstream: UpstreamConfig{
			APIKeyParam:   "apikey",
			Variant:       "timeseries",
			Timeout:       10 * time.Second,
			MaxRetries:    3,
			Backoff:       time.Second,
			RetryStatuses: []int{500, 502, 503, 504},
		},
		Store: StoreConfig{
			Backend:         BackendMongo,
			MongoDB:         "quality_monitor",
			MongoCollection: "quality_metrics",
		},
		Monitor: MonitorConfig{
			SuiteName:        "ohlcv_default",
			QualityThreshold: 95,
			PollTimeout:      2 * time.Minute,
		},
		Redis: RedisConfig{
			TTL: 5 * time.Minute,
		},
		Server: ServerConfig{
			Addr:     ":8080",
			LogLevel: "info",
		},
	}
}

// StoreEnabled reports whether a store backend is configured.
func (c *Config) StoreEnabled() bool {
	switch c.Store.Backend {
	case BackendMongo:
		return c.Store.MongoURI != ""
	case BackendPostgres, BackendSQLite:
		return true
	default:
		return false
	}
}

// SlogLevel maps LogLevel to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Server.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
