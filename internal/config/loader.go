package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable holding an optional YAML config path.
const FileEnv = "WATCHDOG_CONFIG"

// Load reads .env, the optional YAML file and the environment, then validates.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv(FileEnv); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// loadFile decodes a YAML file over cfg, expanding ${VAR} references first.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}

// envReader applies environment overrides and collects malformed values.
type envReader struct {
	errs []error
}

// str ignores empty values so that "KEY=" in compose files or .env keeps the YAML value.
func (r *envReader) str(key string, dst *string) {
	if v, ok := lookupNonEmpty(key); ok {
		*dst = v
	}
}

func (r *envReader) integer(key string, dst *int) {
	v, ok := lookupNonEmpty(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = n
}

func (r *envReader) float(key string, dst *float64) {
	v, ok := lookupNonEmpty(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = f
}

func (r *envReader) boolean(key string, dst *bool) {
	v, ok := lookupNonEmpty(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = b
}

// duration accepts Go duration strings ("1m30s") or a bare number of seconds.
func (r *envReader) duration(key string, dst *time.Duration) {
	v, ok := lookupNonEmpty(key)
	if !ok {
		return
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = time.Duration(secs * float64(time.Second))
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = d
}

func (r *envReader) ints(key string, dst *[]int) {
	v, ok := lookupNonEmpty(key)
	if !ok {
		return
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		out = append(out, n)
	}
	*dst = out
}

func lookupNonEmpty(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// applyEnv overrides cfg with environment variables.
func (c *Config) applyEnv() error {
	r := &envReader{}

	r.str("TARGET_API_URL", &c.Upstream.URL)
	r.str("UPSTREAM_API_KEY", &c.Upstream.APIKey)
	r.str("UPSTREAM_API_KEY_PARAM", &c.Upstream.APIKeyParam)
	r.str("UPSTREAM_VARIANT", &c.Upstream.Variant)
	r.duration("FETCH_TIMEOUT", &c.Upstream.Timeout)
	r.integer("FETCH_MAX_RETRIES", &c.Upstream.MaxRetries)
	r.duration("FETCH_BACKOFF", &c.Upstream.Backoff)
	r.ints("FETCH_RETRY_STATUSES", &c.Upstream.RetryStatuses)
	r.integer("UPSTREAM_RATE_PER_MINUTE", &c.Upstream.RatePerMinute)

	r.str("STORE_BACKEND", &c.Store.Backend)
	r.str("MONGODB_URI", &c.Store.MongoURI)
	r.str("MONGODB_DB", &c.Store.MongoDB)
	r.str("MONGODB_COLLECTION", &c.Store.MongoCollection)
	r.str("DATABASE_DSN", &c.Store.DSN)
	r.boolean("RUN_MIGRATIONS", &c.Store.RunMigrations)

	r.str("ALERT_FROM_EMAIL", &c.Alert.From)
	r.str("ALERT_TO_EMAIL", &c.Alert.To)
	r.str("SENDGRID_API_KEY", &c.Alert.SendGridAPIKey)

	r.str("EXPECTATION_SUITE_NAME", &c.Monitor.SuiteName)
	r.float("QUALITY_THRESHOLD", &c.Monitor.QualityThreshold)
	r.duration("POLL_INTERVAL", &c.Monitor.PollInterval)
	r.duration("POLL_TIMEOUT", &c.Monitor.PollTimeout)

	r.str("REDIS_ADDR", &c.Redis.Addr)
	if c.Redis.Addr == "" {
		// REDIS_HOST/REDIS_PORT の組み合わせも受け付ける
		if host, ok := lookupNonEmpty("REDIS_HOST"); ok {
			port, ok := lookupNonEmpty("REDIS_PORT")
			if !ok {
				port = "6379"
			}
			c.Redis.Addr = host + ":" + port
		}
	}
	r.str("REDIS_PASSWORD", &c.Redis.Password)
	r.duration("REDIS_TTL", &c.Redis.TTL)

	r.str("HTTP_ADDR", &c.Server.Addr)
	r.str("MONITOR_JWT_SECRET", &c.Server.JWTSecret)
	r.str("LOG_LEVEL", &c.Server.LogLevel)

	c.Upstream.Variant = strings.ToLower(c.Upstream.Variant)
	c.Store.Backend = strings.ToLower(c.Store.Backend)
	c.Server.LogLevel = strings.ToLower(c.Server.LogLevel)

	return errors.Join(r.errs...)
}

// Validate checks field constraints and cross-field requirements.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.ActualTag()))
		}
		return errors.New(strings.Join(msgs, "; "))
	}

	switch c.Store.Backend {
	case BackendPostgres, BackendSQLite:
		if c.Store.DSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for store backend %q", c.Store.Backend)
		}
	}
	return nil
}
