package db

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"quality_watchdog/internal/feature/quality/adapters/store"
)

// Config holds the relational store settings.
type Config struct {
	Backend        string        // "postgres" or "sqlite"
	DSN            string        // driver specific connection string
	ConnectTimeout time.Duration // 0 means 60s
	RunMigrations  bool
}

// Opener opens a gorm connection for a DSN.
type Opener func(dsn string) (*gorm.DB, error)

// retryInterval is the pause between connection attempts.
var retryInterval = 3 * time.Second

var gormConfig = &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

// OpenerFor returns the Opener for backend after validating dsn.
func OpenerFor(backend, dsn string) (Opener, error) {
	switch strings.ToLower(backend) {
	case "postgres":
		// 接続前にDSNの形式を検証する
		if _, err := pgx.ParseConfig(dsn); err != nil {
			return nil, fmt.Errorf("invalid postgres dsn: %w", err)
		}
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), gormConfig)
		}, nil
	case "sqlite":
		if dsn == "" {
			return nil, errors.New("sqlite dsn is empty")
		}
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(sqlite.Open(dsn), gormConfig)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported sql backend %q", backend)
	}
}

// ConnectWithRetry opens dsn, retrying every few seconds until timeout elapses.
func ConnectWithRetry(dsn string, timeout time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err)
		time.Sleep(retryInterval)
	}
}

// Migrate creates or updates the summary table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&store.SummaryModel{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// OpenDB connects to the configured relational store and optionally migrates it.
func OpenDB(cfg Config) (*gorm.DB, error) {
	opener, err := OpenerFor(cfg.Backend, cfg.DSN)
	if err != nil {
		return nil, err
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	db, err := ConnectWithRetry(cfg.DSN, timeout, opener)
	if err != nil {
		return nil, err
	}

	// sqlite は常にマイグレーションする（ローカル用途のため）
	if cfg.RunMigrations || strings.EqualFold(cfg.Backend, "sqlite") {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}
