package di

import (
	"context"
	"fmt"
	"log/slog"

	"quality_watchdog/internal/config"
	"quality_watchdog/internal/feature/quality/adapters/store"
	"quality_watchdog/internal/feature/quality/usecase"
	"quality_watchdog/internal/platform/db"
	healthhandler "quality_watchdog/internal/platform/http/handler"
	platformmongo "quality_watchdog/internal/platform/mongo"
)

// Store is the full persistence surface used by the application.
type Store interface {
	usecase.SummaryRepository
	usecase.HistoryReader
	usecase.DemoRepository
}

// StoreHandle bundles a Store with its health check and shutdown hook.
// Check is nil for a store that is not configured.
type StoreHandle struct {
	Store   Store
	Check   *healthhandler.Check
	Close   func(ctx context.Context) error
	Enabled bool // false when results are not persisted
}

func noopClose(context.Context) error { return nil }

// unavailable は接続できなかったストアの代わりに DisabledStore を返します。
// ヘルスチェックは接続エラーを報告し続けるため /healthz は degraded になります。
func unavailable(backend string, err error) *StoreHandle {
	slog.Warn("store unavailable; results will not be persisted", "backend", backend, "error", err)
	cause := fmt.Errorf("store unavailable: %w", err)
	return &StoreHandle{
		Store: store.DisabledStore{},
		Check: &healthhandler.Check{Name: "store", Ping: func(context.Context) error { return cause }},
		Close: noopClose,
	}
}

// NewStore connects the configured backend.
// A missing MONGODB_URI or STORE_BACKEND=none yields store.DisabledStore.
// A backend that cannot be reached also yields store.DisabledStore, with a
// failing health check, so the pipeline keeps validating and alerting.
func NewStore(ctx context.Context, cfg *config.Config) (*StoreHandle, error) {
	if !cfg.StoreEnabled() {
		slog.Warn("store not configured; results will not be persisted", "backend", cfg.Store.Backend)
		return &StoreHandle{Store: store.DisabledStore{}, Close: noopClose}, nil
	}

	switch cfg.Store.Backend {
	case config.BackendMongo:
		mcfg := platformmongo.Config{
			URI:        cfg.Store.MongoURI,
			Database:   cfg.Store.MongoDB,
			Collection: cfg.Store.MongoCollection,
		}
		client, err := platformmongo.Connect(ctx, mcfg)
		if err != nil {
			return unavailable(cfg.Store.Backend, err), nil
		}
		coll := platformmongo.Collection(ctx, client, mcfg)
		return &StoreHandle{
			Store: store.NewMongoStore(coll),
			Check: &healthhandler.Check{Name: "store", Ping: func(ctx context.Context) error {
				return client.Ping(ctx, nil)
			}},
			Close:   client.Disconnect,
			Enabled: true,
		}, nil

	case config.BackendPostgres, config.BackendSQLite:
		gdb, err := db.OpenDB(db.Config{
			Backend:       cfg.Store.Backend,
			DSN:           cfg.Store.DSN,
			RunMigrations: cfg.Store.RunMigrations,
		})
		if err != nil {
			return unavailable(cfg.Store.Backend, err), nil
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return unavailable(cfg.Store.Backend, fmt.Errorf("sql handle: %w", err)), nil
		}
		return &StoreHandle{
			Store:   store.NewGormStore(gdb),
			Check:   &healthhandler.Check{Name: "store", Ping: sqlDB.PingContext},
			Close:   func(context.Context) error { return sqlDB.Close() },
			Enabled: true,
		}, nil
	}
	return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
}
