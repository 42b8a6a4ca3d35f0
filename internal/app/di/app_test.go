package di

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quality_watchdog/internal/config"
	"quality_watchdog/internal/feature/quality/adapters/store"
	"quality_watchdog/internal/feature/quality/domain"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Upstream.URL = "https://api.example.com/query"
	cfg.Alert = config.AlertConfig{From: "watchdog@example.com", To: "oncall@example.com", SendGridAPIKey: "SG.test"}
	return &cfg
}

func TestNewUpstream(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		variant     string
		rate        int
		wantVariant string
		wantErr     bool
	}{
		{"default variant", "timeseries", 0, "timeseries", false},
		{"nested data with pacing", "nested-data", 30, "nested-data", false},
		{"unknown variant", "xml", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig().Upstream
			cfg.Variant = tt.variant
			cfg.RatePerMinute = tt.rate

			fetcher, decoder, err := NewUpstream(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, fetcher)
			assert.Equal(t, tt.wantVariant, decoder.Variant())
		})
	}
}

func TestNewApp_StoreDisabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Store.Backend = config.BackendNone

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = app.Close(context.Background()) }()

	assert.IsType(t, store.DisabledStore{}, app.Store)
	assert.Empty(t, app.Checks)

	_, err = app.History.Recent(context.Background(), 10)
	assert.True(t, errors.Is(err, domain.ErrStoreDisabled))
}

func TestNewApp_MongoWithoutURIIsDisabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Store.Backend = config.BackendMongo
	cfg.Store.MongoURI = ""

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, store.DisabledStore{}, app.Store)
}

func TestNewApp_UnreachableMongoDegrades(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Store.Backend = config.BackendMongo
	// 接続できないポート
	cfg.Store.MongoURI = "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200"

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = app.Close(context.Background()) }()

	assert.IsType(t, store.DisabledStore{}, app.Store)
	require.NotNil(t, app.Monitor)

	require.Len(t, app.Checks, 1)
	assert.Equal(t, "store", app.Checks[0].Name)
	assert.ErrorContains(t, app.Checks[0].Ping(context.Background()), "store unavailable")

	_, err = app.History.Recent(context.Background(), 10)
	assert.True(t, errors.Is(err, domain.ErrStoreDisabled))
}

func TestNewStore_BrokenSQLDegrades(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Store.Backend = config.BackendPostgres
	cfg.Store.DSN = "postgres://watchdog@localhost:notaport/metrics"

	sh, err := NewStore(context.Background(), cfg)
	require.NoError(t, err)

	assert.False(t, sh.Enabled)
	assert.IsType(t, store.DisabledStore{}, sh.Store)
	require.NotNil(t, sh.Check)
	assert.Error(t, sh.Check.Ping(context.Background()))
	assert.NoError(t, sh.Close(context.Background()))
}

func TestNewApp_SQLite(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Store.Backend = config.BackendSQLite
	cfg.Store.DSN = filepath.Join(t.TempDir(), "watchdog.db")

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = app.Close(context.Background()) }()

	require.Len(t, app.Checks, 1)
	assert.Equal(t, "store", app.Checks[0].Name)
	assert.NoError(t, app.Checks[0].Ping(context.Background()))

	_, ok, err := app.Store.LatestHash(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	docs, err := app.History.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestNewApp_InvalidVariant(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Upstream.Variant = "xml"

	_, err := NewApp(context.Background(), cfg)
	assert.Error(t, err)
}

func TestWrapStore_NilClient(t *testing.T) {
	t.Parallel()

	s := store.DisabledStore{}
	assert.Equal(t, Store(s), WrapStore(nil, config.RedisConfig{}, s))
}
