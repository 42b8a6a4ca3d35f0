package di

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"quality_watchdog/internal/config"
	"quality_watchdog/internal/feature/quality/usecase"
	"quality_watchdog/internal/platform/cache"
	healthhandler "quality_watchdog/internal/platform/http/handler"
	infraredis "quality_watchdog/internal/platform/redis"
)

// NewCache connects Redis when REDIS_ADDR is set.
// A connection failure is logged and the application runs without a cache.
func NewCache(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	rdb, err := infraredis.NewRedisClient(ctx, cfg.Addr, cfg.Password)
	if err != nil {
		slog.Warn("Redis unavailable. Running without cache.", "error", err)
		return nil
	}
	return rdb
}

// WrapStore decorates s with the Redis cache. A nil client returns s unchanged.
func WrapStore(rdb *redis.Client, cfg config.RedisConfig, s Store) Store {
	if rdb == nil {
		return s
	}
	return &cachedStore{
		CachingSummaryRepository: cache.NewCachingSummaryRepository(rdb, cfg.TTL, s, "quality"),
		DemoRepository:           s,
	}
}

// cachedStore routes summary reads and writes through the cache.
// Demo maintenance goes straight to the store.
type cachedStore struct {
	*cache.CachingSummaryRepository
	usecase.DemoRepository
}

func cacheCheck(rdb *redis.Client) healthhandler.Check {
	return healthhandler.Check{Name: "cache", Ping: func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}}
}
