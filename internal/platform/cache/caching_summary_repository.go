// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"quality_watchdog/internal/feature/quality/domain/entity"
	"quality_watchdog/internal/feature/quality/usecase"
)

// SummaryRepository is the store surface the cache decorates.
type SummaryRepository interface {
	usecase.SummaryRepository
	usecase.HistoryReader
}

// CachingSummaryRepository decorates a SummaryRepository with Redis caching.
// LatestHash is written through on Save; cached history pages are invalidated.
type CachingSummaryRepository struct {
	inner     SummaryRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// SummaryRepository を実装していることをコンパイル時に検証します。
var _ SummaryRepository = (*CachingSummaryRepository)(nil)

// NewCachingSummaryRepository decorates a SummaryRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "quality".
func NewCachingSummaryRepository(rdb *redis.Client, ttl time.Duration, inner SummaryRepository, namespace string) *CachingSummaryRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "quality"
	}
	return &CachingSummaryRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Save persists doc, then refreshes the cached hash and drops cached history.
func (c *CachingSummaryRepository) Save(ctx context.Context, doc entity.StoredDocument) error {
	if err := c.inner.Save(ctx, doc); err != nil {
		return err
	}
	if c.rdb == nil {
		return nil
	}

	// best effort: 失敗してもDBは更新済み
	if err := c.rdb.Set(ctx, c.hashKey(), doc.ContentHash, c.ttl).Err(); err != nil {
		slog.Warn("cache write failed", "key", c.hashKey(), "error", err)
		_ = c.rdb.Del(ctx, c.hashKey()).Err()
	}
	if err := c.deleteByPattern(ctx, c.recentPrefix()+"*"); err != nil {
		slog.Warn("cache invalidation failed", "pattern", c.recentPrefix()+"*", "error", err)
	}
	return nil
}

// LatestHash returns the cached digest, falling back to the store on a miss.
func (c *CachingSummaryRepository) LatestHash(ctx context.Context) (string, bool, error) {
	if c.rdb == nil {
		return c.inner.LatestHash(ctx)
	}

	key := c.hashKey()
	hash, err := c.rdb.Get(ctx, key).Result()
	if err == nil && hash != "" {
		return hash, true, nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		slog.Debug("cache read failed", "key", key, "error", err)
	}

	hash, ok, err := c.inner.LatestHash(ctx)
	if err != nil || !ok {
		return hash, ok, err
	}
	_ = c.rdb.Set(ctx, key, hash, c.ttl).Err()
	return hash, true, nil
}

// Recent returns a cached history page, falling back to the store on a miss.
func (c *CachingSummaryRepository) Recent(ctx context.Context, limit int) ([]entity.StoredDocument, error) {
	if c.rdb == nil {
		return c.inner.Recent(ctx, limit)
	}

	key := c.recentKey(limit)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.StoredDocument
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to the store
	out, err := c.inner.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

func (c *CachingSummaryRepository) hashKey() string {
	return c.namespace + ":latest_hash"
}

func (c *CachingSummaryRepository) recentPrefix() string {
	return c.namespace + ":recent:"
}

func (c *CachingSummaryRepository) recentKey(limit int) string {
	return fmt.Sprintf("%s%d", c.recentPrefix(), limit)
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingSummaryRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}
