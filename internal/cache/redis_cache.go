// File: internal/cache/redis_cache.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const scanBatch = 100

// Logger is the logging surface the cache needs.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// RedisCache stores JSON snapshots of read projections in redis.
type RedisCache struct {
	rdb    goredis.UniversalClient
	logger Logger
}

func NewRedisCache(rdb goredis.UniversalClient, logger Logger) *RedisCache {
	return &RedisCache{rdb: rdb, logger: logger}
}

// NewClient builds a redis client from a redis:// URL. It does not dial.
func NewClient(redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	return goredis.NewClient(opts), nil
}

// SetJSON serializes value and stores it under key with the given ttl.
func (c *RedisCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return newCacheError("set", key, err)
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.logger.Error("redis cache set failed", "key", key, "error", err)
		return newCacheError("set", key, err)
	}
	c.logger.Debug("redis cache set", "key", key, "ttl", ttl)
	return nil
}

// GetJSON decodes the value under key into dst. A missing key yields ErrMiss.
func (c *RedisCache) GetJSON(ctx context.Context, key string, dst interface{}) error {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return newCacheError("get", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return newCacheError("decode", key, err)
	}
	return nil
}

// Invalidate deletes every key matching pattern and returns how many were
// removed. No match is not an error.
func (c *RedisCache) Invalidate(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			c.logger.Error("redis cache scan failed", "pattern", pattern, "error", err)
			return deleted, newCacheError("invalidate", pattern, err)
		}
		if len(keys) > 0 {
			n, err := c.rdb.Del(ctx, keys...).Result()
			if err != nil {
				c.logger.Error("redis cache delete failed", "pattern", pattern, "error", err)
				return deleted, newCacheError("invalidate", pattern, err)
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if deleted == 0 {
		c.logger.Debug("no keys matched pattern", "pattern", pattern)
	} else {
		c.logger.Debug("deleted keys matching pattern", "pattern", pattern, "count", deleted)
	}
	return deleted, nil
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
