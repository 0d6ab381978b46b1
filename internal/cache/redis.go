package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisEnvelope keeps the insertion time next to the body so staleness is
// judged by the injected clock rather than only by the server-side expiry.
type redisEnvelope struct {
	Value    []byte    `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// RedisCache stores entries in Redis under "<name>:<url>".
type RedisCache struct {
	rdb  redis.Cmdable
	opts Options
}

// NewRedisCache creates a cache on top of an existing Redis client.
func NewRedisCache(rdb redis.Cmdable, opts ...Option) *RedisCache {
	return &RedisCache{rdb: rdb, opts: buildOptions(opts)}
}

// Name implements ResponseCache.
func (c *RedisCache) Name() string { return "redis" }

func (c *RedisCache) key(url string) string {
	return c.opts.Name + ":" + url
}

// Get implements ResponseCache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cache entry from redis: %w", err)
	}

	var env redisEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	if c.opts.Now().Sub(env.StoredAt) >= c.opts.TTL {
		return nil, false, nil
	}
	return env.Value, true, nil
}

// Put implements ResponseCache. The key expires server-side after the window.
func (c *RedisCache) Put(ctx context.Context, key string, value []byte) error {
	raw, err := json.Marshal(redisEnvelope{Value: value, StoredAt: c.opts.Now()})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key(key), raw, c.opts.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set cache entry in redis: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
