package holidays

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/oirs-service/internal/config"
)

const cacheKeyPrefix = "oirs:holidays:"

// RedisCache stores fetched holiday lists as JSON strings.
type RedisCache struct {
	client redis.Cmdable
	closer func() error
}

// DialRedisCache connects to Redis. It returns nil when no address is
// configured, which leaves the resolver without a cache.
func DialRedisCache(cfg config.RedisConfig, logger *zap.Logger) *RedisCache {
	if cfg.Addr == "" {
		logger.Info("REDIS_ADDR not provided; holiday cache disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis; holiday lookups will skip the cache until it recovers", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	c := NewRedisCache(client)
	c.closer = client.Close
	return c
}

// NewRedisCache wraps an existing go-redis client.
func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var days []string
	if err := json.Unmarshal(raw, &days); err != nil {
		return nil, false, err
	}
	return days, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, days []string, ttl time.Duration) error {
	raw, err := json.Marshal(days)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKeyPrefix+key, raw, ttl).Err()
}

// Ping reports whether Redis answers; used by readiness probes.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool opened by DialRedisCache.
func (c *RedisCache) Close() {
	if c != nil && c.closer != nil {
		_ = c.closer()
	}
}
