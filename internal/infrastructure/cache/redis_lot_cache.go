package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fulfillment/backend/internal/domain/catalog"
)

// RedisLotCache caches lot resolutions in Redis in front of another
// resolver. This is suitable for distributed deployments where multiple
// instances should share resolved lots. Only successful resolutions are
// cached; cache read failures fall through to the inner resolver so Redis
// outages degrade to uncached lookups instead of failing uploads.
type RedisLotCache struct {
	inner     catalog.LotResolver
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisLotCache creates a new Redis-backed lot cache
func NewRedisLotCache(inner catalog.LotResolver, cfg RedisConfig, ttl time.Duration) (*RedisLotCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisLotCacheWithClient(inner, client, ttl, ""), nil
}

// NewRedisLotCacheWithClient creates a cache with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisLotCacheWithClient(inner catalog.LotResolver, client *redis.Client, ttl time.Duration, keyPrefix string) *RedisLotCache {
	if keyPrefix == "" {
		keyPrefix = "catalog:lot:"
	}
	return &RedisLotCache{
		inner:     inner,
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
	}
}

// Resolve implements catalog.LotResolver
func (c *RedisLotCache) Resolve(ctx context.Context, baseCode string) (string, bool, error) {
	key := c.keyPrefix + baseCode

	cached, err := c.client.Get(ctx, key).Result()
	if err == nil {
		return cached, true, nil
	}
	if ctx.Err() != nil {
		return "", false, ctx.Err()
	}

	lot, ok, err := c.inner.Resolve(ctx, baseCode)
	if err != nil || !ok {
		return lot, ok, err
	}

	// Best effort write: a failed SET only costs a repeat lookup
	c.client.Set(ctx, key, lot, c.ttl)

	return lot, true, nil
}

// Invalidate drops the cached resolution for a base code
func (c *RedisLotCache) Invalidate(ctx context.Context, baseCode string) error {
	return c.client.Del(ctx, c.keyPrefix+baseCode).Err()
}

// Close closes the Redis client
func (c *RedisLotCache) Close() error {
	return c.client.Close()
}

// Ensure RedisLotCache implements LotResolver
var _ catalog.LotResolver = (*RedisLotCache)(nil)
