// Package cache provides TTL caches in front of the lot resolver. Cached
// lots must expire within the reconciliation interval; the TTL bound is
// enforced at configuration load.
package cache

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/fulfillment/backend/internal/domain/catalog"
	"github.com/fulfillment/backend/internal/infrastructure/config"
)

// LotCache is a lot resolver backed by an evictable store
type LotCache interface {
	catalog.LotResolver
	io.Closer
}

// LotCacheFactory creates lot caches based on configuration
type LotCacheFactory struct {
	cacheConfig         config.CacheConfig
	redisConfig         config.RedisConfig
	logger              *zap.Logger
	allowMemoryFallback bool
}

// LotCacheFactoryOption is a functional option for configuring the factory
type LotCacheFactoryOption func(*LotCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) LotCacheFactoryOption {
	return func(f *LotCacheFactory) {
		f.logger = logger
	}
}

// WithMemoryFallback controls whether to fall back to the in-memory cache
// when Redis is unavailable. Default is true (allow fallback).
func WithMemoryFallback(allow bool) LotCacheFactoryOption {
	return func(f *LotCacheFactory) {
		f.allowMemoryFallback = allow
	}
}

// NewLotCacheFactory creates a new factory
func NewLotCacheFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...LotCacheFactoryOption) *LotCacheFactory {
	f := &LotCacheFactory{
		cacheConfig:         cacheCfg,
		redisConfig:         redisCfg,
		logger:              zap.NewNop(),
		allowMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Create creates a lot cache around the inner resolver based on the
// configured backend. A Redis backend falls back to the in-memory cache when
// Redis is unreachable and fallback is allowed.
func (f *LotCacheFactory) Create(inner catalog.LotResolver) (LotCache, error) {
	switch f.cacheConfig.Backend {
	case "redis":
		cache, err := NewRedisLotCache(inner, RedisConfig{
			Host:     f.redisConfig.Host,
			Port:     f.redisConfig.Port,
			Password: f.redisConfig.Password,
			DB:       f.redisConfig.DB,
		}, f.cacheConfig.LotTTL)
		if err == nil {
			f.logger.Info("using Redis lot cache")
			return cache, nil
		}

		if !f.allowMemoryFallback {
			return nil, fmt.Errorf("Redis required for lot cache but unavailable: %w", err)
		}

		f.logger.Warn("Redis unavailable, falling back to in-memory lot cache. "+
			"Lot resolutions will not be shared across instances.",
			zap.Error(err),
		)
		return NewMemoryLotCache(inner, f.cacheConfig.LotTTL), nil
	case "memory", "":
		f.logger.Info("using in-memory lot cache")
		return NewMemoryLotCache(inner, f.cacheConfig.LotTTL), nil
	default:
		return nil, fmt.Errorf("unknown lot cache backend: %q", f.cacheConfig.Backend)
	}
}
