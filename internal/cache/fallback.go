// Package cache implements the advertisement cache: a bigcache memory layer,
// an optional Redis layer, and FallbackCache composing them by cache level.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/LavishGent/billboard/internal/config"
	"github.com/LavishGent/billboard/internal/resilience"
	"github.com/LavishGent/billboard/internal/types"
)

// FallbackOptions carries optional collaborators for NewFallbackCache.
type FallbackOptions struct {
	Logger     *slog.Logger
	Metrics    types.MetricsRecorder
	Serializer types.Serializer
	Clock      types.Clock
}

// ttlReporter is implemented by layers that can report how long a key has left.
type ttlReporter interface {
	RemainingTTL(ctx context.Context, key string) (time.Duration, error)
}

// FallbackCache stores advertisements under Namespace+id in the layers
// selected by the cache level. Reads try memory first, then Redis; a Redis
// hit is copied into memory for its remaining lifetime. Absent results are
// never stored.
type FallbackCache struct {
	memory     types.MemoryCacheLayer
	redis      types.CacheLayer
	breaker    resilience.CircuitBreakerExecutor
	serializer types.Serializer
	metrics    types.MetricsRecorder
	logger     *slog.Logger
	namespace  string
	ttl        time.Duration
	level      types.CacheLevel
	closed     atomic.Bool
}

// NewFallbackCache builds the layers named by cfg.Cache.Level.
func NewFallbackCache(cfg *config.Config, opts FallbackOptions) (*FallbackCache, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := types.ParseCacheLevel(cfg.Cache.Level)

	var memory types.MemoryCacheLayer = NewDisabledMemoryCache()
	if level.IncludesMemory() {
		mc, err := NewMemoryCache(cfg.Memory, cfg.Cache.TTL, logger)
		if err != nil {
			return nil, fmt.Errorf("create memory cache: %w", err)
		}
		if opts.Clock != nil {
			mc.now = opts.Clock
		}
		memory = mc
	}

	var redisLayer types.CacheLayer = NewDisabledRedisCache()
	if level.IncludesRedis() {
		rc, err := NewRedisCache(cfg.Redis, cfg.Cache.TTL, logger)
		if err != nil {
			_ = memory.Close()
			return nil, fmt.Errorf("create redis cache: %w", err)
		}
		redisLayer = rc
	}

	return NewFallbackCacheWithLayers(cfg.Cache, memory, redisLayer,
		resilience.NewBreaker("redis", cfg.CircuitBreaker), opts), nil
}

// NewFallbackCacheWithLayers composes already-built layers. A nil layer is replaced by its disabled variant.
func NewFallbackCacheWithLayers(
	cfg config.CacheConfig,
	memory types.MemoryCacheLayer,
	redisLayer types.CacheLayer,
	breaker resilience.CircuitBreakerExecutor,
	opts FallbackOptions,
) *FallbackCache {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if memory == nil {
		memory = NewDisabledMemoryCache()
	}
	if redisLayer == nil {
		redisLayer = NewDisabledRedisCache()
	}
	if breaker == nil {
		breaker = resilience.NewDisabledCircuitBreaker()
	}
	serializer := opts.Serializer
	if serializer == nil {
		serializer = NewJSONSerializer()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = config.DefaultCacheTTL
	}

	c := &FallbackCache{
		memory:     memory,
		redis:      redisLayer,
		breaker:    breaker,
		serializer: serializer,
		metrics:    opts.Metrics,
		logger:     logger.With("component", "fallback-cache"),
		namespace:  cfg.Namespace,
		ttl:        ttl,
		level:      types.ParseCacheLevel(cfg.Level),
	}

	breaker.SetOnStateChange(func(from, to resilience.State) {
		c.logger.Info("Circuit breaker state changed",
			"from", from.String(),
			"to", to.String(),
		)
		if c.metrics != nil {
			c.metrics.RecordCircuitBreakerStateChange(from.String(), to.String())
		}
	})

	return c
}

// Key derives the cache key for an advertisement id.
func (c *FallbackCache) Key(id string) string {
	return c.namespace + id
}

// TTL returns the lifetime applied when Put is called with ttl <= 0.
func (c *FallbackCache) TTL() time.Duration {
	return c.ttl
}

func (c *FallbackCache) Level() types.CacheLevel {
	return c.level
}

// Get returns the cached advertisement for id. Layer errors are logged and
// reported as a miss.
func (c *FallbackCache) Get(ctx context.Context, id string) (*types.Advertisement, bool) {
	if c.closed.Load() {
		return nil, false
	}
	key := c.Key(id)

	if c.level.IncludesMemory() {
		data, err := c.memory.Get(ctx, key)
		switch {
		case err == nil:
			if adv, ok := c.decode(ctx, key, data); ok {
				return adv, true
			}
		case !types.IsCacheMiss(err):
			c.recordError("memory", "get", key, err)
		}
	}

	if !c.level.IncludesRedis() {
		return nil, false
	}

	data, err := c.getFromRedis(ctx, key)
	if err != nil {
		if !types.IsCacheMiss(err) {
			c.recordError("redis", "get", key, err)
		}
		return nil, false
	}

	adv, ok := c.decode(ctx, key, data)
	if !ok {
		return nil, false
	}

	if c.level.IncludesMemory() {
		c.promote(ctx, key, data)
	}
	return adv, true
}

// Put stores adv under id for ttl, or the default TTL when ttl <= 0. A nil
// advertisement is ignored. Every enabled layer is written; their errors are
// joined.
func (c *FallbackCache) Put(ctx context.Context, id string, adv *types.Advertisement, ttl time.Duration) error {
	if c.closed.Load() {
		return types.ErrClosed
	}
	if adv == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	key := c.Key(id)
	data, err := c.serializer.Marshal(adv)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrSerializationFailed, err)
	}

	var errs []error
	if c.level.IncludesMemory() {
		if err := c.memory.Set(ctx, key, data, ttl); err != nil {
			c.recordError("memory", "set", key, err)
			errs = append(errs, err)
		}
	}
	if c.level.IncludesRedis() {
		if err := c.setToRedis(ctx, key, data, ttl); err != nil {
			c.recordError("redis", "set", key, err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Delete removes id from every enabled layer.
func (c *FallbackCache) Delete(ctx context.Context, id string) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	key := c.Key(id)
	var errs []error
	if c.level.IncludesMemory() {
		if err := c.memory.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if c.level.IncludesRedis() {
		if _, err := c.redisCall(func() (any, error) {
			return nil, c.redis.Delete(ctx, key)
		}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear empties every enabled layer.
func (c *FallbackCache) Clear(ctx context.Context) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	var errs []error
	if c.level.IncludesMemory() {
		if err := c.memory.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if c.level.IncludesRedis() {
		if err := c.redis.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Health summarizes the cache layers.
func (c *FallbackCache) Health() types.CacheHealthMetrics {
	return types.CacheHealthMetrics{
		Level:               c.level.String(),
		CircuitBreakerState: c.breaker.State().String(),
		EntryCount:          c.memory.EntryCount(),
		HitRatio:            c.memory.HitRatio(),
		MemoryAvailable:     c.memory.IsAvailable(),
		RedisAvailable:      c.IsRedisAvailable(),
	}
}

// MemoryStats returns the memory layer counters.
func (c *FallbackCache) MemoryStats() types.MemoryCacheStats {
	return c.memory.Stats()
}

// IsRedisAvailable reports whether Redis is connected and its breaker is not open.
func (c *FallbackCache) IsRedisAvailable() bool {
	return c.redis.IsAvailable() && !c.breaker.IsOpen()
}

// IsCircuitOpen reports whether the breaker guarding Redis is open.
func (c *FallbackCache) IsCircuitOpen() bool {
	return c.breaker.IsOpen()
}

// Close releases both layers. Later calls are no-ops.
func (c *FallbackCache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return errors.Join(c.memory.Close(), c.redis.Close())
}

func (c *FallbackCache) getFromRedis(ctx context.Context, key string) ([]byte, error) {
	result, err := c.redisCall(func() (any, error) {
		return c.redis.Get(ctx, key)
	})
	if err != nil {
		return nil, err
	}

	data, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type: %T", result)
	}
	return data, nil
}

func (c *FallbackCache) setToRedis(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	_, err := c.redisCall(func() (any, error) {
		return nil, c.redis.Set(ctx, key, data, ttl)
	})
	return err
}

// redisCall runs fn through the breaker. Cache misses do not count as failures.
func (c *FallbackCache) redisCall(fn func() (any, error)) (any, error) {
	if !c.redis.IsAvailable() {
		return nil, types.ErrRedisUnavailable
	}
	return c.breaker.Execute(fn, isRedisFailure)
}

func isRedisFailure(err error) bool {
	return !types.IsCacheMiss(err)
}

// promote copies a Redis hit into memory for the key's remaining lifetime.
// Nothing is copied when that lifetime cannot be determined.
func (c *FallbackCache) promote(ctx context.Context, key string, data []byte) {
	reporter, ok := c.redis.(ttlReporter)
	if !ok {
		return
	}
	remaining, err := reporter.RemainingTTL(ctx, key)
	if err != nil || remaining <= 0 {
		return
	}
	if err := c.memory.Set(ctx, key, data, remaining); err != nil {
		c.logger.Debug("Failed to populate memory from Redis", "key", key, "error", err)
	}
}

func (c *FallbackCache) decode(ctx context.Context, key string, data []byte) (*types.Advertisement, bool) {
	var adv types.Advertisement
	if err := c.serializer.Unmarshal(data, &adv); err != nil {
		c.recordError("cache", "decode", key, fmt.Errorf("%w: %w", types.ErrSerializationFailed, err))
		_ = c.memory.Delete(ctx, key)
		return nil, false
	}
	return &adv, true
}

func (c *FallbackCache) recordError(layer, op, key string, err error) {
	c.logger.Debug("Cache operation failed", "layer", layer, "operation", op, "key", key, "error", err)
	if c.metrics != nil {
		c.metrics.RecordCacheError(layer, op, err)
	}
}

var _ types.AdvertisementCache = (*FallbackCache)(nil)
