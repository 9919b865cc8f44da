package cache

import (
	"context"
	"time"

	"github.com/LavishGent/billboard/internal/types"
)

// DisabledMemoryCache stands in for the memory layer when the cache level excludes it.
type DisabledMemoryCache struct{}

func NewDisabledMemoryCache() *DisabledMemoryCache {
	return &DisabledMemoryCache{}
}

func (c *DisabledMemoryCache) Name() string                    { return "memory-disabled" }
func (c *DisabledMemoryCache) IsAvailable() bool               { return false }
func (c *DisabledMemoryCache) Close() error                    { return nil }
func (c *DisabledMemoryCache) EntryCount() int                 { return 0 }
func (c *DisabledMemoryCache) HitRatio() float64               { return 0 }
func (c *DisabledMemoryCache) Stats() types.MemoryCacheStats   { return types.MemoryCacheStats{} }
func (c *DisabledMemoryCache) Clear(ctx context.Context) error { return nil }

// Get always misses.
func (c *DisabledMemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, types.ErrCacheMiss
}

func (c *DisabledMemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (c *DisabledMemoryCache) Delete(ctx context.Context, key string) error {
	return nil
}

// DisabledRedisCache stands in for the Redis layer when the cache level excludes it.
type DisabledRedisCache struct{}

func NewDisabledRedisCache() *DisabledRedisCache {
	return &DisabledRedisCache{}
}

func (c *DisabledRedisCache) Name() string                    { return "redis-disabled" }
func (c *DisabledRedisCache) IsAvailable() bool               { return false }
func (c *DisabledRedisCache) Close() error                    { return nil }
func (c *DisabledRedisCache) Clear(ctx context.Context) error { return nil }

// Get returns ErrRedisUnavailable as this cache is disabled.
func (c *DisabledRedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, types.ErrRedisUnavailable
}

func (c *DisabledRedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (c *DisabledRedisCache) Delete(ctx context.Context, key string) error {
	return nil
}

var (
	_ types.MemoryCacheLayer = (*DisabledMemoryCache)(nil)
	_ types.CacheLayer       = (*DisabledRedisCache)(nil)
)
