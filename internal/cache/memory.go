package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/allegro/bigcache/v3"

	"github.com/LavishGent/billboard/internal/config"
	"github.com/LavishGent/billboard/internal/types"
)

// expiryHeaderSize is the length of the big-endian unix-nano expiry stored
// ahead of every value.
const expiryHeaderSize = 8

var errCorruptEntry = errors.New("memory entry shorter than expiry header")

// MemoryCache implements an in-memory cache layer using BigCache.
// BigCache only knows one global life window, so each value is stored with its
// own absolute expiry and checked on read.
type MemoryCache struct {
	cache      *bigcache.BigCache
	config     config.MemoryConfig
	logger     *slog.Logger
	now        func() time.Time
	defaultTTL time.Duration

	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	deletes   atomic.Int64
	evictions atomic.Int64
	expired   atomic.Int64

	closed atomic.Bool
}

// NewMemoryCache creates a new memory cache. defaultTTL applies to Set calls
// with a non-positive ttl and bounds BigCache's own life window.
func NewMemoryCache(cfg config.MemoryConfig, defaultTTL time.Duration, logger *slog.Logger) (*MemoryCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultTTL <= 0 {
		defaultTTL = config.DefaultCacheTTL
	}

	mc := &MemoryCache{
		config:     cfg,
		logger:     logger.With("component", "memory-cache"),
		now:        time.Now,
		defaultTTL: defaultTTL,
	}

	hardMax := 0
	if cfg.HardMaxCacheSize {
		hardMax = cfg.MaxSizeMB
	}

	bcConfig := bigcache.Config{
		Shards:             cfg.Shards,
		LifeWindow:         defaultTTL,
		CleanWindow:        cfg.CleanupInterval,
		MaxEntriesInWindow: 1000 * 10 * 60,
		MaxEntrySize:       cfg.MaxEntrySize,
		HardMaxCacheSize:   hardMax,
		Verbose:            false,
		Logger:             &bigcacheLogger{logger: mc.logger},
		OnRemoveWithReason: func(key string, entry []byte, reason bigcache.RemoveReason) {
			if reason == bigcache.NoSpace || reason == bigcache.Expired {
				mc.evictions.Add(1)
			}
		},
	}

	bc, err := bigcache.New(context.Background(), bcConfig)
	if err != nil {
		return nil, err
	}

	mc.cache = bc
	return mc, nil
}

// Name returns the cache layer name.
func (c *MemoryCache) Name() string {
	return "memory"
}

// IsAvailable returns true if the cache is not closed.
func (c *MemoryCache) IsAvailable() bool {
	return !c.closed.Load()
}

// Get returns the stored value, or ErrCacheMiss when it is absent or past its expiry.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, types.ErrClosed
	}

	data, err := c.cache.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			c.misses.Add(1)
			return nil, types.ErrCacheMiss
		}
		return nil, types.NewCacheError("Get", key, "memory", err)
	}

	entry, err := decodeEntry(key, data)
	if err != nil {
		_ = c.cache.Delete(key)
		return nil, types.NewCacheError("Get", key, "memory", err)
	}

	if entry.IsExpired(c.now()) {
		_ = c.cache.Delete(key)
		c.expired.Add(1)
		c.misses.Add(1)
		return nil, types.ErrCacheMiss
	}

	c.hits.Add(1)
	return entry.Value, nil
}

// Set stores a value that expires ttl from now.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return types.ErrClosed
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	if err := c.cache.Set(key, encodeEntry(c.now().Add(ttl), value)); err != nil {
		return types.NewCacheError("Set", key, "memory", err)
	}

	c.sets.Add(1)
	return nil
}

// Delete removes a value from the memory cache.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	if err := c.cache.Delete(key); err != nil {
		if !errors.Is(err, bigcache.ErrEntryNotFound) {
			return types.NewCacheError("Delete", key, "memory", err)
		}
	}

	c.deletes.Add(1)
	return nil
}

// Clear removes all entries from the memory cache.
func (c *MemoryCache) Clear(ctx context.Context) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	return c.cache.Reset()
}

// Close closes the memory cache and releases resources.
func (c *MemoryCache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.cache.Close()
}

// Stats returns memory cache statistics.
func (c *MemoryCache) Stats() types.MemoryCacheStats {
	return types.MemoryCacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Sets:      c.sets.Load(),
		Deletes:   c.deletes.Load(),
		Evictions: c.evictions.Load(),
		Expired:   c.expired.Load(),
	}
}

// EntryCount returns the number of entries held, including expired ones not yet read.
func (c *MemoryCache) EntryCount() int {
	return c.cache.Len()
}

// HitRatio returns the cache hit ratio.
func (c *MemoryCache) HitRatio() float64 {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

func encodeEntry(expiresAt time.Time, value []byte) []byte {
	buf := make([]byte, expiryHeaderSize+len(value))
	binary.BigEndian.PutUint64(buf, uint64(expiresAt.UnixNano()))
	copy(buf[expiryHeaderSize:], value)
	return buf
}

func decodeEntry(key string, data []byte) (*types.CacheEntry, error) {
	if len(data) < expiryHeaderSize {
		return nil, errCorruptEntry
	}
	nanos := int64(binary.BigEndian.Uint64(data[:expiryHeaderSize]))
	return &types.CacheEntry{
		Key:       key,
		Value:     data[expiryHeaderSize:],
		ExpiresAt: time.Unix(0, nanos),
	}, nil
}

type bigcacheLogger struct {
	logger *slog.Logger
}

func (l *bigcacheLogger) Printf(format string, args ...any) {
	l.logger.Debug("bigcache: "+format, args...)
}

var _ types.MemoryCacheLayer = (*MemoryCache)(nil)
