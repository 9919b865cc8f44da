package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LavishGent/billboard/internal/config"
	"github.com/LavishGent/billboard/internal/types"
)

const (
	disconnectErrorThreshold = 5
	clearScanCount           = 100
)

// RedisStats holds Redis layer counters.
type RedisStats struct {
	Hits       int64
	Misses     int64
	Sets       int64
	Deletes    int64
	ErrorCount int64
	Connected  bool
}

// RedisCache is the optional shared cache layer. Values are stored under
// KeyPrefix+key with a native Redis TTL.
type RedisCache struct {
	client     *redis.Client
	config     config.RedisConfig
	logger     *slog.Logger
	defaultTTL time.Duration

	mu            sync.RWMutex
	connected     atomic.Bool
	lastError     error
	lastErrorTime time.Time
	errorCount    atomic.Int64

	healthCheckStopCh chan struct{}
	healthCheckWg     sync.WaitGroup
	closeOnce         sync.Once

	hits    atomic.Int64
	misses  atomic.Int64
	sets    atomic.Int64
	deletes atomic.Int64
}

// NewRedisCache connects to Redis. A failed initial ping is logged and the
// layer starts disconnected; the health checker reconnects it later.
func NewRedisCache(cfg config.RedisConfig, defaultTTL time.Duration, logger *slog.Logger) (*RedisCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultTTL <= 0 {
		defaultTTL = config.DefaultCacheTTL
	}

	opts := &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password.Value(),
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
	}

	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{
			InsecureSkipVerify: cfg.TLSSkipVerify, //nolint:gosec // opt-in via config
		}
		if cfg.TLSSkipVerify {
			logger.Warn("TLS certificate verification is disabled - this is insecure for production use")
		}
	}

	rc := &RedisCache{
		client:            redis.NewClient(opts),
		config:            cfg,
		logger:            logger.With("component", "redis-cache"),
		defaultTTL:        defaultTTL,
		healthCheckStopCh: make(chan struct{}),
	}

	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := rc.client.Ping(ctx).Err(); err != nil {
		rc.logger.Warn("Redis initial connection failed", "error", err)
		rc.setError(err)
	} else {
		rc.connected.Store(true)
		rc.logger.Info("Redis connected", "address", cfg.Address)
	}

	if cfg.HealthCheckInterval > 0 {
		rc.healthCheckWg.Add(1)
		go rc.healthCheckWorker()
	}

	return rc, nil
}

func (c *RedisCache) Name() string {
	return "redis"
}

func (c *RedisCache) IsAvailable() bool {
	return c.connected.Load()
}

func (c *RedisCache) prefixKey(key string) string {
	return c.config.KeyPrefix + key
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if !c.connected.Load() {
		return nil, types.ErrRedisUnavailable
	}

	data, err := c.client.Get(ctx, c.prefixKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.misses.Add(1)
			return nil, types.ErrCacheMiss
		}
		c.handleError(err)
		return nil, types.NewCacheError("Get", key, "redis", err)
	}

	c.hits.Add(1)
	c.clearError()

	return data, nil
}

// Set writes value with the given ttl, or the default TTL when ttl <= 0.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !c.connected.Load() {
		return types.ErrRedisUnavailable
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	if err := c.client.Set(ctx, c.prefixKey(key), value, ttl).Err(); err != nil {
		c.handleError(err)
		return types.NewCacheError("Set", key, "redis", err)
	}

	c.sets.Add(1)
	c.clearError()

	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if !c.connected.Load() {
		return types.ErrRedisUnavailable
	}

	if err := c.client.Del(ctx, c.prefixKey(key)).Err(); err != nil {
		c.handleError(err)
		return types.NewCacheError("Delete", key, "redis", err)
	}

	c.deletes.Add(1)
	c.clearError()

	return nil
}

// RemainingTTL returns how long key has left in Redis.
func (c *RedisCache) RemainingTTL(ctx context.Context, key string) (time.Duration, error) {
	if !c.connected.Load() {
		return 0, types.ErrRedisUnavailable
	}

	ttl, err := c.client.PTTL(ctx, c.prefixKey(key)).Result()
	if err != nil {
		c.handleError(err)
		return 0, types.NewCacheError("RemainingTTL", key, "redis", err)
	}
	return ttl, nil
}

// Clear deletes every key under this layer's prefix using SCAN.
func (c *RedisCache) Clear(ctx context.Context) error {
	if !c.connected.Load() {
		return types.ErrRedisUnavailable
	}

	pattern := c.prefixKey("*")
	var cursor uint64
	var deleted int64

	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, clearScanCount).Result()
		if err != nil {
			c.handleError(err)
			return types.NewCacheError("Clear", pattern, "redis", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.handleError(err)
				return types.NewCacheError("Clear", pattern, "redis", err)
			}
			deleted += int64(len(keys))
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	c.logger.Debug("Cleared keys", "pattern", pattern, "deleted", deleted)
	c.clearError()
	return nil
}

func (c *RedisCache) healthCheckWorker() {
	defer c.healthCheckWg.Done()

	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.healthCheckStopCh:
			return
		case <-ticker.C:
			c.performHealthCheck()
		}
	}
}

func (c *RedisCache) performHealthCheck() {
	wasConnected := c.connected.Load()

	ctx, cancel := context.WithTimeout(context.Background(), c.config.DialTimeout)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		if wasConnected {
			c.logger.Warn("Redis health check failed", "error", err)
			c.setError(err)
		}
		return
	}

	if !wasConnected {
		c.connected.Store(true)
		c.errorCount.Store(0)
		c.logger.Info("Redis connection restored via health check")
	}
}

// Close stops the health checker and closes the client. Safe to call twice.
func (c *RedisCache) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.connected.Store(false)
		close(c.healthCheckStopCh)
		c.healthCheckWg.Wait()
		err = c.client.Close()
	})
	return err
}

func (c *RedisCache) Stats() RedisStats {
	return RedisStats{
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Sets:       c.sets.Load(),
		Deletes:    c.deletes.Load(),
		ErrorCount: c.errorCount.Load(),
		Connected:  c.connected.Load(),
	}
}

func (c *RedisCache) handleError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastError = err
	c.lastErrorTime = time.Now()
	count := c.errorCount.Add(1)

	if count >= disconnectErrorThreshold {
		if c.connected.CompareAndSwap(true, false) {
			c.logger.Warn("Redis marked as disconnected after errors",
				"error_count", count,
				"last_error", err,
			)
		}
	}
}

func (c *RedisCache) clearError() {
	if c.errorCount.Swap(0) > 0 {
		if c.connected.CompareAndSwap(false, true) {
			c.logger.Info("Redis connection restored")
		}
	}
}

func (c *RedisCache) setError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastError = err
	c.lastErrorTime = time.Now()
	c.connected.Store(false)
}

// LastError returns the most recent Redis error and when it happened.
func (c *RedisCache) LastError() (time.Time, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErrorTime, c.lastError
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Reconnect pings Redis and marks the layer connected on success.
func (c *RedisCache) Reconnect(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return err
	}
	c.connected.Store(true)
	c.errorCount.Store(0)
	c.logger.Info("Redis reconnected successfully")
	return nil
}

var _ types.CacheLayer = (*RedisCache)(nil)
