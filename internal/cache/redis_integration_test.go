package cache

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LavishGent/billboard/internal/config"
	"github.com/LavishGent/billboard/internal/types"
)

// redisTestAddress returns the Redis address to use for tests.
// It checks the REDIS_TEST_ADDRESS environment variable first,
// then falls back to localhost:6379.
func redisTestAddress() string {
	if addr := os.Getenv("REDIS_TEST_ADDRESS"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

func testRedisConfig() config.RedisConfig {
	return config.RedisConfig{
		Address:      redisTestAddress(),
		KeyPrefix:    "billboard:test:",
		PoolSize:     5,
		MinIdleConns: 1,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolTimeout:  2 * time.Second,
	}
}

// skipIfRedisUnavailable skips the test if Redis is not available.
func skipIfRedisUnavailable(t *testing.T) *RedisCache {
	t.Helper()

	rc, err := NewRedisCache(testRedisConfig(), 5*time.Minute, nil)
	if err != nil {
		t.Skipf("Redis unavailable: %v", err)
	}

	if !rc.IsAvailable() {
		rc.Close()
		t.Skip("Redis is not available")
	}

	_ = rc.Clear(context.Background())
	t.Cleanup(func() { _ = rc.Close() })
	return rc
}

func TestRedisCacheGetSet(t *testing.T) {
	rc := skipIfRedisUnavailable(t)
	ctx := context.Background()

	t.Run("returns cache miss for non-existent key", func(t *testing.T) {
		_, err := rc.Get(ctx, "non-existent-key")
		assert.ErrorIs(t, err, types.ErrCacheMiss)
	})

	t.Run("retrieves previously set value", func(t *testing.T) {
		value := []byte(`{"webId":"1"}`)
		require.NoError(t, rc.Set(ctx, "AdvKey_1", value, time.Minute))

		got, err := rc.Get(ctx, "AdvKey_1")
		require.NoError(t, err)
		assert.Equal(t, value, got)
	})

	t.Run("stores under the key prefix with the given ttl", func(t *testing.T) {
		require.NoError(t, rc.Set(ctx, "AdvKey_2", []byte("v"), 30*time.Second))

		ttl, err := rc.client.PTTL(ctx, "billboard:test:AdvKey_2").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 25*time.Second)
		assert.LessOrEqual(t, ttl, 30*time.Second)

		remaining, err := rc.RemainingTTL(ctx, "AdvKey_2")
		require.NoError(t, err)
		assert.Greater(t, remaining, 25*time.Second)
	})

	t.Run("non-positive ttl uses the default", func(t *testing.T) {
		require.NoError(t, rc.Set(ctx, "AdvKey_3", []byte("v"), 0))

		remaining, err := rc.RemainingTTL(ctx, "AdvKey_3")
		require.NoError(t, err)
		assert.Greater(t, remaining, 4*time.Minute)
	})

	t.Run("expired key is a miss", func(t *testing.T) {
		require.NoError(t, rc.Set(ctx, "AdvKey_4", []byte("v"), 50*time.Millisecond))
		time.Sleep(100 * time.Millisecond)

		_, err := rc.Get(ctx, "AdvKey_4")
		assert.ErrorIs(t, err, types.ErrCacheMiss)
	})
}

func TestRedisCacheDeleteAndClear(t *testing.T) {
	rc := skipIfRedisUnavailable(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, rc.Set(ctx, fmt.Sprintf("AdvKey_%d", i), []byte("v"), time.Minute))
	}

	require.NoError(t, rc.Delete(ctx, "AdvKey_0"))
	_, err := rc.Get(ctx, "AdvKey_0")
	assert.ErrorIs(t, err, types.ErrCacheMiss)

	require.NoError(t, rc.Clear(ctx))
	for i := 1; i < 5; i++ {
		_, err := rc.Get(ctx, fmt.Sprintf("AdvKey_%d", i))
		assert.ErrorIs(t, err, types.ErrCacheMiss)
	}

	stats := rc.Stats()
	assert.True(t, stats.Connected)
	assert.Equal(t, int64(5), stats.Sets)
	assert.Equal(t, int64(1), stats.Deletes)
}

func TestRedisCachePingAndReconnect(t *testing.T) {
	rc := skipIfRedisUnavailable(t)
	ctx := context.Background()

	require.NoError(t, rc.Ping(ctx))

	rc.connected.Store(false)
	_, err := rc.Get(ctx, "k")
	assert.ErrorIs(t, err, types.ErrRedisUnavailable)

	require.NoError(t, rc.Reconnect(ctx))
	assert.True(t, rc.IsAvailable())
}

func TestRedisCacheConcurrency(t *testing.T) {
	rc := skipIfRedisUnavailable(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				key := fmt.Sprintf("AdvKey_%d_%d", g, i)
				if err := rc.Set(ctx, key, []byte("v"), time.Minute); err != nil {
					t.Errorf("Set() error = %v", err)
					return
				}
				if _, err := rc.Get(ctx, key); err != nil {
					t.Errorf("Get() error = %v", err)
					return
				}
			}
		}(g)
	}
	wg.Wait()
}

func TestRedisHealthCheck(t *testing.T) {
	skipIfRedisUnavailable(t)

	cfg := testRedisConfig()
	cfg.HealthCheckInterval = 20 * time.Millisecond
	rc, err := NewRedisCache(cfg, time.Minute, nil)
	require.NoError(t, err)
	defer rc.Close()

	rc.connected.Store(false)

	assert.Eventually(t, rc.IsAvailable, 2*time.Second, 20*time.Millisecond,
		"health checker should restore the connection")
}

func TestRedisUnreachable(t *testing.T) {
	cfg := testRedisConfig()
	cfg.Address = "127.0.0.1:1"
	cfg.DialTimeout = 100 * time.Millisecond

	rc, err := NewRedisCache(cfg, time.Minute, nil)
	require.NoError(t, err, "an unreachable server degrades instead of failing construction")
	defer rc.Close()

	assert.False(t, rc.IsAvailable())
	_, lastErr := rc.LastError()
	assert.Error(t, lastErr)
	assert.ErrorIs(t, rc.Set(context.Background(), "k", nil, 0), types.ErrRedisUnavailable)
}

func TestFallbackCacheWithRedis(t *testing.T) {
	skipIfRedisUnavailable(t)
	ctx := context.Background()

	cfg := config.ForTestingWithRedis(redisTestAddress())
	cfg.Redis.KeyPrefix = "billboard:test:fallback:"

	fc, err := NewFallbackCache(cfg, FallbackOptions{})
	require.NoError(t, err)
	defer fc.Close()
	require.NoError(t, fc.Clear(ctx))

	ad := &types.Advertisement{WebID: "9", Name: "Shared"}
	require.NoError(t, fc.Put(ctx, "9", ad, time.Minute))

	// A second instance sharing Redis sees the entry and promotes it.
	other, err := NewFallbackCache(cfg, FallbackOptions{})
	require.NoError(t, err)
	defer other.Close()

	got, ok := other.Get(ctx, "9")
	require.True(t, ok)
	assert.Equal(t, "Shared", got.Name)
	assert.Equal(t, 1, other.Health().EntryCount)

	require.NoError(t, fc.Delete(ctx, "9"))
	_, ok = fc.Get(ctx, "9")
	assert.False(t, ok)
}
