package billboard_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LavishGent/billboard/internal/config"
	"github.com/LavishGent/billboard/internal/provider/sqlstore"
	"github.com/LavishGent/billboard/pkg/billboard"
)

func staticProvider(calls *atomic.Int32, ads ...*billboard.Advertisement) billboard.ProviderFunc {
	table := make(map[string]*billboard.Advertisement, len(ads))
	for _, ad := range ads {
		table[ad.WebID] = ad
	}
	return func(ctx context.Context, id string) (*billboard.Advertisement, error) {
		calls.Add(1)
		return table[id].Clone(), nil
	}
}

func failingProvider(calls *atomic.Int32) billboard.ProviderFunc {
	return func(ctx context.Context, id string) (*billboard.Advertisement, error) {
		calls.Add(1)
		return nil, errors.New("unreachable")
	}
}

func newTestClient(t *testing.T, primary, backup billboard.Provider, opts ...billboard.Option) *billboard.Client {
	t.Helper()
	client, err := billboard.NewFromConfig(billboard.TestConfig(), primary, backup, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClientLookup(t *testing.T) {
	ctx := context.Background()
	var primaryCalls, backupCalls atomic.Int32
	client := newTestClient(t,
		staticProvider(&primaryCalls, &billboard.Advertisement{WebID: "1", Name: "Spring sale"}),
		staticProvider(&backupCalls, &billboard.Advertisement{WebID: "2", Name: "Archive"}),
	)

	ad, ok := client.Lookup(ctx, "1")
	require.True(t, ok)
	assert.Equal(t, "Spring sale", ad.Name)

	ad, ok = client.Lookup(ctx, "1")
	require.True(t, ok)
	assert.Equal(t, "Spring sale", ad.Name)

	ad, ok = client.Lookup(ctx, "2")
	require.True(t, ok)
	assert.Equal(t, "Archive", ad.Name)

	_, ok = client.Lookup(ctx, "3")
	assert.False(t, ok)

	assert.Equal(t, int32(7), primaryCalls.Load(), "an empty primary result is retried")
	assert.Equal(t, int32(2), backupCalls.Load())

	snap := client.Metrics()
	assert.Equal(t, int64(4), snap.Lookups)
	assert.Equal(t, int64(1), snap.CacheHits)
	assert.Equal(t, int64(1), snap.PrimaryHits)
	assert.Equal(t, int64(1), snap.BackupHits)
	assert.Equal(t, int64(1), snap.NotFound)
}

func TestClientInvalidateAndClear(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	client := newTestClient(t, staticProvider(&calls, &billboard.Advertisement{WebID: "1"}), nil)

	_, _ = client.Lookup(ctx, "1")
	require.NoError(t, client.Invalidate(ctx, "1"))
	_, _ = client.Lookup(ctx, "1")
	require.NoError(t, client.Clear(ctx))
	_, _ = client.Lookup(ctx, "1")

	assert.Equal(t, int32(3), calls.Load())
}

func TestNewFromConfigValidation(t *testing.T) {
	cfg := billboard.TestConfig()
	cfg.Retry.Count = 0

	client, err := billboard.NewFromConfig(cfg, nil, nil)
	assert.Nil(t, client)
	assert.ErrorIs(t, err, billboard.ErrInvalidConfig)

	_, err = billboard.NewFromConfig(nil, nil, nil)
	assert.ErrorIs(t, err, billboard.ErrInvalidConfig)
}

func TestClientHealthGate(t *testing.T) {
	ctx := context.Background()
	var primaryCalls, backupCalls atomic.Int32
	client := newTestClient(t,
		failingProvider(&primaryCalls),
		staticProvider(&backupCalls, &billboard.Advertisement{WebID: "a"}, &billboard.Advertisement{WebID: "b"},
			&billboard.Advertisement{WebID: "c"}, &billboard.Advertisement{WebID: "d"}, &billboard.Advertisement{WebID: "e"}),
	)

	for _, id := range []string{"a", "b", "c", "d"} {
		_, ok := client.Lookup(ctx, id)
		require.True(t, ok)
	}
	assert.Equal(t, int32(12), primaryCalls.Load())
	assert.False(t, client.PrimaryHealthy())

	health := client.Health(ctx)
	assert.Equal(t, billboard.HealthStatusDegraded, health.Status)
	assert.Equal(t, 12, health.Primary.RecentFailures)

	_, ok := client.Lookup(ctx, "e")
	require.True(t, ok)
	assert.Equal(t, int32(12), primaryCalls.Load(), "gate is closed")
	assert.Equal(t, int32(5), backupCalls.Load())
}

func TestWithErrorWindow(t *testing.T) {
	ctx := context.Background()
	window := billboard.NewErrorWindow(billboard.TestConfig())

	var failingCalls, healthyCalls atomic.Int32
	degraded := newTestClient(t, failingProvider(&failingCalls), nil, billboard.WithErrorWindow(window))
	other := newTestClient(t, staticProvider(&healthyCalls, &billboard.Advertisement{WebID: "x"}), nil,
		billboard.WithErrorWindow(window))

	for _, id := range []string{"1", "2", "3", "4"} {
		_, _ = degraded.Lookup(ctx, id)
	}
	assert.False(t, other.PrimaryHealthy(), "failures recorded by one client gate the other")

	_, ok := other.Lookup(ctx, "x")
	assert.False(t, ok)
	assert.Zero(t, healthyCalls.Load())
}

func TestWithClock(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	var calls atomic.Int32
	client := newTestClient(t, staticProvider(&calls, &billboard.Advertisement{WebID: "1"}), nil, billboard.WithClock(clock))

	_, _ = client.Lookup(ctx, "1")
	advance(4 * time.Minute)
	_, _ = client.Lookup(ctx, "1")
	assert.Equal(t, int32(1), calls.Load())

	advance(time.Minute)
	_, _ = client.Lookup(ctx, "1")
	assert.Equal(t, int32(2), calls.Load(), "entry expires after five minutes")
}

type captureLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *captureLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *captureLogger) Debug(msg string, args ...any) { l.record(msg) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record(msg) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record(msg) }
func (l *captureLogger) Error(msg string, args ...any) { l.record(msg) }

func (l *captureLogger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}

func TestWithLogger(t *testing.T) {
	logger := &captureLogger{}
	client, err := billboard.NewFromConfig(billboard.TestConfig(), nil, nil, billboard.WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, client.Close())

	assert.Contains(t, logger.Messages(), "Client started")
	assert.Contains(t, logger.Messages(), "Client closed")
}

type countingPublisher struct {
	incr    atomic.Int32
	timings atomic.Int32
	health  atomic.Int32
	closed  atomic.Bool
}

func (p *countingPublisher) Gauge(string, float64, ...string)        {}
func (p *countingPublisher) Incr(string, ...string)                  { p.incr.Add(1) }
func (p *countingPublisher) Count(string, int64, ...string)          {}
func (p *countingPublisher) Histogram(string, float64, ...string)    {}
func (p *countingPublisher) Timing(string, time.Duration, ...string) { p.timings.Add(1) }
func (p *countingPublisher) Event(string, string, string, ...string) {}

func (p *countingPublisher) PublishHealthMetrics(*billboard.PublisherHealthMetrics) {
	p.health.Add(1)
}

func (p *countingPublisher) Close() error {
	p.closed.Store(true)
	return nil
}

func TestWithPublisher(t *testing.T) {
	cfg := billboard.TestConfig()
	cfg.Metrics.PublishInterval = 10 * time.Millisecond
	pub := &countingPublisher{}

	var calls atomic.Int32
	client, err := billboard.NewFromConfig(cfg, staticProvider(&calls, &billboard.Advertisement{WebID: "1"}), nil,
		billboard.WithPublisher(pub))
	require.NoError(t, err)

	_, _ = client.Lookup(context.Background(), "1")
	assert.Positive(t, pub.incr.Load())
	assert.Equal(t, int32(1), pub.timings.Load())

	assert.Eventually(t, func() bool { return pub.health.Load() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())
	assert.False(t, pub.closed.Load(), "a publisher passed in is owned by the caller")
}

func TestLoggingPublisherFromConfig(t *testing.T) {
	cfg := billboard.TestConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.PublishInterval = time.Hour

	client, err := billboard.NewFromConfig(cfg, nil, nil)
	require.NoError(t, err)
	_, _ = client.Lookup(context.Background(), "1")
	assert.NoError(t, client.Close())
}

func TestNewFromFile(t *testing.T) {
	ctx := context.Background()
	dsn := "file:billboard_from_file?mode=memory&cache=shared"

	seed, err := sqlstore.Open(ctx, config.BackupConfig{
		Driver:       config.DriverSQLite,
		DSN:          config.NewSecretString(dsn),
		Table:        "advertisements",
		MaxOpenConns: 1,
	}, nil)
	require.NoError(t, err)
	defer seed.Close()
	require.NoError(t, seed.Put(ctx, &billboard.Advertisement{WebID: "77", Name: "From SQL"}))

	path := filepath.Join(t.TempDir(), "billboard.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"retry": {"count": 2, "backoff": 0},
		"primary": {"driver": "none"},
		"backup": {"driver": "sqlite", "dsn": "`+dsn+`", "table": "advertisements", "maxOpenConns": 1},
		"metrics": {"enabled": false}
	}`), 0o600))

	client, err := billboard.NewFromFile(path)
	require.NoError(t, err)
	defer client.Close()

	ad, ok := client.Lookup(ctx, "77")
	require.True(t, ok)
	assert.Equal(t, "From SQL", ad.Name)

	_, ok = client.Lookup(ctx, "78")
	assert.False(t, ok)
}

func TestNewFromFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "billboard.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"retry": {"count": 0}}`), 0o600))

	_, err := billboard.NewFromFile(path)
	assert.ErrorIs(t, err, billboard.ErrInvalidConfig)
}

func TestConfigDefaults(t *testing.T) {
	cfg := billboard.Config()
	assert.Equal(t, 3, cfg.Retry.Count)
	assert.Equal(t, time.Second, cfg.Retry.Backoff)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "AdvKey_", cfg.Cache.Namespace)
	assert.Equal(t, 20, cfg.HealthGate.Capacity)
	assert.Equal(t, 10, cfg.HealthGate.Threshold)
	assert.Equal(t, time.Hour, cfg.HealthGate.Window)
	assert.NoError(t, cfg.Validate())
}
