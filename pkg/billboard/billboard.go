package billboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/LavishGent/billboard/internal/cache"
	"github.com/LavishGent/billboard/internal/config"
	"github.com/LavishGent/billboard/internal/lookup"
	"github.com/LavishGent/billboard/internal/metrics"
	"github.com/LavishGent/billboard/internal/metrics/datadog"
	"github.com/LavishGent/billboard/internal/provider"
	"github.com/LavishGent/billboard/internal/resilience"
	"github.com/LavishGent/billboard/internal/types"
)

// Client serves advertisements through the cache, primary and backup tiers.
// It is safe for concurrent use.
type Client struct {
	service    *lookup.Service
	cache      *cache.FallbackCache
	tracker    *metrics.Tracker
	background *metrics.BackgroundPublisher
	logger     *slog.Logger

	// closers are released by Close in order: providers built from
	// configuration and a publisher created by the client.
	closers   []io.Closer
	closeOnce sync.Once
	closeErr  error
}

// New creates a client with the default configuration: memory-only cache,
// three primary attempts one second apart, health gate of 10 failures per hour.
// Either provider may be nil.
func New(primary, backup Provider, opts ...Option) (*Client, error) {
	return NewFromConfig(config.DefaultConfig(), primary, backup, opts...)
}

// NewFromConfig creates a client from cfg. The configuration is validated first.
func NewFromConfig(cfg *Configuration, primary, backup Provider, opts ...Option) (*Client, error) {
	return build(cfg, primary, backup, applyOptions(opts), nil)
}

// NewFromFile loads a JSON configuration file, applies BILLBOARD_* environment
// overrides, and builds the providers named in its primary and backup sections.
func NewFromFile(path string, opts ...Option) (*Client, error) {
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	logger := lookup.SlogLogger(o.service.Logger)
	ctx := context.Background()

	primary, err := provider.NewPrimary(ctx, cfg.Primary, logger)
	if err != nil {
		return nil, fmt.Errorf("create primary provider: %w", err)
	}
	backup, err := provider.NewBackup(ctx, cfg.Backup, logger)
	if err != nil {
		closeAll(primary)
		return nil, fmt.Errorf("create backup provider: %w", err)
	}

	var closers []io.Closer
	var p, b Provider
	if primary != nil {
		p = primary
		closers = append(closers, primary)
	}
	if backup != nil {
		b = backup
		closers = append(closers, backup)
	}

	c, err := build(cfg, p, b, o, closers)
	if err != nil {
		closeAll(closers...)
		return nil, err
	}
	return c, nil
}

func applyOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func build(cfg *config.Config, primary, backup Provider, o *options, closers []io.Closer) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", types.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := lookup.SlogLogger(o.service.Logger)
	c := &Client{
		tracker: metrics.NewTracker(),
		logger:  logger.With("component", "billboard"),
		closers: closers,
	}

	publisher := o.publisher
	if publisher == nil && cfg.Metrics.Enabled {
		p, err := newPublisher(cfg, logger)
		if err != nil {
			return nil, err
		}
		publisher = p
		c.closers = append(c.closers, p)
	}

	recorders := []types.MetricsRecorder{c.tracker, o.service.Metrics}
	if publisher != nil {
		recorders = append(recorders, metrics.NewPublishingRecorder(publisher))
	}
	recorder := metrics.Multi(recorders...)

	fc, err := cache.NewFallbackCache(cfg, cache.FallbackOptions{
		Logger:     logger,
		Metrics:    recorder,
		Serializer: o.service.Serializer,
		Clock:      o.service.Clock,
	})
	if err != nil {
		closeAll(c.closers[len(closers):]...)
		return nil, err
	}
	c.cache = fc

	serviceOpts := o.service
	serviceOpts.Logger = logger
	serviceOpts.Metrics = recorder
	svc, err := lookup.NewService(cfg, fc, primary, backup, &serviceOpts)
	if err != nil {
		_ = fc.Close()
		closeAll(c.closers[len(closers):]...)
		return nil, err
	}
	c.service = svc

	if publisher != nil {
		c.background = metrics.NewBackgroundPublisher(publisher, cfg.Metrics.PublishInterval, c.healthSample, logger)
		c.background.Start(context.Background())
	}

	c.logger.Info("Client started",
		"cache_level", fc.Level().String(),
		"lock_mode", cfg.Lookup.LockMode,
		"retry_count", cfg.Retry.Count,
		"primary", primary != nil,
		"backup", backup != nil,
	)
	return c, nil
}

func newPublisher(cfg *config.Config, logger *slog.Logger) (types.Publisher, error) {
	if cfg.Metrics.DataDog.Enabled {
		p, err := datadog.NewPublisher(&cfg.Metrics.DataDog, logger)
		if err != nil {
			return nil, fmt.Errorf("create datadog publisher: %w", err)
		}
		return p, nil
	}
	return metrics.NewLoggingPublisher(logger), nil
}

// Lookup returns the advertisement for id, or (nil, false) when no tier has it.
func (c *Client) Lookup(ctx context.Context, id string) (*Advertisement, bool) {
	return c.service.Lookup(ctx, id)
}

// Invalidate removes id from the cache.
func (c *Client) Invalidate(ctx context.Context, id string) error {
	return c.service.Invalidate(ctx, id)
}

// Clear empties every cache layer.
func (c *Client) Clear(ctx context.Context) error {
	return c.cache.Clear(ctx)
}

func (c *Client) Health(ctx context.Context) *HealthMetrics {
	return c.service.Health(ctx)
}

// PrimaryHealthy reports whether the next lookup may call the primary provider.
func (c *Client) PrimaryHealthy() bool {
	return c.service.PrimaryHealthy()
}

// Metrics returns lookup counters and latency percentiles.
func (c *Client) Metrics() MetricsSnapshot {
	return c.tracker.Snapshot()
}

func (c *Client) healthSample() *types.PublisherHealthMetrics {
	snap := c.tracker.Snapshot()
	cacheHealth := c.cache.Health()
	return &types.PublisherHealthMetrics{
		CacheEntries:          cacheHealth.EntryCount,
		CacheHitRatio:         snap.CacheHitRatio(),
		BackupRatio:           snap.BackupRatio(),
		AverageLatencyMs:      snap.AvgLatencyMs,
		P99LatencyMs:          snap.P99LatencyMs,
		RecentPrimaryFailures: c.service.RecentFailures(),
		PrimaryGateOpen:       c.service.PrimaryHealthy(),
		RedisConnected:        cacheHealth.RedisAvailable,
		CircuitOpen:           c.cache.IsCircuitOpen(),
	}
}

// Close stops background publishing, closes the cache and releases providers
// built by NewFromFile. Later calls return the first result.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		if c.background != nil {
			c.background.Stop()
		}
		errs := []error{c.service.Close(), c.cache.Close()}
		for _, closer := range c.closers {
			errs = append(errs, closer.Close())
		}
		c.closeErr = errors.Join(errs...)
		c.logger.Info("Client closed")
	})
	return c.closeErr
}

// NewErrorWindow returns a failure window sized from cfg.HealthGate, for
// sharing between clients with WithErrorWindow.
func NewErrorWindow(cfg *Configuration) FailureWindow {
	return resilience.NewErrorWindow(cfg.HealthGate)
}

// Config returns a default configuration that can be modified before creating a client.
func Config() *Configuration {
	return config.DefaultConfig()
}

// TestConfig returns a configuration suitable for unit tests: no retry wait, metrics off.
func TestConfig() *Configuration {
	return config.ForTesting()
}

func closeAll(closers ...io.Closer) {
	for _, c := range closers {
		if c != nil {
			_ = c.Close()
		}
	}
}
