// Package lookup resolves advertisements by id through the cache, a
// health-gated primary provider with retries, and a backup provider.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/LavishGent/billboard/internal/config"
	"github.com/LavishGent/billboard/internal/resilience"
	"github.com/LavishGent/billboard/internal/types"
)

// cacheHealth is implemented by caches that can describe their layers.
type cacheHealth interface {
	Health() types.CacheHealthMetrics
}

// windowInfo is implemented by failure windows that expose their sizing.
type windowInfo interface {
	Threshold() int
	Window() time.Duration
}

// outcome is what one resolution produced. It is shared between coalesced
// callers. cancelled marks a resolution cut short by its own context, which
// says nothing about whether the advertisement exists.
type outcome struct {
	adv       *types.Advertisement
	source    types.Source
	cancelled bool
}

// Service is the advertisement lookup service. Lookup never returns an
// error: an advertisement that cannot be produced by any tier is absent.
type Service struct {
	cache     types.AdvertisementCache
	primary   types.Provider
	backup    types.Provider
	window    types.FailureWindow
	retry     *resilience.RetryPolicy
	bulkhead  resilience.BulkheadExecutor
	validator *types.IDValidator
	metrics   types.MetricsRecorder
	logger    *slog.Logger
	now       types.Clock

	ttl       time.Duration
	threshold int
	span      time.Duration
	lockMode  string

	mu     sync.Mutex
	group  singleflight.Group
	closed atomic.Bool
}

// NewService builds a lookup service. Invalid retry settings are fatal: the
// service is never constructed in a state that cannot call the primary.
// A nil primary or backup makes every lookup skip that tier.
func NewService(
	cfg *config.Config,
	cache types.AdvertisementCache,
	primary, backup types.Provider,
	opts *types.ServiceOptions,
) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", types.ErrInvalidConfig)
	}
	if cache == nil {
		return nil, fmt.Errorf("%w: cache is required", types.ErrInvalidConfig)
	}

	policy, err := resilience.NewPolicy(cfg)
	if err != nil {
		return nil, fmt.Errorf("create lookup service: %w", err)
	}

	if opts == nil {
		opts = &types.ServiceOptions{}
	}

	s := &Service{
		cache:     cache,
		primary:   primary,
		backup:    backup,
		window:    policy.Window,
		retry:     policy.Retry,
		bulkhead:  policy.Bulkhead,
		metrics:   opts.Metrics,
		logger:    SlogLogger(opts.Logger).With("component", "lookup-service"),
		now:       time.Now,
		ttl:       cfg.Cache.TTL,
		threshold: policy.Window.Threshold(),
		span:      policy.Window.Window(),
		lockMode:  cfg.Lookup.LockMode,
	}

	if opts.Clock != nil {
		s.now = opts.Clock
	}
	if opts.FailureWindow != nil {
		s.window = opts.FailureWindow
		if info, ok := opts.FailureWindow.(windowInfo); ok {
			s.threshold = info.Threshold()
			s.span = info.Window()
		}
	}
	if s.ttl <= 0 {
		s.ttl = config.DefaultCacheTTL
	}
	if s.lockMode == "" {
		s.lockMode = config.LockModePerKey
	}
	if cfg.IDValidation.Enabled {
		s.validator = types.NewIDValidator(cfg.IDValidation.ToTypesConfig())
	}

	s.retry.SetOnFailure(s.recordPrimaryFailure)

	return s, nil
}

// Lookup returns the advertisement for id and true, or nil and false when no
// tier can produce it. The returned value is a copy owned by the caller.
func (s *Service) Lookup(ctx context.Context, id string) (*types.Advertisement, bool) {
	start := time.Now()

	if s.closed.Load() {
		return nil, false
	}
	if s.validator != nil {
		if err := s.validator.Validate(id); err != nil {
			s.logger.Debug("Rejected advertisement id", "id", id, "error", err)
			return nil, false
		}
	}

	var out outcome
	switch s.lockMode {
	case config.LockModeGlobal:
		s.mu.Lock()
		out = s.resolve(ctx, id)
		s.mu.Unlock()
	default:
		out = s.resolveShared(ctx, id)
	}

	if s.metrics != nil {
		s.metrics.RecordLookup(id, out.source, time.Since(start))
	}
	if out.adv == nil {
		return nil, false
	}
	return out.adv.Clone(), true
}

// resolveShared coalesces concurrent lookups of id. A shared resolution runs
// on the context of the caller that started it; when that context ends early,
// callers whose own context is still live resolve again.
func (s *Service) resolveShared(ctx context.Context, id string) outcome {
	for {
		v, _, _ := s.group.Do(id, func() (any, error) {
			return s.resolve(ctx, id), nil
		})
		out := v.(outcome)
		if !out.cancelled || ctx.Err() != nil {
			return out
		}
		s.logger.Debug("Shared resolution cancelled, resolving again", "id", id)
	}
}

// resolve walks cache, health gate, primary and backup for id.
func (s *Service) resolve(ctx context.Context, id string) outcome {
	if adv, ok := s.cache.Get(ctx, id); ok {
		return outcome{adv: adv, source: types.SourceCache}
	}

	// The gate is evaluated once; failures recorded by this call's own
	// attempts do not change it.
	if s.primary != nil {
		if failures := s.window.CountRecentFailures(s.now()); failures < s.threshold {
			if adv := s.fetchPrimary(ctx, id); adv != nil {
				s.populate(ctx, id, adv)
				return outcome{adv: adv, source: types.SourcePrimary}
			}
		} else {
			s.logger.Warn("Primary provider bypassed by health gate",
				"id", id,
				"recent_failures", failures,
				"threshold", s.threshold,
			)
			if s.metrics != nil {
				s.metrics.RecordHealthGateSkip(id, failures)
			}
		}
	}

	if ctx.Err() != nil {
		return outcome{source: types.SourceNone, cancelled: true}
	}

	if adv := s.fetchBackup(ctx, id); adv != nil {
		s.populate(ctx, id, adv)
		return outcome{adv: adv, source: types.SourceBackup}
	}

	if ctx.Err() != nil {
		return outcome{source: types.SourceNone, cancelled: true}
	}

	s.logger.Debug("Advertisement not found", "id", id)
	return outcome{source: types.SourceNone}
}

// fetchPrimary runs the retry loop against the primary provider. It returns
// nil when every attempt failed or came back empty.
func (s *Service) fetchPrimary(ctx context.Context, id string) *types.Advertisement {
	result, err := s.retry.ExecuteWithResult(ctx, func(ctx context.Context, attempt int) (any, error) {
		v, err := s.bulkhead.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
			return s.primary.FetchByID(ctx, id)
		})
		if err != nil {
			return nil, types.NewLookupError("fetch", id, types.SourcePrimary, err)
		}
		adv, _ := v.(*types.Advertisement)
		if adv == nil {
			return nil, types.ErrNoResult
		}
		return adv, nil
	})
	if err != nil {
		if !errors.Is(err, types.ErrNoResult) && ctx.Err() == nil {
			s.logger.Warn("Primary provider exhausted, falling back to backup", "id", id, "error", err)
		}
		return nil
	}
	return result.(*types.Advertisement)
}

// fetchBackup makes the single backup call. Errors are absorbed.
func (s *Service) fetchBackup(ctx context.Context, id string) *types.Advertisement {
	if s.backup == nil {
		return nil
	}
	adv, err := s.backup.FetchByID(ctx, id)
	if err != nil {
		s.logger.Warn("Backup provider failed",
			"error", types.NewLookupError("fetch", id, types.SourceBackup, err))
		return nil
	}
	return adv
}

func (s *Service) populate(ctx context.Context, id string, adv *types.Advertisement) {
	if err := s.cache.Put(ctx, id, adv, s.ttl); err != nil {
		s.logger.Debug("Failed to populate cache", "id", id, "error", err)
	}
}

func (s *Service) recordPrimaryFailure(attempt int, err error) {
	s.window.RecordFailure(s.now())

	var lookupErr *types.LookupError
	id := ""
	if errors.As(err, &lookupErr) {
		id = lookupErr.ID
	}
	s.logger.Debug("Primary provider attempt failed", "id", id, "attempt", attempt, "error", err)
	if s.metrics != nil {
		s.metrics.RecordPrimaryFailure(id, attempt, err)
	}
}

// Invalidate drops id from the cache so the next lookup goes to the providers.
func (s *Service) Invalidate(ctx context.Context, id string) error {
	if s.closed.Load() {
		return types.ErrClosed
	}
	return s.cache.Delete(ctx, id)
}

// RecentFailures returns how many primary failures fall inside the window now.
func (s *Service) RecentFailures() int {
	return s.window.CountRecentFailures(s.now())
}

// PrimaryHealthy reports whether the next lookup would be allowed to call the primary.
func (s *Service) PrimaryHealthy() bool {
	return s.RecentFailures() < s.threshold
}

// Health reports the state of the cache and of the health gate.
func (s *Service) Health(ctx context.Context) *types.HealthMetrics {
	failures := s.RecentFailures()
	m := &types.HealthMetrics{
		Timestamp: s.now(),
		Primary: types.PrimaryHealthMetrics{
			RecentFailures: failures,
			Threshold:      s.threshold,
			Window:         s.span,
			GateOpen:       failures < s.threshold,
		},
		Status: types.HealthStatusHealthy,
	}

	redisDown := false
	if ch, ok := s.cache.(cacheHealth); ok {
		m.Cache = ch.Health()
		level := types.ParseCacheLevel(m.Cache.Level)
		redisDown = level.IncludesRedis() && !m.Cache.RedisAvailable
		if level.IncludesMemory() && !m.Cache.MemoryAvailable {
			m.Status = types.HealthStatusUnhealthy
		}
	}

	switch {
	case s.closed.Load():
		m.Status = types.HealthStatusUnhealthy
	case m.Status == types.HealthStatusUnhealthy:
	case !m.Primary.GateOpen || redisDown:
		m.Status = types.HealthStatusDegraded
	}
	return m
}

// RetryStats returns counters from the primary retry loop.
func (s *Service) RetryStats() resilience.RetryStats {
	return s.retry.Stats()
}

// BulkheadStats returns counters from the bulkhead around primary calls.
func (s *Service) BulkheadStats() resilience.BulkheadStats {
	return s.bulkhead.Stats()
}

// Close marks the service closed. Later lookups report absent.
// The cache and providers are owned by the caller.
func (s *Service) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.logger.Info("Lookup service closed")
	return nil
}
