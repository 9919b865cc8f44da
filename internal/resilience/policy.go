package resilience

import (
	"context"

	"github.com/LavishGent/billboard/internal/config"
)

// CircuitBreakerExecutor is the breaker surface used by the cache layer.
type CircuitBreakerExecutor interface {
	Execute(fn func() (any, error), isFailure func(error) bool) (any, error)
	State() State
	IsOpen() bool
	SetOnStateChange(fn func(from, to State))
}

// BulkheadExecutor is the concurrency limiter surface used around provider calls.
type BulkheadExecutor interface {
	ExecuteWithResult(ctx context.Context, fn func(context.Context) (any, error)) (any, error)
	Stats() BulkheadStats
}

// NewBreaker returns an enabled or disabled breaker according to cfg.
func NewBreaker(name string, cfg config.CircuitBreakerConfig) CircuitBreakerExecutor {
	if !cfg.Enabled {
		return NewDisabledCircuitBreaker()
	}
	return NewCircuitBreaker(name, cfg)
}

// NewProviderBulkhead returns an enabled or disabled bulkhead according to cfg.
func NewProviderBulkhead(cfg config.BulkheadConfig) BulkheadExecutor {
	if !cfg.Enabled {
		return NewDisabledBulkhead()
	}
	return NewBulkhead(cfg)
}

// Policy bundles the per-lookup resilience pieces for one service instance:
// the error window gating the primary, the retry loop over it, and the
// bulkhead around each provider call.
type Policy struct {
	Window   *ErrorWindow
	Retry    *RetryPolicy
	Bulkhead BulkheadExecutor
}

// NewPolicy builds a Policy from configuration. It fails when the retry settings are invalid.
func NewPolicy(cfg *config.Config) (*Policy, error) {
	retry, err := NewRetryPolicy(cfg.Retry)
	if err != nil {
		return nil, err
	}
	return &Policy{
		Window:   NewErrorWindow(cfg.HealthGate),
		Retry:    retry,
		Bulkhead: NewProviderBulkhead(cfg.Bulkhead),
	}, nil
}
