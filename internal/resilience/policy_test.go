package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LavishGent/billboard/internal/config"
	"github.com/LavishGent/billboard/internal/types"
)

func testConfig() *config.Config {
	return &config.Config{
		Retry: config.RetryConfig{Count: 3, Backoff: time.Millisecond},
		HealthGate: config.HealthGateConfig{
			Capacity:  20,
			Threshold: 10,
			Window:    time.Hour,
		},
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:             true,
			FailureThreshold:    3,
			SuccessThreshold:    2,
			OpenDuration:        50 * time.Millisecond,
			HalfOpenMaxRequests: 3,
		},
		Bulkhead: config.BulkheadConfig{
			Enabled:        true,
			MaxConcurrent:  10,
			MaxQueue:       5,
			AcquireTimeout: 50 * time.Millisecond,
		},
	}
}

func TestNewPolicy(t *testing.T) {
	t.Run("builds every component", func(t *testing.T) {
		p, err := NewPolicy(testConfig())
		if err != nil {
			t.Fatalf("NewPolicy() error = %v", err)
		}
		if p.Window == nil || p.Retry == nil || p.Bulkhead == nil {
			t.Fatalf("NewPolicy() = %+v, want all components", p)
		}
		if p.Window.Capacity() != 20 || p.Window.Threshold() != 10 || p.Window.Window() != time.Hour {
			t.Errorf("window sizing = %d/%d/%v", p.Window.Capacity(), p.Window.Threshold(), p.Window.Window())
		}
		if p.Retry.Attempts() != 3 {
			t.Errorf("Attempts() = %d, want 3", p.Retry.Attempts())
		}
		if _, ok := p.Bulkhead.(*Bulkhead); !ok {
			t.Errorf("Bulkhead = %T, want *Bulkhead", p.Bulkhead)
		}
	})

	t.Run("disabled bulkhead", func(t *testing.T) {
		cfg := testConfig()
		cfg.Bulkhead.Enabled = false
		p, err := NewPolicy(cfg)
		if err != nil {
			t.Fatalf("NewPolicy() error = %v", err)
		}
		if _, ok := p.Bulkhead.(*DisabledBulkhead); !ok {
			t.Errorf("Bulkhead = %T, want *DisabledBulkhead", p.Bulkhead)
		}
	})

	t.Run("invalid retry count is fatal", func(t *testing.T) {
		cfg := testConfig()
		cfg.Retry.Count = 0
		if _, err := NewPolicy(cfg); !errors.Is(err, types.ErrInvalidConfig) {
			t.Errorf("NewPolicy() error = %v, want ErrInvalidConfig", err)
		}
	})
}

func TestNewBreaker(t *testing.T) {
	cfg := testConfig().CircuitBreaker
	if _, ok := NewBreaker("redis", cfg).(*CircuitBreaker); !ok {
		t.Error("enabled config should build a CircuitBreaker")
	}

	cfg.Enabled = false
	b := NewBreaker("redis", cfg)
	if _, ok := b.(*DisabledCircuitBreaker); !ok {
		t.Errorf("NewBreaker() = %T, want *DisabledCircuitBreaker", b)
	}
	if b.IsOpen() || b.State() != StateClosed {
		t.Error("disabled breaker should report closed")
	}
}

func TestPolicyRetryThroughBulkhead(t *testing.T) {
	p, err := NewPolicy(testConfig())
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}

	var failures int
	p.Retry.SetOnFailure(func(attempt int, err error) {
		failures++
		p.Window.RecordFailure(time.Now())
	})

	calls := 0
	result, err := p.Retry.ExecuteWithResult(context.Background(), func(ctx context.Context, attempt int) (any, error) {
		return p.Bulkhead.ExecuteWithResult(ctx, func(context.Context) (any, error) {
			calls++
			if calls < 3 {
				return nil, errors.New("transient")
			}
			return "ok", nil
		})
	})
	if err != nil || result != "ok" {
		t.Fatalf("ExecuteWithResult() = %v, %v", result, err)
	}
	if failures != 2 || p.Window.CountRecentFailures(time.Now()) != 2 {
		t.Errorf("failures = %d, window = %d, want 2 and 2", failures, p.Window.Len())
	}
	if stats := p.Bulkhead.Stats(); stats.TotalExecuted != 3 {
		t.Errorf("TotalExecuted = %d, want 3", stats.TotalExecuted)
	}
}
