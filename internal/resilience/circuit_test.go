package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LavishGent/billboard/internal/config"
	"github.com/LavishGent/billboard/internal/types"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(cfg config.CircuitBreakerConfig) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{now: t0}
	cb := NewCircuitBreaker("redis", cfg)
	cb.now = clock.Now
	return cb, clock
}

func TestCircuitBreakerStateString(t *testing.T) {
	//nolint:govet // Test table - alignment not critical
	tests := []struct {
		state    State
		expected string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("State.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNewCircuitBreaker(t *testing.T) {
	t.Run("creates with config values", func(t *testing.T) {
		cb := NewCircuitBreaker("redis", config.CircuitBreakerConfig{
			FailureThreshold:    10,
			SuccessThreshold:    5,
			OpenDuration:        time.Minute,
			HalfOpenMaxRequests: 7,
		})

		if cb.Name() != "redis" {
			t.Errorf("Name() = %s, want redis", cb.Name())
		}
		if cb.failureThreshold != 10 || cb.successThreshold != 5 || cb.halfOpenMaxRequests != 7 {
			t.Errorf("thresholds = %d/%d/%d", cb.failureThreshold, cb.successThreshold, cb.halfOpenMaxRequests)
		}
		if cb.openDuration != time.Minute {
			t.Errorf("openDuration = %v, want 1m", cb.openDuration)
		}
		if cb.State() != StateClosed {
			t.Errorf("initial state = %v, want closed", cb.State())
		}
	})

	t.Run("applies defaults for zero values", func(t *testing.T) {
		cb := NewCircuitBreaker("redis", config.CircuitBreakerConfig{})

		if cb.failureThreshold != 5 {
			t.Errorf("failureThreshold = %v, want 5", cb.failureThreshold)
		}
		if cb.successThreshold != 2 {
			t.Errorf("successThreshold = %v, want 2", cb.successThreshold)
		}
		if cb.openDuration != 30*time.Second {
			t.Errorf("openDuration = %v, want 30s", cb.openDuration)
		}
		if cb.halfOpenMaxRequests != 3 {
			t.Errorf("halfOpenMaxRequests = %v, want 3", cb.halfOpenMaxRequests)
		}
	})
}

func TestCircuitBreakerStateTransitions(t *testing.T) {
	t.Run("closed to open after failure threshold", func(t *testing.T) {
		cb, _ := newTestBreaker(config.CircuitBreakerConfig{FailureThreshold: 3, OpenDuration: time.Second})

		cb.RecordFailure()
		cb.RecordFailure()
		if cb.State() != StateClosed {
			t.Errorf("state after 2 failures = %v, want closed", cb.State())
		}

		cb.RecordFailure()
		if !cb.IsOpen() {
			t.Errorf("state after 3 failures = %v, want open", cb.State())
		}
	})

	t.Run("open to half-open after duration", func(t *testing.T) {
		cb, clock := newTestBreaker(config.CircuitBreakerConfig{FailureThreshold: 1, OpenDuration: 30 * time.Second})

		cb.RecordFailure()
		if cb.Allow() {
			t.Error("Allow() = true, want false while open")
		}

		clock.Advance(30 * time.Second)

		if !cb.Allow() {
			t.Error("Allow() = false, want true after open duration")
		}
		if cb.State() != StateHalfOpen {
			t.Errorf("state = %v, want half-open", cb.State())
		}
	})

	t.Run("half-open to closed after success threshold", func(t *testing.T) {
		cb, clock := newTestBreaker(config.CircuitBreakerConfig{
			FailureThreshold:    1,
			SuccessThreshold:    2,
			OpenDuration:        time.Second,
			HalfOpenMaxRequests: 5,
		})

		cb.RecordFailure()
		clock.Advance(time.Second)
		cb.Allow()

		cb.RecordSuccess()
		if cb.State() != StateHalfOpen {
			t.Errorf("state after 1 success = %v, want half-open", cb.State())
		}
		cb.RecordSuccess()
		if cb.State() != StateClosed {
			t.Errorf("state after 2 successes = %v, want closed", cb.State())
		}
	})

	t.Run("half-open to open on failure", func(t *testing.T) {
		cb, clock := newTestBreaker(config.CircuitBreakerConfig{FailureThreshold: 1, OpenDuration: time.Second})

		cb.RecordFailure()
		clock.Advance(time.Second)
		cb.Allow()

		cb.RecordFailure()
		if cb.State() != StateOpen {
			t.Errorf("state after failure in half-open = %v, want open", cb.State())
		}
	})

	t.Run("limits requests in half-open state", func(t *testing.T) {
		cb, clock := newTestBreaker(config.CircuitBreakerConfig{
			FailureThreshold:    1,
			OpenDuration:        time.Second,
			HalfOpenMaxRequests: 3,
		})

		cb.RecordFailure()
		clock.Advance(time.Second)

		for i := 0; i < 3; i++ {
			if !cb.Allow() {
				t.Errorf("Allow() = false, want true for request %d in half-open", i+1)
			}
		}
		if cb.Allow() {
			t.Error("Allow() = true, want false after max half-open requests")
		}
	})
}

func TestCircuitBreakerExecute(t *testing.T) {
	t.Run("executes function and returns result", func(t *testing.T) {
		cb := NewCircuitBreaker("redis", config.CircuitBreakerConfig{})

		result, err := cb.Execute(func() (any, error) {
			return "success", nil
		}, nil)

		if err != nil || result != "success" {
			t.Errorf("Execute() = %v, %v", result, err)
		}
	})

	t.Run("returns ErrCircuitOpen when open", func(t *testing.T) {
		cb := NewCircuitBreaker("redis", config.CircuitBreakerConfig{FailureThreshold: 1, OpenDuration: time.Hour})
		cb.RecordFailure()

		ran := false
		_, err := cb.Execute(func() (any, error) {
			ran = true
			return nil, nil
		}, nil)

		if !errors.Is(err, ErrCircuitOpen) || !IsCircuitOpen(err) {
			t.Errorf("Execute() error = %v, want ErrCircuitOpen", err)
		}
		if ran {
			t.Error("function ran while circuit open")
		}
	})

	t.Run("records failure on error", func(t *testing.T) {
		cb := NewCircuitBreaker("redis", config.CircuitBreakerConfig{FailureThreshold: 5})

		_, _ = cb.Execute(func() (any, error) {
			return nil, errors.New("connection refused")
		}, nil)

		if cb.Stats().ConsecutiveFails != 1 {
			t.Errorf("ConsecutiveFails = %v, want 1", cb.Stats().ConsecutiveFails)
		}
	})

	t.Run("errors the classifier accepts do not trip the breaker", func(t *testing.T) {
		cb := NewCircuitBreaker("redis", config.CircuitBreakerConfig{FailureThreshold: 1})
		notMiss := func(err error) bool { return !types.IsCacheMiss(err) }

		for i := 0; i < 5; i++ {
			_, _ = cb.Execute(func() (any, error) {
				return nil, types.ErrCacheMiss
			}, notMiss)
		}

		if cb.State() != StateClosed {
			t.Errorf("state = %v, want closed after cache misses", cb.State())
		}
	})
}

func TestCircuitBreakerOnStateChange(t *testing.T) {
	cb, clock := newTestBreaker(config.CircuitBreakerConfig{FailureThreshold: 1, OpenDuration: time.Second})

	var changes []string
	cb.SetOnStateChange(func(from, to State) {
		changes = append(changes, from.String()+"->"+to.String())
		// Reading state from the callback must not deadlock.
		_ = cb.Stats()
	})

	cb.RecordFailure()
	clock.Advance(time.Second)
	cb.Allow()
	cb.RecordSuccess()
	cb.RecordSuccess()

	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if len(changes) != len(want) {
		t.Fatalf("changes = %v, want %v", changes, want)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("changes[%d] = %s, want %s", i, changes[i], want[i])
		}
	}
}

func TestCircuitBreakerReset(t *testing.T) {
	cb := NewCircuitBreaker("redis", config.CircuitBreakerConfig{FailureThreshold: 1})
	cb.RecordFailure()
	cb.Reset()

	if cb.State() != StateClosed || cb.Stats().ConsecutiveFails != 0 {
		t.Errorf("Stats() after Reset = %+v", cb.Stats())
	}
}

func TestNewBreakerFromTestingConfig(t *testing.T) {
	if _, ok := NewBreaker("redis", config.CircuitBreakerConfig{Enabled: false}).(*DisabledCircuitBreaker); !ok {
		t.Error("disabled config should yield DisabledCircuitBreaker")
	}
	if _, ok := NewBreaker("redis", config.CircuitBreakerConfig{Enabled: true}).(*CircuitBreaker); !ok {
		t.Error("enabled config should yield CircuitBreaker")
	}

	d := NewDisabledCircuitBreaker()
	result, err := d.Execute(func() (any, error) { return 1, nil }, nil)
	if err != nil || result != 1 || d.IsOpen() || d.State() != StateClosed {
		t.Error("disabled breaker should pass calls straight through")
	}
}
