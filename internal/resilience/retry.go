package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/LavishGent/billboard/internal/config"
	"github.com/LavishGent/billboard/internal/types"
)

// RetryPolicy runs an operation up to a fixed number of attempts with a fixed
// wait between failed attempts. No wait follows the final attempt.
type RetryPolicy struct {
	attempts int
	backoff  time.Duration

	onFailure func(attempt int, err error)

	totalRetries atomic.Int64
	totalSuccess atomic.Int64
	totalFailure atomic.Int64
	totalEmpty   atomic.Int64
}

// NewRetryPolicy creates a retry policy. A count below one is a configuration
// error: the policy must never be built in a state that skips the operation.
func NewRetryPolicy(cfg config.RetryConfig) (*RetryPolicy, error) {
	if cfg.Count < 1 {
		return nil, fmt.Errorf("%w: retry count must be at least 1, got %d", types.ErrInvalidConfig, cfg.Count)
	}
	if cfg.Backoff < 0 {
		return nil, fmt.Errorf("%w: retry backoff must not be negative", types.ErrInvalidConfig)
	}
	return &RetryPolicy{
		attempts: cfg.Count,
		backoff:  cfg.Backoff,
	}, nil
}

// SetOnFailure registers a callback invoked for every failed attempt that will
// count against the provider. It is not invoked for ErrNoResult, for
// non-retryable errors such as bulkhead rejection, or for an attempt that
// ended after ctx was done.
func (rp *RetryPolicy) SetOnFailure(fn func(attempt int, err error)) {
	rp.onFailure = fn
}

// ExecuteWithResult runs fn until it returns a result, a non-retryable error
// occurs, the context ends, or attempts run out. An error that merely wraps
// context.DeadlineExceeded or context.Canceled is an ordinary failure while
// ctx itself is still live. An fn returning
// types.ErrNoResult is retried immediately without counting as a failure.
func (rp *RetryPolicy) ExecuteWithResult(ctx context.Context, fn func(ctx context.Context, attempt int) (any, error)) (any, error) {
	var lastErr error

	for attempt := 1; attempt <= rp.attempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		result, err := fn(ctx, attempt)
		if err == nil {
			rp.totalSuccess.Add(1)
			return result, nil
		}

		lastErr = err

		if errors.Is(err, types.ErrNoResult) {
			rp.totalEmpty.Add(1)
			if attempt < rp.attempts {
				rp.totalRetries.Add(1)
			}
			continue
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			rp.totalFailure.Add(1)
			return nil, ctxErr
		}

		if !types.IsRetryable(err) {
			rp.totalFailure.Add(1)
			return nil, err
		}

		if rp.onFailure != nil {
			rp.onFailure(attempt, err)
		}

		if attempt == rp.attempts {
			break
		}

		rp.totalRetries.Add(1)

		if rp.backoff > 0 {
			timer := time.NewTimer(rp.backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}

	rp.totalFailure.Add(1)
	return nil, lastErr
}

// Attempts returns the configured attempt budget.
func (rp *RetryPolicy) Attempts() int {
	return rp.attempts
}

// Backoff returns the wait between failed attempts.
func (rp *RetryPolicy) Backoff() time.Duration {
	return rp.backoff
}

// Stats returns retry statistics.
func (rp *RetryPolicy) Stats() RetryStats {
	return RetryStats{
		Retries: rp.totalRetries.Load(),
		Success: rp.totalSuccess.Load(),
		Failure: rp.totalFailure.Load(),
		Empty:   rp.totalEmpty.Load(),
	}
}

// RetryStats contains retry statistics. Empty counts attempts that ended with no result and no error.
type RetryStats struct {
	Retries int64
	Success int64
	Failure int64
	Empty   int64
}

// Reset resets the statistics.
func (rp *RetryPolicy) Reset() {
	rp.totalRetries.Store(0)
	rp.totalSuccess.Store(0)
	rp.totalFailure.Store(0)
	rp.totalEmpty.Store(0)
}
