package types

import (
	"errors"
	"fmt"
)

var (
	ErrCacheMiss           = errors.New("billboard: cache miss")
	ErrRedisUnavailable    = errors.New("billboard: redis unavailable")
	ErrCircuitOpen         = errors.New("billboard: circuit breaker open")
	ErrClosed              = errors.New("billboard: service closed")
	ErrBulkheadFull        = errors.New("billboard: bulkhead at capacity")
	ErrBulkheadTimeout     = errors.New("billboard: bulkhead timeout")
	ErrSerializationFailed = errors.New("billboard: serialization failed")
	ErrInvalidKey          = errors.New("billboard: invalid key")
	ErrNotFound            = errors.New("billboard: advertisement not found")
	ErrNoResult            = errors.New("billboard: provider returned no advertisement")
	ErrInvalidConfig       = errors.New("billboard: invalid configuration")
)

// LookupError describes a failure inside one tier of a lookup. It never
// crosses the Lookup boundary; it is what gets logged and recorded.
type LookupError struct {
	Op     string
	ID     string
	Source Source
	Err    error
}

func (e *LookupError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("lookup %s on %s [%s]: %v", e.Op, e.Source, e.ID, e.Err)
	}
	return fmt.Sprintf("lookup %s on %s: %v", e.Op, e.Source, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

func NewLookupError(op, id string, source Source, err error) *LookupError {
	return &LookupError{
		Op:     op,
		ID:     id,
		Source: source,
		Err:    err,
	}
}

// CacheError describes a failed operation on a cache layer.
type CacheError struct {
	Op    string
	Key   string
	Layer string
	Err   error
}

func (e *CacheError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cache %s on %s [%s]: %v", e.Op, e.Layer, e.Key, e.Err)
	}
	return fmt.Sprintf("cache %s on %s: %v", e.Op, e.Layer, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

func NewCacheError(op, key, layer string, err error) *CacheError {
	return &CacheError{Op: op, Key: key, Layer: layer, Err: err}
}

func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// IsRetryable reports whether a provider error should consume another attempt.
// Provider failures are treated uniformly, whatever they wrap; only local
// admission control stops the loop early. Cancellation is decided by the
// caller's context, not by the error value.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrBulkheadFull) || errors.Is(err, ErrBulkheadTimeout) {
		return false
	}

	return true
}
