package billboard

import (
	"github.com/LavishGent/billboard/internal/types"
)

// LookupError describes a failure inside one tier of a lookup.
type LookupError = types.LookupError

var (
	// ErrInvalidConfig is wrapped by every configuration error from the constructors.
	ErrInvalidConfig = types.ErrInvalidConfig
	// ErrClosed is returned by operations on a closed client.
	ErrClosed = types.ErrClosed
	// ErrInvalidKey indicates an id that cannot be used as a cache key.
	ErrInvalidKey = types.ErrInvalidKey
	// ErrCacheMiss indicates a key absent from a cache layer.
	ErrCacheMiss = types.ErrCacheMiss
	// ErrRedisUnavailable indicates the Redis cache layer is disconnected.
	ErrRedisUnavailable = types.ErrRedisUnavailable
	// ErrCircuitOpen indicates the breaker guarding Redis is open.
	ErrCircuitOpen = types.ErrCircuitOpen
	// ErrSerializationFailed indicates an advertisement could not be encoded or decoded.
	ErrSerializationFailed = types.ErrSerializationFailed
)

// IsInvalidKey returns true if the error indicates an invalid id.
func IsInvalidKey(err error) bool {
	return types.IsInvalidKey(err)
}

// IsCircuitOpen returns true if the error indicates the circuit breaker is open.
func IsCircuitOpen(err error) bool {
	return types.IsCircuitOpen(err)
}

// IsRetryable reports whether a primary failure would consume another attempt.
func IsRetryable(err error) bool {
	return types.IsRetryable(err)
}
