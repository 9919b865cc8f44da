package resilience

import (
	"errors"

	"github.com/LavishGent/billboard/internal/types"
)

// Re-export errors from types package for convenience within the resilience package.
var (
	ErrCircuitOpen     = types.ErrCircuitOpen
	ErrBulkheadFull    = types.ErrBulkheadFull
	ErrBulkheadTimeout = types.ErrBulkheadTimeout
)

// IsCircuitOpen returns true if the error is a circuit open error.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, types.ErrCircuitOpen)
}

// IsBulkheadError returns true if the error is a bulkhead rejection.
// A rejection is local admission control and never counts as a provider failure.
func IsBulkheadError(err error) bool {
	return errors.Is(err, types.ErrBulkheadFull) || errors.Is(err, types.ErrBulkheadTimeout)
}
