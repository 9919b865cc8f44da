package types

import "time"

// Clock returns the current time. Tests substitute a controllable clock.
type Clock func() time.Time

// ServiceOptions holds collaborators injected into the lookup service and facade.
type ServiceOptions struct {
	// Logger is the structured logger to use.
	Logger Logger

	// Metrics is the metrics recorder.
	Metrics MetricsRecorder

	// Serializer is the cache value serializer.
	Serializer Serializer

	// Clock overrides time.Now for the error window and cache expiry.
	Clock Clock

	// FailureWindow is a shared failure tracker. When nil the service owns a
	// private one sized from configuration.
	FailureWindow FailureWindow
}

// FailureWindow tracks recent primary-provider failures.
type FailureWindow interface {
	RecordFailure(now time.Time)
	CountRecentFailures(now time.Time) int
}
