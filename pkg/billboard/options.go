package billboard

import (
	"time"

	"github.com/LavishGent/billboard/internal/types"
)

type options struct {
	service   types.ServiceOptions
	publisher types.Publisher
}

// Option configures a Client.
type Option func(*options)

func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.service.Logger = logger
	}
}

// WithMetrics adds a recorder that receives every lookup event alongside the built-in tracker.
func WithMetrics(metrics MetricsRecorder) Option {
	return func(o *options) {
		o.service.Metrics = metrics
	}
}

func WithSerializer(serializer Serializer) Option {
	return func(o *options) {
		o.service.Serializer = serializer
	}
}

// WithClock replaces time.Now for the health gate and cache expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.service.Clock = now
	}
}

// WithErrorWindow shares one failure window between clients.
func WithErrorWindow(window FailureWindow) Option {
	return func(o *options) {
		o.service.FailureWindow = window
	}
}

// WithPublisher sends lookup events and periodic health samples to publisher,
// regardless of metrics.enabled. The client does not close it.
func WithPublisher(publisher Publisher) Option {
	return func(o *options) {
		o.publisher = publisher
	}
}
