package metrics

import (
	"time"

	"github.com/LavishGent/billboard/internal/types"
)

// NoOpTracker is a no-operation metrics recorder for tests or when metrics are disabled.
type NoOpTracker struct{}

func NewNoOpTracker() *NoOpTracker {
	return &NoOpTracker{}
}

func (t *NoOpTracker) RecordLookup(id string, source types.Source, latency time.Duration) {}
func (t *NoOpTracker) RecordPrimaryFailure(id string, attempt int, err error)           {}
func (t *NoOpTracker) RecordHealthGateSkip(id string, recentFailures int)               {}
func (t *NoOpTracker) RecordCacheError(layer string, operation string, err error)       {}
func (t *NoOpTracker) RecordCircuitBreakerStateChange(from, to string)                  {}

// Snapshot returns empty metrics.
func (t *NoOpTracker) Snapshot() types.MetricsSnapshot { return types.MetricsSnapshot{} }

// NoOpPublisher is a no-operation metrics publisher for testing or when disabled.
type NoOpPublisher struct{}

func NewNoOpPublisher() *NoOpPublisher {
	return &NoOpPublisher{}
}

func (p *NoOpPublisher) Gauge(name string, value float64, tags ...string)            {}
func (p *NoOpPublisher) Incr(name string, tags ...string)                            {}
func (p *NoOpPublisher) Count(name string, value int64, tags ...string)              {}
func (p *NoOpPublisher) Histogram(name string, value float64, tags ...string)        {}
func (p *NoOpPublisher) Timing(name string, duration time.Duration, tags ...string)  {}
func (p *NoOpPublisher) Event(title, text, alertType string, tags ...string)         {}
func (p *NoOpPublisher) PublishHealthMetrics(metrics *types.PublisherHealthMetrics) {}
func (p *NoOpPublisher) Close() error                                               { return nil }

var (
	_ types.MetricsRecorder = (*NoOpTracker)(nil)
	_ types.Publisher       = (*NoOpPublisher)(nil)
)
