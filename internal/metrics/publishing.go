package metrics

import (
	"time"

	"github.com/LavishGent/billboard/internal/types"
)

// Metric names emitted by PublishingRecorder.
const (
	MetricLookup           = "lookup.count"
	MetricLookupLatency    = "lookup.latency"
	MetricPrimaryFailure   = "primary.failure"
	MetricHealthGateSkip   = "health_gate.skip"
	MetricHealthGateRecent = "health_gate.recent_failures"
	MetricCacheError       = "cache.error"
	MetricCircuitChange    = "circuit_breaker.transition"
)

// PublishingRecorder forwards every lookup event to a Publisher as tagged metrics.
type PublishingRecorder struct {
	publisher types.Publisher
}

func NewPublishingRecorder(publisher types.Publisher) *PublishingRecorder {
	if publisher == nil {
		publisher = NewNoOpPublisher()
	}
	return &PublishingRecorder{publisher: publisher}
}

func (r *PublishingRecorder) RecordLookup(id string, source types.Source, latency time.Duration) {
	tag := SourceTag(source)
	r.publisher.Incr(MetricLookup, tag)
	r.publisher.Timing(MetricLookupLatency, latency, tag)
}

func (r *PublishingRecorder) RecordPrimaryFailure(id string, attempt int, err error) {
	r.publisher.Incr(MetricPrimaryFailure, AttemptTag(attempt))
}

func (r *PublishingRecorder) RecordHealthGateSkip(id string, recentFailures int) {
	r.publisher.Incr(MetricHealthGateSkip)
	r.publisher.Gauge(MetricHealthGateRecent, float64(recentFailures))
}

func (r *PublishingRecorder) RecordCacheError(layer string, operation string, err error) {
	r.publisher.Incr(MetricCacheError, LayerTag(layer), OperationTag(operation))
}

// RecordCircuitBreakerStateChange counts the transition and raises an event when the breaker opens.
func (r *PublishingRecorder) RecordCircuitBreakerStateChange(from, to string) {
	r.publisher.Incr(MetricCircuitChange, CircuitStateTag("from", from), CircuitStateTag("to", to))
	if to == "open" {
		r.publisher.Event("Redis cache circuit opened",
			"The Redis cache layer is failing; lookups continue from memory and providers.",
			"warning", CircuitStateTag("from", from))
	}
}

// MultiRecorder fans every event out to several recorders.
type MultiRecorder []types.MetricsRecorder

// Multi combines recorders, skipping nil entries.
func Multi(recorders ...types.MetricsRecorder) MultiRecorder {
	out := make(MultiRecorder, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m MultiRecorder) RecordLookup(id string, source types.Source, latency time.Duration) {
	for _, r := range m {
		r.RecordLookup(id, source, latency)
	}
}

func (m MultiRecorder) RecordPrimaryFailure(id string, attempt int, err error) {
	for _, r := range m {
		r.RecordPrimaryFailure(id, attempt, err)
	}
}

func (m MultiRecorder) RecordHealthGateSkip(id string, recentFailures int) {
	for _, r := range m {
		r.RecordHealthGateSkip(id, recentFailures)
	}
}

func (m MultiRecorder) RecordCacheError(layer string, operation string, err error) {
	for _, r := range m {
		r.RecordCacheError(layer, operation, err)
	}
}

func (m MultiRecorder) RecordCircuitBreakerStateChange(from, to string) {
	for _, r := range m {
		r.RecordCircuitBreakerStateChange(from, to)
	}
}

var (
	_ types.MetricsRecorder = (*PublishingRecorder)(nil)
	_ types.MetricsRecorder = MultiRecorder(nil)
)
