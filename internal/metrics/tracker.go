// Package metrics provides lookup metrics collection and publishing.
package metrics

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LavishGent/billboard/internal/types"
)

const (
	defaultLatencyBufferSize = 10000
)

// Tracker keeps in-process counters and a latency ring buffer for lookups.
type Tracker struct {
	lookups     atomic.Int64
	cacheHits   atomic.Int64
	primaryHits atomic.Int64
	backupHits  atomic.Int64
	notFound    atomic.Int64

	primaryFailures  atomic.Int64
	healthGateSkips  atomic.Int64
	lastGateFailures atomic.Int64
	cacheErrors      atomic.Int64
	cbStateChanges   atomic.Int64

	latencyMu     sync.RWMutex
	latencyBuffer []time.Duration
	latencyIndex  int
	latencyCount  int
}

func NewTracker() *Tracker {
	return &Tracker{
		latencyBuffer: make([]time.Duration, defaultLatencyBufferSize),
	}
}

func (t *Tracker) RecordLookup(id string, source types.Source, latency time.Duration) {
	t.lookups.Add(1)
	switch source {
	case types.SourceCache:
		t.cacheHits.Add(1)
	case types.SourcePrimary:
		t.primaryHits.Add(1)
	case types.SourceBackup:
		t.backupHits.Add(1)
	default:
		t.notFound.Add(1)
	}
	t.recordLatency(latency)
}

func (t *Tracker) RecordPrimaryFailure(id string, attempt int, err error) {
	t.primaryFailures.Add(1)
}

func (t *Tracker) RecordHealthGateSkip(id string, recentFailures int) {
	t.healthGateSkips.Add(1)
	t.lastGateFailures.Store(int64(recentFailures))
}

func (t *Tracker) RecordCacheError(layer string, operation string, err error) {
	t.cacheErrors.Add(1)
}

// RecordCircuitBreakerStateChange records circuit breaker state transitions.
func (t *Tracker) RecordCircuitBreakerStateChange(from, to string) {
	t.cbStateChanges.Add(1)
}

// recordLatency adds a latency measurement to the circular buffer without allocating.
func (t *Tracker) recordLatency(latency time.Duration) {
	t.latencyMu.Lock()
	t.latencyBuffer[t.latencyIndex] = latency
	t.latencyIndex = (t.latencyIndex + 1) % len(t.latencyBuffer)
	if t.latencyCount < len(t.latencyBuffer) {
		t.latencyCount++
	}
	t.latencyMu.Unlock()
}

// Snapshot returns current metrics snapshot.
func (t *Tracker) Snapshot() types.MetricsSnapshot {
	t.latencyMu.RLock()
	count := t.latencyCount
	latencyCopy := make([]time.Duration, count)
	if count > 0 {
		if count < len(t.latencyBuffer) {
			copy(latencyCopy, t.latencyBuffer[:count])
		} else {
			firstPart := len(t.latencyBuffer) - t.latencyIndex
			copy(latencyCopy[:firstPart], t.latencyBuffer[t.latencyIndex:])
			copy(latencyCopy[firstPart:], t.latencyBuffer[:t.latencyIndex])
		}
	}
	t.latencyMu.RUnlock()

	snapshot := types.MetricsSnapshot{
		Timestamp:        time.Now(),
		Lookups:          t.lookups.Load(),
		CacheHits:        t.cacheHits.Load(),
		PrimaryHits:      t.primaryHits.Load(),
		BackupHits:       t.backupHits.Load(),
		NotFound:         t.notFound.Load(),
		PrimaryFailures:  t.primaryFailures.Load(),
		HealthGateSkips:  t.healthGateSkips.Load(),
		LastGateFailures: t.lastGateFailures.Load(),
		CacheErrors:      t.cacheErrors.Load(),
		CircuitChanges:   t.cbStateChanges.Load(),
	}

	if len(latencyCopy) > 0 {
		slices.Sort(latencyCopy)
		snapshot.AvgLatencyMs = toMs(avgDuration(latencyCopy))
		snapshot.P50LatencyMs = toMs(percentile(latencyCopy, 50))
		snapshot.P95LatencyMs = toMs(percentile(latencyCopy, 95))
		snapshot.P99LatencyMs = toMs(percentile(latencyCopy, 99))
	}

	return snapshot
}

// Reset clears all metrics.
func (t *Tracker) Reset() {
	t.lookups.Store(0)
	t.cacheHits.Store(0)
	t.primaryHits.Store(0)
	t.backupHits.Store(0)
	t.notFound.Store(0)
	t.primaryFailures.Store(0)
	t.healthGateSkips.Store(0)
	t.lastGateFailures.Store(0)
	t.cacheErrors.Store(0)
	t.cbStateChanges.Store(0)

	t.latencyMu.Lock()
	t.latencyIndex = 0
	t.latencyCount = 0
	t.latencyMu.Unlock()
}

func toMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func avgDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}

// percentile expects sorted input.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}

var _ types.MetricsRecorder = (*Tracker)(nil)
