package types

import "time"

// HealthStatus represents the overall health state.
type HealthStatus int

const (
	// HealthStatusHealthy indicates the primary provider is in use and the cache is up.
	HealthStatusHealthy HealthStatus = iota + 1
	// HealthStatusDegraded indicates lookups bypass the primary provider or Redis is down.
	HealthStatusDegraded
	// HealthStatusUnhealthy indicates the cache is unavailable or the service is closed.
	HealthStatusUnhealthy
)

func (s HealthStatus) String() string {
	switch s {
	case HealthStatusHealthy:
		return "healthy"
	case HealthStatusDegraded:
		return "degraded"
	case HealthStatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

type HealthMetrics struct {
	Timestamp time.Time
	Cache     CacheHealthMetrics
	Primary   PrimaryHealthMetrics
	Status    HealthStatus
}

type CacheHealthMetrics struct {
	Level               string
	CircuitBreakerState string
	EntryCount          int
	HitRatio            float64
	MemoryAvailable     bool
	RedisAvailable      bool
}

// PrimaryHealthMetrics describes the health gate in front of the primary provider.
type PrimaryHealthMetrics struct {
	RecentFailures int
	Threshold      int
	Window         time.Duration
	GateOpen       bool
}

// MetricsSnapshot contains a point-in-time view of lookup metrics.
//
//nolint:govet // Metrics struct - grouping by category improves readability
type MetricsSnapshot struct {
	Timestamp time.Time

	// Outcome counters
	Lookups     int64
	CacheHits   int64
	PrimaryHits int64
	BackupHits  int64
	NotFound    int64

	// Failure counters
	PrimaryFailures  int64
	HealthGateSkips  int64
	CacheErrors      int64
	CircuitChanges   int64
	LastGateFailures int64

	// Latency metrics (milliseconds)
	AvgLatencyMs float64
	P50LatencyMs float64
	P95LatencyMs float64
	P99LatencyMs float64
}

// CacheHitRatio is the fraction of lookups answered from the cache.
func (s *MetricsSnapshot) CacheHitRatio() float64 {
	if s.Lookups == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(s.Lookups)
}

// BackupRatio is the fraction of provider-served lookups that came from the backup.
func (s *MetricsSnapshot) BackupRatio() float64 {
	served := s.PrimaryHits + s.BackupHits
	if served == 0 {
		return 0
	}
	return float64(s.BackupHits) / float64(served)
}
