package types

import "time"

// Publisher sends metrics to an external sink such as DataDog.
type Publisher interface {
	Gauge(name string, value float64, tags ...string)
	Incr(name string, tags ...string)
	Count(name string, value int64, tags ...string)
	Histogram(name string, value float64, tags ...string)
	Timing(name string, duration time.Duration, tags ...string)
	Event(title, text, alertType string, tags ...string)
	PublishHealthMetrics(m *PublisherHealthMetrics)
	Close() error
}

// PublisherHealthMetrics is the periodic health sample handed to a Publisher.
type PublisherHealthMetrics struct {
	CacheEntries          int
	CacheHitRatio         float64
	BackupRatio           float64
	AverageLatencyMs      float64
	P99LatencyMs          float64
	RecentPrimaryFailures int
	PrimaryGateOpen       bool
	RedisConnected        bool
	CircuitOpen           bool
}
