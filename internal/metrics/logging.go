package metrics

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/LavishGent/billboard/internal/types"
)

// LoggingPublisher logs metrics using slog.
type LoggingPublisher struct {
	logger   *slog.Logger
	baseTags []string
}

// NewLoggingPublisher creates a new logging publisher.
func NewLoggingPublisher(logger *slog.Logger, baseTags ...string) *LoggingPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingPublisher{
		logger:   logger.With("component", "metrics"),
		baseTags: baseTags,
	}
}

func (p *LoggingPublisher) Gauge(name string, value float64, tags ...string) {
	p.logger.Debug("gauge", "name", name, "value", value, "tags", p.mergeTags(tags))
}

func (p *LoggingPublisher) Incr(name string, tags ...string) {
	p.logger.Debug("incr", "name", name, "tags", p.mergeTags(tags))
}

func (p *LoggingPublisher) Count(name string, value int64, tags ...string) {
	p.logger.Debug("count", "name", name, "value", value, "tags", p.mergeTags(tags))
}

func (p *LoggingPublisher) Histogram(name string, value float64, tags ...string) {
	p.logger.Debug("histogram", "name", name, "value", value, "tags", p.mergeTags(tags))
}

func (p *LoggingPublisher) Timing(name string, duration time.Duration, tags ...string) {
	p.logger.Debug("timing",
		"name", name,
		"duration_ms", duration.Milliseconds(),
		"tags", p.mergeTags(tags),
	)
}

// Event logs an event at Warn for warning/error alerts and Info otherwise.
func (p *LoggingPublisher) Event(title, text, alertType string, tags ...string) {
	level := slog.LevelInfo
	if alertType == "warning" || alertType == "error" {
		level = slog.LevelWarn
	}
	p.logger.Log(context.Background(), level, "event",
		"title", title,
		"text", text,
		"alert_type", alertType,
		"tags", p.mergeTags(tags),
	)
}

// PublishHealthMetrics logs a batch of health metrics.
func (p *LoggingPublisher) PublishHealthMetrics(m *types.PublisherHealthMetrics) {
	if m == nil {
		return
	}

	p.logger.Info("health_metrics",
		"cache_entries", m.CacheEntries,
		"cache_hit_ratio", m.CacheHitRatio,
		"backup_ratio", m.BackupRatio,
		"avg_latency_ms", m.AverageLatencyMs,
		"p99_latency_ms", m.P99LatencyMs,
		"recent_primary_failures", m.RecentPrimaryFailures,
		"primary_gate_open", m.PrimaryGateOpen,
		"redis_connected", m.RedisConnected,
		"circuit_open", m.CircuitOpen,
	)
}

// Close does nothing for logging publisher.
func (p *LoggingPublisher) Close() error {
	return nil
}

func (p *LoggingPublisher) mergeTags(tags []string) []string {
	if len(tags) == 0 {
		return p.baseTags
	}
	if len(p.baseTags) == 0 {
		return tags
	}
	return slices.Concat(p.baseTags, tags)
}

var _ types.Publisher = (*LoggingPublisher)(nil)
