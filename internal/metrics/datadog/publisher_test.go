package datadog

import (
	"testing"
	"time"

	"github.com/LavishGent/billboard/internal/config"
	"github.com/LavishGent/billboard/internal/types"
)

func TestNewPublisherDisabled(t *testing.T) {
	pub, err := NewPublisher(&config.DataDogConfig{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	if _, ok := pub.(*NoOpPublisher); !ok {
		t.Errorf("NewPublisher() = %T, want *NoOpPublisher", pub)
	}
}

func TestPublisherSendsOverUDP(t *testing.T) {
	pub, err := NewPublisher(&config.DataDogConfig{
		Enabled:   true,
		AgentHost: "127.0.0.1",
		Port:      8125,
		Prefix:    "billboard",
		Tags:      []string{"env:test"},
	}, nil)
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	defer pub.Close()

	// Sends are fire-and-forget UDP; these must not block or panic without an agent.
	pub.Incr("lookup.count", "source:cache")
	pub.Timing("lookup.latency", 3*time.Millisecond)
	pub.Event("Redis cache circuit opened", "text", "warning")
	pub.PublishHealthMetrics(&types.PublisherHealthMetrics{
		CacheEntries:    12,
		CacheHitRatio:   1.5,
		PrimaryGateOpen: true,
	})
	pub.PublishHealthMetrics(nil)
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-1, 0},
		{0.5, 0.5},
		{2, 1},
	}
	for _, tt := range tests {
		if got := clamp(tt.in, 0, 1); got != tt.want {
			t.Errorf("clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if boolGauge(true) != 1 || boolGauge(false) != 0 {
		t.Error("boolGauge mismatch")
	}
}
