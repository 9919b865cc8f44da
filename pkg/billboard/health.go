package billboard

import (
	"github.com/LavishGent/billboard/internal/types"
)

// Re-export health types from internal/types.
type (
	// HealthStatus represents the overall health state.
	HealthStatus = types.HealthStatus

	// HealthMetrics describes the cache and the health gate.
	HealthMetrics = types.HealthMetrics

	// CacheHealthMetrics contains cache layer details.
	CacheHealthMetrics = types.CacheHealthMetrics

	// PrimaryHealthMetrics describes the health gate in front of the primary.
	PrimaryHealthMetrics = types.PrimaryHealthMetrics

	// MetricsSnapshot contains a point-in-time view of lookup metrics.
	MetricsSnapshot = types.MetricsSnapshot
)

const (
	HealthStatusHealthy   = types.HealthStatusHealthy
	HealthStatusDegraded  = types.HealthStatusDegraded
	HealthStatusUnhealthy = types.HealthStatusUnhealthy
)
