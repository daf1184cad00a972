// Package health provides system health monitoring, the HTTP API and the
// gRPC health service.
package health

import "time"

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

func (s SystemStatus) rank() int {
	switch s {
	case StatusCritical:
		return 2
	case StatusDegraded:
		return 1
	default:
		return 0
	}
}

// ComponentHealth contains the health of one dependency.
type ComponentHealth struct {
	Name   string       `json:"name"`
	Status SystemStatus `json:"status"`
	Detail string       `json:"detail,omitempty"`
}

// FetchSummary describes the most recent admitted fetch.
type FetchSummary struct {
	RunID       string    `json:"run_id"`
	At          time.Time `json:"at"`
	Succeeded   bool      `json:"succeeded"`
	RecipeCount int       `json:"recipe_count"`
	Message     string    `json:"message,omitempty"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus               `json:"system_status"`
	Components   map[string]ComponentHealth `json:"components"`
	LastFetch    *FetchSummary              `json:"last_fetch,omitempty"`
	CheckedAt    time.Time                  `json:"checked_at"`
}
