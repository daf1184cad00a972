package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vietddude/recipefetch/internal/infra/transport"
	"github.com/vietddude/recipefetch/internal/pipeline/fetch"
)

const (
	checkInterval = 10 * time.Second
	checkTimeout  = 2 * time.Second
)

// UpstreamHealth exposes the observed health of the recipe feed host.
type UpstreamHealth interface {
	GetHealth() transport.HealthStatus
}

// Checker probes an optional dependency such as Redis or PostgreSQL.
type Checker func(ctx context.Context) error

// Monitor aggregates health status from various system components.
type Monitor struct {
	upstream UpstreamHealth
	checkers map[string]Checker

	mu         sync.Mutex
	lastFetch  *FetchSummary
	lastCheck  time.Time
	lastReport *HealthReport
}

// NewMonitor creates a new health monitor.
func NewMonitor(upstream UpstreamHealth) *Monitor {
	return &Monitor{
		upstream: upstream,
		checkers: make(map[string]Checker),
	}
}

// AddChecker registers a dependency probe. A failing probe degrades the
// report but never makes it critical.
func (m *Monitor) AddChecker(name string, c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers[name] = c
	m.lastReport = nil
}

// RecordFetch observes coordinator events.
func (m *Monitor) RecordFetch(ev fetch.Event) {
	var summary *FetchSummary
	switch ev.Type {
	case fetch.EventSucceeded:
		summary = &FetchSummary{RunID: ev.RunID, At: ev.At, Succeeded: true, RecipeCount: len(ev.Recipes)}
	case fetch.EventFailed:
		summary = &FetchSummary{RunID: ev.RunID, At: ev.At, Message: ev.Message}
	default:
		return
	}

	m.mu.Lock()
	m.lastFetch = summary
	m.lastReport = nil // invalidate cached report
	m.mu.Unlock()
}

// CheckHealth performs a health check of every component.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Rate limit checks to avoid hammering dependencies
	if m.lastReport != nil && time.Since(m.lastCheck) < checkInterval {
		return *m.lastReport
	}

	report := HealthReport{
		SystemStatus: StatusHealthy,
		Components:   make(map[string]ComponentHealth),
		CheckedAt:    time.Now(),
	}

	// 1. Upstream feed host
	if m.upstream != nil {
		report.Components["upstream"] = upstreamHealth(m.upstream.GetHealth())
	}

	// 2. Last fetch outcome
	fetchHealth := ComponentHealth{Name: "fetch", Status: StatusHealthy, Detail: "no fetch yet"}
	if m.lastFetch != nil {
		cp := *m.lastFetch
		report.LastFetch = &cp
		if cp.Succeeded {
			fetchHealth.Detail = fmt.Sprintf("%d recipes", cp.RecipeCount)
		} else {
			fetchHealth.Status = StatusDegraded
			fetchHealth.Detail = cp.Message
		}
	}
	report.Components["fetch"] = fetchHealth

	// 3. Optional dependencies
	for name, check := range m.checkers {
		c := ComponentHealth{Name: name, Status: StatusHealthy}
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		if err := check(cctx); err != nil {
			c.Status = StatusDegraded
			c.Detail = err.Error()
		}
		cancel()
		report.Components[name] = c
	}

	// Aggregate status (worst case wins)
	for _, c := range report.Components {
		if c.Status.rank() > report.SystemStatus.rank() {
			report.SystemStatus = c.Status
		}
	}

	m.lastCheck = time.Now()
	m.lastReport = &report
	return report
}

func upstreamHealth(h transport.HealthStatus) ComponentHealth {
	c := ComponentHealth{Name: "upstream", Status: StatusHealthy}
	switch {
	case h.Requests == 0:
		c.Detail = "no requests yet"
	case !h.Available:
		c.Status = StatusCritical
		c.Detail = fmt.Sprintf("error rate %.0f%%", h.ErrorRate*100)
	case h.ErrorRate > 0.2:
		c.Status = StatusDegraded
		c.Detail = fmt.Sprintf("error rate %.0f%%", h.ErrorRate*100)
	default:
		c.Detail = fmt.Sprintf("avg latency %s", h.Latency.Round(time.Millisecond))
	}
	return c
}
