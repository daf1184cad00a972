package fetch

import (
	"time"

	"github.com/vietddude/recipefetch/internal/core/domain"
)

// EventType identifies a stage of an admitted fetch.
type EventType int

const (
	EventStarted EventType = iota
	EventSucceeded
	EventFailed
)

func (t EventType) String() string {
	switch t {
	case EventStarted:
		return "started"
	case EventSucceeded:
		return "succeeded"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is emitted for every admitted fetch: once when it starts and once
// when it finishes. Rejected admissions emit nothing.
type Event struct {
	Type    EventType
	RunID   string
	At      time.Time
	Recipes domain.Collection  // EventSucceeded
	Err     *domain.FetchError // EventFailed
	Message string             // EventFailed, human-readable
}

// Observer receives pipeline events. Observers run synchronously on the
// fetching goroutine and must not call Fetch.
type Observer func(Event)

// Observe registers an observer.
func (c *Coordinator) Observe(o Observer) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers = append(c.observers, o)
}

func (c *Coordinator) emit(ev Event) {
	c.obsMu.RLock()
	observers := c.observers
	c.obsMu.RUnlock()

	for _, o := range observers {
		o(ev)
	}
}
