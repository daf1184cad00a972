package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/vietddude/recipefetch/internal/core/domain"
	"github.com/vietddude/recipefetch/internal/pipeline/metrics"
)

// State is the admission-control state of a Coordinator.
type State struct {
	InFlight    bool
	CoolingDown bool
}

// State returns a snapshot of the admission flags.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// admit runs admission control. On success both flags are set and the
// caller must call release exactly once.
//
//   - in flight: reject with KindRequestThrottled
//   - cooling down: wait DebounceDelay and check again, at most
//     MaxDebounceRetries times, then reject
//   - otherwise: admit
func (c *Coordinator) admit(ctx context.Context) error {
	route := c.cfg.Route.String()

	for waits := 0; ; waits++ {
		c.mu.Lock()
		switch {
		case c.state.InFlight:
			c.mu.Unlock()
			metrics.AdmissionDecisions.WithLabelValues(route, "throttled").Inc()
			return domain.NewFetchError(domain.KindRequestThrottled, fmt.Errorf("fetch already in flight"))

		case c.state.CoolingDown:
			c.mu.Unlock()
			if waits >= c.cfg.MaxDebounceRetries {
				metrics.AdmissionDecisions.WithLabelValues(route, "throttled").Inc()
				return domain.NewFetchError(domain.KindRequestThrottled,
					fmt.Errorf("still cooling down after %d debounce waits", waits))
			}
			metrics.AdmissionDecisions.WithLabelValues(route, "debounced").Inc()
			c.log.Debug("Debouncing fetch", "wait", c.cfg.DebounceDelay, "attempt", waits+1)
			if err := c.sleep(ctx, c.cfg.DebounceDelay); err != nil {
				return domain.NewFetchError(domain.KindTransport, err)
			}

		default:
			c.state = State{InFlight: true, CoolingDown: true}
			c.mu.Unlock()
			metrics.AdmissionDecisions.WithLabelValues(route, "admitted").Inc()
			return nil
		}
	}
}

func (c *Coordinator) release() {
	c.mu.Lock()
	c.state = State{}
	c.mu.Unlock()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
