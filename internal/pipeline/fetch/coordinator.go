// Package fetch implements the resilient recipe fetch pipeline.
//
// A Coordinator gates callers through admission control, then drives a
// bounded sequence of transport attempts with exponential backoff:
//
//	Idle → Admitted → Attempting(n) → Success
//	                               → Attempting(n+1) (after backoff)
//	                               → Exhausted
//
// Transport and status failures are retried; decode and configuration
// failures are terminal. Every error returned is a *domain.FetchError.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/vietddude/recipefetch/internal/core/domain"
	"github.com/vietddude/recipefetch/internal/infra/codec"
	"github.com/vietddude/recipefetch/internal/infra/endpoint"
	"github.com/vietddude/recipefetch/internal/infra/transport"
	"github.com/vietddude/recipefetch/internal/pipeline/metrics"
)

const (
	journalTimeout = 5 * time.Second
	maxLoggedBody  = 512
)

// Lease is a cross-process admission lease keyed by a per-fetch token.
type Lease interface {
	Acquire(ctx context.Context, token string) (bool, error)
	Release(ctx context.Context, token string) error
}

// RunRecorder persists a journal entry for each admitted fetch.
type RunRecorder interface {
	Save(ctx context.Context, run *domain.FetchRun) error
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithLease adds a distributed lease checked after local admission.
func WithLease(l Lease) Option {
	return func(c *Coordinator) { c.lease = l }
}

// WithRunRecorder journals every admitted fetch.
func WithRunRecorder(r RunRecorder) Option {
	return func(c *Coordinator) { c.runs = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// Coordinator owns admission state and the retry loop for one feed endpoint.
// It is safe for concurrent use.
type Coordinator struct {
	cfg    Config
	client transport.Client
	lease  Lease
	runs   RunRecorder
	log    *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error

	mu    sync.Mutex
	state State

	obsMu     sync.RWMutex
	observers []Observer
}

// NewCoordinator creates a coordinator. Zero-valued config fields take their defaults.
func NewCoordinator(cfg Config, client transport.Client, opts ...Option) *Coordinator {
	c := &Coordinator{
		cfg:    cfg.withDefaults(),
		client: client,
		log:    slog.Default(),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "fetch", "route", c.cfg.Route.String())
	return c
}

// Config returns the effective configuration.
func (c *Coordinator) Config() Config {
	return c.cfg
}

// Fetch retrieves and decodes the recipe feed.
func (c *Coordinator) Fetch(ctx context.Context) (domain.Collection, error) {
	if err := c.admit(ctx); err != nil {
		return nil, err
	}
	defer c.release()

	runID := uuid.NewString()

	if c.lease != nil {
		ok, err := c.lease.Acquire(ctx, runID)
		switch {
		case err != nil:
			c.log.Warn("Fetch lease unavailable, continuing without it", "error", err)
		case !ok:
			metrics.AdmissionDecisions.WithLabelValues(c.cfg.Route.String(), "lease_denied").Inc()
			return nil, domain.NewFetchError(domain.KindRequestThrottled, fmt.Errorf("fetch lease held by another process"))
		default:
			defer c.releaseLease(ctx, runID)
		}
	}

	run := &domain.FetchRun{
		ID:        runID,
		Route:     c.cfg.Route.String(),
		StartedAt: time.Now(),
	}
	c.emit(Event{Type: EventStarted, RunID: runID, At: run.StartedAt})

	recipes, err := c.fetchWithRetry(ctx, run)
	run.FinishedAt = time.Now()
	c.finish(ctx, run, recipes, err)

	if err != nil {
		return nil, err
	}
	return recipes, nil
}

func (c *Coordinator) fetchWithRetry(ctx context.Context, run *domain.FetchRun) (domain.Collection, *domain.FetchError) {
	route := c.cfg.Route.String()
	backoff := retry.WithMaxRetries(uint64(c.cfg.MaxAttempts-1), retry.NewExponential(c.cfg.BaseDelay))

	var lastErr *domain.FetchError
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		run.Attempts = attempt + 1

		u, err := endpoint.Resolve(c.cfg.BaseURL, c.cfg.Route)
		if err != nil {
			return nil, asFetchError(err, domain.KindConfiguration)
		}

		resp, outcome, latency := c.attempt(ctx, u)
		metrics.AttemptLatency.WithLabelValues(route).Observe(latency.Seconds())
		if outcome.HasResponse {
			run.StatusCode = outcome.Status
		}

		kind := Classify(outcome)
		if kind == domain.KindNone {
			metrics.AttemptsTotal.WithLabelValues(route, "success").Inc()
			recipes, err := codec.Decode(resp.Body)
			if err != nil {
				c.log.Error("Failed to decode recipes", "attempt", attempt+1, "error", err)
				return nil, domain.NewFetchError(domain.KindDecodeFailed, err)
			}
			c.log.Debug("Received recipes", "attempt", attempt+1, "count", len(recipes), "latency", latency)
			return recipes, nil
		}

		metrics.AttemptsTotal.WithLabelValues(route, kind.String()).Inc()
		lastErr = &domain.FetchError{Kind: kind, Status: outcome.Status, Err: outcome.Err}
		c.logFailedAttempt(attempt, lastErr, resp)

		if ctx.Err() != nil {
			return nil, domain.NewFetchError(domain.KindTransport, ctx.Err())
		}
		if !Retryable(kind) {
			return nil, lastErr
		}

		delay, stop := backoff.Next()
		if stop {
			break
		}
		metrics.BackoffSeconds.WithLabelValues(route).Observe(delay.Seconds())
		if err := c.sleep(ctx, delay); err != nil {
			return nil, domain.NewFetchError(domain.KindTransport, err)
		}
	}

	return nil, &domain.FetchError{
		Kind:     domain.KindMaxRetryExceeded,
		Attempts: c.cfg.MaxAttempts,
		Err:      lastErr,
	}
}

func (c *Coordinator) attempt(ctx context.Context, u *url.URL) (*transport.Response, Outcome, time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	c.log.Debug("Fetching recipes", "url", u.Redacted())

	start := time.Now()
	resp, err := c.client.Get(ctx, u)
	latency := time.Since(start)

	if err != nil {
		return nil, Outcome{Err: err}, latency
	}
	if resp == nil {
		return nil, Outcome{}, latency
	}
	return resp, Outcome{HasResponse: true, Status: resp.StatusCode}, latency
}

func (c *Coordinator) logFailedAttempt(attempt int, err *domain.FetchError, resp *transport.Response) {
	args := []any{"attempt", attempt + 1, "max_attempts", c.cfg.MaxAttempts, "error", err}
	if resp != nil && len(resp.Body) > 0 {
		body := resp.Body
		if len(body) > maxLoggedBody {
			body = body[:maxLoggedBody]
		}
		args = append(args, "body", string(body))
	}
	c.log.Warn("Fetch attempt failed", args...)
}

func (c *Coordinator) releaseLease(ctx context.Context, token string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()
	if err := c.lease.Release(ctx, token); err != nil {
		c.log.Warn("Failed to release fetch lease", "error", err)
	}
}

func (c *Coordinator) finish(ctx context.Context, run *domain.FetchRun, recipes domain.Collection, ferr *domain.FetchError) {
	route := c.cfg.Route.String()
	ev := Event{RunID: run.ID, At: run.FinishedAt}

	if ferr == nil {
		run.Outcome = domain.OutcomeSuccess
		run.RecipeCount = len(recipes)
		metrics.RecipesDecoded.WithLabelValues(route).Set(float64(len(recipes)))
		ev.Type = EventSucceeded
		ev.Recipes = recipes
		c.log.Info("Fetched recipes", "run_id", run.ID, "count", len(recipes), "attempts", run.Attempts, "duration", run.Duration())
	} else {
		run.Outcome = ferr.Kind.String()
		run.Error = ferr.Error()
		ev.Type = EventFailed
		ev.Err = ferr
		ev.Message = ferr.Message()
		c.log.Error("Fetch failed", "run_id", run.ID, "kind", ferr.Kind.String(), "attempts", run.Attempts, "error", ferr)
	}
	metrics.FetchesTotal.WithLabelValues(route, run.Outcome).Inc()

	c.emit(ev)

	if c.runs != nil {
		jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
		defer cancel()
		if err := c.runs.Save(jctx, run); err != nil {
			c.log.Warn("Failed to journal fetch run", "run_id", run.ID, "error", err)
		}
	}
}

func asFetchError(err error, fallback domain.ErrorKind) *domain.FetchError {
	var fe *domain.FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return domain.NewFetchError(fallback, err)
}
