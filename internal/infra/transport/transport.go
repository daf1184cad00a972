// Package transport issues the HTTP requests of the fetch pipeline.
//
// This package contains:
//   - Client interface: one GET per call, body fully read
//   - HTTPClient: net/http implementation with per-request timeout,
//     wait-for-connectivity and health tracking
package transport

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"
)

// ErrUnreadableBody is returned when a response arrived but its body could not be read.
var ErrUnreadableBody = errors.New("unreadable response body")

// Response is a fully-read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client performs a single GET against a resolved URL.
type Client interface {
	Get(ctx context.Context, u *url.URL) (*Response, error)
}

// HealthStatus represents the observed health of the upstream.
type HealthStatus struct {
	Available     bool          `json:"available"`
	Latency       time.Duration `json:"latency"`
	ErrorRate     float64       `json:"error_rate"`
	Requests      int           `json:"requests"`
	LastSuccessAt time.Time     `json:"last_success_at"`
	LastFailureAt time.Time     `json:"last_failure_at"`
}
