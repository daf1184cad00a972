package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const (
	defaultProbeInterval = time.Second
	defaultMaxBodyBytes  = 16 << 20
)

// Options configures an HTTPClient.
type Options struct {
	Timeout             time.Duration // per request, includes connectivity wait
	WaitForConnectivity bool
	ProbeInterval       time.Duration // delay between dial retries while offline
	MaxBodyBytes        int64         // larger bodies fail with ErrUnreadableBody (default: 16 MiB)
	Logger              *slog.Logger
}

// HTTPClient implements Client over net/http.
type HTTPClient struct {
	httpClient *http.Client
	opts       Options
	log        *slog.Logger

	mu           sync.RWMutex
	health       HealthStatus
	totalLatency time.Duration
	successCount int
	failureCount int
}

// NewHTTPClient creates a new HTTP transport.
func NewHTTPClient(opts Options) *HTTPClient {
	if opts.ProbeInterval <= 0 {
		opts.ProbeInterval = defaultProbeInterval
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &HTTPClient{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		opts: opts,
		log:  log.With("component", "transport"),
		health: HealthStatus{
			Available:     true,
			LastSuccessAt: time.Now(),
		},
	}
}

// Get issues a GET with a JSON content type and returns the fully-read response.
// Any status code is returned as a Response; only transport failures are errors.
func (c *HTTPClient) Get(ctx context.Context, u *url.URL) (*Response, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.do(ctx, u)
	if err != nil {
		c.recordFailure()
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxBodyBytes+1))
	if err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("%w: %v", ErrUnreadableBody, err)
	}
	if int64(len(body)) > c.opts.MaxBodyBytes {
		c.recordFailure()
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrUnreadableBody, c.opts.MaxBodyBytes)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.recordSuccess(time.Since(start))
	} else {
		c.recordFailure()
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func (c *HTTPClient) do(ctx context.Context, u *url.URL) (*http.Response, error) {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err == nil {
			return resp, nil
		}
		if !c.opts.WaitForConnectivity || !isConnectivityError(err) || ctx.Err() != nil {
			return nil, fmt.Errorf("get %s: %w", u.Redacted(), err)
		}

		c.log.Debug("Waiting for connectivity", "url", u.Redacted(), "error", err)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("get %s: waiting for connectivity: %w", u.Redacted(), ctx.Err())
		case <-time.After(c.opts.ProbeInterval):
		}
	}
}

// isConnectivityError reports whether err means the network or host is not
// reachable yet, as opposed to a failure of an established exchange.
func isConnectivityError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}

// GetHealth returns the transport's health status.
func (c *HTTPClient) GetHealth() HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.health
}

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) recordSuccess(latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.successCount++
	c.health.Requests++
	c.totalLatency += latency
	c.health.LastSuccessAt = time.Now()
	c.health.Available = true
	c.health.ErrorRate = float64(c.failureCount) / float64(c.health.Requests)
	c.health.Latency = c.totalLatency / time.Duration(c.successCount)
}

func (c *HTTPClient) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failureCount++
	c.health.Requests++
	c.health.LastFailureAt = time.Now()
	c.health.ErrorRate = float64(c.failureCount) / float64(c.health.Requests)

	if c.health.ErrorRate > 0.5 {
		c.health.Available = false
	}
}
