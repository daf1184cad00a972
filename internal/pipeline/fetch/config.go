package fetch

import (
	"time"

	"github.com/vietddude/recipefetch/internal/infra/endpoint"
)

// Config holds the construction-time settings of a Coordinator.
type Config struct {
	BaseURL string
	Route   endpoint.Route

	// Retry bounds
	MaxAttempts int           // total attempts per fetch (default: 3)
	BaseDelay   time.Duration // first backoff, doubled per retry (default: 2s)

	// RequestTimeout bounds a single transport attempt (default: 30s)
	RequestTimeout time.Duration

	// Debounce settings for calls arriving during cooldown
	DebounceDelay      time.Duration // (default: 500ms)
	MaxDebounceRetries int           // (default: 3)
}

// DefaultConfig returns the default pipeline settings for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:            baseURL,
		Route:              endpoint.Primary,
		MaxAttempts:        3,
		BaseDelay:          2 * time.Second,
		RequestTimeout:     30 * time.Second,
		DebounceDelay:      500 * time.Millisecond,
		MaxDebounceRetries: 3,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig(c.BaseURL)
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = d.BaseDelay
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.DebounceDelay <= 0 {
		c.DebounceDelay = d.DebounceDelay
	}
	if c.MaxDebounceRetries < 0 {
		c.MaxDebounceRetries = 0
	}
	return c
}
