package config

import (
	"time"

	redisclient "github.com/vietddude/recipefetch/internal/infra/redis"
	"github.com/vietddude/recipefetch/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Source   SourceConfig       `yaml:"source"`
	Images   ImagesConfig       `yaml:"images"`
	History  HistoryConfig      `yaml:"history"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP and gRPC server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	GRPCPort        int           `yaml:"grpc_port"`        // 0 = disabled
	RefreshInterval time.Duration `yaml:"refresh_interval"` // 0 = refresh only on request
}

// SourceConfig describes the recipe feed and the fetch pipeline bounds.
type SourceConfig struct {
	BaseURL             string        `yaml:"base_url"`
	Route               string        `yaml:"route"` // primary, empty, malformed
	MaxAttempts         int           `yaml:"max_attempts"`
	BaseDelay           time.Duration `yaml:"base_delay"`
	RequestTimeout      time.Duration `yaml:"request_timeout"`
	DebounceDelay       time.Duration `yaml:"debounce_delay"`
	MaxDebounceRetries  *int          `yaml:"max_debounce_retries"`
	WaitForConnectivity *bool         `yaml:"wait_for_connectivity"`
}

// ImagesConfig bounds the in-memory photo cache.
type ImagesConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// HistoryConfig bounds the fetch run journal.
type HistoryConfig struct {
	Keep          int           `yaml:"keep"`           // newest runs retained
	PruneInterval time.Duration `yaml:"prune_interval"` // 0 = never prune
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DebounceRetries returns the configured debounce bound.
func (s SourceConfig) DebounceRetries() int {
	if s.MaxDebounceRetries == nil {
		return DefaultMaxDebounceRetries
	}
	return *s.MaxDebounceRetries
}

// WaitsForConnectivity reports whether attempts wait out dial failures.
func (s SourceConfig) WaitsForConnectivity() bool {
	return s.WaitForConnectivity == nil || *s.WaitForConnectivity
}
