package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	DefaultBaseURL            = "https://d3jbb8n5wk0qxi.cloudfront.net"
	DefaultMaxDebounceRetries = 3
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expanding environment variables first.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied, used when
// no config file is given.
func Default() *AppConfig {
	var cfg AppConfig
	cfg.ApplyDefaults()
	return &cfg
}

// ApplyDefaults fills zero-valued fields.
func (c *AppConfig) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}

	s := &c.Source
	if s.BaseURL == "" {
		s.BaseURL = DefaultBaseURL
	}
	if s.Route == "" {
		s.Route = "primary"
	}
	if s.MaxAttempts == 0 {
		s.MaxAttempts = 3
	}
	if s.BaseDelay == 0 {
		s.BaseDelay = 2 * time.Second
	}
	if s.RequestTimeout == 0 {
		s.RequestTimeout = 30 * time.Second
	}
	if s.DebounceDelay == 0 {
		s.DebounceDelay = 500 * time.Millisecond
	}

	if c.Images.MaxEntries == 0 {
		c.Images.MaxEntries = 256
	}

	if c.History.Keep == 0 {
		c.History.Keep = 500
	}
	if c.History.PruneInterval == 0 {
		c.History.PruneInterval = time.Hour
	}

	if c.Redis.LeaseKey == "" {
		c.Redis.LeaseKey = "recipes"
	}
	if c.Redis.LeaseTTL == 0 {
		c.Redis.LeaseTTL = 2 * time.Minute
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "pgx"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate reports every invalid setting at once.
func (c *AppConfig) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("server.grpc_port out of range: %d", c.Server.GRPCPort))
	}
	if c.Server.RefreshInterval < 0 {
		errs = append(errs, errors.New("server.refresh_interval must not be negative"))
	}

	if u, err := url.Parse(c.Source.BaseURL); err != nil || u.Host == "" ||
		(u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("source.base_url must be an absolute http(s) URL: %q", c.Source.BaseURL))
	}
	switch c.Source.Route {
	case "primary", "empty", "malformed":
	default:
		errs = append(errs, fmt.Errorf("source.route must be primary, empty or malformed: %q", c.Source.Route))
	}
	if c.Source.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("source.max_attempts must be at least 1: %d", c.Source.MaxAttempts))
	}
	if c.Source.BaseDelay < 0 || c.Source.RequestTimeout < 0 || c.Source.DebounceDelay < 0 {
		errs = append(errs, errors.New("source delays and timeouts must not be negative"))
	}
	if c.Source.DebounceRetries() < 0 {
		errs = append(errs, errors.New("source.max_debounce_retries must not be negative"))
	}

	if c.Images.MaxEntries < 0 {
		errs = append(errs, errors.New("images.max_entries must not be negative"))
	}

	if c.History.Keep < 0 || c.History.PruneInterval < 0 {
		errs = append(errs, errors.New("history.keep and history.prune_interval must not be negative"))
	}

	switch c.Database.Driver {
	case "pgx", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be pgx or postgres: %q", c.Database.Driver))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json: %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
