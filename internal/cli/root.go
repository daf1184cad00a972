package cli

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/recipefetch/internal/core/config"
)

var (
	cfgPath string
	isDebug bool
	baseURL string
	route   string
)

var rootCmd = &cobra.Command{
	Use:   "recipefetch",
	Short: "Recipe feed client",
	Long: `recipefetch loads the recipe feed with admission control and bounded retries,
then lists it, shows a single recipe, or serves it over HTTP.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "override source.base_url")
	rootCmd.PersistentFlags().StringVar(&route, "route", "", "override source.route (primary, empty, malformed)")
}

// loadConfig reads the config file, applies flag overrides and sets up logging.
// A missing default config file falls back to built-in defaults.
func loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("config") {
			stylelog.InitDefault()
			return nil, err
		}
		cfg = config.Default()
	}

	if baseURL != "" {
		cfg.Source.BaseURL = baseURL
	}
	if route != "" {
		cfg.Source.Route = route
	}

	setupLogging(cfg.Logging)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg config.LoggingConfig) {
	level := parseLevel(cfg.Level)
	if isDebug {
		level = slog.LevelDebug
	}

	if strings.EqualFold(cfg.Format, "json") {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return
	}

	stylelog.InitDefault(&tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// fatal logs err and exits.
func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
