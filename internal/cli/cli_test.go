package cli

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/recipefetch/internal/core/domain"
	"github.com/vietddude/recipefetch/internal/pipeline/present"
)

func strPtr(s string) *string { return &s }

func TestPrintView(t *testing.T) {
	recipes := domain.Collection{
		{ID: "a", Name: "Apam Balik", Cuisine: "Malaysian"},
		{ID: "b", Name: "Bakewell Tart", Cuisine: "British"},
	}

	tests := []struct {
		name    string
		view    present.View
		cuisine string
		want    []string
		notWant []string
	}{
		{
			name: "data",
			view: present.View{Kind: present.ViewDataAvailable, Recipes: recipes},
			want: []string{"ID", "Apam Balik", "Bakewell Tart"},
		},
		{
			name:    "cuisine filter",
			view:    present.View{Kind: present.ViewDataAvailable, Recipes: recipes},
			cuisine: "british",
			want:    []string{"Bakewell Tart"},
			notWant: []string{"Apam Balik"},
		},
		{
			name: "empty",
			view: present.View{Kind: present.ViewEmpty},
			want: []string{"No recipes available."},
		},
		{
			name:    "error",
			view:    present.View{Kind: present.ViewError, Message: "Unable to load recipes after 3 attempts."},
			want:    []string{"Unable to load recipes after 3 attempts."},
			notWant: []string{"ID"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printView(&buf, tt.view, tt.cuisine)
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output should not contain %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestPrintRecipe_OptionalFields(t *testing.T) {
	var buf bytes.Buffer
	printRecipe(&buf, domain.Recipe{
		ID: "a", Name: "Apam Balik", Cuisine: "Malaysian",
		SourceURL: strPtr("https://example.com/apam"),
	})
	out := buf.String()

	if !strings.Contains(out, "https://example.com/apam") {
		t.Errorf("source missing:\n%s", out)
	}
	if strings.Contains(out, "YouTube") || strings.Contains(out, "Photo") {
		t.Errorf("absent fields should be omitted:\n%s", out)
	}
}

func TestPrintRuns(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var buf bytes.Buffer
	printRuns(&buf, []*domain.FetchRun{{
		ID: "run-1", StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond),
		Attempts: 2, Outcome: domain.OutcomeSuccess, StatusCode: 200, RecipeCount: 63,
	}})
	out := buf.String()

	for _, w := range []string{"RUN", "run-1", "2026-01-02T03:04:05Z", "1.5s", "success", "63"} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	t.Chdir(t.TempDir()) // no config.yaml here
	baseURL, route = "http://localhost:4000", "empty"
	defer func() { baseURL, route = "", "" }()

	cfg, err := loadConfig(rootCmd)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Source.BaseURL != "http://localhost:4000" || cfg.Source.Route != "empty" {
		t.Errorf("overrides not applied: %+v", cfg.Source)
	}

	route = "secret"
	if _, err := loadConfig(rootCmd); err == nil || !strings.Contains(err.Error(), "source.route") {
		t.Errorf("invalid override error = %v", err)
	}
}
