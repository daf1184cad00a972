package endpoint

import (
	"testing"

	"github.com/vietddude/recipefetch/internal/core/domain"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		base  string
		route Route
		want  string
	}{
		{"https://d3jbb8n5wk0qxi.cloudfront.net", Primary, "https://d3jbb8n5wk0qxi.cloudfront.net/recipes.json"},
		{"https://d3jbb8n5wk0qxi.cloudfront.net/", Empty, "https://d3jbb8n5wk0qxi.cloudfront.net/recipes-empty.json"},
		{"http://127.0.0.1:8080/feed", Malformed, "http://127.0.0.1:8080/feed/recipes-malformed.json"},
	}

	for _, tt := range tests {
		u, err := Resolve(tt.base, tt.route)
		if err != nil {
			t.Fatalf("Resolve(%q, %s) error: %v", tt.base, tt.route, err)
		}
		if u.String() != tt.want {
			t.Errorf("Resolve(%q, %s) = %s, want %s", tt.base, tt.route, u, tt.want)
		}
	}
}

func TestResolve_RejectsMalformedBase(t *testing.T) {
	bases := []string{
		"",
		"d3jbb8n5wk0qxi.cloudfront.net",
		"/relative/path",
		"ftp://example.com",
		"http://[::1",
	}

	for _, base := range bases {
		_, err := Resolve(base, Primary)
		if err == nil {
			t.Errorf("Resolve(%q) succeeded, want configuration error", base)
			continue
		}
		if kind := domain.KindOf(err); kind != domain.KindConfiguration {
			t.Errorf("Resolve(%q) kind = %s, want configuration_error", base, kind)
		}
	}
}

func TestResolve_UnknownRoute(t *testing.T) {
	_, err := Resolve("https://example.com", Route(42))
	if domain.KindOf(err) != domain.KindConfiguration {
		t.Errorf("unknown route error = %v", err)
	}
}

func TestParseRoute(t *testing.T) {
	tests := map[string]Route{
		"":          Primary,
		"primary":   Primary,
		" Empty ":   Empty,
		"malformed": Malformed,
	}
	for in, want := range tests {
		got, err := ParseRoute(in)
		if err != nil {
			t.Fatalf("ParseRoute(%q) error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseRoute(%q) = %s, want %s", in, got, want)
		}
	}

	if _, err := ParseRoute("bogus"); domain.KindOf(err) != domain.KindConfiguration {
		t.Errorf("ParseRoute(bogus) error = %v", err)
	}
}
