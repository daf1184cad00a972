// Package endpoint builds request targets for the recipe feed.
package endpoint

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/vietddude/recipefetch/internal/core/domain"
)

// Route names one of the known feed documents.
type Route int

const (
	Primary Route = iota
	Empty
	Malformed
)

type routeSpec struct {
	name string
	path string
}

// routes is the static route table. Adding a route is a new entry here.
var routes = map[Route]routeSpec{
	Primary:   {name: "primary", path: "/recipes.json"},
	Empty:     {name: "empty", path: "/recipes-empty.json"},
	Malformed: {name: "malformed", path: "/recipes-malformed.json"},
}

func (r Route) String() string {
	if spec, ok := routes[r]; ok {
		return spec.name
	}
	return fmt.Sprintf("route(%d)", int(r))
}

// Path returns the request path for the route.
func (r Route) Path() string {
	return routes[r].path
}

// ParseRoute maps a configuration name to a Route. An empty name selects Primary.
func ParseRoute(name string) (Route, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Primary, nil
	}
	for r, spec := range routes {
		if spec.name == name {
			return r, nil
		}
	}
	return 0, domain.NewFetchError(domain.KindConfiguration, fmt.Errorf("unknown route %q", name))
}

// Resolve joins base and the route path into an absolute URL.
func Resolve(base string, route Route) (*url.URL, error) {
	spec, ok := routes[route]
	if !ok {
		return nil, domain.NewFetchError(domain.KindConfiguration, fmt.Errorf("unknown route %d", int(route)))
	}

	raw := strings.TrimRight(strings.TrimSpace(base), "/") + spec.path
	u, err := url.Parse(raw)
	if err != nil {
		return nil, domain.NewFetchError(domain.KindConfiguration, fmt.Errorf("parse %q: %w", raw, err))
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, domain.NewFetchError(domain.KindConfiguration, fmt.Errorf("%q is not an absolute URL", raw))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, domain.NewFetchError(domain.KindConfiguration, fmt.Errorf("unsupported scheme %q", u.Scheme))
	}
	return u, nil
}
