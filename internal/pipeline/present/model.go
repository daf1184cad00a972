// Package present adapts fetch results into the four list states a
// renderer shows: loading, error, empty and data available.
package present

import (
	"context"
	"errors"
	"sync"

	"github.com/vietddude/recipefetch/internal/core/domain"
	"github.com/vietddude/recipefetch/internal/pipeline/fetch"
)

// Fetcher loads the recipe collection.
type Fetcher interface {
	Fetch(ctx context.Context) (domain.Collection, error)
}

// ViewKind names one of the four list states.
type ViewKind int

const (
	ViewLoading ViewKind = iota
	ViewError
	ViewEmpty
	ViewDataAvailable
)

func (k ViewKind) String() string {
	switch k {
	case ViewLoading:
		return "loading"
	case ViewError:
		return "error"
	case ViewEmpty:
		return "empty"
	case ViewDataAvailable:
		return "data_available"
	default:
		return "unknown"
	}
}

// View is the list state at one point in time. Message is set for
// ViewError, Recipes for ViewDataAvailable.
type View struct {
	Kind    ViewKind
	Message string
	Recipes domain.Collection
}

// Model holds what the list renderer needs. It is safe for concurrent use.
type Model struct {
	fetcher Fetcher

	mu           sync.RWMutex
	loading      bool
	errorMessage *string
	recipes      domain.Collection
	selected     *domain.Recipe
}

// NewModel creates an empty model backed by fetcher.
func NewModel(fetcher Fetcher) *Model {
	return &Model{fetcher: fetcher}
}

// Load fetches recipes and replaces the model contents with the result.
// It returns the fetch error so callers can distinguish a throttled
// refresh from a failed one; the model already reflects it either way.
func (m *Model) Load(ctx context.Context) error {
	m.mu.Lock()
	m.loading = true
	m.mu.Unlock()

	recipes, err := m.fetcher.Fetch(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false

	if err != nil {
		msg := errorMessage(err)
		m.recipes = nil
		m.errorMessage = &msg
		m.reselect()
		return err
	}

	m.recipes = recipes
	m.errorMessage = nil
	m.reselect()
	return nil
}

// Apply stores a result produced elsewhere, e.g. by a fetch another
// component triggered on the same coordinator, and clears loading.
func (m *Model) Apply(recipes domain.Collection, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loading = false
	if err != nil {
		msg := errorMessage(err)
		m.recipes = nil
		m.errorMessage = &msg
	} else {
		m.recipes = recipes
		m.errorMessage = nil
	}
	m.reselect()
}

// HandleEvent keeps the model in step with a coordinator it observes.
// Throttled calls emit no events, so they never disturb what is shown.
func (m *Model) HandleEvent(ev fetch.Event) {
	switch ev.Type {
	case fetch.EventStarted:
		m.SetLoading(true)
	case fetch.EventSucceeded:
		m.Apply(ev.Recipes, nil)
	case fetch.EventFailed:
		m.Apply(nil, ev.Err)
	}
}

// SetLoading marks a fetch as started outside Load.
func (m *Model) SetLoading(loading bool) {
	m.mu.Lock()
	m.loading = loading
	m.mu.Unlock()
}

// View computes the current state. Loading wins over an error, an error
// over an empty list.
func (m *Model) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch {
	case m.loading:
		return View{Kind: ViewLoading}
	case m.errorMessage != nil:
		return View{Kind: ViewError, Message: *m.errorMessage}
	case len(m.recipes) == 0:
		return View{Kind: ViewEmpty}
	default:
		return View{Kind: ViewDataAvailable, Recipes: m.recipes}
	}
}

// Recipes returns the currently loaded collection.
func (m *Model) Recipes() domain.Collection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.recipes
}

// Select marks the recipe with the given id as selected. It reports false
// when no loaded recipe has that id.
func (m *Model) Select(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.recipes.Find(id)
	if !ok {
		return false
	}
	m.selected = &r
	return true
}

// ClearSelection drops the current selection.
func (m *Model) ClearSelection() {
	m.mu.Lock()
	m.selected = nil
	m.mu.Unlock()
}

// Selected returns the selected recipe, if any.
func (m *Model) Selected() (domain.Recipe, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.selected == nil {
		return domain.Recipe{}, false
	}
	return *m.selected, true
}

// reselect drops the selection when the new collection no longer has it.
// Caller holds mu.
func (m *Model) reselect() {
	if m.selected == nil {
		return
	}
	if r, ok := m.recipes.Find(m.selected.ID); ok {
		m.selected = &r
	} else {
		m.selected = nil
	}
}

func errorMessage(err error) string {
	var fe *domain.FetchError
	if errors.As(err, &fe) {
		return fe.Message()
	}
	return "Unexpected error: " + err.Error()
}
