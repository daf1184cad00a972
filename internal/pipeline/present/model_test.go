package present

import (
	"context"
	"errors"
	"testing"

	"github.com/vietddude/recipefetch/internal/core/domain"
	"github.com/vietddude/recipefetch/internal/pipeline/fetch"
)

type stubFetcher struct {
	recipes domain.Collection
	err     error
	during  func()
}

func (f *stubFetcher) Fetch(ctx context.Context) (domain.Collection, error) {
	if f.during != nil {
		f.during()
	}
	return f.recipes, f.err
}

func testRecipes() domain.Collection {
	return domain.Collection{
		{ID: "0c6ca6e7-e32a-4053-b824-1dbf749910d8", Cuisine: "Malaysian", Name: "Apam Balik"},
		{ID: "599344f4-3c5c-4cca-b914-2210e3b3312f", Cuisine: "British", Name: "Apple & Blackberry Crumble"},
	}
}

func TestModel_InitialState(t *testing.T) {
	m := NewModel(&stubFetcher{})

	if v := m.View(); v.Kind != ViewEmpty {
		t.Errorf("initial view = %s, want empty", v.Kind)
	}
	if _, ok := m.Selected(); ok {
		t.Error("nothing should be selected initially")
	}
}

func TestModel_LoadSuccess(t *testing.T) {
	want := testRecipes()
	m := NewModel(&stubFetcher{recipes: want})

	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	v := m.View()
	if v.Kind != ViewDataAvailable {
		t.Fatalf("view = %s, want data_available", v.Kind)
	}
	if len(v.Recipes) != 2 || !v.Recipes[0].Equal(want[0]) {
		t.Errorf("recipes = %+v", v.Recipes)
	}
}

func TestModel_LoadEmpty(t *testing.T) {
	m := NewModel(&stubFetcher{recipes: domain.Collection{}})
	m.Load(context.Background())

	if v := m.View(); v.Kind != ViewEmpty {
		t.Errorf("view = %s, want empty", v.Kind)
	}
}

func TestModel_LoadFetchError(t *testing.T) {
	ferr := domain.NewFetchError(domain.KindInvalidResponse, nil)
	m := NewModel(&stubFetcher{err: ferr})

	if err := m.Load(context.Background()); !errors.Is(err, ferr) {
		t.Errorf("Load returned %v, want %v", err, ferr)
	}

	v := m.View()
	if v.Kind != ViewError {
		t.Fatalf("view = %s, want error", v.Kind)
	}
	if v.Message != ferr.Message() {
		t.Errorf("message = %q, want %q", v.Message, ferr.Message())
	}
	if len(m.Recipes()) != 0 {
		t.Error("recipes should be cleared on error")
	}
}

func TestModel_LoadUnexpectedError(t *testing.T) {
	m := NewModel(&stubFetcher{err: errors.New("disk on fire")})
	m.Load(context.Background())

	v := m.View()
	if v.Kind != ViewError || v.Message != "Unexpected error: disk on fire" {
		t.Errorf("view = %+v", v)
	}
}

func TestModel_ErrorThenSuccessClearsMessage(t *testing.T) {
	f := &stubFetcher{err: errors.New("boom")}
	m := NewModel(f)
	m.Load(context.Background())

	f.err = nil
	f.recipes = testRecipes()
	m.Load(context.Background())

	if v := m.View(); v.Kind != ViewDataAvailable || v.Message != "" {
		t.Errorf("view = %+v, want data_available with no message", v)
	}
}

func TestModel_LoadingDuringFetch(t *testing.T) {
	f := &stubFetcher{recipes: testRecipes()}
	m := NewModel(f)

	var during View
	f.during = func() { during = m.View() }
	m.Load(context.Background())

	if during.Kind != ViewLoading {
		t.Errorf("view during fetch = %s, want loading", during.Kind)
	}
	if v := m.View(); v.Kind != ViewDataAvailable {
		t.Errorf("view after fetch = %s, want data_available", v.Kind)
	}
}

func TestModel_ViewPrecedence(t *testing.T) {
	msg := "Test error"
	tests := []struct {
		name    string
		loading bool
		errMsg  *string
		recipes domain.Collection
		want    ViewKind
	}{
		{"loading beats everything", true, &msg, testRecipes(), ViewLoading},
		{"error beats data", false, &msg, testRecipes(), ViewError},
		{"error beats empty", false, &msg, nil, ViewError},
		{"empty", false, nil, nil, ViewEmpty},
		{"data", false, nil, testRecipes(), ViewDataAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Model{loading: tt.loading, errorMessage: tt.errMsg, recipes: tt.recipes}
			if got := m.View().Kind; got != tt.want {
				t.Errorf("View() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestModel_Selection(t *testing.T) {
	f := &stubFetcher{recipes: testRecipes()}
	m := NewModel(f)
	m.Load(context.Background())

	if m.Select("missing") {
		t.Error("selecting an unknown id should fail")
	}
	if !m.Select("599344f4-3c5c-4cca-b914-2210e3b3312f") {
		t.Fatal("select failed")
	}
	r, ok := m.Selected()
	if !ok || r.Name != "Apple & Blackberry Crumble" {
		t.Errorf("selected = %+v, %v", r, ok)
	}

	// A reload that drops the recipe clears the selection.
	f.recipes = testRecipes()[:1]
	m.Load(context.Background())
	if _, ok := m.Selected(); ok {
		t.Error("selection should be cleared when the recipe disappears")
	}

	m.Select("0c6ca6e7-e32a-4053-b824-1dbf749910d8")
	m.ClearSelection()
	if _, ok := m.Selected(); ok {
		t.Error("ClearSelection did not clear")
	}
}

func TestModel_Apply(t *testing.T) {
	m := NewModel(&stubFetcher{})
	m.SetLoading(true)
	if m.View().Kind != ViewLoading {
		t.Fatal("SetLoading(true) should show loading")
	}

	m.SetLoading(false)
	m.Apply(testRecipes(), nil)
	if m.View().Kind != ViewDataAvailable {
		t.Errorf("view = %s after Apply", m.View().Kind)
	}

	m.Apply(nil, domain.NewFetchError(domain.KindHTTPError, nil))
	if v := m.View(); v.Kind != ViewError {
		t.Errorf("view = %s after failed Apply", v.Kind)
	}
}

func TestModel_HandleEvent(t *testing.T) {
	m := NewModel(&stubFetcher{})

	m.HandleEvent(fetch.Event{Type: fetch.EventStarted, RunID: "r1"})
	if m.View().Kind != ViewLoading {
		t.Fatalf("view = %s after start event", m.View().Kind)
	}

	m.HandleEvent(fetch.Event{Type: fetch.EventSucceeded, RunID: "r1", Recipes: testRecipes()})
	if v := m.View(); v.Kind != ViewDataAvailable || len(v.Recipes) != 2 {
		t.Fatalf("view = %+v after success event", v)
	}

	ferr := &domain.FetchError{Kind: domain.KindMaxRetryExceeded, Attempts: 3}
	m.HandleEvent(fetch.Event{Type: fetch.EventFailed, RunID: "r2", Err: ferr, Message: ferr.Message()})
	if v := m.View(); v.Kind != ViewError || v.Message != "Unable to load recipes after 3 attempts." {
		t.Errorf("view = %+v after failure event", v)
	}
}
