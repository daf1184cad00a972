package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/grpc/codes"

	"github.com/vietddude/recipefetch/internal/core/domain"
	"github.com/vietddude/recipefetch/internal/infra/imagecache"
	"github.com/vietddude/recipefetch/internal/pipeline/present"
)

const previewTimeout = 10 * time.Second

// Refresher triggers a fetch. Results reach the model through coordinator
// events, not through the return value.
type Refresher interface {
	Fetch(ctx context.Context) (domain.Collection, error)
}

type PhotoLoader interface {
	Load(ctx context.Context, u *url.URL) (imagecache.Image, error)
}

type Previewer interface {
	Preview(ctx context.Context, r domain.Recipe) (domain.SourcePreview, error)
}

// API serves the recipe list, details, photos and pull-to-refresh.
type API struct {
	Model     *present.Model
	Refresher Refresher
	Photos    PhotoLoader // optional
	Previews  Previewer   // optional

	// RetryAfter is advertised to throttled refresh callers.
	RetryAfter time.Duration
	Logger     *slog.Logger
}

type viewResponse struct {
	State   string            `json:"state"`
	Message string            `json:"message,omitempty"`
	Count   int               `json:"count"`
	Recipes domain.Collection `json:"recipes"`
}

type detailResponse struct {
	Recipe       domain.Recipe         `json:"recipe"`
	Preview      *domain.SourcePreview `json:"preview,omitempty"`
	PreviewError string                `json:"preview_error,omitempty"`
}

func (a *API) register(mux *http.ServeMux) {
	if a.Logger == nil {
		a.Logger = slog.Default()
	}
	mux.HandleFunc("GET /recipes", a.handleList)
	mux.HandleFunc("GET /recipes/{id}", a.handleDetail)
	mux.HandleFunc("GET /recipes/{id}/photo", a.handlePhoto)
	mux.HandleFunc("POST /recipes/refresh", a.handleRefresh)
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, renderView(a.Model.View(), r.URL.Query().Get("cuisine")))
}

func (a *API) handleDetail(w http.ResponseWriter, r *http.Request) {
	// Requests never touch the model's selection, which belongs to a single viewer.
	id := r.PathValue("id")
	recipe, ok := a.Model.Recipes().Find(id)
	if !ok {
		writeError(w, http.StatusNotFound, codes.NotFound, "RECIPE_NOT_FOUND", "No recipe with id "+id+".")
		return
	}
	resp := detailResponse{Recipe: recipe}

	if wantsPreview(r) && a.Previews != nil && recipe.SourceURL != nil {
		ctx, cancel := context.WithTimeout(r.Context(), previewTimeout)
		defer cancel()
		p, err := a.Previews.Preview(ctx, recipe)
		if err != nil {
			a.Logger.Warn("Source preview failed", "recipe", id, "error", err)
			resp.PreviewError = err.Error()
		} else {
			resp.Preview = &p
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handlePhoto(w http.ResponseWriter, r *http.Request) {
	if a.Photos == nil {
		writeError(w, http.StatusNotImplemented, codes.Unimplemented, "PHOTOS_DISABLED", "Photo loading is disabled.")
		return
	}

	id := r.PathValue("id")
	recipe, ok := a.Model.Recipes().Find(id)
	if !ok {
		writeError(w, http.StatusNotFound, codes.NotFound, "RECIPE_NOT_FOUND", "No recipe with id "+id+".")
		return
	}

	var u *url.URL
	switch size := r.URL.Query().Get("size"); size {
	case "", "small":
		u = recipe.PhotoSmall()
	case "large":
		u = recipe.PhotoLarge()
	default:
		writeError(w, http.StatusBadRequest, codes.InvalidArgument, "INVALID_SIZE", "size must be small or large, got "+size+".")
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, codes.NotFound, "PHOTO_NOT_FOUND", "This recipe has no photo of that size.")
		return
	}

	img, err := a.Photos.Load(r.Context(), u)
	if err != nil {
		a.Logger.Warn("Photo load failed", "recipe", id, "error", err)
		writeError(w, http.StatusBadGateway, codes.Unavailable, "PHOTO_UNAVAILABLE", "The photo could not be loaded.")
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(img.Data)
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	// A refresh runs to completion even if the caller hangs up.
	if _, err := a.Refresher.Fetch(context.WithoutCancel(r.Context())); err != nil {
		writeFetchError(w, err, a.RetryAfter)
		return
	}
	writeJSON(w, http.StatusOK, renderView(a.Model.View(), ""))
}

func renderView(v present.View, cuisine string) viewResponse {
	resp := viewResponse{State: v.Kind.String(), Message: v.Message, Recipes: domain.Collection{}}
	for _, rec := range v.Recipes {
		if cuisine != "" && !strings.EqualFold(rec.Cuisine, cuisine) {
			continue
		}
		resp.Recipes = append(resp.Recipes, rec)
	}
	resp.Count = len(resp.Recipes)
	return resp
}

func wantsPreview(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("preview")) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
