package domain

import "net/url"

// Recipe is a single record from the recipe feed.
// Identity is defined by ID alone.
type Recipe struct {
	ID      string `json:"id"`
	Cuisine string `json:"cuisine"`
	Name    string `json:"name"`

	// Optional fields are nil when absent or null on the wire.
	PhotoURLLarge *string `json:"photo_url_large,omitempty"`
	PhotoURLSmall *string `json:"photo_url_small,omitempty"`
	SourceURL     *string `json:"source_url,omitempty"`
	YoutubeURL    *string `json:"youtube_url,omitempty"`
}

// Equal reports whether two recipes share the same identifier.
func (r Recipe) Equal(other Recipe) bool {
	return r.ID == other.ID
}

func (r Recipe) PhotoLarge() *url.URL { return parseOptionalURL(r.PhotoURLLarge) }
func (r Recipe) PhotoSmall() *url.URL { return parseOptionalURL(r.PhotoURLSmall) }
func (r Recipe) Source() *url.URL     { return parseOptionalURL(r.SourceURL) }
func (r Recipe) Youtube() *url.URL    { return parseOptionalURL(r.YoutubeURL) }

func parseOptionalURL(s *string) *url.URL {
	if s == nil || *s == "" {
		return nil
	}
	u, err := url.Parse(*s)
	if err != nil {
		return nil
	}
	return u
}

// Collection is an ordered list of recipes in server response order.
type Collection []Recipe

// Find returns the recipe with the given id.
func (c Collection) Find(id string) (Recipe, bool) {
	for _, r := range c {
		if r.ID == id {
			return r, true
		}
	}
	return Recipe{}, false
}

// Contains reports whether a recipe with the same identity is present.
func (c Collection) Contains(r Recipe) bool {
	_, ok := c.Find(r.ID)
	return ok
}
