// Package preview scrapes a recipe's source page for link-preview metadata.
//
// Parse is pure: it depends only on the HTML and the page URL. Fetching
// goes through a transport.Client so previews share the pipeline's HTTP
// settings.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vietddude/recipefetch/internal/core/domain"
	"github.com/vietddude/recipefetch/internal/infra/transport"
	"github.com/vietddude/recipefetch/internal/pipeline/metrics"
)

// ErrNoSource is returned for recipes without a source URL.
var ErrNoSource = errors.New("recipe has no source url")

// Scraper fetches and parses source pages.
type Scraper struct {
	client transport.Client
}

func NewScraper(client transport.Client) *Scraper {
	return &Scraper{client: client}
}

// Preview fetches the recipe's source page and extracts its metadata.
func (s *Scraper) Preview(ctx context.Context, r domain.Recipe) (domain.SourcePreview, error) {
	u := r.Source()
	if u == nil {
		return domain.SourcePreview{}, ErrNoSource
	}

	p, err := s.fetch(ctx, u)
	if err != nil {
		metrics.PreviewRequests.WithLabelValues("error").Inc()
		return domain.SourcePreview{}, err
	}
	metrics.PreviewRequests.WithLabelValues("success").Inc()
	return p, nil
}

func (s *Scraper) fetch(ctx context.Context, u *url.URL) (domain.SourcePreview, error) {
	resp, err := s.client.Get(ctx, u)
	if err != nil {
		return domain.SourcePreview{}, fmt.Errorf("fetch source page: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.SourcePreview{}, fmt.Errorf("fetch source page: status %d", resp.StatusCode)
	}
	return Parse(resp.Body, u)
}

// Parse extracts title, description, image and site name from an HTML page.
// OpenGraph tags win over their plain HTML fallbacks. Relative image URLs
// are resolved against pageURL.
func Parse(html []byte, pageURL *url.URL) (domain.SourcePreview, error) {
	if len(html) == 0 {
		return domain.SourcePreview{}, errors.New("empty html")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return domain.SourcePreview{}, err
	}

	p := domain.SourcePreview{URL: pageURL.String()}

	p.Title = firstNonEmpty(
		meta(doc, "property", "og:title"),
		meta(doc, "name", "twitter:title"),
		normSpace(doc.Find("head title").First().Text()),
		normSpace(doc.Find("h1").First().Text()),
	)
	p.Description = firstNonEmpty(
		meta(doc, "property", "og:description"),
		meta(doc, "name", "description"),
	)
	p.SiteName = firstNonEmpty(
		meta(doc, "property", "og:site_name"),
		pageURL.Hostname(),
	)

	image := firstNonEmpty(
		meta(doc, "property", "og:image"),
		meta(doc, "name", "twitter:image"),
	)
	if image != "" {
		if ref, err := url.Parse(image); err == nil {
			p.Image = pageURL.ResolveReference(ref).String()
		}
	}

	return p, nil
}

func meta(doc *goquery.Document, attr, key string) string {
	var val string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(s.AttrOr(attr, "")), key) {
			return true
		}
		val = normSpace(s.AttrOr("content", ""))
		return val == ""
	})
	return val
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func normSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
