// Package imagecache loads recipe photos and keeps the most recently used
// ones in memory. Nothing is written to disk.
package imagecache

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/vietddude/recipefetch/internal/infra/transport"
	"github.com/vietddude/recipefetch/internal/pipeline/metrics"
)

const (
	DefaultMaxEntries = 256
	downloadTimeout   = 30 * time.Second
)

// Image is a downloaded photo.
type Image struct {
	ContentType string
	Data        []byte
}

// Cache is a bounded in-memory photo cache. Concurrent loads of the same
// URL share one download.
type Cache struct {
	client  transport.Client
	entries *lru.Cache[string, Image]
	group   singleflight.Group
}

// New creates a cache holding at most maxEntries photos.
func New(client transport.Client, maxEntries int) (*Cache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	entries, err := lru.NewWithEvict(maxEntries, func(string, Image) {
		metrics.ImageCacheRequests.WithLabelValues("evicted").Inc()
	})
	if err != nil {
		return nil, fmt.Errorf("create image cache: %w", err)
	}
	return &Cache{client: client, entries: entries}, nil
}

// Load returns the photo at u, downloading it on a miss.
func (c *Cache) Load(ctx context.Context, u *url.URL) (Image, error) {
	key := u.String()
	if img, ok := c.entries.Get(key); ok {
		metrics.ImageCacheRequests.WithLabelValues("hit").Inc()
		return img, nil
	}
	metrics.ImageCacheRequests.WithLabelValues("miss").Inc()

	// The shared download outlives any single caller's context.
	ch := c.group.DoChan(key, func() (any, error) {
		if img, ok := c.entries.Get(key); ok {
			return img, nil
		}
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), downloadTimeout)
		defer cancel()
		img, err := c.download(dctx, u)
		if err != nil {
			return Image{}, err
		}
		c.entries.Add(key, img)
		return img, nil
	})

	select {
	case <-ctx.Done():
		metrics.ImageCacheRequests.WithLabelValues("error").Inc()
		return Image{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			metrics.ImageCacheRequests.WithLabelValues("error").Inc()
			return Image{}, res.Err
		}
		return res.Val.(Image), nil
	}
}

func (c *Cache) download(ctx context.Context, u *url.URL) (Image, error) {
	resp, err := c.client.Get(ctx, u)
	if err != nil {
		return Image{}, fmt.Errorf("download image: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Image{}, fmt.Errorf("download image %s: status %d", u.Redacted(), resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(resp.Body)
	}
	return Image{ContentType: ct, Data: resp.Body}, nil
}

// Len returns the number of cached photos.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every cached photo.
func (c *Cache) Purge() {
	c.entries.Purge()
}
