package markericon

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wielebenwir/commonsmap/internal/logger"
	"github.com/wielebenwir/commonsmap/internal/utils"
)

const (
	// DefaultCacheEntries bounds the icon image cache. The widget of a single
	// map rarely needs more than a few dozen distinct images.
	DefaultCacheEntries = 256
	// DefaultCacheTTL keeps entries fresh enough to pick up replaced assets.
	DefaultCacheTTL = time.Hour

	maxImageBytes = 5 << 20
)

type cacheEntry struct {
	dataURI  string
	storedAt time.Time
}

// ImageCache resolves image URLs to data URIs with a process-wide, bounded
// cache. Concurrent requests for the same URL share a single fetch.
type ImageCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry

	maxEntries int
	ttl        time.Duration

	group  singleflight.Group
	client *http.Client
	log    logger.Logger
	now    func() time.Time
}

func NewImageCache(maxEntries int, ttl time.Duration, log logger.Logger) *ImageCache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ImageCache{
		entries:    make(map[string]cacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		client:     &http.Client{Timeout: 15 * time.Second},
		log:        log,
		now:        time.Now,
	}
}

// Resolve returns a data URI for url, or "" if the image is unavailable.
// Failures are logged, never returned: marker rendering degrades instead.
func (c *ImageCache) Resolve(ctx context.Context, url string) string {
	if url == "" {
		return ""
	}
	// Data URIs need no fetching and would only bloat the cache.
	if strings.HasPrefix(url, "data:") {
		return url
	}

	if uri, ok := c.lookup(url); ok {
		return uri
	}

	result, _, _ := c.group.Do(url, func() (interface{}, error) {
		uri := c.fetch(ctx, url)
		if uri != "" {
			c.store(url, uri)
		}
		return uri, nil
	})
	return result.(string)
}

func (c *ImageCache) lookup(url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[url]
	if !ok {
		return "", false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, url)
		return "", false
	}
	return entry.dataURI, true
}

func (c *ImageCache) store(url, dataURI string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[url] = cacheEntry{dataURI: dataURI, storedAt: c.now()}
}

// evictLocked drops expired entries, then the oldest ones until a quarter of
// the capacity is free again.
func (c *ImageCache) evictLocked() {
	now := c.now()
	for url, entry := range c.entries {
		if now.Sub(entry.storedAt) > c.ttl {
			delete(c.entries, url)
		}
	}

	target := c.maxEntries - c.maxEntries/4
	for len(c.entries) > target {
		oldestURL := ""
		var oldest time.Time
		for url, entry := range c.entries {
			if oldestURL == "" || entry.storedAt.Before(oldest) {
				oldestURL = url
				oldest = entry.storedAt
			}
		}
		delete(c.entries, oldestURL)
	}
}

func (c *ImageCache) fetch(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		c.log.Warn("failed to build image request",
			logger.String("url", url),
			logger.Error(err))
		return ""
	}

	res, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("failed to fetch marker image",
			logger.String("url", url),
			logger.Error(err))
		return ""
	}
	defer utils.Close(res.Body)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		c.log.Warn("marker image request returned an error status",
			logger.String("url", url),
			logger.Int("status", res.StatusCode))
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxImageBytes))
	if err != nil {
		c.log.Warn("failed to read marker image body",
			logger.String("url", url),
			logger.Error(err))
		return ""
	}

	contentType := res.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}

	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(body)
}

// Len returns the number of cached entries. Used by the infra endpoint.
func (c *ImageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
