package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wielebenwir/commonsmap/internal/geo"
	"github.com/wielebenwir/commonsmap/internal/logger"
	"github.com/wielebenwir/commonsmap/internal/utils"
)

const (
	defaultInterval = time.Second
	maxResults      = 10
	maxBodyBytes    = 4 << 20
)

// Query is one address search. Either the structured fields or Freeform is
// used; structured fields win when any is set, because they geocode far
// more precisely.
type Query struct {
	Freeform string

	Street     string
	City       string
	County     string
	PostalCode string
	State      string
}

func (q Query) structured() bool {
	return q.Street != "" || q.City != "" || q.County != "" || q.PostalCode != "" || q.State != ""
}

// IsEmpty reports whether the query has no search terms at all.
func (q Query) IsEmpty() bool {
	return q.Freeform == "" && !q.structured()
}

// Key is a stable cache key for the query.
func (q Query) Key() string {
	if q.structured() {
		return strings.Join([]string{q.Street, q.City, q.County, q.PostalCode, q.State}, "|")
	}
	return q.Freeform
}

// Cache stores raw search results, keyed by Query.Key.
type Cache interface {
	GetSearch(ctx context.Context, key string) ([]geo.NominatimResult, bool)
	SetSearch(ctx context.Context, key string, results []geo.NominatimResult)
}

// Options configure the geocoding client.
type Options struct {
	// Endpoint is the Nominatim search URL.
	Endpoint string
	// CountryCodes restrict results, as lowercase ISO codes.
	CountryCodes []string
	// DedupeRadiusMeters collapses results closer together than this to
	// the best-scored one.
	DedupeRadiusMeters float64
	// RequestInterval is the minimum spacing between upstream requests.
	// Nominatim's usage policy asks for at most one per second, the
	// default.
	RequestInterval time.Duration
}

// Client searches addresses against a Nominatim endpoint. Upstream
// requests are rate limited; an optional cache short-circuits repeats.
type Client struct {
	opts    Options
	limiter *rate.Limiter
	client  *http.Client
	cache   Cache
	log     logger.Logger
}

// NewClient builds a geocoding client. cache may be nil.
func NewClient(opts Options, cache Cache, log logger.Logger) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("geocode endpoint is empty")
	}
	if u, err := url.Parse(opts.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("geocode endpoint %q is not absolute", opts.Endpoint)
	}
	if opts.RequestInterval <= 0 {
		opts.RequestInterval = defaultInterval
	}
	if opts.DedupeRadiusMeters <= 0 {
		opts.DedupeRadiusMeters = 30
	}
	return &Client{
		opts:    opts,
		limiter: rate.NewLimiter(rate.Every(opts.RequestInterval), 1),
		client:  &http.Client{Timeout: 15 * time.Second},
		cache:   cache,
		log:     log,
	}, nil
}

// Search geocodes the query and returns display-ready locations: near
// duplicates collapsed, names formatted from the address details.
func (c *Client) Search(ctx context.Context, q Query) ([]geo.GeoLocation, error) {
	results, err := c.rawSearch(ctx, q)
	if err != nil {
		return nil, err
	}
	survivors := geo.FilterNeighboringResults(results, c.opts.DedupeRadiusMeters)
	return geo.FormatResults(survivors), nil
}

func (c *Client) rawSearch(ctx context.Context, q Query) ([]geo.NominatimResult, error) {
	key := q.Key()
	if c.cache != nil {
		if results, ok := c.cache.GetSearch(ctx, key); ok {
			return results, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.Endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("building geocode request: %w", err)
	}
	req.URL.RawQuery = c.queryParams(q).Encode()

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer utils.Close(res.Body)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("geocode request failed with status %d", res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading geocode response: %w", err)
	}

	var results []geo.NominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decoding geocode response: %w", err)
	}

	if c.cache != nil {
		c.cache.SetSearch(ctx, key, results)
	}
	return results, nil
}

func (c *Client) queryParams(q Query) url.Values {
	params := url.Values{
		"format":         {"json"},
		"addressdetails": {"1"},
		"limit":          {fmt.Sprint(maxResults)},
	}
	if len(c.opts.CountryCodes) > 0 {
		params.Set("countrycodes", strings.Join(c.opts.CountryCodes, ","))
	}

	if !q.structured() {
		params.Set("q", q.Freeform)
		return params
	}
	setIf := func(key, value string) {
		if value != "" {
			params.Set(key, value)
		}
	}
	setIf("street", q.Street)
	setIf("city", q.City)
	setIf("county", q.County)
	setIf("postalcode", q.PostalCode)
	setIf("state", q.State)
	return params
}
