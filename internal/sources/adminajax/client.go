package adminajax

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wielebenwir/commonsmap/internal/logger"
	"github.com/wielebenwir/commonsmap/internal/utils"
)

const (
	ajaxAction = "cb_map_locations"

	maxAttempts  = 10
	backoffStep  = 1500 * time.Millisecond
	maxBodyBytes = 32 << 20
)

// Options configure the admin-ajax client.
type Options struct {
	// URL is the admin-ajax.php endpoint of the WordPress installation.
	URL string
	// Nonce is the per-widget request token the page embeds.
	Nonce string
	// MapID selects which configured map's locations to fetch.
	MapID int
}

// ConfigError lists every invalid option at once, so a misconfigured
// deployment fails with one complete message instead of a drip of errors.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid admin-ajax configuration: " + strings.Join(e.Problems, "; ")
}

// HTTPError is a non-2xx response from the endpoint.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("admin-ajax request failed with status %d", e.Status)
}

// Client fetches the location payload from a CommonsBooking admin-ajax
// endpoint. Transient failures are retried with a linear backoff.
type Client struct {
	opts   Options
	client *http.Client
	log    logger.Logger

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient validates opts and builds a client.
func NewClient(opts Options, log logger.Logger) (*Client, error) {
	var problems []string
	if opts.URL == "" {
		problems = append(problems, "endpoint URL is empty")
	} else if u, err := url.Parse(opts.URL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("endpoint URL %q is not absolute", opts.URL))
	}
	if opts.Nonce == "" {
		problems = append(problems, "nonce is empty")
	}
	if opts.MapID <= 0 {
		problems = append(problems, fmt.Sprintf("map id %d is not positive", opts.MapID))
	}
	if len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}

	return &Client{
		opts:   opts,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
		sleep:  sleepCtx,
	}, nil
}

func (c *Client) Type() string { return "admin-ajax" }

// Fetch posts the locations query and decodes the payload. Up to ten
// attempts are made; the delay before attempt n is n*1.5s. The last
// error is returned when every attempt fails.
func (c *Client) Fetch(ctx context.Context) (Payload, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, time.Duration(attempt)*backoffStep); err != nil {
				return nil, err
			}
		}

		payload, err := c.fetchOnce(ctx)
		if err == nil {
			return payload, nil
		}
		lastErr = err
		c.log.Warn("location fetch failed",
			logger.Int("attempt", attempt),
			logger.Error(err))

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("fetching locations failed after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context) (Payload, error) {
	form := url.Values{
		"action":    {ajaxAction},
		"nonce":     {c.opts.Nonce},
		"cb_map_id": {strconv.Itoa(c.opts.MapID)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building locations request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting locations request: %w", err)
	}
	defer utils.Close(res.Body)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &HTTPError{Status: res.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading locations response: %w", err)
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding locations response: %w", err)
	}
	return payload, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
