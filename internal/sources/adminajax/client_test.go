package adminajax

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wielebenwir/commonsmap/internal/logger"
)

// warnRecorder counts Warn calls, discarding everything else.
type warnRecorder struct {
	logger.Logger
	warns []string
}

func (w *warnRecorder) Warn(msg string, _ ...zap.Field) {
	w.warns = append(w.warns, msg)
}

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func TestNewClientValidatesEverythingAtOnce(t *testing.T) {
	_, err := NewClient(Options{URL: "not a url", Nonce: "", MapID: 0}, logger.Nop())
	if err == nil {
		t.Fatal("expected a config error")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error type = %T, want *ConfigError", err)
	}
	// One problem per invalid field, reported together.
	if len(cfgErr.Problems) != 3 {
		t.Errorf("got %d problems, want 3: %v", len(cfgErr.Problems), cfgErr.Problems)
	}
}

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if got := r.PostFormValue("action"); got != "cb_map_locations" {
			t.Errorf("action = %q", got)
		}
		if got := r.PostFormValue("nonce"); got != "abc123" {
			t.Errorf("nonce = %q", got)
		}
		if got := r.PostFormValue("cb_map_id"); got != "7" {
			t.Errorf("cb_map_id = %q", got)
		}
		_, _ = w.Write([]byte(`[{"lat": 1, "lon": 2, "location_name": "Depot", "items": []}]`))
	}))
	defer srv.Close()

	c, err := NewClient(Options{URL: srv.URL, Nonce: "abc123", MapID: 7}, logger.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.sleep = noSleep

	payload, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(payload) != 1 || payload[0].Name != "Depot" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestClientRetriesWithLinearBackoff(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, err := NewClient(Options{URL: srv.URL, Nonce: "n", MapID: 1}, logger.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	var delays []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	if _, err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("made %d requests, want 3", calls.Load())
	}
	// The delay before attempt n is n * 1.5s.
	want := []time.Duration{3 * time.Second, 4500 * time.Millisecond}
	if len(delays) != len(want) || delays[0] != want[0] || delays[1] != want[1] {
		t.Errorf("backoff delays = %v, want %v", delays, want)
	}
}

func TestClientGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(Options{URL: srv.URL, Nonce: "n", MapID: 1}, logger.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.sleep = func(context.Context, time.Duration) error { return nil }

	_, err = c.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected the fetch to fail")
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusServiceUnavailable {
		t.Errorf("error = %v, want wrapped HTTPError 503", err)
	}
	if calls.Load() != maxAttempts {
		t.Errorf("made %d requests, want %d", calls.Load(), maxAttempts)
	}
}

func TestClientLogsEveryFailedAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	rec := &warnRecorder{Logger: logger.Nop()}
	c, err := NewClient(Options{URL: srv.URL, Nonce: "n", MapID: 1}, rec)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.sleep = func(context.Context, time.Duration) error { return nil }

	if _, err := c.Fetch(context.Background()); err == nil {
		t.Fatal("expected the fetch to fail")
	}
	// Every attempt logs its failure, the final one included.
	if len(rec.warns) != maxAttempts {
		t.Errorf("logged %d failures, want %d", len(rec.warns), maxAttempts)
	}
}

func TestClientStopsOnCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(Options{URL: srv.URL, Nonce: "n", MapID: 1}, logger.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.sleep = noSleep

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Fetch(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
