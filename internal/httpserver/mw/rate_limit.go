package mw

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wielebenwir/commonsmap/internal/utils"
)

// RateLimitConfig bounds per-IP request rates. Used on the geocode route,
// which fans out to a third-party service with its own usage policy.
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
	MaxEntries        int
	IdleTTL           time.Duration
	TrustProxy        bool
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipLimiter struct {
	cfg RateLimitConfig

	mu      sync.Mutex
	clients map[string]*client
}

func newIPLimiter(cfg RateLimitConfig) *ipLimiter {
	if cfg.RequestsPerMinute < 1 {
		cfg.RequestsPerMinute = 30
	}
	if cfg.Burst < 1 {
		cfg.Burst = 5
	}
	if cfg.MaxEntries < 1 {
		cfg.MaxEntries = 4096
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	return &ipLimiter{
		cfg:     cfg,
		clients: make(map[string]*client),
	}
}

func (l *ipLimiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[key]
	if !ok {
		if len(l.clients) >= l.cfg.MaxEntries {
			l.sweepLocked(now)
		}
		c = &client{
			limiter: rate.NewLimiter(rate.Limit(float64(l.cfg.RequestsPerMinute)/60.0), l.cfg.Burst),
		}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.Allow()
}

// sweepLocked drops clients idle longer than the TTL. Caller holds mu.
func (l *ipLimiter) sweepLocked(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > l.cfg.IdleTTL {
			delete(l.clients, key)
		}
	}
}

// RateLimit rejects clients exceeding their per-IP budget with 429.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newIPLimiter(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := utils.ClientIP(r, l.cfg.TrustProxy)
			if !l.allow(key, time.Now()) {
				w.Header().Set("Retry-After", strconv.Itoa(int(time.Minute.Seconds())/l.cfg.RequestsPerMinute+1))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
