package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/wielebenwir/commonsmap/internal/httpserver/deps"
	"github.com/wielebenwir/commonsmap/internal/httpserver/handlers"
	"github.com/wielebenwir/commonsmap/internal/httpserver/mw"
)

func init() { Register(registerGeocode) }

func registerGeocode(r chi.Router, d deps.Deps) {
	r.With(mw.RateLimit(mw.RateLimitConfig{TrustProxy: d.TrustProxy})).Get("/api/geocode", handlers.Geocode(d))
}
