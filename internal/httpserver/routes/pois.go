package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/wielebenwir/commonsmap/internal/httpserver/deps"
	"github.com/wielebenwir/commonsmap/internal/httpserver/handlers"
)

func init() { Register(registerPois) }

func registerPois(r chi.Router, d deps.Deps) {
	r.Get("/api/pois", handlers.Pois(d))
	r.Put("/api/pois", handlers.UpdatePois(d))
	r.Delete("/api/pois", handlers.ClearPois(d))
}
