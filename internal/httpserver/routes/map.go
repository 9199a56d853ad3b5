package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/wielebenwir/commonsmap/internal/httpserver/deps"
	"github.com/wielebenwir/commonsmap/internal/httpserver/handlers"
)

func init() { Register(registerMap) }

func registerMap(r chi.Router, d deps.Deps) {
	r.Get("/api/map", handlers.MapView(d))
	r.Get("/api/commons", handlers.Commons(d))
	r.Get("/api/locations", handlers.Locations(d))
	r.Get("/api/categories", handlers.Categories(d))
	r.Get("/api/category-groups", handlers.CategoryGroups(d))
	r.Get("/api/markers", handlers.Markers(d))
	r.Get("/api/markers/user", handlers.UserMarker(d))
}
