package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/wielebenwir/commonsmap/internal/httpserver/deps"
	"github.com/wielebenwir/commonsmap/internal/httpserver/handlers"
	"github.com/wielebenwir/commonsmap/internal/httpserver/mw"
)

func init() { Register(registerAdmin) }

func registerAdmin(r chi.Router, d deps.Deps) {
	guarded := r.With(mw.AllowOnlyCIDRS(d.AdminCIDRS, d.TrustProxy, d.Logger))
	guarded.Post("/api/admin/reload", handlers.Reload(d))
	guarded.Get("/api/admin/infra", handlers.Infra(d))
}
