package handlers

import (
	"net/http"

	"github.com/wielebenwir/commonsmap/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready   bool `json:"ready"`
	Loading bool `json:"loading"`
	Commons int  `json:"commons"`
}

// Readyz reports whether the catalog has served at least one dataset.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ready := !d.Catalog.LastReload().IsZero()
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, readyzResponse{
			Ready:   ready,
			Loading: d.Catalog.Loading(),
			Commons: d.Catalog.Count(),
		})
	}
}
