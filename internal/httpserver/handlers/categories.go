package handlers

import (
	"net/http"

	"github.com/wielebenwir/commonsmap/internal/httpserver/deps"
)

// Categories lists the filterable categories, pruned to those in use.
func Categories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Catalog.Categories())
	}
}

// CategoryGroups lists the category groups that still hold categories.
func CategoryGroups(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Catalog.Groups())
	}
}
