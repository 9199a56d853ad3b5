package handlers

import (
	"net/http"
	"sort"

	"github.com/wielebenwir/commonsmap/internal/domain"
	"github.com/wielebenwir/commonsmap/internal/httpserver/deps"
)

// Locations lists every pickup location, ordered by id for stable output.
func Locations(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		byID := d.Catalog.Locations()
		locations := make([]domain.CommonLocation, 0, len(byID))
		for _, loc := range byID {
			locations = append(locations, loc)
		}
		sort.Slice(locations, func(i, j int) bool {
			return locations[i].ID < locations[j].ID
		})
		writeJSON(w, http.StatusOK, locations)
	}
}
