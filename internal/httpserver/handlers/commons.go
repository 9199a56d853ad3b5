package handlers

import (
	"net/http"

	"github.com/wielebenwir/commonsmap/internal/domain"
	"github.com/wielebenwir/commonsmap/internal/geo"
	"github.com/wielebenwir/commonsmap/internal/httpserver/deps"
)

// Commons lists the filtered, distance-sorted commons.
func Commons(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessionFromRequest(d, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		defer s.Close()

		writeJSON(w, http.StatusOK, s.Commons())
	}
}

type mapResponse struct {
	Commons         []domain.Common `json:"commons"`
	MapCenter       geo.Coordinate  `json:"mapCenter"`
	Zoom            int             `json:"zoom"`
	ClusterRadius   float64         `json:"clusterRadius"`
	CanResetFilters bool            `json:"canResetFilters"`
	Loading         bool            `json:"loading"`
}

// MapView returns everything a widget needs to render in one response:
// the visible commons, the derived center, and the filter state flags.
func MapView(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessionFromRequest(d, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		defer s.Close()

		writeJSON(w, http.StatusOK, mapResponse{
			Commons:         s.Commons(),
			MapCenter:       s.MapCenter(),
			Zoom:            d.Settings.Map.Zoom.Start,
			ClusterRadius:   d.Settings.Map.ClusterRadius,
			CanResetFilters: s.CanResetFilters(),
			Loading:         d.Catalog.Loading(),
		})
	}
}
