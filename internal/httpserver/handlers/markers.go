package handlers

import (
	"net/http"

	"github.com/wielebenwir/commonsmap/internal/domain"
	"github.com/wielebenwir/commonsmap/internal/geo"
	"github.com/wielebenwir/commonsmap/internal/httpserver/deps"
)

type marker struct {
	CommonID    string            `json:"commonId"`
	LocationID  string            `json:"locationId"`
	Coordinates geo.Coordinate    `json:"coordinates"`
	Icon        domain.MarkerIcon `json:"icon"`
}

// Markers resolves one renderable marker per visible common. Accepts the
// same filter parameters as the commons listing.
func Markers(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessionFromRequest(d, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		defer s.Close()

		commons := s.Commons()
		markers := make([]marker, 0, len(commons))
		for i := range commons {
			c := &commons[i]
			loc, ok := d.Catalog.Location(c.LocationID)
			if !ok {
				continue
			}
			markers = append(markers, marker{
				CommonID:    c.ID,
				LocationID:  loc.ID,
				Coordinates: loc.Coordinates,
				Icon:        d.Markers.ResolveCommonIcon(r.Context(), d.Settings.Map.MarkerIcon, c),
			})
		}
		writeJSON(w, http.StatusOK, markers)
	}
}

// UserMarker resolves the icon for the user's own position.
func UserMarker(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		icon := d.Markers.ResolveUserIcon(r.Context(), d.Settings.Map.UserMarker)
		writeJSON(w, http.StatusOK, icon)
	}
}
