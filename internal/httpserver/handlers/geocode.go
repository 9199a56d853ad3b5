package handlers

import (
	"net/http"

	"github.com/wielebenwir/commonsmap/internal/geocode"
	"github.com/wielebenwir/commonsmap/internal/httpserver/deps"
	"github.com/wielebenwir/commonsmap/internal/logger"
)

// Geocode searches addresses. Either q (freeform) or the structured
// street/city/county/postalcode/state parameters must be given.
func Geocode(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()
		query := geocode.Query{
			Freeform:   params.Get("q"),
			Street:     params.Get("street"),
			City:       params.Get("city"),
			County:     params.Get("county"),
			PostalCode: params.Get("postalcode"),
			State:      params.Get("state"),
		}
		if query.IsEmpty() {
			writeError(w, http.StatusBadRequest, "missing search terms")
			return
		}

		locations, err := d.Geocoder.Search(r.Context(), query)
		if err != nil {
			d.Logger.Error("address search failed", logger.Error(err))
			writeError(w, http.StatusBadGateway, "address search failed")
			return
		}
		writeJSON(w, http.StatusOK, locations)
	}
}
