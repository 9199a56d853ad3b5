package handlers

import (
	"context"
	"net/http"

	"github.com/wielebenwir/commonsmap/internal/domain"
	"github.com/wielebenwir/commonsmap/internal/httpserver/deps"
)

// Pois lists the tracked points of interest in the order their icons
// resolved.
func Pois(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Tracker.Snapshot())
	}
}

// UpdatePois reconciles the tracked set against the commons visible under
// the given filter parameters (the same ones the commons listing takes).
// With a debouncer configured, rapid successive updates coalesce and the
// call returns before icon resolution finishes.
func UpdatePois(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessionFromRequest(d, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		commons := s.Commons()
		s.Close()

		locate := func(id string) (domain.CommonLocation, bool) {
			return d.Catalog.Location(id)
		}

		if d.PoiDebounce != nil {
			d.PoiDebounce.Do(func() {
				// Detached from the request: the client is long gone when
				// the quiet period ends.
				d.Tracker.Update(context.Background(), commons, locate)
			})
			w.WriteHeader(http.StatusAccepted)
			return
		}

		d.Tracker.Update(r.Context(), commons, locate)
		writeJSON(w, http.StatusOK, d.Tracker.Snapshot())
	}
}

// ClearPois drops every tracked point.
func ClearPois(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Tracker.Clear()
		w.WriteHeader(http.StatusNoContent)
	}
}
