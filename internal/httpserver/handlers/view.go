package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wielebenwir/commonsmap/internal/geo"
	"github.com/wielebenwir/commonsmap/internal/httpserver/deps"
	"github.com/wielebenwir/commonsmap/internal/state"
)

// sessionFromRequest builds a one-request widget session with the filter
// criteria from the query string applied. The caller must Close it.
//
// Supported parameters: categories (comma separated ids), location (id),
// availableToday, availableFrom/availableUntil (ISO dates), lat/lng (the
// user's position, used for distance sorting).
func sessionFromRequest(d deps.Deps, r *http.Request) (*state.State, error) {
	s := state.New(d.Catalog, d.Settings.Map.Center, d.Logger)
	q := r.URL.Query()

	if v := q.Get("categories"); v != "" {
		s.SetCategories(strings.Split(v, ","))
	}

	if v := q.Get("location"); v != "" {
		loc, ok := d.Catalog.Location(v)
		if !ok {
			s.Close()
			return nil, fmt.Errorf("unknown location %q", v)
		}
		s.SetLocation(&loc)
	}

	if parseBool(q.Get("availableToday")) {
		s.SetAvailableToday(true)
	}

	if v := q.Get("availableFrom"); v != "" {
		start, err := time.Parse("2006-01-02", v)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("invalid availableFrom %q", v)
		}
		var end *time.Time
		if u := q.Get("availableUntil"); u != "" {
			parsed, err := time.Parse("2006-01-02", u)
			if err != nil {
				s.Close()
				return nil, fmt.Errorf("invalid availableUntil %q", u)
			}
			end = &parsed
		}
		s.SetAvailableBetween(&start, end)
	}

	if latStr, lngStr := q.Get("lat"), q.Get("lng"); latStr != "" || lngStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lng, lngErr := strconv.ParseFloat(lngStr, 64)
		if latErr != nil || lngErr != nil {
			s.Close()
			return nil, fmt.Errorf("invalid position %q,%q", latStr, lngStr)
		}
		s.SetUserLocation(&geo.GeoLocation{Name: "user position", Lat: lat, Lng: lng})
	}

	return s, nil
}

func parseBool(v string) bool {
	return v == "1" || v == "true"
}
