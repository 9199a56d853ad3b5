package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wielebenwir/commonsmap/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	Commons    *int   `json:"commons,omitempty"`
	Locations  *int   `json:"locations,omitempty"`
	LastReload string `json:"last_reload,omitempty"`
	Entries    *int   `json:"entries,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the operational state of the data pipeline: catalog
// freshness, icon cache fill, tracked pois, and Redis reachability.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commons := d.Catalog.Count()
		locations := len(d.Catalog.Locations())
		lastReload := "never"
		if t := d.Catalog.LastReload(); !t.IsZero() {
			lastReload = t.Format(time.RFC3339)
		}

		iconEntries := d.IconCache.Len()
		poiCount := d.Tracker.Len()

		components := map[string]componentStatus{
			"catalog": {
				OK:         commons > 0,
				Commons:    &commons,
				Locations:  &locations,
				LastReload: lastReload,
			},
			"icon_cache": {
				OK:      true,
				Entries: &iconEntries,
			},
			"pois": {
				OK:      true,
				Entries: &poiCount,
			},
			"redis": checkRedis(d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       mode(components),
			Components: components,
		})
	}
}

// mode summarizes the component table: no data is critical, a missing
// snapshot store only degrades warm starts.
func mode(components map[string]componentStatus) string {
	if !components["catalog"].OK {
		return "critical"
	}
	if !components["redis"].OK {
		return "degraded"
	}
	return "ok"
}

func checkRedis(d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{OK: false, Error: "not configured"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{OK: false, Error: err.Error()}
	}
	return componentStatus{OK: true}
}
