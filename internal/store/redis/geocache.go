package redis

import (
	"context"
	"encoding/json"

	"github.com/wielebenwir/commonsmap/internal/geo"
)

// GeocodeCache adapts the store to the geocode client's cache interface.
// Errors degrade to cache misses: the geocoder works without Redis, just
// slower.
type GeocodeCache struct {
	store *Store
}

// NewGeocodeCache wraps the store for use by the geocode client.
func NewGeocodeCache(store *Store) *GeocodeCache {
	return &GeocodeCache{store: store}
}

// GetSearch returns the cached raw results for a search key.
func (c *GeocodeCache) GetSearch(ctx context.Context, key string) ([]geo.NominatimResult, bool) {
	data, err := c.store.client.Get(ctx, GeocodeKey(key)).Bytes()
	if err != nil {
		// redis.Nil and transient failures alike are just misses.
		return nil, false
	}

	var results []geo.NominatimResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, false
	}
	return results, true
}

// SetSearch caches the raw results for a search key.
func (c *GeocodeCache) SetSearch(ctx context.Context, key string, results []geo.NominatimResult) {
	data, err := json.Marshal(results)
	if err != nil {
		return
	}
	_ = c.store.client.Set(ctx, GeocodeKey(key), data, DefaultGeocodeTTL).Err()
}
