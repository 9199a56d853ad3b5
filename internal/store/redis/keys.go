package redis

const (
	// KeySnapshot holds the last raw location payload.
	KeySnapshot = "cbmap:snapshot"
	// KeyPrefixGeocode is the prefix for cached geocode searches.
	KeyPrefixGeocode = "cbmap:geocode:"
)

// GeocodeKey returns the Redis key for a cached address search.
func GeocodeKey(query string) string {
	return KeyPrefixGeocode + query
}
