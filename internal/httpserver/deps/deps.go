package deps

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wielebenwir/commonsmap/internal/catalog"
	"github.com/wielebenwir/commonsmap/internal/geo"
	"github.com/wielebenwir/commonsmap/internal/geocode"
	"github.com/wielebenwir/commonsmap/internal/logger"
	"github.com/wielebenwir/commonsmap/internal/markericon"
	"github.com/wielebenwir/commonsmap/internal/poi"
	"github.com/wielebenwir/commonsmap/internal/settings"
)

// Geocoder is the address search the handlers call. Satisfied by
// geocode.Client, replaceable in tests.
type Geocoder interface {
	Search(ctx context.Context, q geocode.Query) ([]geo.GeoLocation, error)
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string

	TrustProxy bool     // true if running behind a trusted reverse proxy
	AdminCIDRS []string // IPs allowed on the admin routes (reload, infra)

	Settings  settings.Settings
	Catalog   *catalog.Catalog
	Markers   *markericon.Resolver
	IconCache *markericon.ImageCache
	Geocoder  Geocoder
	Tracker   *poi.Tracker

	// PoiDebounce coalesces rapid point-of-interest updates; nil disables
	// debouncing and applies them immediately.
	PoiDebounce *geocode.Debouncer

	RedisClient   *redis.Client // nil when running without persistence
	ReloadTrigger chan struct{} // channel to trigger a manual data reload
}
