package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wielebenwir/commonsmap/internal/catalog"
	"github.com/wielebenwir/commonsmap/internal/domain"
	"github.com/wielebenwir/commonsmap/internal/geo"
	"github.com/wielebenwir/commonsmap/internal/geocode"
	"github.com/wielebenwir/commonsmap/internal/httpserver/deps"
	"github.com/wielebenwir/commonsmap/internal/logger"
	"github.com/wielebenwir/commonsmap/internal/markericon"
	"github.com/wielebenwir/commonsmap/internal/poi"
	"github.com/wielebenwir/commonsmap/internal/settings"
	"github.com/wielebenwir/commonsmap/internal/sources/adminajax"
	"github.com/wielebenwir/commonsmap/internal/sources/fixture"
)

type fakeGeocoder struct {
	results []geo.GeoLocation
	err     error
	queries []geocode.Query
}

func (f *fakeGeocoder) Search(_ context.Context, q geocode.Query) ([]geo.GeoLocation, error) {
	f.queries = append(f.queries, q)
	return f.results, f.err
}

// demoDeps wires handlers against the demo dataset, run through the real
// mapper like a reload would.
func demoDeps(t *testing.T) deps.Deps {
	t.Helper()

	src := fixture.New(0, 1)
	payload, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	categories := fixture.DemoCategories()
	ids := make([]string, len(categories))
	for i, cat := range categories {
		ids[i] = cat.ID
	}
	commons, locations := adminajax.NewMapper(ids, logger.Nop()).Map(payload)

	c := catalog.NewCatalog(logger.Nop())
	c.Update(catalog.Dataset{
		Commons:    commons,
		Locations:  locations,
		Categories: categories,
		Groups:     fixture.DemoGroups(),
	})

	cache := markericon.NewImageCache(16, time.Minute, logger.Nop())
	resolver := markericon.NewResolver(cache, nil, logger.Nop())

	cfg := settings.Default()
	return deps.Deps{
		Logger:    logger.Nop(),
		StartTime: time.Now(),
		Version:   "test",
		Settings:  cfg,
		Catalog:   c,
		Markers:   resolver,
		IconCache: cache,
		Tracker: poi.NewTracker(func(ctx context.Context, common *domain.Common) (domain.MarkerIcon, error) {
			return resolver.ResolveCommonIcon(ctx, cfg.Map.MarkerIcon, common), nil
		}, poi.Hooks{}, logger.Nop()),
		ReloadTrigger: make(chan struct{}, 1),
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	d := demoDeps(t)
	rec := httptest.NewRecorder()
	Healthz(d)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body healthzResponse
	decodeBody(t, rec, &body)
	if body.Status != "ok" || body.Version != "test" {
		t.Errorf("body = %+v", body)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("health responses must not be cached")
	}
}

func TestReadyzBeforeFirstReload(t *testing.T) {
	d := demoDeps(t)
	d.Catalog = catalog.NewCatalog(logger.Nop())

	rec := httptest.NewRecorder()
	Readyz(d)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestReadyzAfterReload(t *testing.T) {
	d := demoDeps(t)
	rec := httptest.NewRecorder()
	Readyz(d)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body readyzResponse
	decodeBody(t, rec, &body)
	if !body.Ready || body.Commons != 7 {
		t.Errorf("body = %+v", body)
	}
}

func TestCommonsUnfiltered(t *testing.T) {
	d := demoDeps(t)
	rec := httptest.NewRecorder()
	Commons(d)(rec, httptest.NewRequest(http.MethodGet, "/api/commons", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var commons []domain.Common
	decodeBody(t, rec, &commons)
	if len(commons) != 7 {
		t.Errorf("got %d commons, want 7", len(commons))
	}
}

func TestCommonsCategoryFilter(t *testing.T) {
	d := demoDeps(t)
	rec := httptest.NewRecorder()
	Commons(d)(rec, httptest.NewRequest(http.MethodGet, "/api/commons?categories=29", nil))

	var commons []domain.Common
	decodeBody(t, rec, &commons)
	want := map[string]bool{"TAFELino": true, "Bockes Bike": true, "Ayline": true}
	if len(commons) != len(want) {
		t.Fatalf("got %d commons, want %d", len(commons), len(want))
	}
	for _, c := range commons {
		if !want[c.Name] {
			t.Errorf("unexpected common %q for cargo category", c.Name)
		}
	}
}

func TestCommonsUnknownLocation(t *testing.T) {
	d := demoDeps(t)
	rec := httptest.NewRecorder()
	Commons(d)(rec, httptest.NewRequest(http.MethodGet, "/api/commons?location=nope", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestMapView(t *testing.T) {
	d := demoDeps(t)
	rec := httptest.NewRecorder()
	MapView(d)(rec, httptest.NewRequest(http.MethodGet, "/api/map", nil))

	var body mapResponse
	decodeBody(t, rec, &body)
	if len(body.Commons) != 7 {
		t.Errorf("got %d commons, want 7", len(body.Commons))
	}
	if body.Zoom != d.Settings.Map.Zoom.Start {
		t.Errorf("zoom = %d, want %d", body.Zoom, d.Settings.Map.Zoom.Start)
	}
	if body.CanResetFilters {
		t.Error("unfiltered view must not offer a reset")
	}
	if body.Loading {
		t.Error("catalog is not loading")
	}
}

func TestCommonsDistanceSort(t *testing.T) {
	d := demoDeps(t)
	rec := httptest.NewRecorder()
	// Next to the Bürgerschaftshaus in Finkenberg.
	Commons(d)(rec, httptest.NewRequest(http.MethodGet, "/api/commons?lat=50.8970&lng=7.0180", nil))

	var commons []domain.Common
	decodeBody(t, rec, &commons)
	if len(commons) == 0 {
		t.Fatal("no commons returned")
	}
	if commons[0].Name != "Bockes Bike" {
		t.Errorf("nearest common = %q, want Bockes Bike", commons[0].Name)
	}
}

func TestLocationsSorted(t *testing.T) {
	d := demoDeps(t)
	rec := httptest.NewRecorder()
	Locations(d)(rec, httptest.NewRequest(http.MethodGet, "/api/locations", nil))

	var locations []domain.CommonLocation
	decodeBody(t, rec, &locations)
	if len(locations) != 7 {
		t.Fatalf("got %d locations, want 7", len(locations))
	}
	for i := 1; i < len(locations); i++ {
		if locations[i-1].ID >= locations[i].ID {
			t.Fatalf("locations not sorted at %d: %q >= %q", i, locations[i-1].ID, locations[i].ID)
		}
	}
}

func TestCategories(t *testing.T) {
	d := demoDeps(t)
	rec := httptest.NewRecorder()
	Categories(d)(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))

	var categories []domain.CommonCategory
	decodeBody(t, rec, &categories)
	if len(categories) == 0 {
		t.Fatal("no categories returned")
	}
}

func TestMarkers(t *testing.T) {
	d := demoDeps(t)
	rec := httptest.NewRecorder()
	Markers(d)(rec, httptest.NewRequest(http.MethodGet, "/api/markers", nil))

	var markers []marker
	decodeBody(t, rec, &markers)
	if len(markers) != 7 {
		t.Fatalf("got %d markers, want 7", len(markers))
	}
	for _, m := range markers {
		if !strings.HasPrefix(m.Icon.IconURL, "data:image/svg+xml;base64,") {
			t.Errorf("marker %s has no rendered icon", m.CommonID)
		}
		if m.Coordinates.Lat == 0 || m.Coordinates.Lng == 0 {
			t.Errorf("marker %s has no coordinates", m.CommonID)
		}
	}
}

func TestUserMarker(t *testing.T) {
	d := demoDeps(t)
	rec := httptest.NewRecorder()
	UserMarker(d)(rec, httptest.NewRequest(http.MethodGet, "/api/markers/user", nil))

	var icon domain.MarkerIcon
	decodeBody(t, rec, &icon)
	if icon.IconURL == "" {
		t.Error("user marker has no icon")
	}
}

func TestGeocodeMissingTerms(t *testing.T) {
	d := demoDeps(t)
	d.Geocoder = &fakeGeocoder{}

	rec := httptest.NewRecorder()
	Geocode(d)(rec, httptest.NewRequest(http.MethodGet, "/api/geocode", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGeocodeFreeform(t *testing.T) {
	d := demoDeps(t)
	g := &fakeGeocoder{results: []geo.GeoLocation{{Name: "Köln", Lat: 50.94, Lng: 6.96}}}
	d.Geocoder = g

	rec := httptest.NewRecorder()
	Geocode(d)(rec, httptest.NewRequest(http.MethodGet, "/api/geocode?q=K%C3%B6ln", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var locations []geo.GeoLocation
	decodeBody(t, rec, &locations)
	if len(locations) != 1 || locations[0].Name != "Köln" {
		t.Errorf("locations = %+v", locations)
	}
	if len(g.queries) != 1 || g.queries[0].Freeform != "Köln" {
		t.Errorf("queries = %+v", g.queries)
	}
}

func TestGeocodeStructured(t *testing.T) {
	d := demoDeps(t)
	g := &fakeGeocoder{}
	d.Geocoder = g

	rec := httptest.NewRecorder()
	Geocode(d)(rec, httptest.NewRequest(http.MethodGet, "/api/geocode?street=Domkloster+4&city=K%C3%B6ln", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(g.queries) != 1 || g.queries[0].Street != "Domkloster 4" || g.queries[0].City != "Köln" {
		t.Errorf("queries = %+v", g.queries)
	}
}

func TestGeocodeUpstreamFailure(t *testing.T) {
	d := demoDeps(t)
	d.Geocoder = &fakeGeocoder{err: errors.New("upstream down")}

	rec := httptest.NewRecorder()
	Geocode(d)(rec, httptest.NewRequest(http.MethodGet, "/api/geocode?q=K%C3%B6ln", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestPoisLifecycle(t *testing.T) {
	d := demoDeps(t)

	rec := httptest.NewRecorder()
	UpdatePois(d)(rec, httptest.NewRequest(http.MethodPut, "/api/pois?categories=29", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200", rec.Code)
	}
	var points []poi.POI
	decodeBody(t, rec, &points)
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3 for the cargo filter", len(points))
	}
	for _, p := range points {
		if !strings.HasPrefix(p.Icon.IconURL, "data:image/svg+xml;base64,") {
			t.Errorf("poi %s has no rendered icon", p.Common.ID)
		}
		if p.Location.ID != p.Common.LocationID {
			t.Errorf("poi %s paired with location %s", p.Common.ID, p.Location.ID)
		}
	}

	// Widening the filter keeps the already resolved entries and adds the
	// rest.
	rec = httptest.NewRecorder()
	UpdatePois(d)(rec, httptest.NewRequest(http.MethodPut, "/api/pois", nil))
	decodeBody(t, rec, &points)
	if len(points) != 7 {
		t.Fatalf("got %d points after widening, want 7", len(points))
	}

	rec = httptest.NewRecorder()
	Pois(d)(rec, httptest.NewRequest(http.MethodGet, "/api/pois", nil))
	decodeBody(t, rec, &points)
	if len(points) != 7 {
		t.Errorf("snapshot has %d points, want 7", len(points))
	}

	rec = httptest.NewRecorder()
	ClearPois(d)(rec, httptest.NewRequest(http.MethodDelete, "/api/pois", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d, want 204", rec.Code)
	}
	if d.Tracker.Len() != 0 {
		t.Errorf("tracker still holds %d points", d.Tracker.Len())
	}
}

func TestUpdatePoisDebounced(t *testing.T) {
	d := demoDeps(t)
	d.PoiDebounce = geocode.NewDebouncer(10 * time.Millisecond)
	defer d.PoiDebounce.Stop()

	rec := httptest.NewRecorder()
	UpdatePois(d)(rec, httptest.NewRequest(http.MethodPut, "/api/pois?categories=29", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	deadline := time.Now().Add(2 * time.Second)
	for d.Tracker.Len() != 3 {
		if time.Now().After(deadline) {
			t.Fatal("debounced update never applied")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestUpdatePoisBadFilter(t *testing.T) {
	d := demoDeps(t)
	rec := httptest.NewRecorder()
	UpdatePois(d)(rec, httptest.NewRequest(http.MethodPut, "/api/pois?location=nope", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestReloadTrigger(t *testing.T) {
	d := demoDeps(t)

	rec := httptest.NewRecorder()
	Reload(d)(rec, httptest.NewRequest(http.MethodPost, "/api/admin/reload", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("first trigger status = %d, want 202", rec.Code)
	}

	// The buffered trigger is still pending, so a second call backs off.
	rec = httptest.NewRecorder()
	Reload(d)(rec, httptest.NewRequest(http.MethodPost, "/api/admin/reload", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second trigger status = %d, want 429", rec.Code)
	}

	select {
	case <-d.ReloadTrigger:
	default:
		t.Fatal("no trigger was queued")
	}
}

func TestInfraWithoutRedis(t *testing.T) {
	d := demoDeps(t)

	rec := httptest.NewRecorder()
	Infra(d)(rec, httptest.NewRequest(http.MethodGet, "/api/admin/infra", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body infraResponse
	decodeBody(t, rec, &body)
	if body.Mode != "degraded" {
		t.Errorf("mode = %q, want degraded without redis", body.Mode)
	}
	cat := body.Components["catalog"]
	if !cat.OK || cat.Commons == nil || *cat.Commons != 7 {
		t.Errorf("catalog component = %+v", cat)
	}
	if body.Components["redis"].OK {
		t.Error("redis component must not be ok when unconfigured")
	}
}

func TestInfraEmptyCatalogIsCritical(t *testing.T) {
	d := demoDeps(t)
	d.Catalog = catalog.NewCatalog(logger.Nop())

	rec := httptest.NewRecorder()
	Infra(d)(rec, httptest.NewRequest(http.MethodGet, "/api/admin/infra", nil))

	var body infraResponse
	decodeBody(t, rec, &body)
	if body.Mode != "critical" {
		t.Errorf("mode = %q, want critical with an empty catalog", body.Mode)
	}
}
