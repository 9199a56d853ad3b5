package state

import (
	"sync"
	"time"

	"github.com/wielebenwir/commonsmap/internal/catalog"
	"github.com/wielebenwir/commonsmap/internal/domain"
	"github.com/wielebenwir/commonsmap/internal/geo"
	"github.com/wielebenwir/commonsmap/internal/logger"
)

// State is one widget session: the active filter plus the derived view of
// the catalog. Every mutation recomputes the view synchronously, so a
// read after a mutation always observes its effect. Catalog reloads feed
// back in through a subscription.
type State struct {
	catalog       *catalog.Catalog
	defaultCenter geo.Coordinate
	log           logger.Logger
	now           func() time.Time

	mu          sync.Mutex
	filter      *domain.FilterSet
	view        []domain.Common
	mapCenter   geo.Coordinate
	unsubscribe func()
}

// New creates a session bound to the catalog. defaultCenter is shown while
// no commons are visible.
func New(c *catalog.Catalog, defaultCenter geo.Coordinate, log logger.Logger) *State {
	s := &State{
		catalog:       c,
		defaultCenter: defaultCenter,
		log:           log,
		now:           time.Now,
		filter:        domain.NewFilterSet(),
		mapCenter:     defaultCenter,
	}
	s.unsubscribe = c.Subscribe(func() {
		s.mu.Lock()
		s.recompute()
		s.mu.Unlock()
	})

	s.mu.Lock()
	s.recompute()
	s.mu.Unlock()
	return s
}

// Close detaches the session from catalog updates.
func (s *State) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Commons returns the filtered, distance-sorted view.
func (s *State) Commons() []domain.Common {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := make([]domain.Common, len(s.view))
	copy(view, s.view)
	return view
}

// MapCenter returns the derived viewport center.
func (s *State) MapCenter() geo.Coordinate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapCenter
}

// Filter returns a copy of the active filter for serialization.
func (s *State) Filter() domain.FilterSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.filter
}

// CanResetFilters reports whether any user-applied criterion is active.
func (s *State) CanResetFilters() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.filter.IsPristine()
}

// SetCategories replaces the selected filter categories.
func (s *State) SetCategories(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.Categories = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.filter.Categories[id] = struct{}{}
	}
	s.recompute()
}

// SetLocation restricts the view to a single pickup location, or lifts the
// restriction when loc is nil.
func (s *State) SetLocation(loc *domain.CommonLocation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.Location = loc
	s.recompute()
}

// SetUserLocation sets the user's own position, which takes precedence
// over the map center for distance sorting.
func (s *State) SetUserLocation(loc *geo.GeoLocation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.UserLocation = loc
	s.recompute()
}

// SetAvailableToday toggles the today-availability criterion.
func (s *State) SetAvailableToday(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.AvailableToday = on
	if on {
		s.filter.AvailableBetween = domain.DateRange{}
	}
	s.recompute()
}

// SetAvailableBetween sets the availability date range. A nil start clears
// the criterion.
func (s *State) SetAvailableBetween(start, end *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.AvailableBetween = domain.DateRange{Start: start, End: end}
	if start != nil {
		s.filter.AvailableToday = false
	}
	s.recompute()
}

// Reset drops every user-applied criterion. The map center stays: it is
// derived state, not a choice.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	center := s.filter.MapCenter
	s.filter = domain.NewFilterSet()
	s.filter.MapCenter = center
	s.recompute()
}

// recompute rebuilds the view: filter, derive the center from what is
// visible, then sort by distance to the reference point. Caller holds mu.
func (s *State) recompute() {
	filtered := domain.FilterCommons(s.catalog.Commons(), s.filter, s.now())
	locations := s.catalog.Locations()

	center := s.deriveCenter(filtered, locations)
	s.mapCenter = center
	s.filter.MapCenter = &center

	if ref := s.filter.ReferencePoint(); ref != nil {
		filtered = domain.SortByDistance(filtered, *ref, locations)
	}
	s.view = filtered
}

// deriveCenter is the midpoint of the bounding box around every visible
// location, plus the user's position when known. With nothing visible the
// configured default center applies.
func (s *State) deriveCenter(commons []domain.Common, locations map[string]domain.CommonLocation) geo.Coordinate {
	var (
		initialized    bool
		minLat, maxLat float64
		minLng, maxLng float64
	)
	include := func(c geo.Coordinate) {
		if !initialized {
			minLat, maxLat = c.Lat, c.Lat
			minLng, maxLng = c.Lng, c.Lng
			initialized = true
			return
		}
		if c.Lat < minLat {
			minLat = c.Lat
		}
		if c.Lat > maxLat {
			maxLat = c.Lat
		}
		if c.Lng < minLng {
			minLng = c.Lng
		}
		if c.Lng > maxLng {
			maxLng = c.Lng
		}
	}

	seen := make(map[string]struct{})
	for i := range commons {
		id := commons[i].LocationID
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if loc, ok := locations[id]; ok {
			include(loc.Coordinates)
		}
	}
	if s.filter.UserLocation != nil {
		include(s.filter.UserLocation.Coordinate())
	}

	if !initialized {
		return s.defaultCenter
	}
	return geo.Coordinate{
		Lat: (minLat + maxLat) / 2,
		Lng: (minLng + maxLng) / 2,
	}
}
