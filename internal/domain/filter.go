package domain

import (
	"sort"
	"time"

	"github.com/wielebenwir/commonsmap/internal/geo"
)

// availableStates are the statuses that count as bookable for the
// availability filters.
var availableStates = map[AvailabilityStatus]bool{
	StatusAvailable: true,
}

// DateRange is an inclusive day range. A set Start with a nil End means a
// single day.
type DateRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// FilterSet is the active filter state of a widget session. All criteria are
// optional; an empty FilterSet passes every common through unchanged.
type FilterSet struct {
	Categories       map[string]struct{} `json:"-"`
	Location         *CommonLocation     `json:"location"`
	UserLocation     *geo.GeoLocation    `json:"userLocation"`
	MapCenter        *geo.Coordinate     `json:"mapCenter"`
	AvailableToday   bool                `json:"availableToday"`
	AvailableBetween DateRange           `json:"availableBetween"`
}

// NewFilterSet returns a filter with all criteria unset.
func NewFilterSet() *FilterSet {
	return &FilterSet{Categories: make(map[string]struct{})}
}

// IsPristine reports whether the filter matches a freshly created one.
// The map center is excluded: it follows the visible markers and changes
// without any user interaction.
func (f *FilterSet) IsPristine() bool {
	return len(f.Categories) == 0 &&
		f.Location == nil &&
		f.UserLocation == nil &&
		!f.AvailableToday &&
		f.AvailableBetween.Start == nil &&
		f.AvailableBetween.End == nil
}

// ReferencePoint returns the coordinate distance sorting should use:
// the user's own position when known, else the current map center.
func (f *FilterSet) ReferencePoint() *geo.Coordinate {
	if f.UserLocation != nil {
		c := f.UserLocation.Coordinate()
		return &c
	}
	return f.MapCenter
}

type predicate func(c *Common) bool

// FilterCommons applies every active criterion of f (logical AND) to commons.
// now anchors the "available today" check. The input slice is never mutated;
// with no active criteria the result is a plain copy.
func FilterCommons(commons []Common, f *FilterSet, now time.Time) []Common {
	var predicates []predicate

	switch {
	case f.AvailableToday:
		predicates = append(predicates, availableOn(now))
	case f.AvailableBetween.Start != nil && f.AvailableBetween.End == nil:
		predicates = append(predicates, availableOn(*f.AvailableBetween.Start))
	case f.AvailableBetween.Start != nil && f.AvailableBetween.End != nil:
		predicates = append(predicates, availableThroughout(*f.AvailableBetween.Start, *f.AvailableBetween.End))
	}

	if len(f.Categories) > 0 {
		predicates = append(predicates, hasAllCategories(f.Categories))
	}
	if f.Location != nil {
		predicates = append(predicates, atLocation(f.Location.ID))
	}

	result := make([]Common, 0, len(commons))
outer:
	for i := range commons {
		for _, keep := range predicates {
			if !keep(&commons[i]) {
				continue outer
			}
		}
		result = append(result, commons[i])
	}
	return result
}

// availableOn requires a bookable availability entry for the given calendar day.
func availableOn(day time.Time) predicate {
	key := DateString(day)
	return func(c *Common) bool {
		a, ok := c.Availabilities[key]
		return ok && availableStates[a.Status]
	}
}

// availableThroughout requires every availability entry inside [start, end]
// (end inclusive) to be bookable. A common without entries in the range
// passes: absence of data is not treated as unavailability.
func availableThroughout(start, end time.Time) predicate {
	startKey := DateString(start)
	endKey := DateString(end)
	return func(c *Common) bool {
		for key, a := range c.Availabilities {
			if key < startKey || key > endKey {
				continue
			}
			if !availableStates[a.Status] {
				return false
			}
		}
		return true
	}
}

// hasAllCategories requires membership in every selected category.
func hasAllCategories(selected map[string]struct{}) predicate {
	return func(c *Common) bool {
		for id := range selected {
			if !c.HasCategory(id) {
				return false
			}
		}
		return true
	}
}

func atLocation(locationID string) predicate {
	return func(c *Common) bool {
		return c.LocationID == locationID
	}
}

// SortByDistance returns a copy of commons ordered by ascending haversine
// distance between ref and each common's location. Commons without a known
// location keep their relative position (the sort is stable).
func SortByDistance(commons []Common, ref geo.Coordinate, locations map[string]CommonLocation) []Common {
	sorted := make([]Common, len(commons))
	copy(sorted, commons)

	distance := func(c *Common) (float64, bool) {
		loc, ok := locations[c.LocationID]
		if !ok {
			return 0, false
		}
		return geo.Distance(ref, loc.Coordinates), true
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		di, oki := distance(&sorted[i])
		dj, okj := distance(&sorted[j])
		if !oki || !okj {
			return false
		}
		return di < dj
	})
	return sorted
}
