package poi

import (
	"context"
	"sync"

	"github.com/wielebenwir/commonsmap/internal/domain"
	"github.com/wielebenwir/commonsmap/internal/logger"
)

// POI is a common paired with its location and resolved marker icon,
// ready for map rendering.
type POI struct {
	Common   domain.Common         `json:"common"`
	Location domain.CommonLocation `json:"location"`
	Icon     domain.MarkerIcon     `json:"markerIcon"`
}

// IconResolver resolves the marker icon shown for a common.
type IconResolver func(ctx context.Context, c *domain.Common) (domain.MarkerIcon, error)

// Locator looks up the pickup location for a common.
type Locator func(id string) (domain.CommonLocation, bool)

// Hooks are invoked as the tracked set changes, so a consumer can manage
// map marker lifecycles without polling. Either hook may be nil.
type Hooks struct {
	OnAdd    func(POI)
	OnRemove func(POI)
}

// Tracker maintains the points of interest for the currently visible
// commons. Icons for newly appeared commons resolve concurrently and are
// inserted as they complete, so markers render progressively; an Update
// that starts while resolutions are still in flight supersedes them, and
// their late results are discarded.
type Tracker struct {
	resolve IconResolver
	hooks   Hooks
	log     logger.Logger

	mu         sync.Mutex
	generation uint64
	entries    map[string]POI
	order      []string // common ids in completion order
}

// NewTracker creates a tracker around the given icon resolver.
func NewTracker(resolve IconResolver, hooks Hooks, log logger.Logger) *Tracker {
	return &Tracker{
		resolve: resolve,
		hooks:   hooks,
		log:     log,
		entries: make(map[string]POI),
	}
}

// Update reconciles the tracked set against the visible commons: entries
// whose common vanished are dropped, surviving entries keep their already
// resolved icon, and new commons get icons resolved concurrently. It
// blocks until every resolution of this call settled, but a newer Update
// invalidates this one. Commons without a known location are skipped.
func (t *Tracker) Update(ctx context.Context, commons []domain.Common, locate Locator) {
	visible := make(map[string]*domain.Common, len(commons))
	for i := range commons {
		visible[commons[i].ID] = &commons[i]
	}

	t.mu.Lock()
	t.generation++
	generation := t.generation

	var removed []POI
	kept := t.order[:0]
	for _, id := range t.order {
		entry := t.entries[id]
		c, ok := visible[id]
		if !ok {
			delete(t.entries, id)
			removed = append(removed, entry)
			continue
		}
		// Refresh the payload; the icon survives, that resolution is the
		// expensive part.
		entry.Common = *c
		t.entries[id] = entry
		kept = append(kept, id)
	}
	t.order = kept

	var added []*domain.Common
	for i := range commons {
		if _, tracked := t.entries[commons[i].ID]; !tracked {
			added = append(added, &commons[i])
		}
	}
	t.mu.Unlock()

	t.emitRemoved(removed)

	var wg sync.WaitGroup
	for _, c := range added {
		wg.Add(1)
		go func(c *domain.Common) {
			defer wg.Done()

			location, ok := locate(c.LocationID)
			if !ok {
				t.log.Warn("common has no known location",
					logger.String("common_id", c.ID),
					logger.String("location_id", c.LocationID))
				return
			}

			icon, err := t.resolve(ctx, c)
			if err != nil {
				t.log.Warn("marker icon did not resolve",
					logger.String("common_id", c.ID),
					logger.Error(err))
				return
			}

			entry := POI{Common: *c, Location: location, Icon: icon}

			t.mu.Lock()
			if t.generation != generation {
				t.mu.Unlock()
				return
			}
			t.entries[c.ID] = entry
			t.order = append(t.order, c.ID)
			t.mu.Unlock()

			if t.hooks.OnAdd != nil {
				t.hooks.OnAdd(entry)
			}
		}(c)
	}
	wg.Wait()
}

// Clear drops every tracked entry and invalidates in-flight resolutions.
func (t *Tracker) Clear() {
	t.mu.Lock()
	t.generation++
	removed := make([]POI, 0, len(t.order))
	for _, id := range t.order {
		removed = append(removed, t.entries[id])
	}
	t.entries = make(map[string]POI)
	t.order = nil
	t.mu.Unlock()

	t.emitRemoved(removed)
}

func (t *Tracker) emitRemoved(removed []POI) {
	if t.hooks.OnRemove == nil {
		return
	}
	for _, entry := range removed {
		t.hooks.OnRemove(entry)
	}
}

// Snapshot returns the tracked points in completion order.
func (t *Tracker) Snapshot() []POI {
	t.mu.Lock()
	defer t.mu.Unlock()
	points := make([]POI, 0, len(t.order))
	for _, id := range t.order {
		points = append(points, t.entries[id])
	}
	return points
}

// Len returns the number of tracked points.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}
