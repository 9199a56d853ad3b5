package catalog

import (
	"sync"
	"time"

	"github.com/wielebenwir/commonsmap/internal/domain"
	"github.com/wielebenwir/commonsmap/internal/logger"
)

// Dataset is one normalized snapshot of everything a map widget renders.
type Dataset struct {
	Commons    []domain.Common
	Locations  map[string]domain.CommonLocation
	Categories []domain.CommonCategory
	Groups     []domain.CommonCategoryGroup
}

// Catalog provides in-memory storage and lookup for the normalized map data.
// A reload replaces the whole dataset at once; readers never observe a
// half-updated state.
type Catalog struct {
	mu         sync.RWMutex
	data       Dataset
	loading    bool
	lastReload time.Time

	subMu       sync.Mutex
	subscribers map[int]func()
	nextSubID   int

	log logger.Logger
}

// NewCatalog creates an empty catalog.
func NewCatalog(log logger.Logger) *Catalog {
	return &Catalog{
		data: Dataset{
			Locations: make(map[string]domain.CommonLocation),
		},
		subscribers: make(map[int]func()),
		log:         log,
	}
}

// SetLoading flips the loading flag, shown to clients while a reload runs.
func (c *Catalog) SetLoading(loading bool) {
	c.mu.Lock()
	c.loading = loading
	c.mu.Unlock()
}

// Loading reports whether a reload is in flight.
func (c *Catalog) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Update replaces the whole dataset. Categories nothing references are
// dropped, as are groups left without any category, so filter menus never
// offer choices that cannot match. The loading flag is cleared in the same
// step, and subscribers are notified afterwards.
func (c *Catalog) Update(ds Dataset) {
	pruned := pruneUnused(ds)

	c.mu.Lock()
	if pruned.Locations == nil {
		pruned.Locations = make(map[string]domain.CommonLocation)
	}
	c.data = pruned
	c.loading = false
	c.lastReload = time.Now()
	c.mu.Unlock()

	c.log.Debug("catalog updated",
		logger.Int("commons", len(pruned.Commons)),
		logger.Int("locations", len(pruned.Locations)),
		logger.Int("categories", len(pruned.Categories)))

	c.notify()
}

// pruneUnused keeps only categories some common actually carries, and only
// groups that retain at least one category.
func pruneUnused(ds Dataset) Dataset {
	used := make(map[string]struct{})
	for i := range ds.Commons {
		for _, id := range ds.Commons[i].CategoryIDs {
			used[id] = struct{}{}
		}
	}

	categories := make([]domain.CommonCategory, 0, len(ds.Categories))
	usedGroups := make(map[string]struct{})
	for _, cat := range ds.Categories {
		if _, ok := used[cat.ID]; !ok {
			continue
		}
		categories = append(categories, cat)
		usedGroups[cat.GroupID] = struct{}{}
	}

	groups := make([]domain.CommonCategoryGroup, 0, len(ds.Groups))
	for _, g := range ds.Groups {
		if _, ok := usedGroups[g.ID]; ok {
			groups = append(groups, g)
		}
	}

	ds.Categories = categories
	ds.Groups = groups
	return ds
}

// Commons returns a copy of all commons.
func (c *Catalog) Commons() []domain.Common {
	c.mu.RLock()
	defer c.mu.RUnlock()
	commons := make([]domain.Common, len(c.data.Commons))
	copy(commons, c.data.Commons)
	return commons
}

// Location retrieves a single location by id.
func (c *Catalog) Location(id string) (domain.CommonLocation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	loc, ok := c.data.Locations[id]
	return loc, ok
}

// Locations returns a copy of the location map.
func (c *Catalog) Locations() map[string]domain.CommonLocation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	locations := make(map[string]domain.CommonLocation, len(c.data.Locations))
	for id, loc := range c.data.Locations {
		locations[id] = loc
	}
	return locations
}

// Categories returns the pruned category list.
func (c *Catalog) Categories() []domain.CommonCategory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	categories := make([]domain.CommonCategory, len(c.data.Categories))
	copy(categories, c.data.Categories)
	return categories
}

// Groups returns the pruned category group list.
func (c *Catalog) Groups() []domain.CommonCategoryGroup {
	c.mu.RLock()
	defer c.mu.RUnlock()
	groups := make([]domain.CommonCategoryGroup, len(c.data.Groups))
	copy(groups, c.data.Groups)
	return groups
}

// Count returns the number of commons in the catalog.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data.Commons)
}

// LastReload returns the timestamp of the last dataset replacement.
func (c *Catalog) LastReload() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastReload
}

// Subscribe registers fn to run after every dataset replacement. The
// returned function removes the subscription again.
func (c *Catalog) Subscribe(fn func()) func() {
	c.subMu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subscribers, id)
		c.subMu.Unlock()
	}
}

func (c *Catalog) notify() {
	c.subMu.Lock()
	fns := make([]func(), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
