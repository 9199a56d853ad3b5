package catalog

import (
	"testing"

	"github.com/wielebenwir/commonsmap/internal/domain"
	"github.com/wielebenwir/commonsmap/internal/logger"
)

func testDataset() Dataset {
	return Dataset{
		Commons: []domain.Common{
			{ID: "1", LocationID: "loc-a", CategoryIDs: []string{"27", "29"}},
			{ID: "2", LocationID: "loc-b", CategoryIDs: []string{"27"}},
		},
		Locations: map[string]domain.CommonLocation{
			"loc-a": {ID: "loc-a", Name: "Depot A"},
			"loc-b": {ID: "loc-b", Name: "Depot B"},
		},
		Categories: []domain.CommonCategory{
			{ID: "27", Name: "Transport", GroupID: "size"},
			{ID: "29", Name: "Electric", GroupID: "drive"},
			{ID: "99", Name: "Unused", GroupID: "misc"},
		},
		Groups: []domain.CommonCategoryGroup{
			{ID: "size", Name: "Size"},
			{ID: "drive", Name: "Drive"},
			{ID: "misc", Name: "Misc"},
		},
	}
}

func TestUpdatePrunesUnusedCategoriesAndGroups(t *testing.T) {
	c := NewCatalog(logger.Nop())
	c.Update(testDataset())

	categories := c.Categories()
	if len(categories) != 2 {
		t.Fatalf("got %d categories, want 2", len(categories))
	}
	for _, cat := range categories {
		if cat.ID == "99" {
			t.Error("category 99 has no commons and must be pruned")
		}
	}

	groups := c.Groups()
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	for _, g := range groups {
		if g.ID == "misc" {
			t.Error("group misc lost all categories and must be pruned")
		}
	}
}

func TestUpdateClearsLoadingAndStampsReload(t *testing.T) {
	c := NewCatalog(logger.Nop())
	c.SetLoading(true)

	c.Update(testDataset())

	if c.Loading() {
		t.Error("Update must clear the loading flag")
	}
	if c.LastReload().IsZero() {
		t.Error("Update must stamp the reload time")
	}
	if c.Count() != 2 {
		t.Errorf("Count = %d, want 2", c.Count())
	}
}

func TestLocationLookup(t *testing.T) {
	c := NewCatalog(logger.Nop())
	c.Update(testDataset())

	loc, ok := c.Location("loc-a")
	if !ok || loc.Name != "Depot A" {
		t.Errorf("Location(loc-a) = %v, %v", loc, ok)
	}
	if _, ok := c.Location("nope"); ok {
		t.Error("unknown id must not resolve")
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	c := NewCatalog(logger.Nop())
	c.Update(testDataset())

	commons := c.Commons()
	commons[0].ID = "mutated"
	if c.Commons()[0].ID != "1" {
		t.Error("Commons must return a copy")
	}

	locations := c.Locations()
	delete(locations, "loc-a")
	if _, ok := c.Location("loc-a"); !ok {
		t.Error("Locations must return a copy")
	}
}

func TestSubscribe(t *testing.T) {
	c := NewCatalog(logger.Nop())

	calls := 0
	unsubscribe := c.Subscribe(func() { calls++ })

	c.Update(testDataset())
	if calls != 1 {
		t.Fatalf("subscriber ran %d times, want 1", calls)
	}

	unsubscribe()
	c.Update(testDataset())
	if calls != 1 {
		t.Error("unsubscribed callback must not run again")
	}
}
