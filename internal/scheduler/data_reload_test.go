package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wielebenwir/commonsmap/internal/catalog"
	"github.com/wielebenwir/commonsmap/internal/logger"
	"github.com/wielebenwir/commonsmap/internal/settings"
	"github.com/wielebenwir/commonsmap/internal/sources/adminajax"
	"github.com/wielebenwir/commonsmap/internal/sources/fixture"
)

func demoSettings() settings.Settings {
	s := settings.Default()
	for _, cat := range fixture.DemoCategories() {
		s.Filter.Categories = append(s.Filter.Categories, settings.Category{
			ID: cat.ID, Name: cat.Name, Group: cat.GroupID,
		})
	}
	for _, g := range fixture.DemoGroups() {
		s.Filter.Groups = append(s.Filter.Groups, settings.Group{ID: g.ID, Name: g.Name})
	}
	return s
}

func TestReloadPublishesDataset(t *testing.T) {
	cat := catalog.NewCatalog(logger.Nop())
	dr := NewDataReloader(fixture.New(0, 1), demoSettings(), cat, nil, logger.Nop(), time.Hour, nil)

	if err := dr.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if cat.Count() != 7 {
		t.Errorf("catalog has %d commons, want 7", cat.Count())
	}
	if cat.Loading() {
		t.Error("loading flag must be cleared after a reload")
	}
	if len(cat.Categories()) == 0 {
		t.Error("configured categories missing from the catalog")
	}
}

type failingSource struct{}

func (failingSource) Type() string { return "failing" }
func (failingSource) Fetch(context.Context) (adminajax.Payload, error) {
	return nil, errors.New("backend down")
}

func TestReloadClearsLoadingOnFailure(t *testing.T) {
	cat := catalog.NewCatalog(logger.Nop())
	dr := NewDataReloader(failingSource{}, demoSettings(), cat, nil, logger.Nop(), time.Hour, nil)

	if err := dr.Reload(context.Background()); err == nil {
		t.Fatal("expected the reload to fail")
	}
	if cat.Loading() {
		t.Error("a failed reload must not leave the loading flag set")
	}
}

func TestStartFailsWhenInitialReloadFails(t *testing.T) {
	cat := catalog.NewCatalog(logger.Nop())
	dr := NewDataReloader(failingSource{}, demoSettings(), cat, nil, logger.Nop(), time.Hour, nil)

	if err := dr.Start(context.Background()); err == nil {
		t.Error("Start must surface an initial reload failure")
	}
}

func TestManualTrigger(t *testing.T) {
	cat := catalog.NewCatalog(logger.Nop())
	trigger := make(chan struct{})
	dr := NewDataReloader(fixture.New(0, 1), demoSettings(), cat, nil, logger.Nop(), time.Hour, trigger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := dr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer dr.Stop()

	reloaded := make(chan struct{}, 1)
	unsubscribe := cat.Subscribe(func() {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	trigger <- struct{}{}

	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Fatal("manual trigger did not cause a reload")
	}
}

func TestWarmStartWithoutStoreIsNoop(t *testing.T) {
	cat := catalog.NewCatalog(logger.Nop())
	dr := NewDataReloader(fixture.New(0, 1), demoSettings(), cat, nil, logger.Nop(), time.Hour, nil)

	dr.WarmStart(context.Background())
	if cat.Count() != 0 {
		t.Error("warm start without a store must not publish anything")
	}
}
