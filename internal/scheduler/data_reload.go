package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/wielebenwir/commonsmap/internal/catalog"
	"github.com/wielebenwir/commonsmap/internal/logger"
	"github.com/wielebenwir/commonsmap/internal/settings"
	"github.com/wielebenwir/commonsmap/internal/sources"
	"github.com/wielebenwir/commonsmap/internal/sources/adminajax"
	redisstore "github.com/wielebenwir/commonsmap/internal/store/redis"
)

// DataReloader periodically pulls the location payload from its source,
// normalizes it, and swaps it into the catalog.
type DataReloader struct {
	source  sources.Source
	mapper  *adminajax.Mapper
	config  settings.Settings
	catalog *catalog.Catalog
	store   *redisstore.Store // optional snapshot persistence
	logger  logger.Logger

	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewDataReloader creates a reloader. store may be nil; snapshots are then
// skipped.
func NewDataReloader(
	source sources.Source,
	config settings.Settings,
	cat *catalog.Catalog,
	store *redisstore.Store,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *DataReloader {
	return &DataReloader{
		source:        source,
		mapper:        adminajax.NewMapper(config.CategoryIDs(), log),
		config:        config,
		catalog:       cat,
		store:         store,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start performs an initial reload and then keeps the catalog fresh until
// the context ends or Stop is called.
func (dr *DataReloader) Start(ctx context.Context) error {
	if err := dr.Reload(ctx); err != nil {
		return fmt.Errorf("initial data reload failed: %w", err)
	}

	ticker := time.NewTicker(dr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := dr.Reload(ctx); err != nil {
					dr.logger.Error("failed to reload locations",
						logger.Error(err))
				}
			case <-dr.manualTrigger:
				dr.logger.Info("manual data reload triggered")
				if err := dr.Reload(ctx); err != nil {
					dr.logger.Error("failed to reload locations",
						logger.Error(err))
				}
			case <-dr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader.
func (dr *DataReloader) Stop() {
	close(dr.stopCh)
}

// Reload fetches, normalizes, and publishes one dataset. The loading flag
// stays set only for the duration of a failed fetch's retries; a
// successful Update clears it.
func (dr *DataReloader) Reload(ctx context.Context) error {
	dr.logger.Info("reloading locations",
		logger.String("source", dr.source.Type()))
	dr.catalog.SetLoading(true)

	payload, err := dr.source.Fetch(ctx)
	if err != nil {
		dr.catalog.SetLoading(false)
		return fmt.Errorf("failed to fetch locations: %w", err)
	}

	dr.publish(payload)

	if dr.store != nil {
		// Snapshot persistence is best effort; the catalog is already live.
		if err := dr.store.SaveSnapshot(ctx, payload); err != nil {
			dr.logger.Warn("failed to persist snapshot",
				logger.Error(err))
		}
	}
	return nil
}

func (dr *DataReloader) publish(payload adminajax.Payload) {
	commons, locations := dr.mapper.Map(payload)
	dr.catalog.Update(catalog.Dataset{
		Commons:    commons,
		Locations:  locations,
		Categories: dr.config.DomainCategories(),
		Groups:     dr.config.DomainGroups(),
	})

	dr.logger.Info("locations reloaded",
		logger.Int("locations", len(locations)),
		logger.Int("commons", len(commons)))
}

// WarmStart publishes the last persisted snapshot, if any, so the map has
// data before the first live fetch completes. Without a store it is a
// no-op.
func (dr *DataReloader) WarmStart(ctx context.Context) {
	if dr.store == nil {
		return
	}

	payload, fetchedAt, ok, err := dr.store.LoadSnapshot(ctx)
	if err != nil {
		dr.logger.Warn("failed to load snapshot", logger.Error(err))
		return
	}
	if !ok {
		dr.logger.Debug("no snapshot to warm start from")
		return
	}

	dr.logger.Info("warm starting from snapshot",
		logger.String("fetched_at", fetchedAt.Format(time.RFC3339)))
	dr.publish(payload)
}
