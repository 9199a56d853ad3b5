package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wielebenwir/commonsmap/internal/catalog"
	"github.com/wielebenwir/commonsmap/internal/config"
	"github.com/wielebenwir/commonsmap/internal/domain"
	"github.com/wielebenwir/commonsmap/internal/geocode"
	"github.com/wielebenwir/commonsmap/internal/httpserver"
	"github.com/wielebenwir/commonsmap/internal/httpserver/deps"
	"github.com/wielebenwir/commonsmap/internal/logger"
	"github.com/wielebenwir/commonsmap/internal/markericon"
	"github.com/wielebenwir/commonsmap/internal/poi"
	"github.com/wielebenwir/commonsmap/internal/redis"
	"github.com/wielebenwir/commonsmap/internal/scheduler"
	"github.com/wielebenwir/commonsmap/internal/settings"
	"github.com/wielebenwir/commonsmap/internal/sources"
	"github.com/wielebenwir/commonsmap/internal/sources/adminajax"
	"github.com/wielebenwir/commonsmap/internal/sources/fixture"
	redisstore "github.com/wielebenwir/commonsmap/internal/store/redis"
	"github.com/wielebenwir/commonsmap/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	reloader    *scheduler.DataReloader
	tracker     *poi.Tracker
	poiDebounce *geocode.Debouncer
}

func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	cfgSettings, err := settings.Load(cfg.SettingsFile, loggerClient)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	// Redis is optional: without it the service runs cold-start only and
	// skips the geocode cache.
	var redisClient *goredis.Client
	var store *redisstore.Store
	var geocache geocode.Cache
	if cfg.RedisAddr != "" {
		redisClient, err = redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
		}, loggerClient)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		store = redisstore.NewStore(redisClient)
		geocache = redisstore.NewGeocodeCache(store)
	} else {
		loggerClient.Info("redis not configured, running without snapshot persistence")
	}

	source, err := buildSource(cfg, &cfgSettings, loggerClient)
	if err != nil {
		return nil, err
	}

	cat := catalog.NewCatalog(loggerClient)

	reloadTrigger := make(chan struct{}, 1)
	reloader := scheduler.NewDataReloader(
		source,
		cfgSettings,
		cat,
		store,
		loggerClient,
		cfg.ReloadInterval,
		reloadTrigger,
	)

	iconCache := markericon.NewImageCache(cfg.IconCacheEntries, cfg.IconCacheTTL, loggerClient)
	markers := markericon.NewResolver(iconCache, cfgSettings.Map.Palette, loggerClient)

	geocoder, err := geocode.NewClient(geocode.Options{
		Endpoint:           cfgSettings.Geocode.Endpoint,
		CountryCodes:       cfgSettings.Geocode.CountryCodes,
		DedupeRadiusMeters: cfgSettings.Geocode.DedupeRadiusMeters,
	}, geocache, loggerClient)
	if err != nil {
		return nil, fmt.Errorf("building geocoder: %w", err)
	}

	tracker := poi.NewTracker(func(ctx context.Context, c *domain.Common) (domain.MarkerIcon, error) {
		return markers.ResolveCommonIcon(ctx, cfgSettings.Map.MarkerIcon, c), nil
	}, poi.Hooks{}, loggerClient)

	// Track the full catalog by default; filtered updates come in through
	// the poi endpoint.
	cat.Subscribe(func() {
		go tracker.Update(context.Background(), cat.Commons(), cat.Location)
	})

	var poiDebounce *geocode.Debouncer
	if cfg.PoiDebounce > 0 {
		poiDebounce = geocode.NewDebouncer(cfg.PoiDebounce)
	}

	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		TrustProxy:    cfg.TrustProxy,
		AdminCIDRS:    cfg.AdminCIDRS,
		Settings:      cfgSettings,
		Catalog:       cat,
		Markers:       markers,
		IconCache:     iconCache,
		Geocoder:      geocoder,
		Tracker:       tracker,
		PoiDebounce:   poiDebounce,
		RedisClient:   redisClient,
		ReloadTrigger: reloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		reloader:    reloader,
		tracker:     tracker,
		poiDebounce: poiDebounce,
	}, nil
}

// buildSource picks the location data source. The fixture source also
// supplies its own categories when the settings name none, so the demo
// filters actually match the demo data.
func buildSource(cfg *config.Config, s *settings.Settings, log logger.Logger) (sources.Source, error) {
	switch cfg.DataSource {
	case config.SourceAdminAjax:
		client, err := adminajax.NewClient(adminajax.Options{
			URL:   cfg.DataURL,
			Nonce: cfg.DataNonce,
			MapID: cfg.DataMapID,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("building admin-ajax client: %w", err)
		}
		return client, nil
	case config.SourceFixtures:
		if len(s.Filter.Categories) == 0 {
			for _, c := range fixture.DemoCategories() {
				s.Filter.Categories = append(s.Filter.Categories, settings.Category{
					ID:    c.ID,
					Name:  c.Name,
					Group: c.GroupID,
				})
			}
			for _, g := range fixture.DemoGroups() {
				s.Filter.Groups = append(s.Filter.Groups, settings.Group{ID: g.ID, Name: g.Name})
			}
		}
		return fixture.New(cfg.FixtureDays, time.Now().UnixNano()), nil
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.DataSource)
	}
}

func (a *App) Run() error {
	a.logger.Infof("Starting commonsmap v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("commonsmap %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Serve the last snapshot while the first live fetch runs.
	a.reloader.WarmStart(ctx)

	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start data reloader: %w", err)
	}
	a.logger.Info("data reloader started",
		logger.Duration("interval", a.cfg.ReloadInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.reloader.Stop()
	if a.poiDebounce != nil {
		a.poiDebounce.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("Redis closed cleanly")
		}
	}

	a.logger.Info("commonsmap stopped cleanly")
	return nil
}
