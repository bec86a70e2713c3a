// Package app provides application initialization and wiring.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JJFrisch/RoadTrip-sub001/internal/adapters/catalog"
	"github.com/JJFrisch/RoadTrip-sub001/internal/adapters/geocoder"
	httpAdapter "github.com/JJFrisch/RoadTrip-sub001/internal/adapters/http"
	"github.com/JJFrisch/RoadTrip-sub001/internal/adapters/metrics"
	"github.com/JJFrisch/RoadTrip-sub001/internal/adapters/tiles"
	"github.com/JJFrisch/RoadTrip-sub001/internal/adapters/watcher"
	"github.com/JJFrisch/RoadTrip-sub001/internal/application"
	"github.com/JJFrisch/RoadTrip-sub001/internal/config"
	"github.com/JJFrisch/RoadTrip-sub001/internal/ports/input"
	"github.com/JJFrisch/RoadTrip-sub001/internal/ports/output"
)

// App holds all application components.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Catalog       *catalog.Catalog
	TileStore     *tiles.Store
	Provider      *tiles.Provider
	Manager       *application.DownloadManager
	Estimator     *application.RegionEstimator
	Planner       *application.TripPlanner
	HealthService *application.HealthService
	HTTPServer    *httpAdapter.Server
	Watcher       *watcher.Watcher
	Metrics       *metrics.Collector
	MetricsServer *metrics.Server
}

// New creates and initializes a new application.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize metrics
	if cfg.Metrics.Enabled {
		app.Metrics = metrics.NewCollector("roadtrip")
		app.MetricsServer = metrics.NewServer(
			cfg.Metrics.Port,
			cfg.Metrics.Path,
			logger,
		)
	}

	var metricsCollector output.MetricsCollector
	if app.Metrics != nil {
		metricsCollector = app.Metrics
	} else {
		metricsCollector = &output.NoOpMetrics{}
	}

	// Initialize tile storage
	store, err := tiles.NewStore(cfg.Tiles.Dir)
	if err != nil {
		return nil, fmt.Errorf("initializing tile store: %w", err)
	}
	app.TileStore = store

	// Initialize tile source and provider
	source, err := initTileSource(ctx, cfg.Tiles)
	if err != nil {
		return nil, fmt.Errorf("initializing tile source: %w", err)
	}
	app.Provider = tiles.NewProvider(source, store, cfg.Tiles.MinZoom, metricsCollector, logger)

	// Initialize region catalog
	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("opening region catalog: %w", err)
	}
	app.Catalog = cat

	// Initialize download manager
	app.Manager = application.NewDownloadManager(
		app.Provider,
		app.TileStore,
		app.Catalog,
		metricsCollector,
		logger,
	)

	// Initialize size estimator
	app.Estimator = application.NewRegionEstimator(cfg.Tiles.MinZoom, cfg.Tiles.AvgTileBytes)

	// Initialize trip planner when a geocoder credential is configured
	if cfg.Geocoder.APIKey != "" {
		geo, err := geocoder.NewClient(geocoder.Config{
			BaseURL: cfg.Geocoder.BaseURL,
			APIKey:  cfg.Geocoder.APIKey,
			Timeout: cfg.Geocoder.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("initializing geocoder: %w", err)
		}
		app.Planner = application.NewTripPlanner(
			application.NewTripRegionResolver(geo, metricsCollector, logger),
			application.NewLegDistanceService(geo, metricsCollector, logger),
		)
	} else {
		logger.Warn("geocoder API key not configured; trip endpoints disabled")
	}

	// Initialize health service
	app.HealthService = application.NewHealthService(app.Manager)

	// Initialize HTTP server. The planner interface must stay nil when
	// no geocoder is configured so trip routes are not registered.
	var planner input.TripPlanner
	if app.Planner != nil {
		planner = app.Planner
	}
	app.HTTPServer = httpAdapter.NewServer(
		cfg.Server,
		app.Manager,
		app.Estimator,
		planner,
		app.HealthService,
		logger,
	)

	// Initialize tile directory watcher to reconcile out-of-band deletions
	w, err := watcher.New(
		watcher.Config{Dir: cfg.Tiles.Dir},
		app.handleTileSetRemoved,
		logger,
	)
	if err != nil {
		logger.Warn("failed to initialize tile watcher", "error", err)
	} else {
		app.Watcher = w
	}

	return app, nil
}

// Start starts all application components. It blocks serving HTTP until
// the server fails or is shut down.
func (a *App) Start(ctx context.Context) error {
	// Start tile watcher
	if a.Watcher != nil {
		if err := a.Watcher.Start(ctx); err != nil {
			a.Logger.Warn("failed to start tile watcher", "error", err)
		}
	}

	// Start metrics server in background
	if a.MetricsServer != nil {
		go func() {
			if err := a.MetricsServer.Start(); err != nil {
				a.Logger.Error("metrics server error", "error", err)
			}
		}()
	}

	return a.HTTPServer.Start()
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("shutting down application")

	// Abort any active download
	a.Manager.Close()

	// Stop watcher
	if a.Watcher != nil {
		_ = a.Watcher.Stop()
	}

	// Shutdown metrics server
	if a.MetricsServer != nil {
		if err := a.MetricsServer.Stop(ctx); err != nil {
			a.Logger.Error("metrics server shutdown error", "error", err)
		}
	}

	// Shutdown HTTP server
	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		a.Logger.Error("HTTP server shutdown error", "error", err)
	}

	// Close storage
	if err := a.TileStore.Close(); err != nil {
		a.Logger.Error("tile store close error", "error", err)
	}
	if err := a.Catalog.Close(); err != nil {
		a.Logger.Error("catalog close error", "error", err)
	}

	return nil
}

// handleTileSetRemoved drops the catalog entry for a tile set that was
// deleted outside the service.
func (a *App) handleTileSetRemoved(ctx context.Context, regionID string) error {
	// Skip if the active download owns this tile set; its own cleanup
	// handles the file.
	if progress, active := a.Manager.Current(); active && progress.RegionID == regionID {
		return nil
	}

	a.TileStore.Forget(regionID)
	return a.Catalog.Remove(ctx, regionID)
}

// initTileSource initializes the configured tile source adapter.
func initTileSource(ctx context.Context, cfg config.TilesConfig) (output.TileSource, error) {
	switch cfg.Source {
	case "xyz":
		return tiles.NewXYZSource(tiles.XYZConfig{
			URLTemplate: cfg.URLTemplate,
			Token:       cfg.Token,
			Timeout:     cfg.Timeout,
			MinZoom:     cfg.MinZoom,
		})

	case "s3":
		return tiles.NewS3Source(ctx, tiles.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})

	case "azure":
		return tiles.NewAzureSource(tiles.AzureConfig{
			Container:        cfg.Azure.Container,
			AccountName:      cfg.Azure.AccountName,
			AccountKey:       cfg.Azure.AccountKey,
			ConnectionString: cfg.Azure.ConnectionString,
			Prefix:           cfg.Azure.Prefix,
		})

	default:
		return nil, fmt.Errorf("unknown tile source: %s", cfg.Source)
	}
}
