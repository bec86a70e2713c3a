// Package main provides the entry point for the RoadTrip offline map service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JJFrisch/RoadTrip-sub001/internal/adapters/catalog"
	"github.com/JJFrisch/RoadTrip-sub001/internal/adapters/geocoder"
	"github.com/JJFrisch/RoadTrip-sub001/internal/adapters/itinerary"
	"github.com/JJFrisch/RoadTrip-sub001/internal/app"
	"github.com/JJFrisch/RoadTrip-sub001/internal/application"
	"github.com/JJFrisch/RoadTrip-sub001/internal/config"
	"github.com/JJFrisch/RoadTrip-sub001/internal/domain"
	"github.com/JJFrisch/RoadTrip-sub001/internal/ports/output"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var cfgFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "roadtripd",
	Short: "RoadTrip - Offline Map Region Service",
	Long: `RoadTrip is an offline map region download service.

It provides a REST API for downloading rectangular map regions as tile
sets for offline use, estimating their size before committing, and
deriving download regions from trip itineraries.

Features:
  - Region size estimation before download
  - Single-flight downloads with progress reporting
  - Multiple tile backends (XYZ endpoints, AWS S3, Azure Blob)
  - Trip itinerary resolution via geocoding
  - Leg distance annotation (walking, driving)
  - Prometheus metrics`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("RoadTrip %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Build Date: %s\n", buildDate)
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download a region for offline use",
	Long: `Download fetches every tile covering the given rectangular region
up to the requested zoom level and records it in the region catalog.`,
	RunE: runDownload,
}

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List downloaded regions",
	RunE:  runRegions,
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate the download size of a region",
	RunE:  runEstimate,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <itinerary.yaml>",
	Short: "Resolve a trip itinerary into a download region",
	Long: `Resolve geocodes the locations of a trip itinerary file, derives the
bounding region covering them, and reports its estimated download size
along with per-day leg distances.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, text)")

	// Server flags
	rootCmd.Flags().String("host", "0.0.0.0", "server host")
	rootCmd.Flags().Int("port", 8080, "server port")

	// Tile flags
	rootCmd.Flags().String("tile-source", "xyz", "tile source (xyz, s3, azure)")
	rootCmd.Flags().String("tile-dir", "./data/tiles", "tile storage directory")
	rootCmd.Flags().String("tile-url", "", "XYZ tile URL template ({z}/{x}/{y})")

	// CORS flags
	rootCmd.Flags().StringSlice("cors", nil, "allowed CORS origins (e.g., https://example.com,*.sub.domain.tld)")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("server.host", rootCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", rootCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("tiles.source", rootCmd.Flags().Lookup("tile-source"))
	_ = viper.BindPFlag("tiles.dir", rootCmd.Flags().Lookup("tile-dir"))
	_ = viper.BindPFlag("tiles.url_template", rootCmd.Flags().Lookup("tile-url"))
	_ = viper.BindPFlag("server.cors.allowed_origins", rootCmd.Flags().Lookup("cors"))

	// Download flags
	downloadCmd.Flags().String("name", "", "region label")
	downloadCmd.Flags().Float64("lat", 0, "region center latitude")
	downloadCmd.Flags().Float64("lon", 0, "region center longitude")
	downloadCmd.Flags().Float64("lat-span", 0, "full latitude span in degrees")
	downloadCmd.Flags().Float64("lon-span", 0, "full longitude span in degrees")
	downloadCmd.Flags().Int("max-zoom", 14, "maximum zoom level")
	_ = downloadCmd.MarkFlagRequired("name")
	_ = downloadCmd.MarkFlagRequired("lat")
	_ = downloadCmd.MarkFlagRequired("lon")
	_ = downloadCmd.MarkFlagRequired("lat-span")
	_ = downloadCmd.MarkFlagRequired("lon-span")

	// Estimate flags
	estimateCmd.Flags().Float64("lat", 0, "region center latitude")
	estimateCmd.Flags().Float64("lon", 0, "region center longitude")
	estimateCmd.Flags().Float64("lat-span", 0, "full latitude span in degrees")
	estimateCmd.Flags().Float64("lon-span", 0, "full longitude span in degrees")
	estimateCmd.Flags().Int("max-zoom", 14, "maximum zoom level")
	_ = estimateCmd.MarkFlagRequired("lat")
	_ = estimateCmd.MarkFlagRequired("lon")
	_ = estimateCmd.MarkFlagRequired("lat-span")
	_ = estimateCmd.MarkFlagRequired("lon-span")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(regionsCmd)
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(resolveCmd)
}

func initConfig() {
	config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

func runServer(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting RoadTrip",
		"version", version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"tile_source", cfg.Tiles.Source,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Initialize application
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	// Start server in background
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "address", cfg.Server.Address())
		if err := application.Start(ctx); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		logger.Error("server error", "error", err)
		cancel()
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	logger.Info("shutting down server")
	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}

func runDownload(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	name, _ := cmd.Flags().GetString("name")
	maxZoom, _ := cmd.Flags().GetInt("max-zoom")
	region, err := regionFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		_ = application.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Downloading %q (max zoom %d), estimated %s\n",
		name, maxZoom, application.Estimator.EstimateSize(region, maxZoom))

	// Report progress while the download runs
	progress, unsubscribe := application.Manager.Subscribe()
	defer unsubscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			fmt.Printf("\r%3.0f%%", p.Fraction*100)
		}
	}()

	rec, err := application.Manager.DownloadRegion(ctx, name, region, maxZoom)
	unsubscribe()
	<-done
	fmt.Println()
	if err != nil {
		return fmt.Errorf("downloading region: %w", err)
	}

	fmt.Printf("Downloaded %q (%s), id %s\n", rec.Name, rec.FormattedSize(), rec.ID)
	return nil
}

func runRegions(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer cat.Close()

	ctx := context.Background()
	regions, err := cat.List(ctx)
	if err != nil {
		return fmt.Errorf("listing regions: %w", err)
	}

	if len(regions) == 0 {
		fmt.Println("No regions downloaded.")
		return nil
	}

	var total int64
	for _, r := range regions {
		fmt.Printf("%-36s  %-20s  zoom %2d  %8s  %s\n",
			r.ID, r.Name, r.MaxZoom, r.FormattedSize(),
			r.DownloadedAt.Format(time.RFC3339))
		total += r.SizeBytes
	}
	fmt.Printf("\n%d regions, %s total\n", len(regions), domain.FormatByteSize(total))
	return nil
}

func runEstimate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	maxZoom, _ := cmd.Flags().GetInt("max-zoom")
	region, err := regionFromFlags(cmd)
	if err != nil {
		return err
	}

	estimator := application.NewRegionEstimator(cfg.Tiles.MinZoom, cfg.Tiles.AvgTileBytes)
	fmt.Printf("%s (%d bytes) up to zoom %d\n",
		estimator.EstimateSize(region, maxZoom),
		estimator.EstimateBytes(region, maxZoom),
		maxZoom)
	return nil
}

func runResolve(_ *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	trip, err := itinerary.Load(args[0])
	if err != nil {
		return fmt.Errorf("loading itinerary: %w", err)
	}

	client, err := geocoder.NewClient(geocoder.Config{
		BaseURL: cfg.Geocoder.BaseURL,
		APIKey:  cfg.Geocoder.APIKey,
		Timeout: cfg.Geocoder.Timeout,
	})
	if err != nil {
		return fmt.Errorf("initializing geocoder: %w", err)
	}

	metrics := &output.NoOpMetrics{}
	planner := application.NewTripPlanner(
		application.NewTripRegionResolver(client, metrics, logger),
		application.NewLegDistanceService(client, metrics, logger),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	region, err := planner.ResolveRegion(ctx, trip)
	if err != nil {
		return fmt.Errorf("resolving trip region: %w", err)
	}

	estimator := application.NewRegionEstimator(cfg.Tiles.MinZoom, cfg.Tiles.AvgTileBytes)
	fmt.Printf("Trip:   %s (%d days)\n", trip.Name, len(trip.Days))
	fmt.Printf("Region: center %s, span %.4f x %.4f degrees\n",
		region.Center, region.LatSpan, region.LonSpan)
	fmt.Printf("Size:   %s at zoom 14\n\n", estimator.EstimateSize(region, 14))

	for i := range trip.Days {
		day := &trip.Days[i]
		legs := planner.AnnotateDistances(ctx, day)
		if len(legs) == 0 {
			continue
		}
		fmt.Printf("%s (%s)\n", day.Date, day.Mode)
		for _, leg := range legs {
			if !leg.Resolved {
				fmt.Printf("  %s -> %s: unresolved\n", leg.From, leg.To)
				continue
			}
			fmt.Printf("  %s -> %s: %.1f km, %s\n",
				leg.From, leg.To,
				float64(leg.DistanceMeters)/1000,
				(time.Duration(leg.DurationSeconds) * time.Second).String())
		}
	}
	return nil
}

func regionFromFlags(cmd *cobra.Command) (domain.GeoRegion, error) {
	lat, _ := cmd.Flags().GetFloat64("lat")
	lon, _ := cmd.Flags().GetFloat64("lon")
	latSpan, _ := cmd.Flags().GetFloat64("lat-span")
	lonSpan, _ := cmd.Flags().GetFloat64("lon-span")

	region := domain.NewGeoRegion(domain.NewCoordinate(lat, lon), latSpan, lonSpan)
	if err := region.Validate(); err != nil {
		return domain.GeoRegion{}, err
	}
	return region, nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(time.Now().UTC().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
