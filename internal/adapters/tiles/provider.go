package tiles

import (
	"context"
	"log/slog"

	"github.com/JJFrisch/RoadTrip-sub001/internal/application"
	"github.com/JJFrisch/RoadTrip-sub001/internal/domain"
	"github.com/JJFrisch/RoadTrip-sub001/internal/ports/output"
)

// Provider fetches every tile covering a region from a TileSource and
// persists them through the Store. It implements the TileProvider port.
type Provider struct {
	source  output.TileSource
	store   *Store
	minZoom int
	metrics output.MetricsCollector
	logger  *slog.Logger
}

// NewProvider creates a Provider. A non-positive minZoom falls back to
// the estimator default so estimates and downloads cover the same tiles.
func NewProvider(
	source output.TileSource,
	store *Store,
	minZoom int,
	metrics output.MetricsCollector,
	logger *slog.Logger,
) *Provider {
	if minZoom <= 0 {
		minZoom = application.DefaultMinZoom
	}
	if metrics == nil {
		metrics = &output.NoOpMetrics{}
	}
	return &Provider{
		source:  source,
		store:   store,
		minZoom: minZoom,
		metrics: metrics,
		logger:  logger,
	}
}

// ValidateCredential reports whether the tile source will accept fetches.
func (p *Provider) ValidateCredential(ctx context.Context) error {
	return p.source.CheckAccess(ctx)
}

// FetchRegion downloads all tiles for the region between the provider's
// minimum zoom and maxZoom, reporting fractional progress as it goes.
// It returns the resulting on-disk size.
func (p *Provider) FetchRegion(
	ctx context.Context,
	regionID string,
	region domain.GeoRegion,
	maxZoom int,
	progress output.ProgressFunc,
) (int64, error) {
	var total int64
	for zoom := p.minZoom; zoom <= maxZoom; zoom++ {
		total += application.TileCount(region, zoom)
	}

	var done int64
	for zoom := p.minZoom; zoom <= maxZoom; zoom++ {
		minCol, minRow, maxCol, maxRow := application.TileSpan(region, zoom)
		for col := minCol; col <= maxCol; col++ {
			for row := minRow; row <= maxRow; row++ {
				if err := ctx.Err(); err != nil {
					return 0, err
				}

				data, err := p.source.FetchTile(ctx, zoom, col, row)
				if err != nil {
					p.metrics.IncTileFetches(false)
					p.logger.Debug("tile fetch failed",
						"region_id", regionID,
						"zoom", zoom,
						"col", col,
						"row", row,
						"error", err)
					return 0, err
				}
				p.metrics.IncTileFetches(true)

				if err := p.store.Put(ctx, regionID, zoom, col, row, data); err != nil {
					return 0, err
				}

				done++
				if progress != nil && total > 0 {
					progress(float64(done) / float64(total))
				}
			}
		}
	}

	size, err := p.store.SizeBytes(ctx, regionID)
	if err != nil {
		return 0, err
	}

	p.logger.Info("region tiles fetched",
		"region_id", regionID,
		"tiles", done,
		"size_bytes", size)
	return size, nil
}
