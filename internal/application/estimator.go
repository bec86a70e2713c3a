// Package application contains the application services.
package application

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"github.com/JJFrisch/RoadTrip-sub001/internal/domain"
)

// Estimator defaults.
const (
	DefaultMinZoom      = 10
	DefaultAvgTileBytes = 15 * 1024
)

// Web Mercator latitude limit; tiles do not exist beyond it.
const mercatorMaxLat = 85.05112878

// RegionEstimator estimates the stored byte size of an offline region
// by counting covering tiles per zoom level.
type RegionEstimator struct {
	minZoom      int
	avgTileBytes int64
}

// NewRegionEstimator creates an estimator. Non-positive arguments fall
// back to the defaults.
func NewRegionEstimator(minZoom int, avgTileBytes int64) *RegionEstimator {
	if minZoom <= 0 {
		minZoom = DefaultMinZoom
	}
	if avgTileBytes <= 0 {
		avgTileBytes = DefaultAvgTileBytes
	}
	return &RegionEstimator{minZoom: minZoom, avgTileBytes: avgTileBytes}
}

// MinZoom returns the lowest zoom level included in estimates and downloads.
func (e *RegionEstimator) MinZoom() int {
	return e.minZoom
}

// EstimateBytes returns the estimated byte count for downloading the
// region at zoom levels from the estimator's minimum up to maxZoom.
// The estimate is monotonically increasing in both region area and maxZoom.
func (e *RegionEstimator) EstimateBytes(region domain.GeoRegion, maxZoom int) int64 {
	var total int64
	for z := e.minZoom; z <= maxZoom; z++ {
		total += TileCount(region, z) * e.avgTileBytes
	}
	return total
}

// EstimateSize returns the estimate formatted for display.
func (e *RegionEstimator) EstimateSize(region domain.GeoRegion, maxZoom int) string {
	return domain.FormatByteSize(e.EstimateBytes(region, maxZoom))
}

// TileCount returns the number of slippy-map tiles covering the region
// at the given zoom level.
func TileCount(region domain.GeoRegion, zoom int) int64 {
	minCol, minRow, maxCol, maxRow := TileSpan(region, zoom)
	cols := int64(maxCol) - int64(minCol) + 1
	rows := int64(maxRow) - int64(minRow) + 1
	return cols * rows
}

// TileSpan returns the inclusive tile column/row range covering the
// region at the given zoom level.
func TileSpan(region domain.GeoRegion, zoom int) (minCol, minRow, maxCol, maxRow uint32) {
	z := maptile.Zoom(zoom) //nolint:gosec // zoom levels are small positive ints

	north := clampLat(region.MaxLat())
	south := clampLat(region.MinLat())

	// Tile rows grow southward, so the north-west corner holds the
	// minimum column and row.
	nw := maptile.At(orb.Point{region.MinLon(), north}, z)
	se := maptile.At(orb.Point{region.MaxLon(), south}, z)

	// A point exactly on the antimeridian or pole rounds to an index one
	// past the grid, so clamp to the last valid tile.
	last := uint32(1)<<zoom - 1
	return min(nw.X, last), min(nw.Y, last), min(se.X, last), min(se.Y, last)
}

func clampLat(lat float64) float64 {
	return math.Max(-mercatorMaxLat, math.Min(mercatorMaxLat, lat))
}
