package application

import (
	"strings"
	"testing"

	"github.com/JJFrisch/RoadTrip-sub001/internal/domain"
)

func testRegion(lat, lon, latSpan, lonSpan float64) domain.GeoRegion {
	return domain.NewGeoRegion(domain.NewCoordinate(lat, lon), latSpan, lonSpan)
}

func TestEstimateBytesMonotonicInZoom(t *testing.T) {
	e := NewRegionEstimator(0, 0)
	region := testRegion(40, -75, 2, 2)

	prev := int64(-1)
	for zoom := e.MinZoom(); zoom <= 16; zoom++ {
		got := e.EstimateBytes(region, zoom)
		if got < prev {
			t.Errorf("EstimateBytes(R, %d) = %d, want >= %d", zoom, got, prev)
		}
		prev = got
	}
}

func TestEstimateBytesMonotonicInArea(t *testing.T) {
	e := NewRegionEstimator(0, 0)

	// Nested regions around the same center.
	inner := testRegion(40, -75, 0.5, 0.5)
	middle := testRegion(40, -75, 1, 1)
	outer := testRegion(40, -75, 4, 4)

	for _, zoom := range []int{10, 12, 14} {
		a := e.EstimateBytes(inner, zoom)
		b := e.EstimateBytes(middle, zoom)
		c := e.EstimateBytes(outer, zoom)
		if a > b || b > c {
			t.Errorf("zoom %d: estimates not monotonic in area: %d, %d, %d", zoom, a, b, c)
		}
	}
}

func TestEstimateBytesBelowMinZoom(t *testing.T) {
	e := NewRegionEstimator(10, 0)
	if got := e.EstimateBytes(testRegion(40, -75, 1, 1), 9); got != 0 {
		t.Errorf("EstimateBytes below min zoom = %d, want 0", got)
	}
}

func TestEstimateBytesUsesAvgTileSize(t *testing.T) {
	region := testRegion(40, -75, 1, 1)

	small := NewRegionEstimator(10, 1024)
	large := NewRegionEstimator(10, 2048)

	a := small.EstimateBytes(region, 12)
	b := large.EstimateBytes(region, 12)
	if b != 2*a {
		t.Errorf("doubling tile size: got %d, want %d", b, 2*a)
	}
}

func TestEstimateSizeFormatted(t *testing.T) {
	e := NewRegionEstimator(0, 0)
	got := e.EstimateSize(testRegion(40, -75, 2, 2), 12)

	if !strings.HasSuffix(got, "KB") && !strings.HasSuffix(got, "MB") && !strings.HasSuffix(got, "GB") {
		t.Errorf("EstimateSize() = %q, want a formatted size", got)
	}
}

func TestTileCount(t *testing.T) {
	tests := []struct {
		name   string
		region domain.GeoRegion
		zoom   int
		min    int64
	}{
		{"world at zoom 0", testRegion(0, 0, 170, 358), 0, 1},
		{"tiny region", testRegion(40, -75, 0.001, 0.001), 12, 1},
		{"city at mid zoom", testRegion(52.5, 13.4, 0.5, 0.8), 12, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TileCount(tt.region, tt.zoom)
			if got < tt.min {
				t.Errorf("TileCount() = %d, want >= %d", got, tt.min)
			}
		})
	}
}

func TestTileCountWorldZoomZero(t *testing.T) {
	if got := TileCount(testRegion(0, 0, 170, 358), 0); got != 1 {
		t.Errorf("TileCount(world, 0) = %d, want 1", got)
	}
}

func TestTileSpanOrdering(t *testing.T) {
	minCol, minRow, maxCol, maxRow := TileSpan(testRegion(40, -75, 2, 2), 12)

	if minCol > maxCol {
		t.Errorf("minCol %d > maxCol %d", minCol, maxCol)
	}
	if minRow > maxRow {
		t.Errorf("minRow %d > maxRow %d", minRow, maxRow)
	}
}
