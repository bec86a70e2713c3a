// Package domain contains the core business entities and value objects.
package domain

import (
	"fmt"
	"math"
)

// Coordinate represents a WGS84 geographic point.
type Coordinate struct {
	Lat float64 // Latitude in degrees
	Lon float64 // Longitude in degrees
}

// NewCoordinate creates a coordinate from latitude and longitude.
func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{Lat: lat, Lon: lon}
}

// Validate checks if the coordinate is a valid WGS84 point.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return &ValidationError{
			Field:      "latitude",
			Value:      c.Lat,
			Constraint: "[-90, 90]",
			Message:    "latitude must be between -90 and 90",
		}
	}
	if c.Lon < -180 || c.Lon > 180 {
		return &ValidationError{
			Field:      "longitude",
			Value:      c.Lon,
			Constraint: "[-180, 180]",
			Message:    "longitude must be between -180 and 180",
		}
	}
	return nil
}

// String returns a string representation of the coordinate.
func (c Coordinate) String() string {
	return fmt.Sprintf("(%f, %f)", c.Lat, c.Lon)
}

// GeoRegion is a bounded geographic rectangle expressed as a center
// coordinate plus latitude/longitude spans. Spans must be positive.
type GeoRegion struct {
	Center  Coordinate
	LatSpan float64 // Full latitude delta in degrees
	LonSpan float64 // Full longitude delta in degrees
}

// NewGeoRegion creates a region from a center point and spans.
func NewGeoRegion(center Coordinate, latSpan, lonSpan float64) GeoRegion {
	return GeoRegion{Center: center, LatSpan: latSpan, LonSpan: lonSpan}
}

// Validate checks the region invariants: a valid center and positive spans.
func (r GeoRegion) Validate() error {
	if err := r.Center.Validate(); err != nil {
		return err
	}
	if r.LatSpan <= 0 {
		return &ValidationError{
			Field:      "lat_span",
			Value:      r.LatSpan,
			Constraint: "> 0",
			Message:    "latitude span must be positive",
		}
	}
	if r.LonSpan <= 0 {
		return &ValidationError{
			Field:      "lon_span",
			Value:      r.LonSpan,
			Constraint: "> 0",
			Message:    "longitude span must be positive",
		}
	}
	return nil
}

// MinLat returns the southern edge, clamped to the valid latitude range.
func (r GeoRegion) MinLat() float64 {
	return math.Max(r.Center.Lat-r.LatSpan/2, -90)
}

// MaxLat returns the northern edge, clamped to the valid latitude range.
func (r GeoRegion) MaxLat() float64 {
	return math.Min(r.Center.Lat+r.LatSpan/2, 90)
}

// MinLon returns the western edge.
func (r GeoRegion) MinLon() float64 {
	return math.Max(r.Center.Lon-r.LonSpan/2, -180)
}

// MaxLon returns the eastern edge.
func (r GeoRegion) MaxLon() float64 {
	return math.Min(r.Center.Lon+r.LonSpan/2, 180)
}

// Contains checks if a coordinate lies within the region.
func (r GeoRegion) Contains(c Coordinate) bool {
	return c.Lat >= r.MinLat() && c.Lat <= r.MaxLat() &&
		c.Lon >= r.MinLon() && c.Lon <= r.MaxLon()
}

// Area returns the angular area of the region in square degrees.
func (r GeoRegion) Area() float64 {
	return r.LatSpan * r.LonSpan
}

// String returns a string representation of the region.
func (r GeoRegion) String() string {
	return fmt.Sprintf("%v ±(%g, %g)", r.Center, r.LatSpan/2, r.LonSpan/2)
}

// BoundingBox accumulates coordinates into a minimal enclosing box.
// The zero value is an empty box.
type BoundingBox struct {
	minLat, minLon float64
	maxLat, maxLon float64
	count          int
}

// Extend grows the box to include the given coordinate.
func (b *BoundingBox) Extend(c Coordinate) {
	if b.count == 0 {
		b.minLat, b.maxLat = c.Lat, c.Lat
		b.minLon, b.maxLon = c.Lon, c.Lon
		b.count = 1
		return
	}
	b.minLat = math.Min(b.minLat, c.Lat)
	b.maxLat = math.Max(b.maxLat, c.Lat)
	b.minLon = math.Min(b.minLon, c.Lon)
	b.maxLon = math.Max(b.maxLon, c.Lon)
	b.count++
}

// IsEmpty returns true if no coordinates have been added.
func (b *BoundingBox) IsEmpty() bool {
	return b.count == 0
}

// PointCount returns the number of accumulated coordinates.
func (b *BoundingBox) PointCount() int {
	return b.count
}

// Region converts the box into a GeoRegion. The spans are padded by the
// given factor and floored at minSpan so that single-point or coincident
// inputs still yield a non-degenerate region.
func (b *BoundingBox) Region(padFactor, minSpan float64) GeoRegion {
	center := Coordinate{
		Lat: (b.minLat + b.maxLat) / 2,
		Lon: (b.minLon + b.maxLon) / 2,
	}
	latSpan := (b.maxLat - b.minLat) * (1 + padFactor)
	lonSpan := (b.maxLon - b.minLon) * (1 + padFactor)
	return GeoRegion{
		Center:  center,
		LatSpan: math.Max(latSpan, minSpan),
		LonSpan: math.Max(lonSpan, minSpan),
	}
}
