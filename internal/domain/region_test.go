package domain

import (
	"testing"
)

func TestCoordinateValidate(t *testing.T) {
	tests := []struct {
		name    string
		coord   Coordinate
		wantErr bool
	}{
		{
			name:    "valid coordinate",
			coord:   NewCoordinate(52.5, 9.9),
			wantErr: false,
		},
		{
			name:    "valid at origin",
			coord:   NewCoordinate(0, 0),
			wantErr: false,
		},
		{
			name:    "valid at max bounds",
			coord:   NewCoordinate(90, 180),
			wantErr: false,
		},
		{
			name:    "valid at min bounds",
			coord:   NewCoordinate(-90, -180),
			wantErr: false,
		},
		{
			name:    "latitude too high",
			coord:   NewCoordinate(91, 0),
			wantErr: true,
		},
		{
			name:    "longitude too low",
			coord:   NewCoordinate(0, -181),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coord.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGeoRegionValidate(t *testing.T) {
	tests := []struct {
		name    string
		region  GeoRegion
		wantErr bool
	}{
		{
			name:    "valid region",
			region:  NewGeoRegion(NewCoordinate(40, -75), 1, 1),
			wantErr: false,
		},
		{
			name:    "zero lat span",
			region:  NewGeoRegion(NewCoordinate(40, -75), 0, 1),
			wantErr: true,
		},
		{
			name:    "negative lon span",
			region:  NewGeoRegion(NewCoordinate(40, -75), 1, -0.5),
			wantErr: true,
		},
		{
			name:    "invalid center",
			region:  NewGeoRegion(NewCoordinate(95, 0), 1, 1),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.region.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGeoRegionBounds(t *testing.T) {
	r := NewGeoRegion(NewCoordinate(40, -75), 2, 4)

	if got := r.MinLat(); got != 39 {
		t.Errorf("MinLat() = %v, want 39", got)
	}
	if got := r.MaxLat(); got != 41 {
		t.Errorf("MaxLat() = %v, want 41", got)
	}
	if got := r.MinLon(); got != -77 {
		t.Errorf("MinLon() = %v, want -77", got)
	}
	if got := r.MaxLon(); got != -73 {
		t.Errorf("MaxLon() = %v, want -73", got)
	}
}

func TestGeoRegionBoundsClamped(t *testing.T) {
	r := NewGeoRegion(NewCoordinate(89, 179), 4, 4)

	if got := r.MaxLat(); got != 90 {
		t.Errorf("MaxLat() = %v, want 90", got)
	}
	if got := r.MaxLon(); got != 180 {
		t.Errorf("MaxLon() = %v, want 180", got)
	}
}

func TestGeoRegionContains(t *testing.T) {
	r := NewGeoRegion(NewCoordinate(40, -75), 2, 2)

	tests := []struct {
		name  string
		coord Coordinate
		want  bool
	}{
		{"center", NewCoordinate(40, -75), true},
		{"edge", NewCoordinate(41, -75), true},
		{"outside north", NewCoordinate(41.1, -75), false},
		{"outside west", NewCoordinate(40, -76.5), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.coord); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.coord, got, tt.want)
			}
		})
	}
}

func TestBoundingBoxExtend(t *testing.T) {
	var box BoundingBox

	if !box.IsEmpty() {
		t.Error("zero value should be empty")
	}

	box.Extend(NewCoordinate(40, -75))
	box.Extend(NewCoordinate(42, -71))

	if box.IsEmpty() {
		t.Error("box with points should not be empty")
	}
	if got := box.PointCount(); got != 2 {
		t.Errorf("PointCount() = %d, want 2", got)
	}

	region := box.Region(0, 0)
	if region.Center.Lat != 41 {
		t.Errorf("center lat = %v, want 41", region.Center.Lat)
	}
	if region.Center.Lon != -73 {
		t.Errorf("center lon = %v, want -73", region.Center.Lon)
	}
	if region.LatSpan != 2 {
		t.Errorf("lat span = %v, want 2", region.LatSpan)
	}
	if region.LonSpan != 4 {
		t.Errorf("lon span = %v, want 4", region.LonSpan)
	}
}

func TestBoundingBoxRegionPadding(t *testing.T) {
	var box BoundingBox
	box.Extend(NewCoordinate(40, -75))
	box.Extend(NewCoordinate(42, -73))

	region := box.Region(0.2, 0.5)

	if got := region.LatSpan; got != 2.4 {
		t.Errorf("padded lat span = %v, want 2.4", got)
	}
	if got := region.LonSpan; got != 2.4 {
		t.Errorf("padded lon span = %v, want 2.4", got)
	}
}

func TestBoundingBoxRegionFloor(t *testing.T) {
	// All points coincide: spans must still hit the floor minimum.
	var box BoundingBox
	box.Extend(NewCoordinate(40, -75))
	box.Extend(NewCoordinate(40, -75))

	region := box.Region(0.2, 0.5)

	if region.LatSpan < 0.5 {
		t.Errorf("lat span = %v, want >= 0.5", region.LatSpan)
	}
	if region.LonSpan < 0.5 {
		t.Errorf("lon span = %v, want >= 0.5", region.LonSpan)
	}
	if err := region.Validate(); err != nil {
		t.Errorf("floored region should be valid, got %v", err)
	}
}
