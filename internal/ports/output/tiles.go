// Package output defines the secondary/driven ports of the application.
package output

import (
	"context"

	"github.com/JJFrisch/RoadTrip-sub001/internal/domain"
)

// ProgressFunc receives download completion fractions in [0, 1].
type ProgressFunc func(fraction float64)

// TileProvider defines the secondary port for fetching offline regions
// from an external tile source into local storage.
type TileProvider interface {
	// FetchRegion downloads all tiles covering the region between the
	// provider's minimum zoom and maxZoom into the tile set identified
	// by regionID, reporting progress along the way. It returns the
	// total byte size of the stored tile set.
	FetchRegion(ctx context.Context, regionID string, region domain.GeoRegion, maxZoom int, progress ProgressFunc) (int64, error)

	// ValidateCredential checks that the provider credential authorizes
	// tile downloads. Called before any download is attempted.
	ValidateCredential(ctx context.Context) error
}

// TileStore defines the secondary port for local tile-set storage.
// Each region owns one tile set, stored and deleted as a unit.
type TileStore interface {
	// Put stores a single tile in the region's tile set.
	Put(ctx context.Context, regionID string, zoom int, col, row uint32, data []byte) error

	// SizeBytes returns the on-disk byte size of the region's tile set.
	SizeBytes(ctx context.Context, regionID string) (int64, error)

	// DeleteRegion removes the region's tile set. Removing an absent
	// tile set is a no-op.
	DeleteRegion(ctx context.Context, regionID string) error

	// Close releases all open tile-set handles.
	Close() error
}

// TileSource defines the secondary port for fetching a single tile from
// a remote backend (XYZ tile server, S3 bucket, Azure container).
type TileSource interface {
	// FetchTile retrieves the tile at the given slippy-map address.
	FetchTile(ctx context.Context, zoom int, col, row uint32) ([]byte, error)

	// CheckAccess verifies the backend is reachable and the configured
	// credential is accepted.
	CheckAccess(ctx context.Context) error
}
