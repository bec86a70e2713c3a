package output

import (
	"context"

	"github.com/JJFrisch/RoadTrip-sub001/internal/domain"
)

// RegionCatalog defines the secondary port for the durable catalog of
// downloaded regions. Implementations must allow concurrent readers;
// writes are serialized by the caller (single-writer discipline).
type RegionCatalog interface {
	// List returns all persisted regions, newest first.
	List(ctx context.Context) ([]domain.DownloadedRegion, error)

	// Get returns a region by id, or domain.ErrRegionNotFound.
	Get(ctx context.Context, id string) (*domain.DownloadedRegion, error)

	// Append persists a completed region.
	Append(ctx context.Context, region *domain.DownloadedRegion) error

	// Remove deletes a region by id. Removing an absent id is a no-op.
	Remove(ctx context.Context, id string) error

	// TotalSizeBytes returns the aggregate size of all persisted regions.
	TotalSizeBytes(ctx context.Context) (int64, error)

	// Close releases the underlying store.
	Close() error
}
