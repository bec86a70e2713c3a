// Package input defines the primary/driving ports of the application.
package input

import (
	"context"

	"github.com/JJFrisch/RoadTrip-sub001/internal/domain"
)

// OfflineMapService defines the primary port for offline map management.
type OfflineMapService interface {
	// DownloadRegion fetches and persists an offline region. At most one
	// download is active at a time; a concurrent request fails with
	// domain.ErrDownloadConflict.
	DownloadRegion(ctx context.Context, name string, region domain.GeoRegion, maxZoom int) (*domain.DownloadedRegion, error)

	// StartDownload performs the same precondition checks as
	// DownloadRegion but returns as soon as the download slot is
	// claimed, with the fetch continuing in the background. Progress
	// and completion are observable via Current and Subscribe.
	StartDownload(ctx context.Context, name string, region domain.GeoRegion, maxZoom int) (*domain.DownloadedRegion, error)

	// DeleteRegion removes a region from the catalog and reclaims its
	// tile storage. Deleting an absent region is a no-op.
	DeleteRegion(ctx context.Context, id string) error

	// ListRegions returns all persisted regions.
	ListRegions(ctx context.Context) ([]domain.DownloadedRegion, error)

	// GetRegion returns a persisted region by id.
	GetRegion(ctx context.Context, id string) (*domain.DownloadedRegion, error)

	// TotalSize returns the formatted aggregate size of all persisted regions.
	TotalSize(ctx context.Context) (string, error)

	// Current returns the progress of the active download, if any.
	Current() (domain.DownloadProgress, bool)

	// Subscribe registers a progress listener. The returned cancel
	// function must be called to release the subscription.
	Subscribe() (<-chan domain.DownloadProgress, func())
}

// SizeEstimator defines the primary port for tile-set size estimation.
type SizeEstimator interface {
	// EstimateBytes returns the estimated byte count for downloading the
	// region at zoom levels up to maxZoom.
	EstimateBytes(region domain.GeoRegion, maxZoom int) int64

	// EstimateSize returns the estimate formatted for display.
	EstimateSize(region domain.GeoRegion, maxZoom int) string
}

// TripPlanner defines the primary port for trip-derived computations.
type TripPlanner interface {
	// ResolveRegion derives a bounding region from a trip's itinerary.
	ResolveRegion(ctx context.Context, trip *domain.Trip) (domain.GeoRegion, error)

	// AnnotateDistances computes travel distances between consecutive
	// activities of a day. Individual lookup failures yield unresolved
	// legs rather than aborting the chain.
	AnnotateDistances(ctx context.Context, day *domain.TripDay) []domain.LegDistance
}

// HealthChecker defines the primary port for health checks.
type HealthChecker interface {
	// IsHealthy returns true if the service is healthy.
	IsHealthy(ctx context.Context) bool

	// IsReady returns true if the service is ready to accept requests.
	IsReady(ctx context.Context) bool

	// GetHealthDetails returns detailed health information.
	GetHealthDetails(ctx context.Context) HealthDetails
}

// HealthDetails contains detailed health information.
type HealthDetails struct {
	Healthy        bool              // Overall health status
	Ready          bool              // Ready to accept requests
	RegionsStored  int               // Number of persisted regions
	DownloadActive bool              // True while a download is in flight
	Components     map[string]string // Component statuses
}
