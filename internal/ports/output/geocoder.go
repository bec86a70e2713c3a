package output

import (
	"context"

	"github.com/JJFrisch/RoadTrip-sub001/internal/domain"
)

// GeocodingProvider defines the secondary port for place name resolution
// and routing lookups.
type GeocodingProvider interface {
	// Search resolves a place name to a coordinate. A name with no
	// results yields a *domain.GeocodeError.
	Search(ctx context.Context, placeName string) (domain.Coordinate, error)

	// Route returns the travel distance between two coordinates for the
	// given mode.
	Route(ctx context.Context, from, to domain.Coordinate, mode domain.TravelMode) (domain.RouteResult, error)
}
