package application

import (
	"context"
	"log/slog"

	"github.com/JJFrisch/RoadTrip-sub001/internal/domain"
	"github.com/JJFrisch/RoadTrip-sub001/internal/ports/output"
)

// Resolver defaults.
const (
	DefaultPadFactor = 0.20
	DefaultMinSpan   = 0.5
)

// TripRegionResolver derives a map region from a trip's itinerary by
// geocoding each day's start and end locations.
type TripRegionResolver struct {
	geocoder  output.GeocodingProvider
	metrics   output.MetricsCollector
	logger    *slog.Logger
	padFactor float64
	minSpan   float64
}

// NewTripRegionResolver creates a resolver with the default padding.
func NewTripRegionResolver(
	geocoder output.GeocodingProvider,
	metrics output.MetricsCollector,
	logger *slog.Logger,
) *TripRegionResolver {
	return &TripRegionResolver{
		geocoder:  geocoder,
		metrics:   metrics,
		logger:    logger,
		padFactor: DefaultPadFactor,
		minSpan:   DefaultMinSpan,
	}
}

// ResolveRegion accumulates a bounding box over every location the trip
// names that the geocoder can resolve, then pads the resulting spans and
// floors them so even a single-point trip yields a usable region.
// Individual geocode failures skip that point; a trip with zero usable
// points fails with domain.ErrNoResolvableLocations.
func (r *TripRegionResolver) ResolveRegion(ctx context.Context, trip *domain.Trip) (domain.GeoRegion, error) {
	var box domain.BoundingBox

	for i := range trip.Days {
		day := &trip.Days[i]
		start, end := day.LocationNames()

		for _, name := range []string{start, end} {
			if name == "" {
				continue
			}
			if err := ctx.Err(); err != nil {
				return domain.GeoRegion{}, err
			}

			coord, err := r.geocoder.Search(ctx, name)
			if err != nil {
				r.metrics.IncGeocodeLookups(false)
				r.logger.Debug("skipping unresolvable location", "place", name, "error", err)
				continue
			}
			r.metrics.IncGeocodeLookups(true)
			box.Extend(coord)
		}
	}

	if box.IsEmpty() {
		return domain.GeoRegion{}, domain.ErrNoResolvableLocations
	}

	region := box.Region(r.padFactor, r.minSpan)
	r.logger.Debug("resolved trip region",
		"trip", trip.Name,
		"points", box.PointCount(),
		"region", region.String(),
	)
	return region, nil
}
