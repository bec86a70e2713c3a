package application

import (
	"context"
	"log/slog"

	"github.com/JJFrisch/RoadTrip-sub001/internal/domain"
	"github.com/JJFrisch/RoadTrip-sub001/internal/ports/output"
)

// LegDistanceService annotates a day's activity schedule with travel
// distances between consecutive stops. Lookups run strictly one pair at
// a time; a failed pair yields an unresolved leg instead of aborting
// the chain, so one bad lookup cannot blank the whole schedule.
type LegDistanceService struct {
	geocoder output.GeocodingProvider
	metrics  output.MetricsCollector
	logger   *slog.Logger
}

// NewLegDistanceService creates a leg distance service.
func NewLegDistanceService(
	geocoder output.GeocodingProvider,
	metrics output.MetricsCollector,
	logger *slog.Logger,
) *LegDistanceService {
	return &LegDistanceService{
		geocoder: geocoder,
		metrics:  metrics,
		logger:   logger,
	}
}

// AnnotateDistances returns one leg per consecutive pair of activities
// that name a location. Each leg carries Resolved=false when its
// geocode or route lookup failed.
func (s *LegDistanceService) AnnotateDistances(ctx context.Context, day *domain.TripDay) []domain.LegDistance {
	mode := day.Mode
	if !mode.Valid() {
		mode = domain.TravelModeDriving
	}

	stops := make([]string, 0, len(day.Activities))
	for _, a := range day.Activities {
		if a.Location != "" {
			stops = append(stops, a.Location)
		}
	}
	if len(stops) < 2 {
		return nil
	}

	// Locations repeat across a day's schedule; resolve each name once.
	coords := make(map[string]domain.Coordinate, len(stops))

	legs := make([]domain.LegDistance, 0, len(stops)-1)
	for i := 1; i < len(stops); i++ {
		if ctx.Err() != nil {
			break
		}

		leg := domain.LegDistance{From: stops[i-1], To: stops[i], Mode: mode}

		from, ok := s.lookup(ctx, coords, leg.From)
		if !ok {
			legs = append(legs, leg)
			continue
		}
		to, ok := s.lookup(ctx, coords, leg.To)
		if !ok {
			legs = append(legs, leg)
			continue
		}

		route, err := s.geocoder.Route(ctx, from, to, mode)
		if err != nil {
			s.metrics.IncRouteLookups(false)
			s.logger.Debug("leg route lookup failed", "from", leg.From, "to", leg.To, "error", err)
			legs = append(legs, leg)
			continue
		}
		s.metrics.IncRouteLookups(true)

		leg.DistanceMeters = route.DistanceMeters
		leg.DurationSeconds = route.DurationSeconds
		leg.Resolved = true
		legs = append(legs, leg)
	}

	return legs
}

func (s *LegDistanceService) lookup(ctx context.Context, coords map[string]domain.Coordinate, place string) (domain.Coordinate, bool) {
	if c, ok := coords[place]; ok {
		return c, true
	}
	c, err := s.geocoder.Search(ctx, place)
	if err != nil {
		s.metrics.IncGeocodeLookups(false)
		s.logger.Debug("leg geocode failed", "place", place, "error", err)
		return domain.Coordinate{}, false
	}
	s.metrics.IncGeocodeLookups(true)
	coords[place] = c
	return c, true
}
