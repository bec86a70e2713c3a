package application

// TripPlanner combines itinerary region resolution and leg distance
// annotation behind the primary trip port.
type TripPlanner struct {
	*TripRegionResolver
	*LegDistanceService
}

// NewTripPlanner creates a trip planner from its two services.
func NewTripPlanner(resolver *TripRegionResolver, distances *LegDistanceService) *TripPlanner {
	return &TripPlanner{
		TripRegionResolver: resolver,
		LegDistanceService: distances,
	}
}
