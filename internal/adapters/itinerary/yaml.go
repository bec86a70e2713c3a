// Package itinerary loads trip itineraries from YAML files.
package itinerary

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/JJFrisch/RoadTrip-sub001/internal/domain"
)

// Load reads and validates a trip itinerary from a YAML file.
func Load(path string) (*domain.Trip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading itinerary: %w", err)
	}

	var trip domain.Trip
	if err := yaml.Unmarshal(data, &trip); err != nil {
		return nil, fmt.Errorf("parsing itinerary: %w", err)
	}

	if err := validate(&trip); err != nil {
		return nil, err
	}
	return &trip, nil
}

func validate(trip *domain.Trip) error {
	if trip.Name == "" {
		return &domain.ValidationError{
			Field:      "name",
			Constraint: "required",
			Message:    "trip name is required",
		}
	}
	if len(trip.Days) == 0 {
		return &domain.ValidationError{
			Field:      "days",
			Constraint: "non-empty",
			Message:    "trip has no days",
		}
	}

	for i, day := range trip.Days {
		if day.Mode != "" && !day.Mode.Valid() {
			return &domain.ValidationError{
				Field:      fmt.Sprintf("days[%d].mode", i),
				Value:      string(day.Mode),
				Constraint: "walking|driving",
				Message:    fmt.Sprintf("unknown travel mode %q", day.Mode),
			}
		}
	}
	return nil
}
