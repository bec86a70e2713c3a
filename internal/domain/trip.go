package domain

import "strings"

// Activity is a single scheduled stop within a trip day.
type Activity struct {
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
	StartAt  string `yaml:"start_at,omitempty"` // HH:MM, informational only
}

// TripDay is one day of an itinerary with an ordered activity schedule.
type TripDay struct {
	Date          string     `yaml:"date"` // YYYY-MM-DD
	StartLocation string     `yaml:"start_location"`
	EndLocation   string     `yaml:"end_location"`
	Mode          TravelMode `yaml:"mode,omitempty"`
	Activities    []Activity `yaml:"activities,omitempty"`
}

// Trip is a persisted itinerary: an ordered list of days.
type Trip struct {
	Name string    `yaml:"name"`
	Days []TripDay `yaml:"days"`
}

// LocationNames returns the day's start and end location names with
// surrounding whitespace stripped. Blank names are returned as empty
// strings so callers can skip them.
func (d *TripDay) LocationNames() (start, end string) {
	return strings.TrimSpace(d.StartLocation), strings.TrimSpace(d.EndLocation)
}

// HasLocations returns true if the day names at least one location.
func (d *TripDay) HasLocations() bool {
	start, end := d.LocationNames()
	return start != "" || end != ""
}

// LegDistance annotates the travel between two consecutive activities.
// Resolved distinguishes a failed lookup from one that was never made:
// an unresolved leg carries no usable distance.
type LegDistance struct {
	From            string
	To              string
	Mode            TravelMode
	DistanceMeters  int
	DurationSeconds int
	Resolved        bool
}
