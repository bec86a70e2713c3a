package domain

import "time"

// DownloadedRegion is a completed or in-progress offline map download.
// In-progress instances exist only in memory; the catalog persists
// completed regions exclusively.
type DownloadedRegion struct {
	ID           string    // Stable unique identifier
	Name         string    // User-facing label
	Bounds       GeoRegion // Geographic coverage
	MaxZoom      int       // Zoom ceiling used during download
	SizeBytes    int64     // Measured byte count of the stored tile set
	DownloadedAt time.Time // Completion timestamp
	Complete     bool      // False only while a download is in flight
}

// FormattedSize returns the region size using the shared byte-formatting rule.
func (r *DownloadedRegion) FormattedSize() string {
	return FormatByteSize(r.SizeBytes)
}

// DownloadProgress is the ephemeral state of the single active download.
// It is discarded on completion, failure, or restart.
type DownloadProgress struct {
	RegionID   string  // Identity of the region being fetched
	RegionName string  // Label of the region being fetched
	Fraction   float64 // Completion fraction in [0, 1]
}

// TravelMode selects the routing profile for leg distance lookups.
type TravelMode string

// Supported travel modes.
const (
	TravelModeWalking TravelMode = "walking"
	TravelModeDriving TravelMode = "driving"
)

// Valid returns true for a known travel mode.
func (m TravelMode) Valid() bool {
	return m == TravelModeWalking || m == TravelModeDriving
}

// RouteResult is the outcome of a single routing lookup.
type RouteResult struct {
	DistanceMeters  int
	DurationSeconds int
}
