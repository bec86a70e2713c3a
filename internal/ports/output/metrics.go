package output

import "time"

// MetricsCollector defines the secondary port for metrics collection.
type MetricsCollector interface {
	// IncDownloads increments the region download counter.
	IncDownloads(success bool)

	// ObserveDownloadDuration records the duration of a region download.
	ObserveDownloadDuration(duration time.Duration)

	// SetRegionsStored sets the number of persisted regions.
	SetRegionsStored(count int)

	// SetBytesStored sets the aggregate stored tile bytes.
	SetBytesStored(bytes int64)

	// IncTileFetches increments the per-tile fetch counter.
	IncTileFetches(success bool)

	// IncGeocodeLookups increments the geocode lookup counter.
	IncGeocodeLookups(success bool)

	// IncRouteLookups increments the routing lookup counter.
	IncRouteLookups(success bool)
}

// NoOpMetrics is a no-op implementation of MetricsCollector.
type NoOpMetrics struct{}

// IncDownloads implements MetricsCollector.
func (n *NoOpMetrics) IncDownloads(_ bool) {}

// ObserveDownloadDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveDownloadDuration(_ time.Duration) {}

// SetRegionsStored implements MetricsCollector.
func (n *NoOpMetrics) SetRegionsStored(_ int) {}

// SetBytesStored implements MetricsCollector.
func (n *NoOpMetrics) SetBytesStored(_ int64) {}

// IncTileFetches implements MetricsCollector.
func (n *NoOpMetrics) IncTileFetches(_ bool) {}

// IncGeocodeLookups implements MetricsCollector.
func (n *NoOpMetrics) IncGeocodeLookups(_ bool) {}

// IncRouteLookups implements MetricsCollector.
func (n *NoOpMetrics) IncRouteLookups(_ bool) {}
