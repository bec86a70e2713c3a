package application

import (
	"context"

	"github.com/JJFrisch/RoadTrip-sub001/internal/ports/input"
)

// HealthService provides health check functionality.
type HealthService struct {
	manager *DownloadManager
}

// NewHealthService creates a new health service.
func NewHealthService(manager *DownloadManager) *HealthService {
	return &HealthService{manager: manager}
}

// IsHealthy returns true if the service is healthy.
func (s *HealthService) IsHealthy(_ context.Context) bool {
	return true // Basic health check
}

// IsReady returns true if the region catalog is reachable.
func (s *HealthService) IsReady(ctx context.Context) bool {
	_, err := s.manager.ListRegions(ctx)
	return err == nil
}

// GetHealthDetails returns detailed health information.
func (s *HealthService) GetHealthDetails(ctx context.Context) input.HealthDetails {
	regions, err := s.manager.ListRegions(ctx)

	components := map[string]string{"catalog": "ok"}
	if err != nil {
		components["catalog"] = "unavailable"
	}

	_, active := s.manager.Current()

	return input.HealthDetails{
		Healthy:        s.IsHealthy(ctx),
		Ready:          err == nil,
		RegionsStored:  len(regions),
		DownloadActive: active,
		Components:     components,
	}
}
