package application

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/JJFrisch/RoadTrip-sub001/internal/domain"
	"github.com/JJFrisch/RoadTrip-sub001/internal/ports/output"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockTileProvider implements output.TileProvider for testing.
type mockTileProvider struct {
	credentialErr error
	fetchErr      error
	size          int64
	steps         []float64
	started       chan struct{} // signaled when a fetch begins, if set
	release       chan struct{} // fetch blocks until closed, if set
}

func (m *mockTileProvider) FetchRegion(ctx context.Context, _ string, _ domain.GeoRegion, _ int, progress output.ProgressFunc) (int64, error) {
	if m.started != nil {
		m.started <- struct{}{}
	}
	for _, f := range m.steps {
		progress(f)
	}
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if m.fetchErr != nil {
		return 0, m.fetchErr
	}
	return m.size, nil
}

func (m *mockTileProvider) ValidateCredential(_ context.Context) error {
	return m.credentialErr
}

// mockTileStore implements output.TileStore for testing.
type mockTileStore struct {
	mu      sync.Mutex
	puts    int
	deleted []string
}

func (m *mockTileStore) Put(_ context.Context, _ string, _ int, _, _ uint32, _ []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	return nil
}

func (m *mockTileStore) SizeBytes(_ context.Context, _ string) (int64, error) {
	return 0, nil
}

func (m *mockTileStore) DeleteRegion(_ context.Context, regionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, regionID)
	return nil
}

func (m *mockTileStore) Close() error { return nil }

func (m *mockTileStore) deletedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// mockCatalog implements output.RegionCatalog in memory.
type mockCatalog struct {
	mu        sync.Mutex
	regions   []domain.DownloadedRegion
	appendErr error
	listErr   error
}

func (m *mockCatalog) List(_ context.Context) ([]domain.DownloadedRegion, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.DownloadedRegion(nil), m.regions...), nil
}

func (m *mockCatalog) Get(_ context.Context, id string) (*domain.DownloadedRegion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.regions {
		if m.regions[i].ID == id {
			r := m.regions[i]
			return &r, nil
		}
	}
	return nil, domain.ErrRegionNotFound
}

func (m *mockCatalog) Append(_ context.Context, region *domain.DownloadedRegion) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regions = append(m.regions, *region)
	return nil
}

func (m *mockCatalog) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.regions {
		if m.regions[i].ID == id {
			m.regions = append(m.regions[:i], m.regions[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockCatalog) TotalSizeBytes(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, r := range m.regions {
		total += r.SizeBytes
	}
	return total, nil
}

func (m *mockCatalog) Close() error { return nil }

func (m *mockCatalog) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.regions)
}

// mockGeocoder implements output.GeocodingProvider for testing.
type mockGeocoder struct {
	mu         sync.Mutex
	coords     map[string]domain.Coordinate
	searchErrs map[string]error
	route      domain.RouteResult
	routeErrs  map[string]error // keyed "from->to"
	searches   []string
	routes     []string
}

func (m *mockGeocoder) Search(_ context.Context, placeName string) (domain.Coordinate, error) {
	m.mu.Lock()
	m.searches = append(m.searches, placeName)
	m.mu.Unlock()

	if err, ok := m.searchErrs[placeName]; ok {
		return domain.Coordinate{}, err
	}
	if c, ok := m.coords[placeName]; ok {
		return c, nil
	}
	return domain.Coordinate{}, &domain.GeocodeError{Place: placeName, Err: domain.ErrNotFound}
}

func (m *mockGeocoder) Route(_ context.Context, from, to domain.Coordinate, _ domain.TravelMode) (domain.RouteResult, error) {
	key := from.String() + "->" + to.String()
	m.mu.Lock()
	m.routes = append(m.routes, key)
	m.mu.Unlock()

	if err, ok := m.routeErrs[key]; ok {
		return domain.RouteResult{}, err
	}
	return m.route, nil
}
