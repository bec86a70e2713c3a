package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JJFrisch/RoadTrip-sub001/internal/domain"
	"github.com/JJFrisch/RoadTrip-sub001/internal/ports/output"
)

func newTestManager(provider *mockTileProvider, tiles *mockTileStore, catalog *mockCatalog) *DownloadManager {
	return NewDownloadManager(provider, tiles, catalog, &output.NoOpMetrics{}, newTestLogger())
}

func TestDownloadRegionSuccess(t *testing.T) {
	provider := &mockTileProvider{size: 4096, steps: []float64{0.25, 0.5, 1.0}}
	catalog := &mockCatalog{}
	manager := newTestManager(provider, &mockTileStore{}, catalog)

	bounds := domain.NewGeoRegion(domain.NewCoordinate(40, -75), 1, 1)
	rec, err := manager.DownloadRegion(context.Background(), "Test", bounds, 12)
	if err != nil {
		t.Fatalf("DownloadRegion failed: %v", err)
	}

	if !rec.Complete {
		t.Error("returned region should be complete")
	}
	if rec.SizeBytes != 4096 {
		t.Errorf("SizeBytes = %d, want 4096", rec.SizeBytes)
	}
	if rec.ID == "" {
		t.Error("region should have an id")
	}
	if rec.DownloadedAt.IsZero() {
		t.Error("region should have a completion timestamp")
	}

	if got := catalog.count(); got != 1 {
		t.Fatalf("catalog has %d regions, want 1", got)
	}
	stored, err := catalog.Get(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !stored.Complete || stored.SizeBytes != 4096 {
		t.Errorf("stored region = %+v, want complete with size 4096", stored)
	}

	if _, active := manager.Current(); active {
		t.Error("slot should be clear after completion")
	}
}

func TestDownloadRegionConflict(t *testing.T) {
	provider := &mockTileProvider{
		size:    1024,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	catalog := &mockCatalog{}
	manager := newTestManager(provider, &mockTileStore{}, catalog)

	bounds := domain.NewGeoRegion(domain.NewCoordinate(40, -75), 1, 1)

	done := make(chan error, 1)
	go func() {
		_, err := manager.DownloadRegion(context.Background(), "First", bounds, 12)
		done <- err
	}()
	<-provider.started

	// Second request while the first is in flight.
	_, err := manager.DownloadRegion(context.Background(), "Second", bounds, 12)
	if !errors.Is(err, domain.ErrDownloadConflict) {
		t.Errorf("second call error = %v, want ErrDownloadConflict", err)
	}

	close(provider.release)
	if err := <-done; err != nil {
		t.Fatalf("first download failed: %v", err)
	}

	if got := catalog.count(); got != 1 {
		t.Errorf("catalog has %d regions, want exactly 1", got)
	}
}

func TestDownloadRegionMissingCredential(t *testing.T) {
	provider := &mockTileProvider{credentialErr: domain.ErrMissingCredential}
	catalog := &mockCatalog{}
	manager := newTestManager(provider, &mockTileStore{}, catalog)

	bounds := domain.NewGeoRegion(domain.NewCoordinate(40, -75), 1, 1)
	_, err := manager.DownloadRegion(context.Background(), "Test", bounds, 12)
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Errorf("error = %v, want ErrMissingCredential", err)
	}

	if got := catalog.count(); got != 0 {
		t.Errorf("catalog has %d regions, want 0", got)
	}
	if _, active := manager.Current(); active {
		t.Error("slot should never be taken on a credential failure")
	}
}

func TestDownloadRegionProviderFailure(t *testing.T) {
	provider := &mockTileProvider{fetchErr: errors.New("connection reset")}
	tiles := &mockTileStore{}
	catalog := &mockCatalog{}
	manager := newTestManager(provider, tiles, catalog)

	bounds := domain.NewGeoRegion(domain.NewCoordinate(40, -75), 1, 1)
	_, err := manager.DownloadRegion(context.Background(), "Flaky", bounds, 12)

	var dlErr *domain.DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("error = %v, want *DownloadError", err)
	}
	if dlErr.RegionName != "Flaky" {
		t.Errorf("RegionName = %q, want %q", dlErr.RegionName, "Flaky")
	}

	// No partial state: catalog untouched, tile set discarded, slot clear.
	if got := catalog.count(); got != 0 {
		t.Errorf("catalog has %d regions, want 0", got)
	}
	if got := tiles.deletedIDs(); len(got) != 1 {
		t.Errorf("discarded tile sets = %v, want exactly one", got)
	}
	if _, active := manager.Current(); active {
		t.Error("slot should be clear after failure")
	}
}

func TestDownloadRegionAppendFailure(t *testing.T) {
	provider := &mockTileProvider{size: 1024}
	tiles := &mockTileStore{}
	catalog := &mockCatalog{appendErr: errors.New("disk full")}
	manager := newTestManager(provider, tiles, catalog)

	bounds := domain.NewGeoRegion(domain.NewCoordinate(40, -75), 1, 1)
	_, err := manager.DownloadRegion(context.Background(), "Test", bounds, 12)
	if err == nil {
		t.Fatal("expected error when catalog append fails")
	}

	if got := tiles.deletedIDs(); len(got) != 1 {
		t.Errorf("discarded tile sets = %v, want exactly one", got)
	}
}

func TestDownloadRegionInvalidBounds(t *testing.T) {
	manager := newTestManager(&mockTileProvider{}, &mockTileStore{}, &mockCatalog{})

	degenerate := domain.NewGeoRegion(domain.NewCoordinate(40, -75), 0, 1)
	_, err := manager.DownloadRegion(context.Background(), "Bad", degenerate, 12)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestDownloadRegionProgressSubscription(t *testing.T) {
	provider := &mockTileProvider{size: 1024, steps: []float64{0.5}}
	manager := newTestManager(provider, &mockTileStore{}, &mockCatalog{})

	ch, cancel := manager.Subscribe()
	defer cancel()

	bounds := domain.NewGeoRegion(domain.NewCoordinate(40, -75), 1, 1)
	if _, err := manager.DownloadRegion(context.Background(), "Test", bounds, 12); err != nil {
		t.Fatalf("DownloadRegion failed: %v", err)
	}

	var fractions []float64
	for {
		select {
		case p := <-ch:
			fractions = append(fractions, p.Fraction)
			if p.Fraction == 1 {
				goto done
			}
			if p.RegionName != "Test" {
				t.Errorf("progress region = %q, want %q", p.RegionName, "Test")
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for progress, got %v", fractions)
		}
	}
done:
	if len(fractions) < 2 {
		t.Errorf("fractions = %v, want at least start and finish", fractions)
	}
}

func TestDeleteRegion(t *testing.T) {
	tiles := &mockTileStore{}
	catalog := &mockCatalog{
		regions: []domain.DownloadedRegion{
			{ID: "r1", Name: "Berlin", SizeBytes: 2048, Complete: true},
		},
	}
	manager := newTestManager(&mockTileProvider{}, tiles, catalog)

	if err := manager.DeleteRegion(context.Background(), "r1"); err != nil {
		t.Fatalf("DeleteRegion failed: %v", err)
	}
	if got := catalog.count(); got != 0 {
		t.Errorf("catalog has %d regions, want 0", got)
	}
	if got := tiles.deletedIDs(); len(got) != 1 || got[0] != "r1" {
		t.Errorf("deleted tile sets = %v, want [r1]", got)
	}
}

func TestDeleteRegionAbsentIsNoOp(t *testing.T) {
	catalog := &mockCatalog{
		regions: []domain.DownloadedRegion{
			{ID: "r1", SizeBytes: 2048, Complete: true},
		},
	}
	manager := newTestManager(&mockTileProvider{}, &mockTileStore{}, catalog)

	before, err := manager.TotalSize(context.Background())
	if err != nil {
		t.Fatalf("TotalSize failed: %v", err)
	}

	if err := manager.DeleteRegion(context.Background(), "nonexistent"); err != nil {
		t.Errorf("deleting an absent region should be a no-op, got %v", err)
	}

	after, err := manager.TotalSize(context.Background())
	if err != nil {
		t.Fatalf("TotalSize failed: %v", err)
	}
	if before != after {
		t.Errorf("total size changed from %q to %q", before, after)
	}
}

func TestTotalSizeFormatted(t *testing.T) {
	catalog := &mockCatalog{
		regions: []domain.DownloadedRegion{
			{ID: "r1", SizeBytes: 1 << 20, Complete: true},
			{ID: "r2", SizeBytes: 1 << 20, Complete: true},
		},
	}
	manager := newTestManager(&mockTileProvider{}, &mockTileStore{}, catalog)

	got, err := manager.TotalSize(context.Background())
	if err != nil {
		t.Fatalf("TotalSize failed: %v", err)
	}
	if got != "2.0 MB" {
		t.Errorf("TotalSize() = %q, want %q", got, "2.0 MB")
	}
}

func TestCloseAbortsActiveDownload(t *testing.T) {
	provider := &mockTileProvider{
		size:    1024,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	tiles := &mockTileStore{}
	catalog := &mockCatalog{}
	manager := newTestManager(provider, tiles, catalog)

	bounds := domain.NewGeoRegion(domain.NewCoordinate(40, -75), 1, 1)
	done := make(chan error, 1)
	go func() {
		_, err := manager.DownloadRegion(context.Background(), "Aborted", bounds, 12)
		done <- err
	}()
	<-provider.started

	manager.Close()

	err := <-done
	if err == nil {
		t.Fatal("aborted download should fail")
	}
	if got := catalog.count(); got != 0 {
		t.Errorf("catalog has %d regions after abort, want 0", got)
	}
	if got := tiles.deletedIDs(); len(got) != 1 {
		t.Errorf("aborted download should discard its tile set, got %v", got)
	}
}

func TestStartDownloadReturnsBeforeCompletion(t *testing.T) {
	provider := &mockTileProvider{
		size:    2048,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	catalog := &mockCatalog{}
	manager := newTestManager(provider, &mockTileStore{}, catalog)

	bounds := domain.NewGeoRegion(domain.NewCoordinate(40, -75), 1, 1)
	rec, err := manager.StartDownload(context.Background(), "Async", bounds, 12)
	if err != nil {
		t.Fatalf("StartDownload failed: %v", err)
	}
	if rec.Complete {
		t.Error("started region should not be complete yet")
	}
	if rec.ID == "" {
		t.Error("started region should have an id")
	}

	<-provider.started
	if progress, active := manager.Current(); !active || progress.RegionID != rec.ID {
		t.Errorf("Current() = %+v, %v, want active download %s", progress, active, rec.ID)
	}
	if got := catalog.count(); got != 0 {
		t.Errorf("catalog has %d regions before completion, want 0", got)
	}

	close(provider.release)

	deadline := time.After(3 * time.Second)
	for catalog.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("download never reached the catalog")
		case <-time.After(10 * time.Millisecond):
		}
	}

	stored, err := catalog.Get(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !stored.Complete || stored.SizeBytes != 2048 {
		t.Errorf("stored region = %+v, want complete with size 2048", stored)
	}
}

func TestStartDownloadOutlivesCallerContext(t *testing.T) {
	provider := &mockTileProvider{
		size:    1024,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	catalog := &mockCatalog{}
	manager := newTestManager(provider, &mockTileStore{}, catalog)

	ctx, cancel := context.WithCancel(context.Background())
	bounds := domain.NewGeoRegion(domain.NewCoordinate(40, -75), 1, 1)
	if _, err := manager.StartDownload(ctx, "Detached", bounds, 12); err != nil {
		t.Fatalf("StartDownload failed: %v", err)
	}

	<-provider.started
	// The request context ending must not abort the fetch.
	cancel()
	close(provider.release)

	deadline := time.After(3 * time.Second)
	for catalog.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("download did not survive caller cancellation")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestCloseReleasesSubscribers(t *testing.T) {
	manager := newTestManager(&mockTileProvider{}, &mockTileStore{}, &mockCatalog{})

	ch, cancel := manager.Subscribe()
	defer cancel()

	manager.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("channel delivered an update after Close")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber channel not closed by Close")
	}

	// Late subscriptions terminate immediately.
	late, lateCancel := manager.Subscribe()
	defer lateCancel()
	if _, ok := <-late; ok {
		t.Error("subscription after Close should be closed")
	}
}
