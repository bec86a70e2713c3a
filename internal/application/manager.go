package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JJFrisch/RoadTrip-sub001/internal/domain"
	"github.com/JJFrisch/RoadTrip-sub001/internal/ports/output"
)

// DownloadManager owns the single in-progress download slot and
// coordinates the tile provider, tile store, and region catalog.
// Completed regions are handed to the catalog; in-progress state never
// survives a restart.
type DownloadManager struct {
	provider output.TileProvider
	tiles    output.TileStore
	catalog  output.RegionCatalog
	metrics  output.MetricsCollector
	logger   *slog.Logger

	mu       sync.Mutex
	current  *domain.DownloadedRegion
	fraction float64
	cancel   context.CancelFunc // cancels the active fetch
	closed   bool

	subMu      sync.Mutex
	subs       map[int]chan domain.DownloadProgress
	nextSub    int
	subsClosed bool
}

// NewDownloadManager creates a download manager.
func NewDownloadManager(
	provider output.TileProvider,
	tiles output.TileStore,
	catalog output.RegionCatalog,
	metrics output.MetricsCollector,
	logger *slog.Logger,
) *DownloadManager {
	return &DownloadManager{
		provider: provider,
		tiles:    tiles,
		catalog:  catalog,
		metrics:  metrics,
		logger:   logger,
		subs:     make(map[int]chan domain.DownloadProgress),
	}
}

// DownloadRegion fetches and persists an offline region. It blocks until
// the download completes or fails. A request while another download is
// active fails immediately with domain.ErrDownloadConflict; the store
// gains at most one new region per call, and only a complete one.
func (m *DownloadManager) DownloadRegion(ctx context.Context, name string, region domain.GeoRegion, maxZoom int) (*domain.DownloadedRegion, error) {
	rec, fetchCtx, err := m.prepare(ctx, ctx, name, region, maxZoom)
	if err != nil {
		return nil, err
	}
	return m.run(ctx, fetchCtx, rec, region, maxZoom)
}

// StartDownload runs the same precondition checks as DownloadRegion,
// claims the slot, and returns immediately while the fetch continues in
// the background. The returned record is a snapshot with Complete=false;
// completion and failure are observable through Current and Subscribe.
func (m *DownloadManager) StartDownload(ctx context.Context, name string, region domain.GeoRegion, maxZoom int) (*domain.DownloadedRegion, error) {
	// The fetch must outlive the caller's context; only Close aborts it.
	detached := context.WithoutCancel(ctx)
	rec, fetchCtx, err := m.prepare(ctx, detached, name, region, maxZoom)
	if err != nil {
		return nil, err
	}

	snapshot := *rec
	go func() {
		_, _ = m.run(detached, fetchCtx, rec, region, maxZoom)
	}()
	return &snapshot, nil
}

// prepare validates the request, checks the credential precondition,
// and claims the download slot. slotCtx becomes the parent of the fetch
// context.
func (m *DownloadManager) prepare(ctx, slotCtx context.Context, name string, region domain.GeoRegion, maxZoom int) (*domain.DownloadedRegion, context.Context, error) {
	if err := region.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrInvalidRegion, err)
	}

	// Credential is a precondition, checked before the slot is taken.
	if err := m.provider.ValidateCredential(ctx); err != nil {
		return nil, nil, fmt.Errorf("validating credential: %w", err)
	}

	return m.acquireSlot(slotCtx, name, region, maxZoom)
}

// run drives the fetch for an already-claimed slot to completion.
func (m *DownloadManager) run(ctx, fetchCtx context.Context, rec *domain.DownloadedRegion, region domain.GeoRegion, maxZoom int) (*domain.DownloadedRegion, error) {
	m.logger.Info("download started",
		"region_id", rec.ID,
		"name", rec.Name,
		"max_zoom", rec.MaxZoom,
	)
	start := time.Now()
	m.publish(0)

	size, err := m.provider.FetchRegion(fetchCtx, rec.ID, region, maxZoom, func(fraction float64) {
		m.publish(fraction)
	})
	if err != nil {
		m.discard(ctx, rec)
		m.metrics.IncDownloads(false)
		m.logger.Error("download failed", "region_id", rec.ID, "name", rec.Name, "error", err)
		return nil, &domain.DownloadError{RegionName: rec.Name, Err: err}
	}

	rec.Complete = true
	rec.SizeBytes = size
	rec.DownloadedAt = time.Now()

	if err := m.catalog.Append(ctx, rec); err != nil {
		m.discard(ctx, rec)
		m.metrics.IncDownloads(false)
		return nil, fmt.Errorf("persisting region %s: %w", rec.ID, err)
	}

	m.publish(1)
	m.releaseSlot()
	m.metrics.IncDownloads(true)
	m.metrics.ObserveDownloadDuration(time.Since(start))
	m.updateStorageMetrics(ctx)

	m.logger.Info("download completed",
		"region_id", rec.ID,
		"name", rec.Name,
		"size", rec.FormattedSize(),
		"duration", time.Since(start),
	)
	return rec, nil
}

// DeleteRegion removes a region from the catalog and reclaims its tile
// storage. Deleting an absent region is a no-op.
func (m *DownloadManager) DeleteRegion(ctx context.Context, id string) error {
	if err := m.catalog.Remove(ctx, id); err != nil {
		return fmt.Errorf("removing region %s: %w", id, err)
	}
	if err := m.tiles.DeleteRegion(ctx, id); err != nil {
		return fmt.Errorf("deleting tile set %s: %w", id, err)
	}
	m.logger.Info("region deleted", "region_id", id)
	m.updateStorageMetrics(ctx)
	return nil
}

// ListRegions returns all persisted regions.
func (m *DownloadManager) ListRegions(ctx context.Context) ([]domain.DownloadedRegion, error) {
	return m.catalog.List(ctx)
}

// GetRegion returns a persisted region by id.
func (m *DownloadManager) GetRegion(ctx context.Context, id string) (*domain.DownloadedRegion, error) {
	return m.catalog.Get(ctx, id)
}

// TotalSize returns the formatted aggregate size of all persisted regions.
func (m *DownloadManager) TotalSize(ctx context.Context) (string, error) {
	total, err := m.catalog.TotalSizeBytes(ctx)
	if err != nil {
		return "", err
	}
	return domain.FormatByteSize(total), nil
}

// Current returns the progress of the active download, if any.
func (m *DownloadManager) Current() (domain.DownloadProgress, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return domain.DownloadProgress{}, false
	}
	return domain.DownloadProgress{
		RegionID:   m.current.ID,
		RegionName: m.current.Name,
		Fraction:   m.fraction,
	}, true
}

// Subscribe registers a progress listener. Updates that the listener is
// too slow to receive are dropped rather than blocking the download.
func (m *DownloadManager) Subscribe() (<-chan domain.DownloadProgress, func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	if m.subsClosed {
		ch := make(chan domain.DownloadProgress)
		close(ch)
		return ch, func() {}
	}

	id := m.nextSub
	m.nextSub++
	ch := make(chan domain.DownloadProgress, 16)
	m.subs[id] = ch

	cancel := func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Close aborts any active download and releases all subscribers.
// Partially downloaded tile data is discarded by the aborted request
// itself; nothing is marked complete.
func (m *DownloadManager) Close() {
	m.mu.Lock()
	m.closed = true
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	m.subMu.Lock()
	m.subsClosed = true
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
	m.subMu.Unlock()
}

// acquireSlot claims the single download slot or fails with
// domain.ErrDownloadConflict.
func (m *DownloadManager) acquireSlot(ctx context.Context, name string, region domain.GeoRegion, maxZoom int) (*domain.DownloadedRegion, context.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, nil, domain.ErrUnavailable
	}
	if m.current != nil {
		return nil, nil, domain.ErrDownloadConflict
	}

	rec := &domain.DownloadedRegion{
		ID:      uuid.NewString(),
		Name:    name,
		Bounds:  region,
		MaxZoom: maxZoom,
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	m.current = rec
	m.fraction = 0
	m.cancel = cancel
	return rec, fetchCtx, nil
}

// releaseSlot clears the active slot.
func (m *DownloadManager) releaseSlot() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.current = nil
	m.fraction = 0
	m.mu.Unlock()
}

// discard drops all partial state of a failed or aborted download.
func (m *DownloadManager) discard(ctx context.Context, rec *domain.DownloadedRegion) {
	// The fetch context may already be canceled; cleanup must still run.
	cleanupCtx := context.WithoutCancel(ctx)
	if err := m.tiles.DeleteRegion(cleanupCtx, rec.ID); err != nil {
		m.logger.Warn("failed to discard partial tile set", "region_id", rec.ID, "error", err)
	}
	m.releaseSlot()
}

// publish records the current fraction and fans it out to subscribers.
func (m *DownloadManager) publish(fraction float64) {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return
	}
	m.fraction = fraction
	update := domain.DownloadProgress{
		RegionID:   m.current.ID,
		RegionName: m.current.Name,
		Fraction:   fraction,
	}
	m.mu.Unlock()

	m.subMu.Lock()
	for _, ch := range m.subs {
		select {
		case ch <- update:
		default:
		}
	}
	m.subMu.Unlock()
}

// updateStorageMetrics refreshes the stored-region gauges.
func (m *DownloadManager) updateStorageMetrics(ctx context.Context) {
	regions, err := m.catalog.List(ctx)
	if err != nil {
		return
	}
	m.metrics.SetRegionsStored(len(regions))

	total, err := m.catalog.TotalSizeBytes(ctx)
	if err != nil {
		return
	}
	m.metrics.SetBytesStored(total)
}
