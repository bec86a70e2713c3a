// Package watcher reconciles the region catalog with the tile directory.
// When a region's tile set is removed out-of-band (a user clearing disk
// space), the corresponding catalog entry must go away too.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const tileSetSuffix = ".tiles"

// Handler is called with the region id of a removed tile set.
type Handler func(ctx context.Context, regionID string) error

// Watcher watches the tile directory for removed tile-set files.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	handler   Handler
	logger    *slog.Logger
	dir       string
	debounce  time.Duration

	mu      sync.Mutex
	pending map[string]time.Time
}

// Config holds watcher configuration.
type Config struct {
	Dir      string
	Debounce time.Duration
}

// New creates a tile directory watcher.
func New(cfg Config, handler Handler, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if cfg.Debounce == 0 {
		cfg.Debounce = 500 * time.Millisecond
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		handler:   handler,
		logger:    logger,
		dir:       cfg.Dir,
		debounce:  cfg.Debounce,
		pending:   make(map[string]time.Time),
	}, nil
}

// Start begins watching the tile directory.
func (w *Watcher) Start(ctx context.Context) error {
	absDir, err := filepath.Abs(w.dir)
	if err != nil {
		return err
	}
	if err := w.fsWatcher.Add(absDir); err != nil {
		return err
	}
	w.logger.Info("watching tile directory", "path", absDir)

	go w.eventLoop(ctx)
	go w.debounceLoop(ctx)

	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// eventLoop processes fsnotify events.
func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// handleFsEvent records removals of tile-set files for debouncing.
// A rename is treated as a removal; the file is gone from the directory.
func (w *Watcher) handleFsEvent(event fsnotify.Event) {
	if !isTileSetFile(event.Name) {
		return
	}
	if !event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return
	}

	w.logger.Debug("tile set removed", "path", event.Name, "op", event.Op.String())

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[event.Name] = time.Now()
}

// debounceLoop fires handlers for removals that have settled.
func (w *Watcher) debounceLoop(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			w.processPending(ctx)
		}
	}
}

// processPending invokes the handler for settled removals.
func (w *Watcher) processPending(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	for path, seen := range w.pending {
		if now.Sub(seen) < w.debounce {
			continue
		}

		delete(w.pending, path)
		regionID := RegionIDFromPath(path)

		w.logger.Info("reconciling removed tile set", "region_id", regionID)

		// Call handler in goroutine to not block
		go func(id string) {
			if err := w.handler(ctx, id); err != nil {
				w.logger.Error("reconcile failed", "region_id", id, "error", err)
			}
		}(regionID)
	}
}

// RegionIDFromPath derives the region id from a tile-set file path.
func RegionIDFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), tileSetSuffix)
}

// isTileSetFile checks if the path is a region tile-set file.
func isTileSetFile(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), tileSetSuffix)
}
