// Package tiles provides tile acquisition and local tile storage.
package tiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/JJFrisch/RoadTrip-sub001/internal/domain"
)

// Store keeps one SQLite tile database per region under a base directory.
// Region files are named <regionID>.tiles so external deletion is visible
// to a directory watcher.
type Store struct {
	dir string

	mu      sync.Mutex
	handles map[string]*sql.DB
	closed  bool
}

// NewStore creates the base directory if needed and returns a Store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("creating tile directory: %w", err)
	}
	return &Store{
		dir:     dir,
		handles: make(map[string]*sql.DB),
	}, nil
}

// RegionPath returns the tile database path for a region id.
func (s *Store) RegionPath(regionID string) string {
	return filepath.Join(s.dir, regionID+".tiles")
}

func (s *Store) open(regionID string) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("tile store is closed")
	}
	if db, ok := s.handles[regionID]; ok {
		return db, nil
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", s.RegionPath(regionID))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening tile database for region %s: %w", regionID, err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS tiles (
		zoom  INTEGER NOT NULL,
		col   INTEGER NOT NULL,
		row   INTEGER NOT NULL,
		data  BLOB NOT NULL,
		PRIMARY KEY (zoom, col, row)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing tile schema for region %s: %w", regionID, err)
	}

	s.handles[regionID] = db
	return db, nil
}

// Put stores a single tile, replacing any previous payload at the same address.
func (s *Store) Put(ctx context.Context, regionID string, zoom int, col, row uint32, data []byte) error {
	db, err := s.open(regionID)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tiles (zoom, col, row, data) VALUES (?, ?, ?, ?);`,
		zoom, col, row, data,
	)
	if err != nil {
		return &domain.TileError{Zoom: zoom, Col: col, Row: row, Err: err}
	}
	return nil
}

// SizeBytes reports the on-disk size of a region's tile database.
func (s *Store) SizeBytes(ctx context.Context, regionID string) (int64, error) {
	// Checkpoint WAL so the main file reflects all writes before stat.
	if db, err := s.open(regionID); err == nil {
		_, _ = db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE);`)
	}
	info, err := os.Stat(s.RegionPath(regionID))
	if err != nil {
		return 0, fmt.Errorf("sizing tile database for region %s: %w", regionID, err)
	}
	return info.Size(), nil
}

// DeleteRegion closes and removes a region's tile database.
// Deleting an absent region is a no-op.
func (s *Store) DeleteRegion(ctx context.Context, regionID string) error {
	s.mu.Lock()
	if db, ok := s.handles[regionID]; ok {
		_ = db.Close()
		delete(s.handles, regionID)
	}
	s.mu.Unlock()

	for _, path := range []string{
		s.RegionPath(regionID),
		s.RegionPath(regionID) + "-wal",
		s.RegionPath(regionID) + "-shm",
	} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing tile database for region %s: %w", regionID, err)
		}
	}
	return nil
}

// Forget drops the open handle for a region without touching its files.
// Used when the file was removed out from under the store.
func (s *Store) Forget(regionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if db, ok := s.handles[regionID]; ok {
		_ = db.Close()
		delete(s.handles, regionID)
	}
}

// Dir returns the base tile directory.
func (s *Store) Dir() string {
	return s.dir
}

// Close closes all open region databases.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for id, db := range s.handles {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.handles, id)
	}
	s.closed = true
	return firstErr
}
