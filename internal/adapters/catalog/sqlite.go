// Package catalog provides the SQLite-backed region catalog.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/JJFrisch/RoadTrip-sub001/internal/domain"
)

// Catalog implements the RegionCatalog port on a local SQLite file.
// SQLite serializes writers; readers run concurrently under WAL.
type Catalog struct {
	db *sql.DB
}

// Open opens (and if needed creates) the catalog database at path.
func Open(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, &domain.CatalogError{Operation: "open", Err: err}
	}

	c := &Catalog{db: db}
	if err := c.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// initSchema creates the regions table if it does not exist.
func (c *Catalog) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS regions (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		center_lat    REAL NOT NULL,
		center_lon    REAL NOT NULL,
		lat_span      REAL NOT NULL,
		lon_span      REAL NOT NULL,
		max_zoom      INTEGER NOT NULL,
		size_bytes    INTEGER NOT NULL,
		downloaded_at INTEGER NOT NULL,
		complete      INTEGER NOT NULL
	);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return &domain.CatalogError{Operation: "init", Err: err}
	}
	return nil
}

// List returns all persisted regions, newest first.
func (c *Catalog) List(ctx context.Context) ([]domain.DownloadedRegion, error) {
	const query = `
	SELECT id, name, center_lat, center_lon, lat_span, lon_span,
	       max_zoom, size_bytes, downloaded_at, complete
	FROM regions
	ORDER BY downloaded_at DESC;
	`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &domain.CatalogError{Operation: "list", Err: err}
	}
	defer rows.Close()

	regions := make([]domain.DownloadedRegion, 0, 8)
	for rows.Next() {
		region, err := scanRegion(rows)
		if err != nil {
			return nil, &domain.CatalogError{Operation: "list", Err: err}
		}
		regions = append(regions, *region)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.CatalogError{Operation: "list", Err: err}
	}
	return regions, nil
}

// Get returns a region by id.
func (c *Catalog) Get(ctx context.Context, id string) (*domain.DownloadedRegion, error) {
	const query = `
	SELECT id, name, center_lat, center_lon, lat_span, lon_span,
	       max_zoom, size_bytes, downloaded_at, complete
	FROM regions
	WHERE id = ?;
	`
	row := c.db.QueryRowContext(ctx, query, id)
	region, err := scanRegion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRegionNotFound
	}
	if err != nil {
		return nil, &domain.CatalogError{Operation: "get", RegionID: id, Err: err}
	}
	return region, nil
}

// Append persists a completed region.
func (c *Catalog) Append(ctx context.Context, region *domain.DownloadedRegion) error {
	const query = `
	INSERT INTO regions (
		id, name, center_lat, center_lon, lat_span, lon_span,
		max_zoom, size_bytes, downloaded_at, complete
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err := c.db.ExecContext(ctx, query,
		region.ID,
		region.Name,
		region.Bounds.Center.Lat,
		region.Bounds.Center.Lon,
		region.Bounds.LatSpan,
		region.Bounds.LonSpan,
		region.MaxZoom,
		region.SizeBytes,
		region.DownloadedAt.Unix(),
		boolToInt(region.Complete),
	)
	if err != nil {
		return &domain.CatalogError{Operation: "append", RegionID: region.ID, Err: err}
	}
	return nil
}

// Remove deletes a region by id. Removing an absent id is a no-op.
func (c *Catalog) Remove(ctx context.Context, id string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM regions WHERE id = ?;`, id); err != nil {
		return &domain.CatalogError{Operation: "remove", RegionID: id, Err: err}
	}
	return nil
}

// TotalSizeBytes returns the aggregate size of all persisted regions.
func (c *Catalog) TotalSizeBytes(ctx context.Context) (int64, error) {
	var total int64
	err := c.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size_bytes), 0) FROM regions;`).Scan(&total)
	if err != nil {
		return 0, &domain.CatalogError{Operation: "total_size", Err: err}
	}
	return total, nil
}

// Close releases the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanRegion.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegion(row rowScanner) (*domain.DownloadedRegion, error) {
	var (
		region       domain.DownloadedRegion
		downloadedAt int64
		complete     int
	)
	err := row.Scan(
		&region.ID,
		&region.Name,
		&region.Bounds.Center.Lat,
		&region.Bounds.Center.Lon,
		&region.Bounds.LatSpan,
		&region.Bounds.LonSpan,
		&region.MaxZoom,
		&region.SizeBytes,
		&downloadedAt,
		&complete,
	)
	if err != nil {
		return nil, err
	}
	region.DownloadedAt = time.Unix(downloadedAt, 0).UTC()
	region.Complete = complete != 0
	return &region, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
