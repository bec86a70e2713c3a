package domain

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrPrecondition = errors.New("precondition failed")
	ErrUnavailable  = errors.New("service unavailable")
)

// Specific errors.
var (
	// ErrRegionNotFound is returned when a region id is absent from the catalog.
	ErrRegionNotFound = fmt.Errorf("region: %w", ErrNotFound)

	// ErrInvalidRegion is returned for regions violating the span invariant.
	ErrInvalidRegion = fmt.Errorf("region: %w", ErrInvalidInput)

	// ErrDownloadConflict is returned when a download is requested while
	// another is active. The caller may retry once the slot clears.
	ErrDownloadConflict = fmt.Errorf("download already active: %w", ErrConflict)

	// ErrMissingCredential is returned before a download starts when the
	// tile provider credential is absent or rejected. Not retryable until
	// the user supplies a valid credential.
	ErrMissingCredential = fmt.Errorf("tile provider credential: %w", ErrPrecondition)

	// ErrNoResolvableLocations is returned when a trip yields zero usable
	// coordinates. The caller must fall back or abort.
	ErrNoResolvableLocations = fmt.Errorf("no resolvable trip locations: %w", ErrInvalidInput)

	// ErrCatalogUnavailable is returned when the region catalog cannot be reached.
	ErrCatalogUnavailable = fmt.Errorf("region catalog: %w", ErrUnavailable)
)

// ValidationError represents a detailed validation error.
type ValidationError struct {
	Field      string      // Field that failed validation
	Value      interface{} // The invalid value
	Constraint string      // The constraint that was violated
	Message    string      // Human-readable message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v, constraint: %s)",
		e.Field, e.Message, e.Value, e.Constraint)
}

// Unwrap returns the underlying error type.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// DownloadError represents a provider failure mid-download. The request
// is retryable; no partial state is persisted.
type DownloadError struct {
	RegionName string // Label of the failed region
	Err        error  // Underlying provider error
}

// Error implements the error interface.
func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed for region %q: %v", e.RegionName, e.Err)
}

// Unwrap returns the underlying error.
func (e *DownloadError) Unwrap() error {
	return e.Err
}

// CatalogError represents an error during catalog operations.
type CatalogError struct {
	Operation string // Operation that failed (append, remove, list, ...)
	RegionID  string // Region identity, if applicable
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *CatalogError) Error() string {
	if e.RegionID != "" {
		return fmt.Sprintf("catalog error during %s for %s: %v",
			e.Operation, e.RegionID, e.Err)
	}
	return fmt.Sprintf("catalog error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *CatalogError) Unwrap() error {
	return e.Err
}

// GeocodeError represents a failed place name lookup.
type GeocodeError struct {
	Place string // Place name that failed to resolve
	Err   error  // Underlying error
}

// Error implements the error interface.
func (e *GeocodeError) Error() string {
	return fmt.Sprintf("geocode error for %q: %v", e.Place, e.Err)
}

// Unwrap returns the underlying error.
func (e *GeocodeError) Unwrap() error {
	return e.Err
}

// TileError represents a failed fetch or store of a single tile.
type TileError struct {
	Zoom     int
	Col, Row uint32
	Err      error
}

// Error implements the error interface.
func (e *TileError) Error() string {
	return fmt.Sprintf("tile error at %d/%d/%d: %v", e.Zoom, e.Col, e.Row, e.Err)
}

// Unwrap returns the underlying error.
func (e *TileError) Unwrap() error {
	return e.Err
}
