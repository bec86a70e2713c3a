package tiles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JJFrisch/RoadTrip-sub001/internal/application"
	"github.com/JJFrisch/RoadTrip-sub001/internal/domain"
)

// XYZSource fetches raster tiles from a slippy-map HTTP endpoint.
// The URL template uses {z}, {x} and {y} placeholders.
type XYZSource struct {
	client      *http.Client
	urlTemplate string
	token       string
	probeZoom   int
}

// XYZConfig holds XYZ tile server configuration.
type XYZConfig struct {
	URLTemplate string
	Token       string
	Timeout     time.Duration

	// MinZoom is the lowest zoom level downloads will request; the
	// access probe targets it so servers that only publish deeper
	// zooms still answer.
	MinZoom int
}

// NewXYZSource creates a tile source for an XYZ HTTP endpoint.
func NewXYZSource(cfg XYZConfig) (*XYZSource, error) {
	if cfg.URLTemplate == "" {
		return nil, errors.New("tile URL template is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MinZoom <= 0 {
		cfg.MinZoom = application.DefaultMinZoom
	}
	return &XYZSource{
		client:      &http.Client{Timeout: cfg.Timeout},
		urlTemplate: cfg.URLTemplate,
		token:       cfg.Token,
		probeZoom:   cfg.MinZoom,
	}, nil
}

func (s *XYZSource) tileURL(zoom int, col, row uint32) string {
	url := s.urlTemplate
	url = strings.ReplaceAll(url, "{z}", strconv.Itoa(zoom))
	url = strings.ReplaceAll(url, "{x}", strconv.FormatUint(uint64(col), 10))
	url = strings.ReplaceAll(url, "{y}", strconv.FormatUint(uint64(row), 10))
	return url
}

// FetchTile downloads a single tile, retrying transient failures.
func (s *XYZSource) FetchTile(ctx context.Context, zoom int, col, row uint32) ([]byte, error) {
	url := s.tileURL(zoom, col, row)

	resp, err := s.doWithRetry(ctx, func() (*http.Request, error) {
		return s.newRequest(ctx, url)
	})
	if err != nil {
		var he *httpStatusError
		if errors.As(err, &he) && (he.Code == http.StatusUnauthorized || he.Code == http.StatusForbidden) {
			return nil, domain.ErrMissingCredential
		}
		return nil, &domain.TileError{Zoom: zoom, Col: col, Row: row, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TileError{Zoom: zoom, Col: col, Row: row, Err: err}
	}
	return data, nil
}

// CheckAccess verifies the configured token and URL template by probing
// the central tile at the minimum download zoom.
func (s *XYZSource) CheckAccess(ctx context.Context) error {
	if strings.Contains(s.urlTemplate, "{token}") && s.token == "" {
		return domain.ErrMissingCredential
	}

	zoom, col, row := s.probeTile()
	req, err := s.newRequest(ctx, s.tileURL(zoom, col, row))
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.ErrMissingCredential
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: tile server returned status %d", domain.ErrUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: probe tile %d/%d/%d not found, check the URL template", domain.ErrUnavailable, zoom, col, row)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: tile server returned status %d", domain.ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// probeTile returns the central tile address at the probe zoom.
func (s *XYZSource) probeTile() (zoom int, col, row uint32) {
	var mid uint32
	if s.probeZoom > 0 {
		mid = uint32(1) << (s.probeZoom - 1)
	}
	return s.probeZoom, mid, mid
}

func (s *XYZSource) newRequest(ctx context.Context, url string) (*http.Request, error) {
	url = strings.ReplaceAll(url, "{token}", s.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return req, nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

func (s *XYZSource) do(req *http.Request) (*http.Response, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 429 and 5xx
// responses) with exponential backoff while respecting cancellation.
func (s *XYZSource) doWithRetry(
	ctx context.Context,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	const maxAttempts = 4
	backoff := 200 * time.Millisecond

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, err
		}

		resp, err := s.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case 429, 500, 502, 503, 504:
				retry = true
			}
		}

		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}
