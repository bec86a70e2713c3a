// Package metrics provides Prometheus metrics collection.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements the MetricsCollector port using Prometheus.
type Collector struct {
	downloadsTotal      *prometheus.CounterVec
	downloadDuration    prometheus.Histogram
	regionsStored       prometheus.Gauge
	bytesStored         prometheus.Gauge
	tileFetchesTotal    *prometheus.CounterVec
	geocodeLookupsTotal *prometheus.CounterVec
	routeLookupsTotal   *prometheus.CounterVec
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewCollector creates a new Prometheus metrics collector.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "roadtrip"
	}

	return &Collector{
		downloadsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "region_downloads_total",
				Help:      "Total number of offline region downloads",
			},
			[]string{"status"},
		),

		downloadDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "region_download_duration_seconds",
				Help:      "Region download duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
		),

		regionsStored: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "regions_stored",
				Help:      "Number of offline regions on disk",
			},
		),

		bytesStored: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "region_bytes_stored",
				Help:      "Aggregate byte size of stored offline regions",
			},
		),

		tileFetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tile_fetches_total",
				Help:      "Total number of tile fetches from the tile source",
			},
			[]string{"status"},
		),

		geocodeLookupsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "geocode_lookups_total",
				Help:      "Total number of geocode lookups",
			},
			[]string{"status"},
		),

		routeLookupsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "route_lookups_total",
				Help:      "Total number of routing lookups",
			},
			[]string{"status"},
		),

		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// IncDownloads increments the region download counter.
func (c *Collector) IncDownloads(success bool) {
	c.downloadsTotal.WithLabelValues(statusLabel(success)).Inc()
}

// ObserveDownloadDuration records a region download duration.
func (c *Collector) ObserveDownloadDuration(duration time.Duration) {
	c.downloadDuration.Observe(duration.Seconds())
}

// SetRegionsStored sets the number of persisted regions.
func (c *Collector) SetRegionsStored(count int) {
	c.regionsStored.Set(float64(count))
}

// SetBytesStored sets the aggregate stored tile bytes.
func (c *Collector) SetBytesStored(bytes int64) {
	c.bytesStored.Set(float64(bytes))
}

// IncTileFetches increments the tile fetch counter.
func (c *Collector) IncTileFetches(success bool) {
	c.tileFetchesTotal.WithLabelValues(statusLabel(success)).Inc()
}

// IncGeocodeLookups increments the geocode lookup counter.
func (c *Collector) IncGeocodeLookups(success bool) {
	c.geocodeLookupsTotal.WithLabelValues(statusLabel(success)).Inc()
}

// IncRouteLookups increments the routing lookup counter.
func (c *Collector) IncRouteLookups(success bool) {
	c.routeLookupsTotal.WithLabelValues(statusLabel(success)).Inc()
}

// IncHTTPRequests increments the HTTP request counter.
func (c *Collector) IncHTTPRequests(method, path, status string) {
	c.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// ObserveHTTPDuration records HTTP request duration.
func (c *Collector) ObserveHTTPDuration(method, path string, duration time.Duration) {
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// Middleware returns HTTP middleware for metrics collection.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		wrapped := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		path := normalizePath(r.URL.Path)
		status := statusToString(wrapped.statusCode)

		c.IncHTTPRequests(r.Method, path, status)
		c.ObserveHTTPDuration(r.Method, path, duration)
	})
}

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// normalizePath normalizes the URL path for metrics.
func normalizePath(path string) string {
	// Truncate long paths to keep label cardinality bounded
	if len(path) > 30 {
		return path[:30] + "..."
	}
	return path
}

// statusToString converts HTTP status code to string category.
func statusToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

// Server exposes the Prometheus scrape endpoint on its own port.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a metrics server listening on the given port.
func NewServer(port int, path string, logger *slog.Logger) *Server {
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start begins serving scrape requests. It blocks until Stop is called
// or the listener fails.
func (s *Server) Start() error {
	s.logger.Info("metrics server starting", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
