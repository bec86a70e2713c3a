package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/JJFrisch/RoadTrip-sub001/internal/domain"
)

// RegionParams describes a region in request bodies and query strings.
type RegionParams struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	LatSpan float64 `json:"lat_span"`
	LonSpan float64 `json:"lon_span"`
	MaxZoom int     `json:"max_zoom"`
}

func (p *RegionParams) toRegion() domain.GeoRegion {
	return domain.GeoRegion{
		Center:  domain.Coordinate{Lat: p.Lat, Lon: p.Lon},
		LatSpan: p.LatSpan,
		LonSpan: p.LonSpan,
	}
}

// TripRequest is the JSON shape of an itinerary in trip endpoints.
type TripRequest struct {
	Name string           `json:"name"`
	Days []TripDayRequest `json:"days"`
}

// TripDayRequest is the JSON shape of a single itinerary day.
type TripDayRequest struct {
	Date          string            `json:"date"`
	StartLocation string            `json:"start_location"`
	EndLocation   string            `json:"end_location"`
	Mode          string            `json:"mode,omitempty"`
	Activities    []ActivityRequest `json:"activities,omitempty"`
}

// ActivityRequest is the JSON shape of a scheduled stop.
type ActivityRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	StartAt  string `json:"start_at,omitempty"`
}

func (t *TripRequest) toTrip() *domain.Trip {
	trip := &domain.Trip{Name: t.Name, Days: make([]domain.TripDay, len(t.Days))}
	for i, d := range t.Days {
		trip.Days[i] = d.toDay()
	}
	return trip
}

func (d *TripDayRequest) toDay() domain.TripDay {
	day := domain.TripDay{
		Date:          d.Date,
		StartLocation: d.StartLocation,
		EndLocation:   d.EndLocation,
		Mode:          domain.TravelMode(d.Mode),
		Activities:    make([]domain.Activity, len(d.Activities)),
	}
	for i, a := range d.Activities {
		day.Activities[i] = domain.Activity{Name: a.Name, Location: a.Location, StartAt: a.StartAt}
	}
	return day
}

// handleListRegions returns all downloaded regions and their total size.
func (s *Server) handleListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := s.offline.ListRegions(r.Context())
	if err != nil {
		s.logger.Error("list regions failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to list regions")
		return
	}

	totalSize, err := s.offline.TotalSize(r.Context())
	if err != nil {
		s.logger.Error("total size failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to compute total size")
		return
	}

	response := make([]map[string]interface{}, len(regions))
	for i := range regions {
		response[i] = s.formatRegion(&regions[i])
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"regions":    response,
		"count":      len(regions),
		"total_size": totalSize,
	})
}

// handleDownloadRegion starts a region download. Precondition failures
// surface immediately; the fetch itself runs in the background so the
// response never outlives the server's write deadline. Clients follow
// progress on the download endpoint.
func (s *Server) handleDownloadRegion(w http.ResponseWriter, r *http.Request) {
	var params RegionParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if params.Name == "" {
		s.writeError(w, http.StatusBadRequest, "Region name is required")
		return
	}

	region, err := s.offline.StartDownload(r.Context(), params.Name, params.toRegion(), params.MaxZoom)
	if err != nil {
		s.handleDownloadError(w, err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, s.formatRegion(region))
}

// handleGetRegion returns a specific downloaded region.
func (s *Server) handleGetRegion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	regionID := vars["regionId"]

	region, err := s.offline.GetRegion(r.Context(), regionID)
	if err != nil {
		if errors.Is(err, domain.ErrRegionNotFound) {
			s.writeError(w, http.StatusNotFound, "Region not found")
			return
		}
		s.logger.Error("get region failed", "region_id", regionID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to get region")
		return
	}

	s.writeJSON(w, http.StatusOK, s.formatRegion(region))
}

// handleDeleteRegion removes a downloaded region. Deleting an absent
// region succeeds.
func (s *Server) handleDeleteRegion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	regionID := vars["regionId"]

	if err := s.offline.DeleteRegion(r.Context(), regionID); err != nil {
		s.logger.Error("delete region failed", "region_id", regionID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to delete region")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleEstimate returns the estimated download size for a region.
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	params, err := parseEstimateParams(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	region := params.toRegion()
	if err := region.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bytes := s.estimator.EstimateBytes(region, params.MaxZoom)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"bytes":     bytes,
		"formatted": domain.FormatByteSize(bytes),
		"max_zoom":  params.MaxZoom,
	})
}

// handleDownloadProgress reports the progress of the active download.
func (s *Server) handleDownloadProgress(w http.ResponseWriter, _ *http.Request) {
	progress, active := s.offline.Current()
	if !active {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"active": false})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"active":      true,
		"region_id":   progress.RegionID,
		"region_name": progress.RegionName,
		"fraction":    progress.Fraction,
	})
}

// handleTripRegion derives the offline region covering an itinerary.
func (s *Server) handleTripRegion(w http.ResponseWriter, r *http.Request) {
	var req TripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	region, err := s.planner.ResolveRegion(r.Context(), req.toTrip())
	if err != nil {
		if errors.Is(err, domain.ErrNoResolvableLocations) {
			s.writeError(w, http.StatusUnprocessableEntity, "No itinerary location could be resolved")
			return
		}
		s.logger.Error("trip region resolution failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to resolve trip region")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"center": map[string]interface{}{
			"lat": region.Center.Lat,
			"lon": region.Center.Lon,
		},
		"lat_span": region.LatSpan,
		"lon_span": region.LonSpan,
	})
}

// handleTripDistances annotates one itinerary day with leg distances.
func (s *Server) handleTripDistances(w http.ResponseWriter, r *http.Request) {
	var req TripDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	day := req.toDay()
	if day.Mode != "" && !day.Mode.Valid() {
		s.writeError(w, http.StatusBadRequest, "Unknown travel mode")
		return
	}

	legs := s.planner.AnnotateDistances(r.Context(), &day)

	response := make([]map[string]interface{}, len(legs))
	for i, leg := range legs {
		entry := map[string]interface{}{
			"from":     leg.From,
			"to":       leg.To,
			"mode":     string(leg.Mode),
			"resolved": leg.Resolved,
		}
		if leg.Resolved {
			entry["distance_meters"] = leg.DistanceMeters
			entry["duration_seconds"] = leg.DurationSeconds
		}
		response[i] = entry
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"legs":  response,
		"count": len(legs),
	})
}

// handleHealth returns detailed health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	details := s.health.GetHealthDetails(r.Context())

	status := http.StatusOK
	if !details.Healthy {
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, map[string]interface{}{
		"status":          boolToStatus(details.Healthy),
		"ready":           details.Ready,
		"regions_stored":  details.RegionsStored,
		"download_active": details.DownloadActive,
		"components":      details.Components,
	})
}

// handleLiveness returns liveness status.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	if s.health.IsHealthy(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	} else {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
	}
}

// handleReadiness returns readiness status.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.health.IsReady(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	} else {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
	}
}

// handleOpenAPI returns the OpenAPI specification.
func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	spec, err := getOpenAPIJSON()
	if err != nil {
		s.logger.Error("failed to get OpenAPI spec", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to load OpenAPI specification")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(spec)
}

// parseEstimateParams parses region query parameters for size estimation.
func parseEstimateParams(r *http.Request) (*RegionParams, error) {
	params := &RegionParams{}
	q := r.URL.Query()

	for _, field := range []struct {
		name string
		dest *float64
	}{
		{"lat", &params.Lat},
		{"lon", &params.Lon},
		{"lat_span", &params.LatSpan},
		{"lon_span", &params.LonSpan},
	} {
		raw := q.Get(field.name)
		if raw == "" {
			return nil, errors.New(field.name + " parameter is required")
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.New("invalid " + field.name + " parameter")
		}
		*field.dest = v
	}

	rawZoom := q.Get("max_zoom")
	if rawZoom == "" {
		return nil, errors.New("max_zoom parameter is required")
	}
	zoom, err := strconv.Atoi(rawZoom)
	if err != nil {
		return nil, errors.New("invalid max_zoom parameter")
	}
	params.MaxZoom = zoom

	return params, nil
}

// formatRegion formats a downloaded region for JSON output.
func (s *Server) formatRegion(region *domain.DownloadedRegion) map[string]interface{} {
	return map[string]interface{}{
		"id":   region.ID,
		"name": region.Name,
		"center": map[string]interface{}{
			"lat": region.Bounds.Center.Lat,
			"lon": region.Bounds.Center.Lon,
		},
		"lat_span":      region.Bounds.LatSpan,
		"lon_span":      region.Bounds.LonSpan,
		"max_zoom":      region.MaxZoom,
		"size_bytes":    region.SizeBytes,
		"size":          region.FormattedSize(),
		"downloaded_at": region.DownloadedAt,
		"complete":      region.Complete,
	}
}

// handleDownloadError maps download failures to HTTP statuses.
func (s *Server) handleDownloadError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		s.writeError(w, http.StatusBadRequest, validationErr.Message)
		return
	}

	// A DownloadError means the fetch was already underway, so even a
	// credential rejection inside it is a provider failure, not the
	// pre-start precondition.
	var downloadErr *domain.DownloadError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrDownloadConflict):
		s.writeError(w, http.StatusConflict, "A download is already in progress")
	case errors.As(err, &downloadErr):
		s.logger.Error("download failed", "error", err)
		s.writeError(w, http.StatusBadGateway, "Download failed")
	case errors.Is(err, domain.ErrMissingCredential):
		s.writeError(w, http.StatusPreconditionFailed, "Tile source credential is missing or rejected")
	default:
		s.logger.Error("download failed", "error", err)
		s.writeError(w, http.StatusBadGateway, "Download failed")
	}
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func boolToStatus(b bool) string {
	if b {
		return "ok"
	}
	return "unhealthy"
}
