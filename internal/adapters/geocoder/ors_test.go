package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/JJFrisch/RoadTrip-sub001/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client, server
}

func geocodeBody(lon, lat float64) string {
	return `{"features":[{"geometry":{"coordinates":[` +
		jsonNum(lon) + `,` + jsonNum(lat) + `]}}]}`
}

func jsonNum(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "http://ors.example"})
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Errorf("NewClient() error = %v, want ErrMissingCredential", err)
	}
}

func TestSearch(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geocode/search" {
			t.Errorf("path = %q, want /geocode/search", r.URL.Path)
		}
		if got := r.URL.Query().Get("text"); got != "Portland, OR" {
			t.Errorf("text = %q, want %q", got, "Portland, OR")
		}
		if got := r.Header.Get("Authorization"); got != "test-key" {
			t.Errorf("Authorization = %q, want test-key", got)
		}
		_, _ = w.Write([]byte(geocodeBody(-122.676, 45.523)))
	}))

	coord, err := client.Search(context.Background(), "Portland, OR")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if coord.Lat != 45.523 || coord.Lon != -122.676 {
		t.Errorf("coord = %+v, want lat 45.523 lon -122.676", coord)
	}
}

func TestSearchNoResults(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))

	_, err := client.Search(context.Background(), "Nowhere At All")
	var geoErr *domain.GeocodeError
	if !errors.As(err, &geoErr) {
		t.Fatalf("Search() error = %v, want *GeocodeError", err)
	}
	if geoErr.Place != "Nowhere At All" {
		t.Errorf("Place = %q, want %q", geoErr.Place, "Nowhere At All")
	}
}

func TestSearchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(geocodeBody(2.35, 48.86)))
	}))

	coord, err := client.Search(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if coord.Lat != 48.86 {
		t.Errorf("Lat = %v, want 48.86", coord.Lat)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestRoute(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/directions/foot-walking" {
			t.Errorf("path = %q, want /v2/directions/foot-walking", r.URL.Path)
		}
		var body directionsRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(body.Coordinates) != 2 {
			t.Errorf("len(coordinates) = %d, want 2", len(body.Coordinates))
		}
		_, _ = w.Write([]byte(`{"routes":[{"summary":{"distance":1530.4,"duration":1100.6}}]}`))
	}))

	result, err := client.Route(context.Background(),
		domain.Coordinate{Lat: 45.52, Lon: -122.68},
		domain.Coordinate{Lat: 45.53, Lon: -122.66},
		domain.TravelModeWalking,
	)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if result.DistanceMeters != 1530 {
		t.Errorf("DistanceMeters = %d, want 1530", result.DistanceMeters)
	}
	if result.DurationSeconds != 1101 {
		t.Errorf("DurationSeconds = %d, want 1101", result.DurationSeconds)
	}
}

func TestRouteDrivingProfile(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"routes":[{"summary":{"distance":100,"duration":10}}]}`))
	}))

	_, err := client.Route(context.Background(),
		domain.Coordinate{Lat: 1, Lon: 1},
		domain.Coordinate{Lat: 2, Lon: 2},
		domain.TravelModeDriving,
	)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if gotPath != "/v2/directions/driving-car" {
		t.Errorf("path = %q, want /v2/directions/driving-car", gotPath)
	}
}

func TestRouteRejectsUnknownMode(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	_, err := client.Route(context.Background(),
		domain.Coordinate{}, domain.Coordinate{}, domain.TravelMode("flying"))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Route() error = %v, want ErrInvalidInput", err)
	}
}

func TestRouteNoRoutes(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"routes":[]}`))
	}))

	_, err := client.Route(context.Background(),
		domain.Coordinate{Lat: 1, Lon: 1},
		domain.Coordinate{Lat: 2, Lon: 2},
		domain.TravelModeDriving,
	)
	if err == nil {
		t.Error("Route() error = nil, want error")
	}
}
