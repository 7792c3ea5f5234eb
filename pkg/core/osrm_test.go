package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/NERVsystems/geoscout/pkg/osm"
)

// mock OSRM JSON response with GeoJSON geometry
const mockOSRMResponse = `{
	"code": "Ok",
	"routes": [{
		"distance": 1000,
		"duration": 120,
		"weight": 120,
		"weight_name": "routability",
		"geometry": {"type": "LineString", "coordinates": [[100.5, 13.7], [100.55, 13.75], [100.6, 13.8]]},
		"legs": [{
			"summary": "Main St",
			"distance": 1000,
			"duration": 120,
			"steps": [
				{"distance": 500, "duration": 60, "name": "Main St", "mode": "driving",
					"geometry": {"type": "LineString", "coordinates": [[100.5, 13.7]]},
					"maneuver": {"type": "depart", "location": [100.5, 13.7]}},
				{"distance": 400, "duration": 50, "name": "Ring Rd", "mode": "driving",
					"geometry": {"type": "LineString", "coordinates": [[100.55, 13.75]]},
					"maneuver": {"type": "roundabout", "modifier": "right", "exit": 2, "location": [100.55, 13.75]}},
				{"distance": 100, "duration": 10, "name": "", "mode": "driving",
					"geometry": {"type": "LineString", "coordinates": [[100.6, 13.8]]},
					"maneuver": {"type": "arrive", "location": [100.6, 13.8]}}
			]
		}]
	}],
	"waypoints": [
		{"name": "Main St", "location": [100.5, 13.7], "distance": 2.1},
		{"name": "", "location": [100.6, 13.8], "distance": 0.5}
	]
}`

func TestGetRoute(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(mockOSRMResponse))
	}))
	defer server.Close()

	options := DefaultOSRMOptions()
	options.BaseURL = server.URL

	coords := [][]float64{{100.5, 13.7}, {100.6, 13.8}}
	result, err := GetRoute(context.Background(), coords, options)
	if err != nil {
		t.Fatal(err)
	}
	if requests != 1 {
		t.Fatalf("expected exactly 1 request, got %d", requests)
	}

	// Coordinates go on the path as lon,lat
	wantPath := "/route/v1/car/100.500000,13.700000;100.600000,13.800000"
	if gotPath != wantPath {
		t.Errorf("request path = %q, want %q", gotPath, wantPath)
	}
	for key, want := range map[string]string{
		"overview":   "full",
		"steps":      "true",
		"geometries": "geojson",
	} {
		if got := gotQuery[key]; len(got) != 1 || got[0] != want {
			t.Errorf("query %s = %v, want %q", key, got, want)
		}
	}

	if len(result.Routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(result.Routes))
	}
	route := result.Routes[0]
	if route.Distance != 1000 || route.Duration != 120 {
		t.Errorf("route distance/duration = %v/%v, want 1000/120", route.Distance, route.Duration)
	}
	if route.Geometry.Type != "LineString" {
		t.Errorf("geometry type = %q, want LineString", route.Geometry.Type)
	}
	if len(route.Geometry.Coordinates) != 3 {
		t.Fatalf("expected 3 geometry coordinates, got %d", len(route.Geometry.Coordinates))
	}
	if route.Geometry.Coordinates[0][0] != 100.5 || route.Geometry.Coordinates[0][1] != 13.7 {
		t.Errorf("first coordinate = %v, want [100.5 13.7]", route.Geometry.Coordinates[0])
	}

	if len(route.Legs) != 1 || len(route.Legs[0].Steps) != 3 {
		t.Fatalf("expected 1 leg with 3 steps, got %+v", route.Legs)
	}
	steps := route.Legs[0].Steps
	if steps[0].Maneuver.Type != "depart" {
		t.Errorf("first maneuver = %q, want depart", steps[0].Maneuver.Type)
	}
	if steps[1].Maneuver.Type != "roundabout" || steps[1].Maneuver.Exit != 2 {
		t.Errorf("roundabout maneuver = %+v, want type roundabout exit 2", steps[1].Maneuver)
	}
	if steps[2].Maneuver.Type != "arrive" {
		t.Errorf("last maneuver = %q, want arrive", steps[2].Maneuver.Type)
	}

	if len(result.Waypoints) != 2 || result.Waypoints[0].Name != "Main St" {
		t.Errorf("waypoints = %+v", result.Waypoints)
	}
}

func TestGetRouteErrorCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"NoRoute","message":"Impossible route between points"}`))
	}))
	defer server.Close()

	options := DefaultOSRMOptions()
	options.BaseURL = server.URL

	_, err := GetRoute(context.Background(), [][]float64{{0, 0}, {1, 1}}, options)
	if err == nil {
		t.Fatal("expected error for non-Ok code")
	}
	if !strings.Contains(err.Error(), "Impossible route") {
		t.Errorf("error %q should carry the OSRM message", err)
	}
}

func TestGetRouteServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	options := DefaultOSRMOptions()
	options.BaseURL = server.URL

	_, err := GetRoute(context.Background(), [][]float64{{0, 0}, {1, 1}}, options)
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error %q should mention the status code", err)
	}
}

func TestGetRouteTooFewCoordinates(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	options := DefaultOSRMOptions()
	options.BaseURL = server.URL

	if _, err := GetRoute(context.Background(), [][]float64{{0, 0}}, options); err == nil {
		t.Error("expected error for a single coordinate")
	}
	if _, err := GetRoute(context.Background(), [][]float64{{0, 0}, {1}}, options); err == nil {
		t.Error("expected error for a malformed coordinate pair")
	}
	if requests != 0 {
		t.Errorf("expected no requests for invalid input, got %d", requests)
	}
}

func TestGetRouteDefaultBaseURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(mockOSRMResponse))
	}))
	defer server.Close()

	old := osm.OSRMBaseURL
	osm.OSRMBaseURL = server.URL
	defer func() { osm.OSRMBaseURL = old }()

	options := DefaultOSRMOptions()
	result, err := GetRoute(context.Background(), [][]float64{{100.5, 13.7}, {100.6, 13.8}}, options)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(result.Routes))
	}
}
