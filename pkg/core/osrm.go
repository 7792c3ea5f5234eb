package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/NERVsystems/geoscout/pkg/osm"
)

// OSRMOptions defines options for OSRM route requests.
//
// Geometry is always requested as GeoJSON so the response decodes into
// coordinate pairs; there is no polyline mode.
type OSRMOptions struct {
	// Base URL for the OSRM service. Empty means the configured
	// default from the osm package.
	BaseURL string

	// Profile to use (car, bike, foot)
	Profile string

	// Overview determines the geometry precision
	// "simplified", "full", "false"
	Overview string

	// Steps controls whether to return step-by-step instructions
	Steps bool

	// Alternatives controls how many alternative routes to request
	Alternatives int
}

// DefaultOSRMOptions returns the options used by the route tools:
// full geometry with turn-by-turn steps.
func DefaultOSRMOptions() OSRMOptions {
	return OSRMOptions{
		Profile:      "car",
		Overview:     "full",
		Steps:        true,
		Alternatives: 0,
	}
}

// OSRMGeometry is a GeoJSON LineString. Coordinates are [longitude,
// latitude] pairs, in OSRM's native order.
type OSRMGeometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

// OSRMRoute represents a route returned by the OSRM service
type OSRMRoute struct {
	Duration   float64      `json:"duration"`    // Duration in seconds
	Distance   float64      `json:"distance"`    // Distance in meters
	Geometry   OSRMGeometry `json:"geometry"`    // Route geometry
	Weight     float64      `json:"weight"`      // Weight value (typically duration)
	WeightName string       `json:"weight_name"` // Name of the weight metric
	Legs       []OSRMLeg    `json:"legs"`        // Route legs between waypoints
}

// OSRMLeg represents a leg of a route between two waypoints
type OSRMLeg struct {
	Duration float64    `json:"duration"` // Duration in seconds
	Distance float64    `json:"distance"` // Distance in meters
	Summary  string     `json:"summary"`  // Summary of the leg
	Weight   float64    `json:"weight"`   // Weight value
	Steps    []OSRMStep `json:"steps"`    // Step-by-step instructions
}

// OSRMStep represents a single step in a route leg
type OSRMStep struct {
	Duration float64      `json:"duration"` // Duration in seconds
	Distance float64      `json:"distance"` // Distance in meters
	Name     string       `json:"name"`     // Road name
	Mode     string       `json:"mode"`     // Transport mode
	Geometry OSRMGeometry `json:"geometry"` // Step geometry
	Maneuver OSRMManeuver `json:"maneuver"` // Maneuver description
}

// OSRMManeuver represents a maneuver at the start of a step
type OSRMManeuver struct {
	Type     string    `json:"type"`               // Type of maneuver
	Modifier string    `json:"modifier,omitempty"` // Direction modifier
	Exit     int       `json:"exit,omitempty"`     // Exit number for roundabouts
	Location []float64 `json:"location"`           // Coordinates [lon, lat]
}

// OSRMWaypoint represents a waypoint in the route
type OSRMWaypoint struct {
	Name     string    `json:"name"`     // Street name
	Location []float64 `json:"location"` // Coordinates [lon, lat]
	Distance float64   `json:"distance"` // Distance from requested coordinate
}

// OSRMResult represents the complete response from the OSRM service
type OSRMResult struct {
	Code      string         `json:"code"`      // Status code
	Message   string         `json:"message"`   // Error message if applicable
	Routes    []OSRMRoute    `json:"routes"`    // Array of routes
	Waypoints []OSRMWaypoint `json:"waypoints"` // Array of waypoints
}

// GetRoute fetches a route from the OSRM service. Coordinates are
// [longitude, latitude] pairs, as OSRM expects. The request is made
// exactly once; rate limiting and tracing happen in osm.DoRequest.
func GetRoute(ctx context.Context, coordinates [][]float64, options OSRMOptions) (*OSRMResult, error) {
	logger := slog.Default().With("service", "osrm")

	if len(coordinates) < 2 {
		return nil, fmt.Errorf("route requires at least 2 coordinates, got %d", len(coordinates))
	}

	// Build the coordinate string
	var coordStr strings.Builder
	for i, coord := range coordinates {
		if len(coord) < 2 {
			return nil, fmt.Errorf("coordinate %d must be a [longitude, latitude] pair", i)
		}
		if i > 0 {
			coordStr.WriteString(";")
		}
		coordStr.WriteString(fmt.Sprintf("%.6f,%.6f", coord[0], coord[1]))
	}

	base := options.BaseURL
	if base == "" {
		base = osm.OSRMBaseURL
	}

	// Build the request URL
	reqURL, err := url.Parse(fmt.Sprintf("%s/route/v1/%s/%s",
		strings.TrimRight(base, "/"),
		options.Profile,
		coordStr.String()))
	if err != nil {
		return nil, err
	}

	query := reqURL.Query()
	query.Add("overview", options.Overview)
	query.Add("steps", fmt.Sprintf("%v", options.Steps))
	query.Add("geometries", "geojson")
	query.Add("alternatives", fmt.Sprintf("%d", options.Alternatives))
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := osm.DoRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// OSRM reports request-level problems as JSON with a non-Ok code,
	// but a gateway failure may not be JSON at all.
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("OSRM returned status %d", resp.StatusCode)
	}

	result := &OSRMResult{}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, err
	}

	if result.Code != "Ok" {
		logger.Debug("OSRM request rejected", "code", result.Code, "message", result.Message)
		return nil, fmt.Errorf("OSRM error: %s", result.Message)
	}

	return result, nil
}
