package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/geoscout/pkg/core"
	"github.com/NERVsystems/geoscout/pkg/geo"
	"github.com/NERVsystems/geoscout/pkg/poi"
)

const (
	// DefaultAnalysisRadius is the search radius in meters used when the
	// caller does not specify one.
	DefaultAnalysisRadius = 500

	// MaxAnalysisRadius caps the search radius in meters. Larger areas
	// time out against the place source and swamp the category lists.
	MaxAnalysisRadius = 10000
)

// AnalyzeAreaTool returns a tool definition for analyzing the POIs around a location
func AnalyzeAreaTool() mcp.Tool {
	return mcp.NewTool("analyze_area",
		mcp.WithDescription("Analyze the points of interest around a location, grouped into categories with distances from the center"),
		mcp.WithNumber("latitude",
			mcp.Required(),
			mcp.Description("The latitude coordinate of the area's center point"),
		),
		mcp.WithNumber("longitude",
			mcp.Required(),
			mcp.Description("The longitude coordinate of the area's center point"),
		),
		mcp.WithNumber("radius",
			mcp.Description("Search radius in meters (default 500, max 10000)"),
		),
	)
}

// handleAnalyzeArea runs the configured POI analyzer over the requested
// area and returns the categorized result.
func (r *Registry) handleAnalyzeArea(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := r.logger.With("tool", "analyze_area")

	lat, lon, radius, err := core.ParseCoordsAndRadiusWithLog(req, logger, "", "", "", DefaultAnalysisRadius, MaxAnalysisRadius)
	if err != nil {
		return core.NewError(core.ErrInvalidInput, err.Error()).ToMCPResult(), nil
	}

	center := geo.Location{Latitude: lat, Longitude: lon}
	result, err := r.analyzer.Analyze(ctx, center, radius)
	if err != nil {
		if errors.Is(err, poi.ErrAnalysisFailed) {
			logger.Error("area analysis failed", "center", center, "radius", radius)
			return core.NewError(core.ErrServiceUnavailable, "Area analysis failed").
				WithGuidance("Try again shortly, or reduce the search radius.").
				ToMCPResult(), nil
		}
		logger.Error("analyzer rejected input", "error", err)
		return core.NewError(core.ErrInvalidInput, err.Error()).ToMCPResult(), nil
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}
