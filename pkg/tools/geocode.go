package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/geoscout/pkg/coords"
	"github.com/NERVsystems/geoscout/pkg/core"
)

// GeocodeLocationOutput defines the output for a geocoded location
type GeocodeLocationOutput struct {
	Query     string  `json:"query"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeocodeLocationTool returns a tool definition for resolving place queries
func GeocodeLocationTool() mcp.Tool {
	return mcp.NewTool("geocode_location",
		mcp.WithDescription("Convert a place name, address, or coordinate string (decimal, DMS, MGRS, UTM) to latitude/longitude"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-text place name, address, or coordinate string"),
		),
	)
}

// handleGeocodeLocation resolves a query through the geocoding chain.
func (r *Registry) handleGeocodeLocation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := r.logger.With("tool", "geocode_location")

	query := mcp.ParseString(req, "query", "")
	if query == "" {
		logger.Error("missing query parameter")
		return core.NewValidationError(core.ErrMissingParameter, "Missing required parameter: query").ToMCPResult(), nil
	}

	// The resolver absorbs provider failures; whatever error comes back
	// means the whole chain found nothing.
	loc, err := r.resolver.Resolve(ctx, query)
	if err != nil {
		logger.Info("geocode found no result", "query", query)
		return core.NewError(core.ErrNoResults, fmt.Sprintf("No location found for %q", query)).
			WithQuery(query).
			WithGuidance("Try a more specific place name, or pass coordinates directly.").
			ToMCPResult(), nil
	}

	output := GeocodeLocationOutput{
		Query:     query,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}

// ParseCoordinatesOutput defines the output for a parsed coordinate string
type ParseCoordinatesOutput struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Format    string  `json:"format"`
	Original  string  `json:"original"`
}

// ParseCoordinatesTool returns a tool definition for offline coordinate parsing
func ParseCoordinatesTool() mcp.Tool {
	return mcp.NewTool("parse_coordinates",
		mcp.WithDescription("Parse a coordinate string in decimal, DMS, MGRS, or UTM notation without any network lookup"),
		mcp.WithString("input",
			mcp.Required(),
			mcp.Description("Coordinate string, e.g. \"18.79, 98.98\", \"47QNB8598697460\", or \"18°47'46\\\"N 98°59'06\\\"E\""),
		),
	)
}

// HandleParseCoordinates implements offline coordinate string parsing
func HandleParseCoordinates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "parse_coordinates")

	input := mcp.ParseString(req, "input", "")
	if input == "" {
		logger.Error("missing input parameter")
		return core.NewValidationError(core.ErrMissingParameter, "Missing required parameter: input").ToMCPResult(), nil
	}

	parsed, err := coords.Parse(input)
	if err != nil {
		logger.Error("failed to parse coordinates", "input", input, "error", err)
		return core.NewError(core.ErrInvalidInput, fmt.Sprintf("Unrecognized coordinate string: %q", input)).
			WithGuidance("Supported formats: decimal degrees, DMS, MGRS, and UTM.").
			ToMCPResult(), nil
	}

	output := ParseCoordinatesOutput{
		Latitude:  parsed.Location.Latitude,
		Longitude: parsed.Location.Longitude,
		Format:    parsed.Format.String(),
		Original:  parsed.Original,
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}
