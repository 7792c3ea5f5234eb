package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/geoscout/pkg/core"
	"github.com/NERVsystems/geoscout/pkg/geo"
	"github.com/NERVsystems/geoscout/pkg/route"
)

// PlanRouteInput defines the input parameters for planning a route
type PlanRouteInput struct {
	Origin      geo.Location `json:"origin"`
	Destination geo.Location `json:"destination"`
}

// PlanRouteOutput defines the output for route planning
type PlanRouteOutput struct {
	Options []route.Option `json:"options"`
}

// PlanRouteTool returns a tool definition for planning routes between two points
func PlanRouteTool() mcp.Tool {
	return mcp.NewTool("plan_route",
		mcp.WithDescription("Plan routes between two points with localized turn-by-turn instructions, distance, duration, and fare estimates"),
		mcp.WithObject("origin",
			mcp.Required(),
			mcp.Description("The starting point as {latitude, longitude}"),
		),
		mcp.WithObject("destination",
			mcp.Required(),
			mcp.Description("The destination point as {latitude, longitude}"),
		),
	)
}

// handlePlanRoute asks the configured planner for route options between
// the two points.
func (r *Registry) handlePlanRoute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := r.logger.With("tool", "plan_route")

	input, errResult, err := InputParser[PlanRouteInput](req)
	if err != nil {
		logger.Error("failed to parse input", "error", err)
		return errResult, nil
	}

	if input.Origin.Latitude == 0 && input.Origin.Longitude == 0 {
		logger.Error("missing 'origin' coordinates")
		return core.NewValidationError(core.ErrMissingParameter, "Missing 'origin' coordinates").ToMCPResult(), nil
	}
	if input.Destination.Latitude == 0 && input.Destination.Longitude == 0 {
		logger.Error("missing 'destination' coordinates")
		return core.NewValidationError(core.ErrMissingParameter, "Missing 'destination' coordinates").ToMCPResult(), nil
	}

	if err := core.ValidateCoords(input.Origin.Latitude, input.Origin.Longitude); err != nil {
		logger.Error("invalid 'origin' coordinates", "error", err)
		return core.NewError(core.ErrInvalidInput, fmt.Sprintf("Invalid 'origin' coordinates: %s", err)).ToMCPResult(), nil
	}
	if err := core.ValidateCoords(input.Destination.Latitude, input.Destination.Longitude); err != nil {
		logger.Error("invalid 'destination' coordinates", "error", err)
		return core.NewError(core.ErrInvalidInput, fmt.Sprintf("Invalid 'destination' coordinates: %s", err)).ToMCPResult(), nil
	}

	options, err := r.planner.Plan(ctx, input.Origin, input.Destination)
	if err != nil {
		if errors.Is(err, route.ErrRoutingFailed) {
			logger.Error("route planning failed",
				"origin", input.Origin,
				"destination", input.Destination,
			)
			return core.NewError(core.ErrNoResults, "No viable route found between the given points").
				WithGuidance("Check that both points are reachable by road, or try points closer together.").
				ToMCPResult(), nil
		}
		logger.Error("planner rejected input", "error", err)
		return core.NewError(core.ErrInvalidInput, err.Error()).ToMCPResult(), nil
	}

	output := PlanRouteOutput{Options: options}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}
