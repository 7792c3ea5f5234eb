// Package prompts provides the MCP prompts that guide a model through
// the geoscout pipeline: resolve a location, analyze its surroundings,
// then plan a route.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GeocodingSystemPrompt returns the system instructions for coordinate
// handling. The server registers it as the geocoding_system prompt.
func GeocodingSystemPrompt() string {
	return `When the user refers to a place, resolve it to coordinates before
calling any other tool.

- If the input already looks like coordinates (decimal degrees, DMS,
  MGRS, or UTM), call parse_coordinates. It never touches the network.
- Otherwise call geocode_location with the free-text query. It tries a
  chain of geocoding services and returns the first usable match.
- Never guess coordinates. If geocode_location reports no result, ask
  the user for a more specific place name instead of inventing one.
- Coordinates are WGS84 decimal degrees: latitude in [-90, 90],
  longitude in [-180, 180].`
}

// scoutAreaTemplate is the user message produced by the scout_area
// prompt. Arguments: location, radius description.
const scoutAreaTemplate = `Scout the area around %s.

1. Resolve the location: call parse_coordinates if it is already a
   coordinate string, otherwise geocode_location.
2. Call analyze_area with the resolved latitude/longitude and a radius
   of %s.
3. Summarize what is nearby, category by category (food, cafes,
   convenience, shopping, parks, transit, public services), naming the
   closest places first with their distances.
4. Close with one sentence on what kind of neighborhood this is.`

// planTripTemplate is the user message produced by the plan_trip
// prompt. Arguments: origin, destination.
const planTripTemplate = `Plan a trip from %s to %s.

1. Resolve both endpoints with parse_coordinates or geocode_location.
2. Call plan_route with the resolved origin and destination.
3. Present each returned option with its total distance, duration, and
   estimated cost, and mark the recommended one.
4. List the turn-by-turn steps of the recommended option.`

// RegisterWorkflowPrompts registers the pipeline workflow prompts with
// the MCP server.
func RegisterWorkflowPrompts(s *server.MCPServer) {
	scoutArea := mcp.NewPrompt("scout_area",
		mcp.WithPromptDescription("Resolve a location and analyze the points of interest around it"),
		mcp.WithArgument("location",
			mcp.ArgumentDescription("Place name, address, or coordinate string to scout"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("radius",
			mcp.ArgumentDescription("Search radius in meters (default 500)"),
		),
	)
	s.AddPrompt(scoutArea, handleScoutArea)

	planTrip := mcp.NewPrompt("plan_trip",
		mcp.WithPromptDescription("Resolve two locations and plan a route between them"),
		mcp.WithArgument("origin",
			mcp.ArgumentDescription("Starting place name, address, or coordinate string"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("destination",
			mcp.ArgumentDescription("Destination place name, address, or coordinate string"),
			mcp.RequiredArgument(),
		),
	)
	s.AddPrompt(planTrip, handlePlanTrip)
}

func handleScoutArea(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	location := req.Params.Arguments["location"]
	if location == "" {
		return nil, fmt.Errorf("missing required argument: location")
	}

	radius := req.Params.Arguments["radius"]
	if radius == "" {
		radius = "500"
	}

	return mcp.NewGetPromptResult(
		"Scout an area",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(
				mcp.RoleUser,
				mcp.NewTextContent(fmt.Sprintf(scoutAreaTemplate, location, radius+" meters")),
			),
		},
	), nil
}

func handlePlanTrip(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	origin := req.Params.Arguments["origin"]
	destination := req.Params.Arguments["destination"]
	if origin == "" {
		return nil, fmt.Errorf("missing required argument: origin")
	}
	if destination == "" {
		return nil, fmt.Errorf("missing required argument: destination")
	}

	return mcp.NewGetPromptResult(
		"Plan a trip",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(
				mcp.RoleUser,
				mcp.NewTextContent(fmt.Sprintf(planTripTemplate, origin, destination)),
			),
		},
	), nil
}
