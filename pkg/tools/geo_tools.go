package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/geoscout/pkg/core"
	"github.com/NERVsystems/geoscout/pkg/geo"
)

// GeoDistanceInput defines the input parameters for calculating distance
type GeoDistanceInput struct {
	From geo.Location `json:"from"`
	To   geo.Location `json:"to"`
}

// GeoDistanceOutput defines the output for distance calculation
type GeoDistanceOutput struct {
	DistanceMeters float64 `json:"distance_meters"`
	Distance       string  `json:"distance"`
}

// GeoDistanceTool returns a tool definition for calculating geographic distance
func GeoDistanceTool() mcp.Tool {
	return mcp.NewTool("geo_distance",
		mcp.WithDescription("Calculate the distance between two geographic coordinates using the Haversine formula"),
		mcp.WithObject("from",
			mcp.Required(),
			mcp.Description("The starting point as {latitude, longitude}"),
		),
		mcp.WithObject("to",
			mcp.Required(),
			mcp.Description("The ending point as {latitude, longitude}"),
		),
	)
}

// HandleGeoDistance implements geographic distance calculation
func HandleGeoDistance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "geo_distance")

	// Parse input
	var input GeoDistanceInput
	inputJSON, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		logger.Error("failed to marshal input", "error", err)
		return ErrorResponse("Invalid input format"), nil
	}

	if err := json.Unmarshal(inputJSON, &input); err != nil {
		logger.Error("failed to parse input", "error", err)
		return ErrorResponse("Invalid input format"), nil
	}

	// Validate input coordinates
	if input.From.Latitude == 0 && input.From.Longitude == 0 {
		logger.Error("missing 'from' coordinates")
		return ErrorResponse("Missing 'from' coordinates"), nil
	}

	if input.To.Latitude == 0 && input.To.Longitude == 0 {
		logger.Error("missing 'to' coordinates")
		return ErrorResponse("Missing 'to' coordinates"), nil
	}

	if err := core.ValidateCoords(input.From.Latitude, input.From.Longitude); err != nil {
		logger.Error("invalid 'from' coordinates", "error", err)
		return ErrorResponse(fmt.Sprintf("Invalid 'from' coordinates: %s", err)), nil
	}

	if err := core.ValidateCoords(input.To.Latitude, input.To.Longitude); err != nil {
		logger.Error("invalid 'to' coordinates", "error", err)
		return ErrorResponse(fmt.Sprintf("Invalid 'to' coordinates: %s", err)), nil
	}

	// Calculate distance using Haversine formula
	distance := geo.Distance(input.From, input.To)

	output := GeoDistanceOutput{
		DistanceMeters: distance,
		Distance:       geo.FormatDistance(distance),
	}

	// Return result
	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}

// ProjectPointInput defines the input parameters for projecting a point
type ProjectPointInput struct {
	Origin         geo.Location `json:"origin"`
	DistanceMeters float64      `json:"distance_meters"`
	BearingDegrees float64      `json:"bearing_degrees"`
}

// ProjectPointOutput defines the output for point projection
type ProjectPointOutput struct {
	Point geo.Location `json:"point"`
}

// ProjectPointTool returns a tool definition for destination-point projection
func ProjectPointTool() mcp.Tool {
	return mcp.NewTool("project_point",
		mcp.WithDescription("Project a point a given distance along a bearing using the spherical direct geodesic formula"),
		mcp.WithObject("origin",
			mcp.Required(),
			mcp.Description("The origin point as {latitude, longitude}"),
		),
		mcp.WithNumber("distance_meters",
			mcp.Required(),
			mcp.Description("Distance to project in meters"),
		),
		mcp.WithNumber("bearing_degrees",
			mcp.Required(),
			mcp.Description("Bearing in degrees clockwise from true north (90 = east)"),
		),
	)
}

// HandleProjectPoint implements destination-point projection
func HandleProjectPoint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "project_point")

	input, errResult, err := InputParser[ProjectPointInput](req)
	if err != nil {
		logger.Error("failed to parse input", "error", err)
		return errResult, nil
	}

	if input.Origin.Latitude == 0 && input.Origin.Longitude == 0 {
		logger.Error("missing 'origin' coordinates")
		return ErrorResponse("Missing 'origin' coordinates"), nil
	}

	if err := core.ValidateCoords(input.Origin.Latitude, input.Origin.Longitude); err != nil {
		logger.Error("invalid 'origin' coordinates", "error", err)
		return ErrorResponse(fmt.Sprintf("Invalid 'origin' coordinates: %s", err)), nil
	}

	if input.DistanceMeters < 0 {
		logger.Error("negative projection distance", "distance_meters", input.DistanceMeters)
		return ErrorResponse("distance_meters must not be negative"), nil
	}

	output := ProjectPointOutput{
		Point: geo.DestinationPoint(input.Origin, input.DistanceMeters, input.BearingDegrees),
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}

// RadiusRingInput defines the input parameters for sampling a radius ring
type RadiusRingInput struct {
	Center   geo.Location `json:"center"`
	Radius   float64      `json:"radius"`
	Segments int          `json:"segments,omitempty"`
}

// RadiusRingOutput defines the output for radius ring sampling
type RadiusRingOutput struct {
	Points []geo.Location `json:"points"`
}

// RadiusRingTool returns a tool definition for sampling a ring of points
func RadiusRingTool() mcp.Tool {
	return mcp.NewTool("radius_ring",
		mcp.WithDescription("Sample a closed ring of points at a fixed radius around a center, approximating a circle"),
		mcp.WithObject("center",
			mcp.Required(),
			mcp.Description("The center point as {latitude, longitude}"),
		),
		mcp.WithNumber("radius",
			mcp.Required(),
			mcp.Description("Ring radius in meters"),
		),
		mcp.WithNumber("segments",
			mcp.Description("Number of segments to sample (default 120; 4 yields the cardinal bearings)"),
		),
	)
}

// HandleRadiusRing implements radius ring sampling
func HandleRadiusRing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "radius_ring")

	input, errResult, err := InputParser[RadiusRingInput](req)
	if err != nil {
		logger.Error("failed to parse input", "error", err)
		return errResult, nil
	}

	if input.Center.Latitude == 0 && input.Center.Longitude == 0 {
		logger.Error("missing 'center' coordinates")
		return ErrorResponse("Missing 'center' coordinates"), nil
	}

	if err := core.ValidateCoords(input.Center.Latitude, input.Center.Longitude); err != nil {
		logger.Error("invalid 'center' coordinates", "error", err)
		return ErrorResponse(fmt.Sprintf("Invalid 'center' coordinates: %s", err)), nil
	}

	if err := core.ValidateRadius(input.Radius, 0); err != nil {
		logger.Error("invalid radius", "error", err)
		return ErrorResponse(fmt.Sprintf("Invalid radius: %s", err)), nil
	}

	output := RadiusRingOutput{
		Points: geo.Ring(input.Center, input.Radius, input.Segments),
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}

// BBoxFromPointsInput defines the input parameters for creating a bounding box
type BBoxFromPointsInput struct {
	Points []geo.Location `json:"points"`
}

// BBoxFromPointsOutput defines the output for bounding box creation
type BBoxFromPointsOutput struct {
	BBox geo.BoundingBox `json:"bbox"`
}

// BBoxFromPointsTool returns a tool definition for creating a bounding box from points
func BBoxFromPointsTool() mcp.Tool {
	return mcp.NewTool("bbox_from_points",
		mcp.WithDescription("Create a bounding box that encompasses all given geographic coordinates"),
		mcp.WithArray("points",
			mcp.Required(),
			mcp.Description("Array of latitude/longitude points to include in the bounding box"),
		),
	)
}

// HandleBBoxFromPoints implements bounding box creation from points
func HandleBBoxFromPoints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "bbox_from_points")

	// Parse input
	var input BBoxFromPointsInput
	inputJSON, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		logger.Error("failed to marshal input", "error", err)
		return ErrorResponse("Invalid input format"), nil
	}

	if err := json.Unmarshal(inputJSON, &input); err != nil {
		logger.Error("failed to parse input", "error", err)
		return ErrorResponse("Invalid input format"), nil
	}

	// Validate input
	if len(input.Points) == 0 {
		logger.Error("empty points array")
		return ErrorResponse("At least one point is required"), nil
	}

	for i, p := range input.Points {
		if p.Latitude == 0 && p.Longitude == 0 {
			logger.Error("missing coordinates", "index", i)
			return ErrorResponse(fmt.Sprintf("Missing coordinates at index %d", i)), nil
		}

		if err := core.ValidateCoords(p.Latitude, p.Longitude); err != nil {
			logger.Error("invalid coordinates", "error", err, "index", i)
			return ErrorResponse(fmt.Sprintf("Invalid coordinates at index %d: %s", i, err)), nil
		}
	}

	// Seed the box with the first point, then grow it
	bbox := geo.NewBoundingBox(input.Points[0])
	for _, p := range input.Points[1:] {
		bbox.ExtendWithPoint(p)
	}

	output := BBoxFromPointsOutput{
		BBox: bbox,
	}

	// Return result
	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}

// CentroidPointsInput defines the input parameters for calculating the centroid
type CentroidPointsInput struct {
	Points []geo.Location `json:"points"`
}

// CentroidPointsOutput defines the output for centroid calculation
type CentroidPointsOutput struct {
	Centroid geo.Location `json:"centroid"`
}

// CentroidPointsTool returns a tool definition for calculating the centroid of points
func CentroidPointsTool() mcp.Tool {
	return mcp.NewTool("centroid_points",
		mcp.WithDescription("Calculate the geographic centroid (mean center) of a set of coordinates"),
		mcp.WithArray("points",
			mcp.Required(),
			mcp.Description("Array of latitude/longitude points to calculate centroid from"),
		),
	)
}

// HandleCentroidPoints implements point centroid calculation
func HandleCentroidPoints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "centroid_points")

	// Parse input
	var input CentroidPointsInput
	inputJSON, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		logger.Error("failed to marshal input", "error", err)
		return ErrorResponse("Invalid input format"), nil
	}

	if err := json.Unmarshal(inputJSON, &input); err != nil {
		logger.Error("failed to parse input", "error", err)
		return ErrorResponse("Invalid input format"), nil
	}

	// Validate input
	if len(input.Points) == 0 {
		logger.Error("empty points array")
		return ErrorResponse("At least one point is required"), nil
	}

	for i, p := range input.Points {
		if p.Latitude == 0 && p.Longitude == 0 {
			logger.Error("missing coordinates", "index", i)
			return ErrorResponse(fmt.Sprintf("Missing coordinates at index %d", i)), nil
		}

		if err := core.ValidateCoords(p.Latitude, p.Longitude); err != nil {
			logger.Error("invalid coordinates", "error", err, "index", i)
			return ErrorResponse(fmt.Sprintf("Invalid coordinates at index %d: %s", i, err)), nil
		}
	}

	output := CentroidPointsOutput{
		Centroid: geo.Centroid(input.Points),
	}

	// Return result
	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}
