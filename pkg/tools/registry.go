// Package tools provides the geoscout MCP tool implementations.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/NERVsystems/geoscout/pkg/geocode"
	"github.com/NERVsystems/geoscout/pkg/monitoring"
	"github.com/NERVsystems/geoscout/pkg/poi"
	"github.com/NERVsystems/geoscout/pkg/route"
	"github.com/NERVsystems/geoscout/pkg/tools/prompts"
	"github.com/NERVsystems/geoscout/pkg/tracing"
)

// Registry contains all tool definitions and the pipeline backends the
// handlers call into.
type Registry struct {
	logger   *slog.Logger
	resolver *geocode.Resolver
	analyzer poi.Analyzer
	planner  route.Planner
}

// NewRegistry creates a new tool registry backed by the given pipeline
// components.
func NewRegistry(logger *slog.Logger, resolver *geocode.Resolver, analyzer poi.Analyzer, planner route.Planner) *Registry {
	return &Registry{
		logger:   logger,
		resolver: resolver,
		analyzer: analyzer,
		planner:  planner,
	}
}

// ToolDefinition represents a geoscout MCP tool definition.
type ToolDefinition struct {
	Name        string
	Description string
	Tool        mcp.Tool
	Handler     func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// GetToolDefinitions returns the list of all available tools.
func (r *Registry) GetToolDefinitions() []ToolDefinition {
	defs := []ToolDefinition{
		// Version and capability tools
		{
			Name:        "get_version",
			Description: "Get the version information for this geoscout MCP service",
			Tool:        GetVersionTool(),
			Handler:     HandleGetVersion,
		},

		// Pipeline tools
		{
			Name:        "geocode_location",
			Description: "Convert a place name, address, or coordinate string (decimal, DMS, MGRS, UTM) to latitude/longitude. Parameters: query (string)",
			Tool:        GeocodeLocationTool(),
			Handler:     r.handleGeocodeLocation,
		},
		{
			Name:        "parse_coordinates",
			Description: "Parse a coordinate string in decimal, DMS, MGRS, or UTM notation without any network lookup. Parameters: input (string)",
			Tool:        ParseCoordinatesTool(),
			Handler:     HandleParseCoordinates,
		},
		{
			Name:        "analyze_area",
			Description: "Analyze the points of interest around a location, grouped by category. Parameters: latitude (number), longitude (number), radius (number in meters)",
			Tool:        AnalyzeAreaTool(),
			Handler:     r.handleAnalyzeArea,
		},
		{
			Name:        "plan_route",
			Description: "Plan routes between two points with turn-by-turn instructions and fare estimates. Parameters: origin (object with latitude/longitude), destination (object with latitude/longitude)",
			Tool:        PlanRouteTool(),
			Handler:     r.handlePlanRoute,
		},

		// Geo utility tools
		{
			Name:        "project_point",
			Description: "Project a point a given distance along a bearing. Parameters: origin (object with latitude/longitude), distance_meters (number), bearing_degrees (number)",
			Tool:        ProjectPointTool(),
			Handler:     HandleProjectPoint,
		},
		{
			Name:        "radius_ring",
			Description: "Sample a closed ring of points at a fixed radius around a center. Parameters: center (object with latitude/longitude), radius (number in meters), segments (number, optional)",
			Tool:        RadiusRingTool(),
			Handler:     HandleRadiusRing,
		},
		{
			Name:        "geo_distance",
			Description: "Calculate distance between two points. Parameters: from (object with latitude/longitude), to (object with latitude/longitude)",
			Tool:        GeoDistanceTool(),
			Handler:     HandleGeoDistance,
		},
		{
			Name:        "bbox_from_points",
			Description: "Create a bounding box from multiple points. Parameters: points (array of latitude/longitude objects)",
			Tool:        BBoxFromPointsTool(),
			Handler:     HandleBBoxFromPoints,
		},
		{
			Name:        "centroid_points",
			Description: "Calculate the centroid of multiple points. Parameters: points (array of latitude/longitude objects)",
			Tool:        CentroidPointsTool(),
			Handler:     HandleCentroidPoints,
		},
	}

	return defs
}

// RegisterTools registers all tools with the MCP server.
func (r *Registry) RegisterTools(mcpServer *server.MCPServer) {
	for _, def := range r.GetToolDefinitions() {
		r.logger.Info("registering tool", "name", def.Name)
		// Wrap handler with tracing
		tracedHandler := r.wrapWithTracing(def.Name, def.Handler)
		mcpServer.AddTool(def.Tool, tracedHandler)
	}
}

// wrapWithTracing wraps a tool handler with OpenTelemetry tracing
func (r *Registry) wrapWithTracing(toolName string, handler func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Start span
		spanName := fmt.Sprintf("mcp.tool.%s", toolName)
		ctx, span := tracing.StartSpan(ctx, spanName,
			trace.WithAttributes(
				attribute.String(tracing.AttrMCPToolName, toolName),
			),
		)
		defer span.End()

		// Record start time
		startTime := time.Now()

		// Execute handler
		result, err := handler(ctx, req)

		// Calculate duration
		duration := time.Since(startTime)
		durationMs := duration.Milliseconds()

		// Tool failures usually surface as IsError results rather than
		// Go errors.
		success := err == nil && (result == nil || !result.IsError)
		monitoring.RecordMCPRequest(toolName, duration, success)

		// Determine status
		status := tracing.StatusSuccess
		if err != nil {
			status = tracing.StatusError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		// Calculate result size
		resultSize := 0
		if result != nil && result.Content != nil {
			if data, marshalErr := json.Marshal(result.Content); marshalErr == nil {
				resultSize = len(data)
			}
		}

		// Set final attributes
		span.SetAttributes(
			attribute.String(tracing.AttrMCPToolStatus, status),
			attribute.Int64(tracing.AttrMCPToolDuration, durationMs),
			attribute.Int(tracing.AttrMCPResultSize, resultSize),
		)

		// Log for debugging
		r.logger.Debug("tool execution traced",
			"tool", toolName,
			"duration_ms", durationMs,
			"status", status,
			"result_size", resultSize,
		)

		return result, err
	}
}

// RegisterPrompts registers all prompts with the MCP server.
func (r *Registry) RegisterPrompts(mcpServer *server.MCPServer) {
	r.logger.Info("registering workflow prompts")
	prompts.RegisterWorkflowPrompts(mcpServer)
}

// GetToolNames returns a list of all tool names.
func (r *Registry) GetToolNames() []string {
	defs := r.GetToolDefinitions()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}

// RegisterAll registers all tools and prompts with the MCP server.
func (r *Registry) RegisterAll(mcpServer *server.MCPServer) {
	r.RegisterTools(mcpServer)
	r.RegisterPrompts(mcpServer)
}
