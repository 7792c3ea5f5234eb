package tracing

import "go.opentelemetry.io/otel/attribute"

// Attribute keys for MCP operations
const (
	// MCP tool attributes
	AttrMCPToolName     = "mcp.tool.name"
	AttrMCPToolStatus   = "mcp.tool.status"
	AttrMCPToolDuration = "mcp.tool.duration_ms"
	AttrMCPResultSize   = "mcp.tool.result_size"

	// External service attributes
	AttrServiceName      = "geo.service.name"
	AttrServiceOperation = "geo.service.operation"
	AttrServiceURL       = "geo.service.url"
	AttrServiceStatus    = "geo.service.status"

	// Rate limiting attributes
	AttrRateLimitService = "geo.ratelimit.service"
	AttrRateLimitWaitMs  = "geo.ratelimit.wait_ms"

	// HTTP transport attributes
	AttrHTTPMethod     = "http.method"
	AttrHTTPStatusCode = "http.status_code"
	AttrHTTPPath       = "http.path"
	AttrHTTPSessionID  = "http.session_id"

	// Error attributes
	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"
)

// Status values
const (
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusTimeout     = "timeout"
	StatusRateLimited = "rate_limited"
)

// Service names
const (
	ServiceNominatim = "nominatim"
	ServicePhoton    = "photon"
	ServiceArcGIS    = "arcgis"
	ServiceOverpass  = "overpass"
	ServiceOSRM      = "osrm"
	ServiceAnthropic = "anthropic"
)

// Helper functions for common attributes

// MCPToolAttributes returns attributes for MCP tool execution
func MCPToolAttributes(toolName string, status string, durationMs int64, resultSize int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrMCPToolName, toolName),
		attribute.String(AttrMCPToolStatus, status),
		attribute.Int64(AttrMCPToolDuration, durationMs),
		attribute.Int(AttrMCPResultSize, resultSize),
	}
}

// ServiceAttributes returns attributes for external service calls
func ServiceAttributes(service, operation, url string, status int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrServiceName, service),
		attribute.String(AttrServiceOperation, operation),
		attribute.String(AttrServiceURL, url),
		attribute.Int(AttrServiceStatus, status),
	}
}

// ErrorAttributes returns attributes for errors
func ErrorAttributes(err error) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String(AttrErrorType, "error"),
		attribute.String(AttrErrorMessage, err.Error()),
	}
}
