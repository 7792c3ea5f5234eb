package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrorResponse wraps a plain message as an MCP error result. Handlers
// use it for input plumbing failures; pipeline failures go through
// core.MCPError so the caller gets structured guidance.
func ErrorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}

// InputParser is a generic function to parse request arguments into a strongly typed struct
func InputParser[T any](req mcp.CallToolRequest) (T, *mcp.CallToolResult, error) {
	var input T

	// Convert the arguments to JSON
	inputJSON, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		return input, ErrorResponse(fmt.Sprintf("Invalid input format: %v", err)), err
	}

	// Parse into the specified type
	if err := json.Unmarshal(inputJSON, &input); err != nil {
		return input, ErrorResponse(fmt.Sprintf("Failed to parse input: %v", err)), err
	}

	return input, nil, nil
}
