package tools

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/geoscout/pkg/version"
)

// GetVersionTool returns a tool definition for retrieving version information
func GetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the version and build information of the geoscout MCP service"),
	)
}

// HandleGetVersion implements version information retrieval
func HandleGetVersion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "get_version")

	info := version.Info()
	info["name"] = "geoscout"

	resultBytes, err := json.Marshal(info)
	if err != nil {
		logger.Error("failed to marshal version info", "error", err)
		return ErrorResponse("Failed to retrieve version information"), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}
