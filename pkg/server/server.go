// Package server provides the MCP server implementation for the geoscout tools.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/NERVsystems/geoscout/pkg/tools"
	"github.com/NERVsystems/geoscout/pkg/tools/prompts"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const (
	// ServerName is the name of the MCP server
	ServerName = "geoscout-mcp-server"

	// ServerVersion is the version of the MCP server
	ServerVersion = "0.1.0"
)

// Server encapsulates the MCP server with the geoscout tools.
type Server struct {
	srv          *mcpserver.MCPServer
	logger       *slog.Logger
	stopCh       chan struct{}
	doneCh       chan struct{}
	running      bool
	mu           sync.Mutex
	once         sync.Once // Ensure we only close stopCh once
	ctxCancel    context.CancelFunc
	ctxGoroutine sync.Once // Ensure we only start one context goroutine
}

// NewServer creates a new geoscout MCP server with all tools from the
// given registry registered.
func NewServer(registry *tools.Registry) (*Server, error) {
	logger := slog.Default()
	logger.Info("initializing geoscout MCP server",
		"name", ServerName,
		"version", ServerVersion)

	// Create MCP server with options
	srv := mcpserver.NewMCPServer(
		ServerName,
		ServerVersion,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)

	// Register all tools and workflow prompts
	registry.RegisterAll(srv)

	// Register the geocoding system prompt using the v0.28.0+ API
	geocodingPrompt := mcp.NewPrompt("geocoding_system",
		mcp.WithPromptDescription("System prompt with geocoding instructions"),
	)

	// Add the prompt with its handler function
	srv.AddPrompt(geocodingPrompt, func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return mcp.NewGetPromptResult(
			"Geocoding System Instructions",
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(
					mcp.RoleAssistant,
					mcp.NewTextContent(prompts.GeocodingSystemPrompt()),
				),
			},
		), nil
	})

	return &Server{
		srv:    srv,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

// Run starts the MCP server using stdin/stdout for communication.
// This method blocks until the server is stopped or an error occurs.
func (s *Server) Run() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	// Run the server in a goroutine
	go func() {
		defer close(s.doneCh)
		err := mcpserver.ServeStdio(s.srv)
		if err != nil && err != io.EOF {
			s.logger.Error("server error", "error", err)
		}

		// Ensure the main Run loop is notified that the
		// server has finished processing.
		s.Shutdown()
	}()

	// Watch the parent process so we don't linger if the MCP
	// client dies without closing stdin.
	go s.monitorParentProcess()

	// Wait for stop signal
	<-s.stopCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	// Wait for server to finish before returning
	<-s.doneCh
	return nil
}

// RunWithContext starts the MCP server and allows for graceful shutdown via context.
// This method blocks until the context is canceled or an error occurs.
func (s *Server) RunWithContext(ctx context.Context) error {
	// Create a goroutine to watch the context for cancellation
	s.ctxGoroutine.Do(func() {
		// Create a derived context that we can cancel
		derived, cancel := context.WithCancel(ctx)
		s.ctxCancel = cancel

		go func() {
			select {
			case <-derived.Done():
				s.Shutdown()
			case <-s.stopCh:
				// Already being shut down
			}
		}()
	})

	return s.Run()
}

// Shutdown initiates a graceful shutdown of the server.
// It does not block and returns immediately.
// Using sync.Once to ensure we don't close an already closed channel.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	// Signal the server to stop using sync.Once to avoid panics
	// on double close of the channel
	s.once.Do(func() {
		close(s.stopCh)
	})

	// Cancel the context if we have one
	if s.ctxCancel != nil {
		s.ctxCancel()
	}
}

// WaitForShutdown blocks until the server has fully shut down.
func (s *Server) WaitForShutdown() {
	<-s.doneCh
}

// monitorParentProcess polls the parent PID and shuts the server down
// once the parent exits. Reparenting to PID 1 counts as an exit.
func (s *Server) monitorParentProcess() {
	ppid := os.Getppid()
	if ppid <= 1 {
		return
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !isProcessRunning(ppid) || os.Getppid() != ppid {
				s.logger.Info("parent process exited, shutting down", "ppid", ppid)
				s.Shutdown()
				return
			}
		case <-s.stopCh:
			return
		}
	}
}

// isProcessRunning reports whether a process with the given PID exists.
func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// Signal 0 performs the permission and existence checks
	// without delivering anything.
	return process.Signal(syscall.Signal(0)) == nil
}

// GetMCPServer returns the underlying MCP server instance for HTTP transport
func (s *Server) GetMCPServer() *mcpserver.MCPServer {
	return s.srv
}

// Handler represents the HTTP server handler. It exposes a small REST
// bridge over the registry's tools for callers that do not speak MCP.
type Handler struct {
	logger   *slog.Logger
	registry *tools.Registry
}

// NewHandler creates a new server handler
func NewHandler(logger *slog.Logger, registry *tools.Registry) *Handler {
	return &Handler{
		logger:   logger,
		registry: registry,
	}
}

// ServeHTTP implements the http.Handler interface
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	path := r.URL.Path
	method := r.Method

	// Add request ID to context
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = uuid.NewString()
	}

	// Log request
	h.logger.Info("request started",
		"request_id", reqID,
		"method", method,
		"path", path,
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent())

	// Handle request
	var status int
	var err error

	switch {
	case path == "/health":
		status, err = h.handleHealth(w, r)
	case path == "/geocode":
		status, err = h.handleGeocode(w, r)
	case path == "/analyze":
		status, err = h.handleAnalyze(w, r)
	case path == "/route":
		status, err = h.handleRoute(w, r)
	default:
		http.NotFound(w, r)
		status = http.StatusNotFound
		err = nil
	}

	// Log response
	duration := time.Since(start)
	if err != nil {
		h.logger.Error("request failed",
			"request_id", reqID,
			"method", method,
			"path", path,
			"status", status,
			"duration", duration,
			"error", err)
	} else {
		h.logger.Info("request completed",
			"request_id", reqID,
			"method", method,
			"path", path,
			"status", status,
			"duration", duration)
	}
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) (int, error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
		h.logger.Error("failed to write health response", "error", err)
		return http.StatusOK, err // Status already written, but return error for logging
	}

	return http.StatusOK, nil
}

// handleGeocode handles geocoding requests
func (h *Handler) handleGeocode(w http.ResponseWriter, r *http.Request) (int, error) {
	query := r.URL.Query().Get("query")

	result, err := h.callTool(r.Context(), "geocode_location", map[string]any{
		"query": query,
	})
	if err != nil {
		return http.StatusInternalServerError, err
	}

	return h.writeToolResult(w, result)
}

// handleAnalyze handles area analysis requests
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) (int, error) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("latitude"), 64)
	if err != nil {
		return h.writeBadRequest(w, "latitude must be a number")
	}
	lon, err := strconv.ParseFloat(q.Get("longitude"), 64)
	if err != nil {
		return h.writeBadRequest(w, "longitude must be a number")
	}

	args := map[string]any{
		"latitude":  lat,
		"longitude": lon,
	}
	if raw := q.Get("radius"); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return h.writeBadRequest(w, "radius must be a number")
		}
		args["radius"] = radius
	}

	result, err := h.callTool(r.Context(), "analyze_area", args)
	if err != nil {
		return http.StatusInternalServerError, err
	}

	return h.writeToolResult(w, result)
}

// handleRoute handles route planning requests
func (h *Handler) handleRoute(w http.ResponseWriter, r *http.Request) (int, error) {
	q := r.URL.Query()

	coords := make(map[string]float64, 4)
	for _, key := range []string{"origin_lat", "origin_lon", "destination_lat", "destination_lon"} {
		val, err := strconv.ParseFloat(q.Get(key), 64)
		if err != nil {
			return h.writeBadRequest(w, key+" must be a number")
		}
		coords[key] = val
	}

	result, err := h.callTool(r.Context(), "plan_route", map[string]any{
		"origin": map[string]any{
			"latitude":  coords["origin_lat"],
			"longitude": coords["origin_lon"],
		},
		"destination": map[string]any{
			"latitude":  coords["destination_lat"],
			"longitude": coords["destination_lon"],
		},
	})
	if err != nil {
		return http.StatusInternalServerError, err
	}

	return h.writeToolResult(w, result)
}

// callTool dispatches a request to the named tool from the registry.
func (h *Handler) callTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	for _, def := range h.registry.GetToolDefinitions() {
		if def.Name == name {
			return def.Handler(ctx, req)
		}
	}

	return nil, fmt.Errorf("unknown tool: %s", name)
}

// writeToolResult writes a tool result as the HTTP response. Tool errors
// map to 400 since they describe problems with the caller's input or a
// lookup that found nothing.
func (h *Handler) writeToolResult(w http.ResponseWriter, result *mcp.CallToolResult) (int, error) {
	var content string
	for _, c := range result.Content {
		if t, ok := c.(mcp.TextContent); ok {
			content = t.Text
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	status := http.StatusOK
	if result.IsError {
		status = http.StatusBadRequest
	}
	w.WriteHeader(status)

	if _, err := w.Write([]byte(content)); err != nil {
		h.logger.Error("failed to write tool response", "error", err)
		return status, err
	}

	return status, nil
}

func (h *Handler) writeBadRequest(w http.ResponseWriter, msg string) (int, error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)

	if _, err := w.Write([]byte(`{"error":` + strconv.Quote(msg) + `}`)); err != nil {
		return http.StatusBadRequest, err
	}

	return http.StatusBadRequest, nil
}
