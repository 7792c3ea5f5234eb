// Command geoscout runs the geoscout MCP server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NERVsystems/geoscout/pkg/config"
	"github.com/NERVsystems/geoscout/pkg/genai"
	"github.com/NERVsystems/geoscout/pkg/geocode"
	"github.com/NERVsystems/geoscout/pkg/monitoring"
	"github.com/NERVsystems/geoscout/pkg/osm"
	"github.com/NERVsystems/geoscout/pkg/poi"
	"github.com/NERVsystems/geoscout/pkg/registration"
	"github.com/NERVsystems/geoscout/pkg/route"
	"github.com/NERVsystems/geoscout/pkg/server"
	"github.com/NERVsystems/geoscout/pkg/tools"
	"github.com/NERVsystems/geoscout/pkg/tracing"
	ver "github.com/NERVsystems/geoscout/pkg/version"
)

var (
	showVersionFlag bool
	debug           bool
	probeUpstreams  bool
	generateConfig  string
	userAgent       string
	mergeOnly       bool

	// HTTP transport flags
	enableHTTP    bool
	httpOnly      bool
	httpAddr      string
	httpBaseURL   string
	httpAuthType  string
	httpAuthToken string

	// Monitoring flags
	enableMonitoring bool
	monitoringAddr   string

	// Registration flags
	enableRegistration bool
	registryURL        string
	serviceURL         string
	internalURL        string

	// Per-service rate limit overrides (0 keeps the configured value)
	nominatimRPS   float64
	nominatimBurst int
	photonRPS      float64
	photonBurst    int
	arcgisRPS      float64
	arcgisBurst    int
	overpassRPS    float64
	overpassBurst  int
	osrmRPS        float64
	osrmBurst      int
)

func init() {
	flag.BoolVar(&showVersionFlag, "version", false, "Display version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&probeUpstreams, "probe", false, "Check upstream service connectivity and exit")
	flag.StringVar(&generateConfig, "generate-config", "", "Generate an MCP client config file at the specified path")
	flag.StringVar(&userAgent, "user-agent", "", "User-Agent string for upstream requests (defaults to "+osm.DefaultUserAgent+")")
	flag.BoolVar(&mergeOnly, "merge-only", false, "Only merge new config, don't overwrite existing")

	// HTTP transport flags
	flag.BoolVar(&enableHTTP, "http", false, "Enable HTTP+SSE transport (in addition to stdio)")
	flag.BoolVar(&httpOnly, "http-only", false, "Run HTTP transport only, skip stdio (requires -http)")
	flag.StringVar(&httpAddr, "addr", ":7080", "HTTP server address")
	flag.StringVar(&httpBaseURL, "base-url", "", "Base URL for HTTP transport (auto-detected if empty)")
	flag.StringVar(&httpAuthType, "auth-type", "none", "HTTP authentication type: none, bearer, basic")
	flag.StringVar(&httpAuthToken, "auth-token", "", "HTTP authentication token")

	// Monitoring flags
	flag.BoolVar(&enableMonitoring, "monitoring", true, "Enable Prometheus metrics and upstream health monitoring")
	flag.StringVar(&monitoringAddr, "monitoring-addr", ":9090", "Monitoring server address")

	// Registration flags
	flag.BoolVar(&enableRegistration, "enable-registration", false, "Enable service registration with nerva-monitor")
	flag.StringVar(&registryURL, "registry-url", "", "nerva-monitor registry URL (e.g., http://nerva-monitor:7083)")
	flag.StringVar(&serviceURL, "service-url", "", "External URL where this service is accessible")
	flag.StringVar(&internalURL, "internal-url", "", "Internal URL for container environments")

	// Rate limit overrides
	flag.Float64Var(&nominatimRPS, "nominatim-rps", 0, "Nominatim rate limit in requests per second (overrides config)")
	flag.IntVar(&nominatimBurst, "nominatim-burst", 0, "Nominatim rate limit burst size (overrides config)")
	flag.Float64Var(&photonRPS, "photon-rps", 0, "Photon rate limit in requests per second (overrides config)")
	flag.IntVar(&photonBurst, "photon-burst", 0, "Photon rate limit burst size (overrides config)")
	flag.Float64Var(&arcgisRPS, "arcgis-rps", 0, "ArcGIS rate limit in requests per second (overrides config)")
	flag.IntVar(&arcgisBurst, "arcgis-burst", 0, "ArcGIS rate limit burst size (overrides config)")
	flag.Float64Var(&overpassRPS, "overpass-rps", 0, "Overpass rate limit in requests per second (overrides config)")
	flag.IntVar(&overpassBurst, "overpass-burst", 0, "Overpass rate limit burst size (overrides config)")
	flag.Float64Var(&osrmRPS, "osrm-rps", 0, "OSRM rate limit in requests per second (overrides config)")
	flag.IntVar(&osrmBurst, "osrm-burst", 0, "OSRM rate limit burst size (overrides config)")
}

func main() {
	flag.Parse()

	// Configure logging
	var logLevel slog.Level
	if debug {
		logLevel = slog.LevelDebug
	} else {
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Load .env before anything reads the environment. Missing files
	// are fine.
	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded environment from .env")
	}

	// Initialize OpenTelemetry tracing
	ctx := context.Background()
	shutdownTracing, err := tracing.InitTracing(ctx, ver.BuildVersion)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		// Continue without tracing - it's not critical
	} else {
		defer func() {
			if err := shutdownTracing(ctx); err != nil {
				logger.Error("error shutting down tracing", "error", err)
			}
		}()

		if endpoint := os.Getenv("OTLP_ENDPOINT"); endpoint != "" {
			logger.Info("OpenTelemetry tracing enabled", "endpoint", endpoint)
		}
	}

	// Show version and exit if requested
	if showVersionFlag {
		fmt.Println(ver.String())
		return
	}

	// Generate MCP client config if requested
	if generateConfig != "" {
		if err := generateClientConfig(generateConfig, mergeOnly); err != nil {
			logger.Error("failed to generate config", "error", err)
			os.Exit(1)
		}
		logger.Info("generated MCP client config", "path", generateConfig)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	applyFlagOverrides(cfg)
	configureUpstreams(cfg)

	// One-shot connectivity check
	if probeUpstreams {
		hc := monitoring.NewHealthChecker(monitoring.ServiceName, ver.BuildVersion)
		defer hc.Shutdown()

		if err := hc.ProbeAll(upstreamChecks()); err != nil {
			logger.Error("upstream probe failed", "error", err)
			os.Exit(1)
		}
		logger.Info("all upstream services reachable")
		return
	}

	logger.Info("starting geoscout MCP server",
		"version", ver.BuildVersion,
		"log_level", logLevel.String(),
		"user_agent", osm.GetUserAgent(),
		"locale", cfg.Locale,
		"analyzer_backend", cfg.Analyzer.Backend,
		"planner_backend", cfg.Planner.Backend,
		"http_enabled", enableHTTP,
		"monitoring_enabled", enableMonitoring,
		"monitoring_addr", monitoringAddr)

	// Initialize health checker
	var healthChecker *monitoring.HealthChecker
	if enableMonitoring {
		healthChecker = monitoring.NewHealthChecker(monitoring.ServiceName, ver.BuildVersion)
		defer healthChecker.Shutdown()

		// Point the upstream client's hooks at the Prometheus collectors
		osm.SetMonitoringHooks(&osm.MonitoringHooks{
			OnResponse: func(service, operation string, duration time.Duration, success bool) {
				monitoring.RecordExternalServiceRequest(service, operation, duration, success)
			},
			OnRateLimit: func(service string, waitTime time.Duration) {
				monitoring.RecordRateLimitWait(service, waitTime)
				monitoring.RecordRateLimitExceeded(service)
			},
			OnError: func(service, errorType string) {
				monitoring.RecordError(service, errorType)
			},
		})
	}

	resolver, analyzer, planner := buildBackends(cfg, logger)
	registry := tools.NewRegistry(logger, resolver, analyzer, planner)

	s, err := server.NewServer(registry)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	if healthChecker != nil {
		startUpstreamMonitoring(healthChecker, logger)
	}

	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start monitoring server if enabled (Prometheus metrics only)
	var monitoringServer *http.Server
	if enableMonitoring {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		monitoringServer = &http.Server{
			Addr:              monitoringAddr,
			Handler:           mux,
			ReadHeaderTimeout: 30 * time.Second, // Prevent Slowloris attacks
		}

		go func() {
			logger.Info("starting Prometheus metrics server", "addr", monitoringAddr)
			if err := monitoringServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("monitoring server error", "error", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := monitoringServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown monitoring server", "error", err)
			}
		}()
	}

	// Initialize registration client if enabled
	var regClient *registration.Client
	if enableRegistration {
		toolNames := registry.GetToolNames()

		svcURL := serviceURL
		healthURL := serviceURL + "/health"
		if serviceURL == "" && enableHTTP {
			svcURL = fmt.Sprintf("http://localhost%s", httpAddr)
			healthURL = fmt.Sprintf("http://localhost%s/health", httpAddr)
		}

		regCfg := registration.Config{
			Enabled:           enableRegistration,
			RegistryURL:       registryURL,
			ServiceName:       "geoscout",
			ServiceType:       "mcp",
			ServiceURL:        svcURL,
			HealthURL:         healthURL,
			InternalURL:       internalURL,
			InternalHealthURL: internalURL + "/health",
			Version:           ver.BuildVersion,
			Capabilities:      []string{"geocoding", "poi", "routing", "coordinates"},
			Tools:             toolNames,
			Metadata: map[string]interface{}{
				"transport": map[string]bool{"stdio": !httpOnly, "http": enableHTTP},
			},
		}
		regClient = registration.NewClient(regCfg, logger)
		regClient.Start(ctx)
		defer regClient.Stop()

		logger.Info("registration client initialized",
			"registry_url", registryURL,
			"service_url", svcURL,
			"tool_count", len(toolNames))
	}

	// Start HTTP transport in background if enabled (non-blocking)
	var httpTransport *server.HTTPTransport
	if enableHTTP {
		transportCfg := server.DefaultHTTPTransportConfig()
		transportCfg.Addr = httpAddr
		transportCfg.BaseURL = httpBaseURL
		transportCfg.AuthType = httpAuthType
		transportCfg.AuthToken = httpAuthToken

		httpTransport = server.NewHTTPTransport(s.GetMCPServer(), transportCfg, logger)

		if healthChecker != nil {
			httpTransport.SetHealthChecker(healthChecker)
		}

		go func() {
			logger.Info("starting HTTP+SSE transport", "addr", httpAddr)
			if err := httpTransport.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP transport error", "error", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := httpTransport.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown HTTP transport", "error", err)
			}
		}()
	}

	if healthChecker != nil {
		info := &monitoring.TransportInfo{Type: "stdio"}
		if enableHTTP {
			info.HTTPAddr = httpAddr
			if httpOnly {
				info.Type = "http+sse"
			} else {
				info.Type = "stdio+http+sse"
			}
		}
		healthChecker.SetTransport(info)
	}

	// Transport startup logic:
	// - HTTP not enabled: run stdio on the main goroutine (blocking)
	// - HTTP enabled, httpOnly false: run stdio in a goroutine, wait for shutdown
	// - HTTP enabled, httpOnly true: skip stdio, wait for shutdown
	if !enableHTTP {
		logger.Info("transport_enabled", "type", "stdio", "mode", "blocking")
		if err := s.RunWithContext(ctx); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	} else if httpOnly {
		logger.Info("server_ready", "transports", []string{"http"}, "http_only", true)
		<-ctx.Done()
		logger.Info("shutdown signal received")
	} else {
		go func() {
			logger.Info("transport_enabled", "type", "stdio", "mode", "background")
			if err := s.RunWithContext(ctx); err != nil {
				logger.Error("stdio transport error", "error", err)
				// Don't exit - HTTP transport may still be useful
			}
		}()

		logger.Info("server_ready", "transports", []string{"stdio", "http"})
		<-ctx.Done()
		logger.Info("shutdown signal received")
	}

	logger.Info("server stopped")
}

// applyFlagOverrides layers command-line overrides on top of the loaded
// configuration.
func applyFlagOverrides(cfg *config.Config) {
	if userAgent != "" {
		cfg.UserAgent = userAgent
	}

	overrides := []struct {
		rate  *config.ServiceRate
		rps   float64
		burst int
	}{
		{&cfg.Rate.Nominatim, nominatimRPS, nominatimBurst},
		{&cfg.Rate.Photon, photonRPS, photonBurst},
		{&cfg.Rate.ArcGIS, arcgisRPS, arcgisBurst},
		{&cfg.Rate.Overpass, overpassRPS, overpassBurst},
		{&cfg.Rate.OSRM, osrmRPS, osrmBurst},
	}
	for _, o := range overrides {
		if o.rps > 0 {
			o.rate.RPS = o.rps
		}
		if o.burst > 0 {
			o.rate.Burst = o.burst
		}
	}
}

// configureUpstreams applies the configuration to the shared upstream
// client: user agent, endpoint overrides, and rate limits.
func configureUpstreams(cfg *config.Config) {
	if cfg.UserAgent != "" {
		osm.SetUserAgent(cfg.UserAgent)
	}

	if cfg.Endpoints.Nominatim != "" {
		osm.NominatimBaseURL = cfg.Endpoints.Nominatim
	}
	if cfg.Endpoints.Photon != "" {
		osm.PhotonBaseURL = cfg.Endpoints.Photon
	}
	if cfg.Endpoints.ArcGIS != "" {
		osm.ArcGISBaseURL = cfg.Endpoints.ArcGIS
	}
	if cfg.Endpoints.Overpass != "" {
		osm.OverpassBaseURL = cfg.Endpoints.Overpass
	}
	if cfg.Endpoints.OSRM != "" {
		osm.OSRMBaseURL = cfg.Endpoints.OSRM
	}

	osm.SetServiceRateLimit(tracing.ServiceNominatim, cfg.Rate.Nominatim.RPS, cfg.Rate.Nominatim.Burst)
	osm.SetServiceRateLimit(tracing.ServicePhoton, cfg.Rate.Photon.RPS, cfg.Rate.Photon.Burst)
	osm.SetServiceRateLimit(tracing.ServiceArcGIS, cfg.Rate.ArcGIS.RPS, cfg.Rate.ArcGIS.Burst)
	osm.SetServiceRateLimit(tracing.ServiceOverpass, cfg.Rate.Overpass.RPS, cfg.Rate.Overpass.Burst)
	osm.SetServiceRateLimit(tracing.ServiceOSRM, cfg.Rate.OSRM.RPS, cfg.Rate.OSRM.Burst)
}

// buildBackends constructs the pipeline components the tool registry
// needs. Generative backends require an Anthropic API key, which
// config validation has already checked.
func buildBackends(cfg *config.Config, logger *slog.Logger) (*geocode.Resolver, poi.Analyzer, route.Planner) {
	resolver := geocode.NewResolver(geocode.DefaultProviders()...)

	var completer *genai.Client
	if cfg.Analyzer.Backend == "generative" || cfg.Planner.Backend == "transit" {
		completer = genai.New(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
		logger.Info("generative backend enabled", "model", cfg.Anthropic.Model)
	}

	pricing := route.Pricing{
		BaseFare: cfg.Pricing.BaseFare,
		PerKm:    cfg.Pricing.PerKm,
		Currency: cfg.Pricing.Currency,
	}

	var analyzer poi.Analyzer
	switch cfg.Analyzer.Backend {
	case "generative":
		analyzer = poi.NewGenerativeAnalyzer(completer, cfg.Locale, cfg.POI.DefaultPopularity, cfg.POI.MaxPerCategory)
	default:
		analyzer = poi.NewOverpassAnalyzer(cfg.Locale, cfg.POI.DefaultPopularity, cfg.POI.MaxPerCategory)
	}

	var planner route.Planner
	switch cfg.Planner.Backend {
	case "transit":
		planner = route.NewTransitPlanner(completer, cfg.Locale, pricing)
	default:
		planner = route.NewOSRMPlanner("car", cfg.Locale, pricing)
	}

	return resolver, analyzer, planner
}

// upstreamChecks maps each upstream service to its health check.
func upstreamChecks() map[string]func() error {
	return map[string]func() error{
		tracing.ServiceNominatim: osm.CheckNominatimHealth,
		tracing.ServicePhoton:    osm.CheckPhotonHealth,
		tracing.ServiceArcGIS:    osm.CheckArcGISHealth,
		tracing.ServiceOverpass:  osm.CheckOverpassHealth,
		tracing.ServiceOSRM:      osm.CheckOSRMHealth,
	}
}

// startUpstreamMonitoring begins periodic health checks of every
// upstream service.
func startUpstreamMonitoring(healthChecker *monitoring.HealthChecker, logger *slog.Logger) {
	for name, check := range upstreamChecks() {
		monitoring.NewConnectionMonitor(name, healthChecker, check, 30*time.Second).Start()
	}

	logger.Info("started upstream service monitoring",
		"services", []string{"nominatim", "photon", "arcgis", "overpass", "osrm"},
		"check_interval", "30s")
}

// generateClientConfig writes an MCP client configuration that points
// at this binary, in the shape Claude Desktop and similar clients read.
func generateClientConfig(path string, mergeOnly bool) error {
	if path == "" {
		return fmt.Errorf("config path cannot be empty")
	}
	if !strings.HasSuffix(path, ".json") {
		return fmt.Errorf("config file must have .json extension")
	}

	cleanPath := filepath.Clean(path)
	if err := validateSafePath(cleanPath); err != nil {
		return fmt.Errorf("invalid config path: %w", err)
	}

	configDir := filepath.Dir(cleanPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var existingConfig map[string]interface{}
	if mergeOnly {
		if data, err := os.ReadFile(cleanPath); err == nil {
			if err := json.Unmarshal(data, &existingConfig); err != nil {
				return fmt.Errorf("failed to parse existing config: %w", err)
			}
		}
	}

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to determine executable path: %w", err)
	}

	clientConfig := map[string]interface{}{
		"mcpServers": map[string]interface{}{
			"geoscout": map[string]interface{}{
				"command": execPath,
				"args":    []string{},
			},
		},
	}

	if mergeOnly && existingConfig != nil {
		for k, v := range existingConfig {
			if _, exists := clientConfig[k]; !exists {
				clientConfig[k] = v
			}
		}
	}

	data, err := json.MarshalIndent(clientConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cleanPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// validateSafePath rejects paths outside the current working directory.
func validateSafePath(path string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current working directory: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	relPath, err := filepath.Rel(cwd, absPath)
	if err != nil {
		return fmt.Errorf("failed to determine relative path: %w", err)
	}

	if strings.HasPrefix(relPath, "..") || strings.Contains(relPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path traversal detected: %s", relPath)
	}

	if filepath.IsAbs(path) {
		return fmt.Errorf("absolute paths are not allowed for security reasons")
	}

	return nil
}
