// Package registration announces the geoscout service to a nerva-monitor
// registry. Registration is optional and fails gracefully: the server keeps
// working when the registry is unreachable.
package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// DefaultHeartbeatInterval is the default interval between heartbeats.
const DefaultHeartbeatInterval = 30 * time.Second

// DefaultTimeout is the default timeout for registry HTTP requests.
const DefaultTimeout = 5 * time.Second

// Config holds the configuration for service registration.
type Config struct {
	// Enabled controls whether registration is active (default: false)
	Enabled bool

	// RegistryURL is the URL of the nerva-monitor registry endpoint,
	// e.g. "http://nerva-monitor:7083"
	RegistryURL string

	// ServiceName is the unique name of this service
	ServiceName string

	// ServiceType is the type of service (usually "mcp")
	ServiceType string

	// ServiceURL is the external URL where this service is accessible
	ServiceURL string

	// HealthURL is the URL for health checks
	HealthURL string

	// InternalURL is the internal URL for container environments (optional)
	InternalURL string

	// InternalHealthURL is the internal health URL (optional)
	InternalHealthURL string

	// Version is the service version
	Version string

	// Capabilities lists what this service provides
	Capabilities []string

	// Tools lists the MCP tools this service exposes
	Tools []string

	// Metadata is additional metadata about the service
	Metadata map[string]interface{}

	// HeartbeatInterval is how often to re-register (default: 30s)
	HeartbeatInterval time.Duration

	// Timeout is the HTTP request timeout (default: 5s)
	Timeout time.Duration
}

// RegistrationRequest is the request format for the registry API.
type RegistrationRequest struct {
	Name           string                 `json:"name"`
	Type           string                 `json:"type"`
	URL            string                 `json:"url"`
	HealthURL      string                 `json:"health_url"`
	InternalURL    string                 `json:"internal_url,omitempty"`
	InternalHealth string                 `json:"internal_health_url,omitempty"`
	Version        string                 `json:"version"`
	Capabilities   []string               `json:"capabilities,omitempty"`
	Tools          []string               `json:"tools,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// RegistrationResponse is the response from the registry.
type RegistrationResponse struct {
	Status          string    `json:"status"`
	Name            string    `json:"name"`
	TTLSeconds      int       `json:"ttl_seconds"`
	NextHeartbeatBy time.Time `json:"next_heartbeat_by"`
}

// Client registers the service and keeps the registration alive with
// periodic heartbeats.
type Client struct {
	cfg        Config
	logger     *slog.Logger
	httpClient *http.Client
	userAgent  string
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	registered bool
	mu         sync.RWMutex
}

// NewClient creates a new registration client.
// If cfg.Enabled is false, the client is a no-op.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ServiceType == "" {
		cfg.ServiceType = "mcp"
	}

	return &Client{
		cfg:       cfg,
		logger:    logger,
		userAgent: fmt.Sprintf("%s/%s", cfg.ServiceName, cfg.Version),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Start begins the registration and heartbeat loop. It is non-blocking;
// if registration is disabled it returns immediately.
func (c *Client) Start(ctx context.Context) {
	if !c.cfg.Enabled {
		c.logger.Info("service registration disabled")
		return
	}

	if c.cfg.RegistryURL == "" {
		c.logger.Warn("service registration enabled but no registry URL configured")
		return
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.heartbeatLoop(ctx)
}

// Stop deregisters from the registry and halts the heartbeat loop.
func (c *Client) Stop() {
	if !c.cfg.Enabled || c.cancel == nil {
		return
	}

	c.deregister()

	c.cancel()
	c.wg.Wait()
}

// IsRegistered reports whether the service is currently registered.
func (c *Client) IsRegistered() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registered
}

func (c *Client) heartbeatLoop(ctx context.Context) {
	defer c.wg.Done()

	// Initial registration, then heartbeat by re-registering.
	c.register(ctx)

	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.register(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// register sends a registration request. The registry treats repeat
// registrations as heartbeats.
func (c *Client) register(ctx context.Context) {
	req := RegistrationRequest{
		Name:           c.cfg.ServiceName,
		Type:           c.cfg.ServiceType,
		URL:            c.cfg.ServiceURL,
		HealthURL:      c.cfg.HealthURL,
		InternalURL:    c.cfg.InternalURL,
		InternalHealth: c.cfg.InternalHealthURL,
		Version:        c.cfg.Version,
		Capabilities:   c.cfg.Capabilities,
		Tools:          c.cfg.Tools,
		Metadata:       c.cfg.Metadata,
	}

	body, err := json.Marshal(req)
	if err != nil {
		c.logger.Error("failed to marshal registration request", "error", err)
		c.setRegistered(false)
		return
	}

	url := fmt.Sprintf("%s/api/register", c.cfg.RegistryURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("failed to create registration request", "error", err)
		c.setRegistered(false)
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("registration failed (registry may be unavailable)", "error", err)
		c.setRegistered(false)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		c.logger.Warn("registration failed", "status", resp.StatusCode, "body", string(bodyBytes))
		c.setRegistered(false)
		return
	}

	var regResp RegistrationResponse
	if err := json.NewDecoder(resp.Body).Decode(&regResp); err != nil {
		c.logger.Warn("failed to decode registration response", "error", err)
		c.setRegistered(false)
		return
	}

	wasRegistered := c.IsRegistered()
	c.setRegistered(true)

	if !wasRegistered {
		c.logger.Info("registered with nerva-monitor",
			"name", c.cfg.ServiceName,
			"ttl_seconds", regResp.TTLSeconds,
		)
	}
}

// deregister removes this service from the registry. It runs during
// shutdown, so it uses its own short-lived context.
func (c *Client) deregister() {
	if !c.IsRegistered() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()

	url := fmt.Sprintf("%s/api/register/%s", c.cfg.RegistryURL, c.cfg.ServiceName)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		c.logger.Debug("failed to create deregistration request", "error", err)
		return
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("deregistration failed (registry may be unavailable)", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		c.logger.Info("deregistered from nerva-monitor", "name", c.cfg.ServiceName)
	}

	c.setRegistered(false)
}

func (c *Client) setRegistered(registered bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registered = registered
}
