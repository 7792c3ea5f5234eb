// Package osm provides rate-limited, instrumented HTTP access to the
// upstream geo services: Nominatim, Photon, ArcGIS, Overpass, and OSRM.
//
// All upstream calls go through DoRequest, which applies the shared
// User-Agent, waits on the per-host rate limiter, and reports to the
// monitoring hooks. Each call is a single attempt: failures surface
// immediately so callers can fall through to their next provider.
package osm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/NERVsystems/geoscout/pkg/tracing"
)

const (
	// DefaultUserAgent identifies this client to the upstream services.
	// Nominatim's usage policy requires a meaningful User-Agent.
	DefaultUserAgent = "geoscout/0.1.0"

	// limiterRegistrySize bounds the per-host limiter registry. Hosts
	// come from configurable base URLs, so the key space is open-ended.
	limiterRegistrySize = 32
)

// DefaultRateLimit applies to hosts that are not a known service, such
// as self-hosted mirrors before their base URL is registered.
var DefaultRateLimit = rateConfig{rps: 10, burst: 20}

type rateConfig struct {
	rps   float64
	burst int
}

var (
	// Global HTTP client with connection pooling
	httpClient *http.Client

	// Per-host rate limiters, created lazily from the service configs
	limiters  *lru.Cache[string, *rate.Limiter]
	limiterMu sync.Mutex

	// Configured limits per service name
	serviceLimits map[string]rateConfig
	limitsMu      sync.RWMutex

	// User agent string
	userAgent     string
	userAgentLock sync.RWMutex
)

func init() {
	httpClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: 30 * time.Second,
	}

	limiters, _ = lru.New[string, *rate.Limiter](limiterRegistrySize)

	// The public instances all ask for about 1 request per second.
	serviceLimits = map[string]rateConfig{
		tracing.ServiceNominatim: {rps: 1, burst: 1},
		tracing.ServicePhoton:    {rps: 1, burst: 1},
		tracing.ServiceArcGIS:    {rps: 1, burst: 1},
		tracing.ServiceOverpass:  {rps: 1, burst: 1},
		tracing.ServiceOSRM:      {rps: 1, burst: 1},
	}

	SetUserAgent(DefaultUserAgent)
}

// SetServiceRateLimit updates the rate limit for a named service and
// discards existing limiters so the new limit takes effect.
func SetServiceRateLimit(service string, rps float64, burst int) {
	limitsMu.Lock()
	serviceLimits[service] = rateConfig{rps: rps, burst: burst}
	limitsMu.Unlock()

	limiterMu.Lock()
	limiters.Purge()
	limiterMu.Unlock()
}

// limiterFor returns the rate limiter for a host, creating it on first
// use from the owning service's config.
func limiterFor(host string) *rate.Limiter {
	limiterMu.Lock()
	defer limiterMu.Unlock()

	if l, ok := limiters.Get(host); ok {
		return l
	}

	cfg := DefaultRateLimit
	if service := ServiceFor(host); service != "" {
		limitsMu.RLock()
		if c, ok := serviceLimits[service]; ok {
			cfg = c
		}
		limitsMu.RUnlock()
	}

	l := rate.NewLimiter(rate.Limit(cfg.rps), cfg.burst)
	limiters.Add(host, l)
	return l
}

// SetUserAgent sets the User-Agent string
func SetUserAgent(ua string) {
	userAgentLock.Lock()
	defer userAgentLock.Unlock()
	userAgent = ua
}

// GetUserAgent returns the current User-Agent string
func GetUserAgent() string {
	userAgentLock.RLock()
	defer userAgentLock.RUnlock()
	return userAgent
}

// GetClient returns the global HTTP client
func GetClient(ctx context.Context) *http.Client {
	return httpClient
}

// DoRequest performs a single rate-limited HTTP request with tracing
// and monitoring. The response status is not interpreted here; callers
// decide what a non-200 means for their provider chain.
func DoRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", GetUserAgent())

	service := ServiceFor(req.URL.Host)
	label := service
	if label == "" {
		label = "other"
	}

	hooks := getMonitoringHooks()
	if hooks != nil && hooks.OnRequest != nil {
		hooks.OnRequest(label, req.Method)
	}

	if limiter := limiterFor(req.URL.Host); limiter != nil && !limiter.Allow() {
		startWait := time.Now()
		tracing.AddEvent(ctx, "rate_limit_wait",
			trace.WithAttributes(
				attribute.String(tracing.AttrRateLimitService, label),
			),
		)

		if err := limiter.Wait(ctx); err != nil {
			if hooks != nil && hooks.OnError != nil {
				hooks.OnError(label, "rate_limit_wait_error")
			}
			return nil, err
		}

		waitDuration := time.Since(startWait)
		tracing.SetAttributes(ctx,
			attribute.String(tracing.AttrRateLimitService, label),
			attribute.Int64(tracing.AttrRateLimitWaitMs, waitDuration.Milliseconds()),
		)
		if hooks != nil && hooks.OnRateLimit != nil {
			hooks.OnRateLimit(label, waitDuration)
		}
	}

	spanName := fmt.Sprintf("http.request %s %s", req.Method, req.URL.Host)
	ctx, span := tracing.StartSpan(ctx, spanName,
		trace.WithAttributes(
			attribute.String(tracing.AttrHTTPMethod, req.Method),
			attribute.String("http.url", req.URL.String()),
			attribute.String("http.host", req.URL.Host),
			attribute.String(tracing.AttrServiceName, label),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := httpClient.Do(req.WithContext(ctx))
	duration := time.Since(start)

	success := err == nil && resp != nil && resp.StatusCode < 400
	if hooks != nil && hooks.OnResponse != nil {
		hooks.OnResponse(label, req.Method, duration, success)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		if hooks != nil && hooks.OnError != nil {
			hooks.OnError(label, "request_error")
		}
		slog.Default().Error("upstream request failed",
			"service", label,
			"url", req.URL.String(),
			"error", err,
		)
		return nil, err
	}

	span.SetAttributes(attribute.Int(tracing.AttrHTTPStatusCode, resp.StatusCode))
	if success {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, "unexpected status")
	}

	slog.Default().Debug("upstream request complete",
		"service", label,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
	)
	return resp, nil
}

// Health check functions for external services

// CheckNominatimHealth checks if the Nominatim service is available
func CheckNominatimHealth() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", NominatimBaseURL+"/status", nil)
	if err != nil {
		return fmt.Errorf("failed to create nominatim health check request: %w", err)
	}

	resp, err := DoRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("nominatim health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nominatim health check returned status %d", resp.StatusCode)
	}

	return nil
}

// CheckPhotonHealth checks if the Photon geocoder is available
func CheckPhotonHealth() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", PhotonBaseURL+"/api?q=status&limit=1", nil)
	if err != nil {
		return fmt.Errorf("failed to create photon health check request: %w", err)
	}

	resp, err := DoRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("photon health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("photon health check returned status %d", resp.StatusCode)
	}

	return nil
}

// CheckArcGISHealth checks if the ArcGIS geocoder is available
func CheckArcGISHealth() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", ArcGISBaseURL+"?f=json", nil)
	if err != nil {
		return fmt.Errorf("failed to create arcgis health check request: %w", err)
	}

	resp, err := DoRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("arcgis health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("arcgis health check returned status %d", resp.StatusCode)
	}

	return nil
}

// CheckOverpassHealth checks if the Overpass API is available
func CheckOverpassHealth() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", OverpassBaseURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create overpass health check request: %w", err)
	}

	req.URL.RawQuery = "data=[out:json];out meta;"

	resp, err := DoRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("overpass health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("overpass health check returned status %d", resp.StatusCode)
	}

	return nil
}

// CheckOSRMHealth checks if the OSRM service is available
func CheckOSRMHealth() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", OSRMBaseURL+"/nearest/v1/driving/0,0", nil)
	if err != nil {
		return fmt.Errorf("failed to create osrm health check request: %w", err)
	}

	resp, err := DoRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("osrm health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("osrm health check returned status %d", resp.StatusCode)
	}

	return nil
}
