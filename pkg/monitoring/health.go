// Package monitoring provides health tracking and Prometheus metrics for
// the geoscout server and its upstream services.
package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NERVsystems/geoscout/pkg/version"
)

// HealthChecker tracks the health of the service and its upstream
// dependencies.
type HealthChecker struct {
	serviceName string
	version     string
	startTime   time.Time
	mu          sync.RWMutex
	connections map[string]*ConnStatus
	transport   *TransportInfo
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewHealthChecker creates a new health checker and starts collecting
// runtime metrics in the background.
func NewHealthChecker(serviceName, serviceVersion string) *HealthChecker {
	ctx, cancel := context.WithCancel(context.Background())

	hc := &HealthChecker{
		serviceName: serviceName,
		version:     serviceVersion,
		startTime:   time.Now(),
		connections: make(map[string]*ConnStatus),
		ctx:         ctx,
		cancel:      cancel,
	}

	go hc.collectSystemMetrics()

	return hc
}

// collectSystemMetrics periodically refreshes runtime gauges.
func (h *HealthChecker) collectSystemMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			GoRoutines.Set(float64(runtime.NumGoroutine()))
			MemoryUsage.Set(float64(m.Alloc))
			GCRuns.Set(float64(m.NumGC))

			SystemInfo.WithLabelValues(
				h.version,
				runtime.Version(),
				version.Commit(),
				version.BuildDate,
			).Set(1)
		}
	}
}

// UpdateConnection records the status of an upstream connection.
func (h *HealthChecker) UpdateConnection(name, status string, latencyMs int64, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	errStr := ""
	if err != nil {
		errStr = err.Error()
	}

	h.connections[name] = &ConnStatus{
		Status:    status,
		Latency:   latencyMs,
		LastError: errStr,
	}
}

// RemoveConnection drops a connection from health tracking.
func (h *HealthChecker) RemoveConnection(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.connections, name)
}

// SetTransport records which transport the server is running so health
// reports can include it.
func (h *HealthChecker) SetTransport(t *TransportInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.transport = t
}

// ProbeAll runs the given health checks concurrently, records each
// outcome, and returns the first failure, if any.
func (h *HealthChecker) ProbeAll(checks map[string]func() error) error {
	var g errgroup.Group

	for name, check := range checks {
		g.Go(func() error {
			start := time.Now()
			err := check()
			latency := time.Since(start).Milliseconds()

			if err != nil {
				h.UpdateConnection(name, "error", latency, err)
				return fmt.Errorf("%s: %w", name, err)
			}
			h.UpdateConnection(name, "connected", latency, nil)
			return nil
		})
	}

	return g.Wait()
}

// GetHealth returns the current service health status.
func (h *HealthChecker) GetHealth() *ServiceHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()

	connections := make(map[string]ConnStatus, len(h.connections))
	status := "healthy"
	errorCount := 0
	degradedCount := 0

	for name, conn := range h.connections {
		connections[name] = *conn
		switch conn.Status {
		case "error", "disconnected":
			errorCount++
		case "degraded":
			degradedCount++
		}
	}

	// More than half the upstream connections failing means the service
	// cannot do useful work.
	if errorCount > 0 {
		if errorCount > len(h.connections)/2 {
			status = "unhealthy"
		} else {
			status = "degraded"
		}
	} else if degradedCount > 0 {
		status = "degraded"
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(h.startTime)

	return &ServiceHealth{
		Service:       h.serviceName,
		Version:       h.version,
		Status:        status,
		Uptime:        uptime,
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     h.startTime,
		Connections:   connections,
		Transport:     h.transport,
		Metrics: map[string]interface{}{
			"goroutines":           runtime.NumGoroutine(),
			"memory_alloc_mb":      float64(m.Alloc) / 1024 / 1024,
			"memory_sys_mb":        float64(m.Sys) / 1024 / 1024,
			"gc_runs":              m.NumGC,
			"cpu_count":            runtime.NumCPU(),
			"version_info":         version.Info(),
			"total_connections":    len(h.connections),
			"error_connections":    errorCount,
			"degraded_connections": degradedCount,
		},
	}
}

// HealthHandler returns an HTTP handler for the health endpoint.
func (h *HealthChecker) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := h.GetHealth()

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		if err := json.NewEncoder(w).Encode(health); err != nil {
			slog.Error("failed to encode health response", "error", err)
		}
	}
}

// ReadinessHandler returns an HTTP handler for the readiness endpoint.
func (h *HealthChecker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := h.GetHealth()
		ready := health.Status != "unhealthy"

		w.Header().Set("Content-Type", "application/json")
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		response := map[string]interface{}{
			"ready":  ready,
			"status": health.Status,
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			slog.Error("failed to encode readiness response", "error", err)
		}
	}
}

// LivenessHandler returns an HTTP handler for the liveness endpoint.
func (h *HealthChecker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		response := map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).String(),
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			slog.Error("failed to encode liveness response", "error", err)
		}
	}
}

// Shutdown stops the health checker's background work.
func (h *HealthChecker) Shutdown() {
	h.cancel()
}

// ConnectionMonitor periodically re-checks a single upstream connection.
type ConnectionMonitor struct {
	name          string
	healthChecker *HealthChecker
	checkFunc     func() error
	interval      time.Duration
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewConnectionMonitor creates a monitor that runs checkFunc every
// interval and reports the result to the health checker.
func NewConnectionMonitor(name string, hc *HealthChecker, checkFunc func() error, interval time.Duration) *ConnectionMonitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &ConnectionMonitor{
		name:          name,
		healthChecker: hc,
		checkFunc:     checkFunc,
		interval:      interval,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start begins monitoring in the background.
func (cm *ConnectionMonitor) Start() {
	go cm.monitor()
}

// Stop halts the monitor.
func (cm *ConnectionMonitor) Stop() {
	cm.cancel()
}

func (cm *ConnectionMonitor) monitor() {
	// Check immediately, then on the interval.
	cm.performCheck()

	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-cm.ctx.Done():
			return
		case <-ticker.C:
			cm.performCheck()
		}
	}
}

func (cm *ConnectionMonitor) performCheck() {
	start := time.Now()
	err := cm.checkFunc()
	latency := time.Since(start).Milliseconds()

	if err != nil {
		cm.healthChecker.UpdateConnection(cm.name, "error", latency, err)
	} else {
		cm.healthChecker.UpdateConnection(cm.name, "connected", latency, nil)
	}
}
