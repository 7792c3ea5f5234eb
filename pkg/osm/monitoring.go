package osm

import (
	"sync"
	"time"
)

// MonitoringHooks receives callbacks from DoRequest for every upstream
// call. The main binary points these at the Prometheus collectors so
// request counts, latencies, and rate-limit stalls show up in metrics.
type MonitoringHooks struct {
	// OnRequest is called before making an HTTP request
	OnRequest func(service, operation string)

	// OnResponse is called after receiving an HTTP response
	OnResponse func(service, operation string, duration time.Duration, success bool)

	// OnRateLimit is called when a request stalled on the rate limiter
	OnRateLimit func(service string, waitTime time.Duration)

	// OnError is called when a request fails outright
	OnError func(service, errorType string)
}

var (
	globalHooks *MonitoringHooks
	hooksMutex  sync.RWMutex
)

// SetMonitoringHooks sets global monitoring hooks
func SetMonitoringHooks(hooks *MonitoringHooks) {
	hooksMutex.Lock()
	defer hooksMutex.Unlock()
	globalHooks = hooks
}

// getMonitoringHooks returns the current monitoring hooks
func getMonitoringHooks() *MonitoringHooks {
	hooksMutex.RLock()
	defer hooksMutex.RUnlock()
	return globalHooks
}
