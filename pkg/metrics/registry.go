// Package metrics provides Prometheus metrics collection for treefs.
//
// Metrics are optional. Until InitRegistry is called, constructors return
// no-op implementations, so a FileSystem built without metrics pays nothing
// for them.
//
// Usage:
//
//	metrics.InitRegistry()
//	fs := filesystem.New(canon, factory, metrics.NewTreeMetrics(metrics.GetRegistry()))
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// registry is the process-wide registry, written once by InitRegistry
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry creates the global registry. Later calls are ignored.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
	})
}

// GetRegistry returns the global registry, or nil when metrics are disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}
