// Package metrics exposes prometheus instrumentation for network
// compilation and solving.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Compile Metrics
	NetworksCompiledTotal prometheus.Counter
	CompileDuration       prometheus.Histogram
	CompileVariables      prometheus.Histogram
	CompileConstraints    prometheus.Histogram
	ActiveNetworks        prometheus.Gauge

	// Solve Metrics
	SolvesTotal   *prometheus.CounterVec
	SolveDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	// Initialize all metrics
	r.initCompileMetrics()
	r.initSolveMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
