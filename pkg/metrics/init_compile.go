package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initCompileMetrics() {
	r.NetworksCompiledTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "fluxopt_networks_compiled_total",
			Help: "Total number of networks compiled to linear programs",
		},
	)

	r.CompileDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fluxopt_compile_duration_seconds",
			Help:    "Time spent compiling a network to a linear program",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)

	r.CompileVariables = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fluxopt_compile_variables",
			Help:    "Number of variables declared per compiled problem",
			Buckets: prometheus.ExponentialBuckets(10, 4, 10),
		},
	)

	r.CompileConstraints = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fluxopt_compile_constraints",
			Help:    "Number of constraints emitted per compiled problem",
			Buckets: prometheus.ExponentialBuckets(10, 4, 10),
		},
	)

	r.ActiveNetworks = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "fluxopt_active_networks",
			Help: "Number of validated networks currently held in memory",
		},
	)
}
