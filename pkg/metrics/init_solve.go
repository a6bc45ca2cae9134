package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSolveMetrics() {
	r.SolvesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluxopt_solves_total",
			Help: "Total number of solve attempts by outcome",
		},
		[]string{"status"},
	)

	r.SolveDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fluxopt_solve_duration_seconds",
			Help:    "Time spent in the solver by outcome",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12),
		},
		[]string{"status"},
	)
}
