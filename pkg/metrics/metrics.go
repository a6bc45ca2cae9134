package metrics

import (
	"time"
)

// RecordCompile records one network compilation with its duration and the
// size of the emitted problem
func (r *Registry) RecordCompile(duration time.Duration, variables, constraints int) {
	r.NetworksCompiledTotal.Inc()
	r.CompileDuration.Observe(duration.Seconds())
	r.CompileVariables.Observe(float64(variables))
	r.CompileConstraints.Observe(float64(constraints))
}

// RecordSolve records one solve attempt with its outcome
func (r *Registry) RecordSolve(status string, duration time.Duration) {
	r.SolvesTotal.WithLabelValues(status).Inc()
	r.SolveDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// NetworkBuilt records that a network passed validation and is held in
// memory
func (r *Registry) NetworkBuilt() {
	r.ActiveNetworks.Inc()
}

// NetworkReleased records that a network was released
func (r *Registry) NetworkReleased() {
	r.ActiveNetworks.Dec()
}
