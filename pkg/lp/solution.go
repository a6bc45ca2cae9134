package lp

// Status is the verdict a solver reached for a problem.
type Status int

const (
	// StatusOptimal means an optimal solution was found
	StatusOptimal Status = iota
	// StatusInfeasible means the constraints admit no solution
	StatusInfeasible
	// StatusUnbounded means the objective can decrease without limit
	StatusUnbounded
	// StatusError means the solver failed for another reason
	StatusError
)

// String returns the string representation of a status.
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Solution holds a solver verdict and, for an optimal verdict, the
// objective value and one value per declared variable.
type Solution struct {
	status    Status
	objective float64
	values    []float64
}

// NewSolution creates a solution. For non-optimal statuses values may be
// nil.
func NewSolution(status Status, objective float64, values []float64) *Solution {
	return &Solution{status: status, objective: objective, values: values}
}

// Status returns the solver verdict.
func (s *Solution) Status() Status {
	return s.status
}

// Objective returns the objective value. Only meaningful for
// StatusOptimal.
func (s *Solution) Objective() float64 {
	return s.objective
}

// Value returns the value of v. Only meaningful for StatusOptimal.
func (s *Solution) Value(v Var) float64 {
	return s.values[v]
}

// Values returns a copy of all variable values in declaration order.
func (s *Solution) Values() []float64 {
	copied := make([]float64, len(s.values))
	copy(copied, s.values)
	return copied
}
