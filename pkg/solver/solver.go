// Package solver runs compiled linear programs through an external
// optimizer. The compiler treats solving as a black box: it hands over a
// problem and receives a verdict with variable values.
//
// The bundled implementation wraps gonum's dense simplex method. Emitted
// energy system models routinely contain redundant balance rows and
// structurally unused columns, which the raw simplex rejects, so Solve
// first runs a presolve step: Gaussian row reduction to drop dependent
// rows (and detect inconsistent ones early) and elimination of zero
// columns.
package solver

import (
	"context"
	"errors"

	"gonum.org/v1/gonum/mat"
	golp "gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/inwe-boku/fluxopt/pkg/lp"
)

// Solver is the interface the network layer submits problems to.
type Solver interface {
	// Solve optimizes the problem. Infeasible and unbounded are verdicts,
	// not errors: they come back as a Solution with the matching status.
	// An error is returned only for mechanical failure.
	Solve(ctx context.Context, p *lp.Problem) (*lp.Solution, error)
}

// Options configures the simplex solver.
type Options struct {
	// Tol is the convergence tolerance handed to the simplex method.
	// Zero selects the default.
	Tol float64
}

// defaultTol is the simplex convergence tolerance used when none is set.
const defaultTol = 1e-10

// Numerical thresholds for the presolve step. Emitted models are well
// scaled (flows and sizes in canonical commodity units), so absolute
// thresholds are adequate.
const (
	pivotTol = 1e-9 // smallest usable pivot during row reduction
	residTol = 1e-7 // largest residual still considered consistent
	feasTol  = 1e-7 // tolerance for sign checks on solved values
)

// Simplex solves problems with gonum's dense simplex method.
type Simplex struct {
	tol float64
}

// NewSimplex creates a simplex solver with the given options.
func NewSimplex(opts Options) *Simplex {
	tol := opts.Tol
	if tol == 0 {
		tol = defaultTol
	}
	return &Simplex{tol: tol}
}

// Solve implements the Solver interface.
func (s *Simplex) Solve(ctx context.Context, p *lp.Problem) (*lp.Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewError("solve", p.Name(), err)
	}

	sf := newStandardForm(p)

	pre, verdict := sf.presolve()
	if verdict != lp.StatusOptimal {
		return lp.NewSolution(verdict, 0, nil), nil
	}

	var colValues []float64
	switch {
	case pre.numCols() == 0:
		// Everything was fixed during presolve.
		colValues = pre.fixedOnly()

	case pre.rank == pre.numCols():
		// Square full-rank system: the unique candidate, if non-negative,
		// is the only feasible point.
		values, feasible := pre.backSolve()
		if !feasible {
			return lp.NewSolution(lp.StatusInfeasible, 0, nil), nil
		}
		colValues = values

	default:
		if err := ctx.Err(); err != nil {
			return nil, NewError("solve", p.Name(), err)
		}

		a := mat.NewDense(pre.rank, pre.numCols(), pre.flat())
		_, x, err := golp.Simplex(pre.cost, a, pre.rhs, s.tol, nil)
		if err != nil {
			switch {
			case isGonumInfeasible(err):
				return lp.NewSolution(lp.StatusInfeasible, 0, nil), nil
			case isGonumUnbounded(err):
				return lp.NewSolution(lp.StatusUnbounded, 0, nil), nil
			default:
				return lp.NewSolution(lp.StatusError, 0, nil), NewError("simplex", p.Name(), err)
			}
		}
		colValues = pre.expand(x)
	}

	values := sf.recombine(colValues)
	objective := evalObjective(p, values)

	return lp.NewSolution(lp.StatusOptimal, objective, values), nil
}

// evalObjective evaluates the problem's objective at the given variable
// values, including any constant part.
func evalObjective(p *lp.Problem, values []float64) float64 {
	obj := p.Objective()
	total := obj.Constant()
	for _, t := range obj.Terms() {
		total += t.Coeff * values[t.Var]
	}
	return total
}

// isGonumInfeasible reports whether the simplex error means infeasibility.
func isGonumInfeasible(err error) bool {
	return errors.Is(err, golp.ErrInfeasible)
}

// isGonumUnbounded reports whether the simplex error means unboundedness.
func isGonumUnbounded(err error) bool {
	return errors.Is(err, golp.ErrUnbounded)
}
