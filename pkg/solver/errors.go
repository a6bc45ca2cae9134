package solver

import (
	"errors"
	"fmt"

	"github.com/inwe-boku/fluxopt/pkg/lp"
)

// Common sentinel errors
var (
	ErrInfeasible    = errors.New("problem is infeasible")
	ErrUnbounded     = errors.New("problem is unbounded")
	ErrSolverFailure = errors.New("solver failure")
)

// Error provides structured error information for solve operations.
type Error struct {
	Op      string // Operation that failed (e.g., "solve", "simplex")
	Problem string // Problem name
	Cause   error  // Underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Problem != "" {
		return fmt.Sprintf("%s %q: %v", e.Op, e.Problem, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a solver error.
func NewError(op, problem string, cause error) *Error {
	return &Error{Op: op, Problem: problem, Cause: cause}
}

// VerdictErr maps a non-optimal solution status to its sentinel error.
// It returns nil for StatusOptimal.
func VerdictErr(status lp.Status) error {
	switch status {
	case lp.StatusOptimal:
		return nil
	case lp.StatusInfeasible:
		return ErrInfeasible
	case lp.StatusUnbounded:
		return ErrUnbounded
	default:
		return ErrSolverFailure
	}
}

// IsInfeasible reports whether the error stems from an infeasible problem.
func IsInfeasible(err error) bool {
	return errors.Is(err, ErrInfeasible)
}

// IsUnbounded reports whether the error stems from an unbounded problem.
func IsUnbounded(err error) bool {
	return errors.Is(err, ErrUnbounded)
}
