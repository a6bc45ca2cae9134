package lp

import (
	"fmt"

	"github.com/google/uuid"
)

// Sense is the comparison sense of a constraint.
type Sense int

const (
	// EQ constrains the expression to equal the right-hand side
	EQ Sense = iota
	// LE constrains the expression to be at most the right-hand side
	LE
)

// String returns the operator spelling of the sense.
func (s Sense) String() string {
	switch s {
	case EQ:
		return "=="
	case LE:
		return "<="
	default:
		return "??"
	}
}

// Constraint is a named row of the problem: expr (sense) rhs. The
// expression's constant part has been normalized onto the right-hand side.
type Constraint struct {
	Name  string
	Expr  *Expr
	Sense Sense
	RHS   float64
}

// varDecl records one declared variable.
type varDecl struct {
	name string
	free bool
}

// Problem is a linear program under construction: declared variables,
// constraint rows and a minimization objective. Variable and constraint
// order is insertion order, so emitting the same model twice produces an
// identical problem.
type Problem struct {
	id        uuid.UUID
	name      string
	vars      []varDecl
	cons      []Constraint
	objective *Expr
}

// NewProblem creates an empty problem with a fresh identity.
func NewProblem(name string) *Problem {
	return &Problem{
		id:        uuid.New(),
		name:      name,
		objective: NewExpr(),
	}
}

// ID returns the problem's unique identity.
func (p *Problem) ID() uuid.UUID {
	return p.id
}

// Name returns the problem's name.
func (p *Problem) Name() string {
	return p.name
}

// AddVar declares a non-negative variable and returns its handle.
func (p *Problem) AddVar(name string) Var {
	p.vars = append(p.vars, varDecl{name: name})
	return Var(len(p.vars) - 1)
}

// AddFreeVar declares an unbounded variable and returns its handle.
func (p *Problem) AddFreeVar(name string) Var {
	p.vars = append(p.vars, varDecl{name: name, free: true})
	return Var(len(p.vars) - 1)
}

// AddSeriesVars declares one non-negative variable per time step, named
// name[0] .. name[n-1].
func (p *Problem) AddSeriesVars(name string, n int) []Var {
	vars := make([]Var, n)
	for t := 0; t < n; t++ {
		vars[t] = p.AddVar(fmt.Sprintf("%s[%d]", name, t))
	}
	return vars
}

// VarName returns the name of a declared variable.
func (p *Problem) VarName(v Var) string {
	return p.vars[v].name
}

// IsFree reports whether v was declared unbounded.
func (p *Problem) IsFree(v Var) bool {
	return p.vars[v].free
}

// NumVars returns the number of declared variables.
func (p *Problem) NumVars() int {
	return len(p.vars)
}

// AddEq adds the constraint lhs == rhs.
func (p *Problem) AddEq(name string, lhs, rhs *Expr) {
	p.addConstraint(name, lhs, rhs, EQ)
}

// AddLe adds the constraint lhs <= rhs.
func (p *Problem) AddLe(name string, lhs, rhs *Expr) {
	p.addConstraint(name, lhs, rhs, LE)
}

// addConstraint normalizes lhs (sense) rhs into a row with all terms on
// the left and a constant right-hand side.
func (p *Problem) addConstraint(name string, lhs, rhs *Expr, sense Sense) {
	row := lhs.Clone().Sub(rhs)
	b := -row.Constant()
	row.AddConst(b) // zero the constant; it now lives in RHS

	p.cons = append(p.cons, Constraint{
		Name:  name,
		Expr:  row,
		Sense: sense,
		RHS:   b,
	})
}

// Constraints returns the constraint rows in insertion order.
func (p *Problem) Constraints() []Constraint {
	return p.cons
}

// NumConstraints returns the number of constraint rows.
func (p *Problem) NumConstraints() int {
	return len(p.cons)
}

// Minimize adds the expression to the minimization objective. Calling it
// multiple times accumulates terms.
func (p *Problem) Minimize(e *Expr) {
	p.objective.Add(e)
}

// Objective returns the minimization objective.
func (p *Problem) Objective() *Expr {
	return p.objective
}
