// Package lp provides the linear program representation that the network
// compiler emits and solver adapters consume: variables, linear
// expressions, constraints and the minimization objective.
package lp

// Var is an opaque handle to a decision variable. Handles are only valid
// for the problem that declared them.
type Var int

// Term is a coefficient applied to a variable.
type Term struct {
	Coeff float64
	Var   Var
}

// Expr is a linear expression: an ordered sum of terms plus a constant.
// Terms referring to the same variable are merged; term order follows
// first appearance, so building the same expression twice produces the
// same printed form.
type Expr struct {
	terms    []Term
	pos      map[Var]int
	constant float64
}

// NewExpr creates an empty expression.
func NewExpr() *Expr {
	return &Expr{pos: make(map[Var]int)}
}

// VarExpr creates the expression 1*v.
func VarExpr(v Var) *Expr {
	return NewExpr().AddTerm(1, v)
}

// TermExpr creates the expression c*v.
func TermExpr(c float64, v Var) *Expr {
	return NewExpr().AddTerm(c, v)
}

// ConstExpr creates a constant expression.
func ConstExpr(c float64) *Expr {
	e := NewExpr()
	e.constant = c
	return e
}

// AddTerm adds c*v to the expression, merging with an existing term for v.
func (e *Expr) AddTerm(c float64, v Var) *Expr {
	if i, ok := e.pos[v]; ok {
		e.terms[i].Coeff += c
		return e
	}
	e.pos[v] = len(e.terms)
	e.terms = append(e.terms, Term{Coeff: c, Var: v})
	return e
}

// AddConst adds a constant to the expression.
func (e *Expr) AddConst(c float64) *Expr {
	e.constant += c
	return e
}

// Add adds another expression term by term.
func (e *Expr) Add(o *Expr) *Expr {
	for _, t := range o.terms {
		e.AddTerm(t.Coeff, t.Var)
	}
	e.constant += o.constant
	return e
}

// Sub subtracts another expression term by term.
func (e *Expr) Sub(o *Expr) *Expr {
	for _, t := range o.terms {
		e.AddTerm(-t.Coeff, t.Var)
	}
	e.constant -= o.constant
	return e
}

// Scale multiplies every term and the constant by f.
func (e *Expr) Scale(f float64) *Expr {
	for i := range e.terms {
		e.terms[i].Coeff *= f
	}
	e.constant *= f
	return e
}

// Clone returns an independent copy of the expression.
func (e *Expr) Clone() *Expr {
	c := &Expr{
		terms:    make([]Term, len(e.terms)),
		pos:      make(map[Var]int, len(e.pos)),
		constant: e.constant,
	}
	copy(c.terms, e.terms)
	for v, i := range e.pos {
		c.pos[v] = i
	}
	return c
}

// Terms returns the expression's terms in insertion order. Merged terms
// whose coefficients cancelled to zero are included; consumers that care
// should skip them.
func (e *Expr) Terms() []Term {
	terms := make([]Term, len(e.terms))
	copy(terms, e.terms)
	return terms
}

// Constant returns the expression's constant part.
func (e *Expr) Constant() float64 {
	return e.constant
}

// Coeff returns the coefficient of v, or 0 if v does not appear.
func (e *Expr) Coeff(v Var) float64 {
	if i, ok := e.pos[v]; ok {
		return e.terms[i].Coeff
	}
	return 0
}

// Sum adds up any number of expressions into a fresh one.
func Sum(exprs ...*Expr) *Expr {
	total := NewExpr()
	for _, e := range exprs {
		total.Add(e)
	}
	return total
}
