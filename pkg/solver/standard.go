package solver

import (
	"github.com/inwe-boku/fluxopt/pkg/lp"
)

// standardForm is a problem rewritten as minimize cᵀx, Ax = b, x ≥ 0:
// free variables are split into a non-negative difference, inequality rows
// gain a slack column.
type standardForm struct {
	ncols int
	cost  []float64
	rows  [][]float64
	rhs   []float64

	nvars int
	plus  []int // problem var -> column
	minus []int // problem var -> negative-part column, -1 if not free
}

// newStandardForm rewrites p into standard form.
func newStandardForm(p *lp.Problem) *standardForm {
	nvars := p.NumVars()
	plus := make([]int, nvars)
	minus := make([]int, nvars)

	col := 0
	for v := 0; v < nvars; v++ {
		plus[v] = col
		col++
		if p.IsFree(lp.Var(v)) {
			minus[v] = col
			col++
		} else {
			minus[v] = -1
		}
	}

	cons := p.Constraints()
	slackCol := col
	for _, c := range cons {
		if c.Sense == lp.LE {
			col++
		}
	}
	ncols := col

	cost := make([]float64, ncols)
	for _, t := range p.Objective().Terms() {
		cost[plus[t.Var]] += t.Coeff
		if minus[t.Var] >= 0 {
			cost[minus[t.Var]] -= t.Coeff
		}
	}

	rows := make([][]float64, len(cons))
	rhs := make([]float64, len(cons))
	for i, c := range cons {
		row := make([]float64, ncols)
		for _, t := range c.Expr.Terms() {
			row[plus[t.Var]] += t.Coeff
			if minus[t.Var] >= 0 {
				row[minus[t.Var]] -= t.Coeff
			}
		}
		if c.Sense == lp.LE {
			row[slackCol] = 1
			slackCol++
		}
		rows[i] = row
		rhs[i] = c.RHS
	}

	return &standardForm{
		ncols: ncols,
		cost:  cost,
		rows:  rows,
		rhs:   rhs,
		nvars: nvars,
		plus:  plus,
		minus: minus,
	}
}

// recombine maps standard-form column values back to problem variables.
func (sf *standardForm) recombine(colValues []float64) []float64 {
	values := make([]float64, sf.nvars)
	for v := 0; v < sf.nvars; v++ {
		x := colValues[sf.plus[v]]
		if sf.minus[v] >= 0 {
			x -= colValues[sf.minus[v]]
		}
		values[v] = x
	}
	return values
}
