package lp

import (
	"fmt"
	"strings"
)

// Dump renders the whole problem in a human-readable form with real
// variable names. It is a debugging aid; the output is deterministic for
// a given emission order.
func (p *Problem) Dump() string {
	var b strings.Builder

	b.WriteString("minimize: ")
	p.writeExpr(&b, p.objective)
	b.WriteString("\nsubject to:\n")

	for _, c := range p.cons {
		fmt.Fprintf(&b, "  %s: ", c.Name)
		p.writeExpr(&b, c.Expr)
		fmt.Fprintf(&b, " %s %g\n", c.Sense, c.RHS)
	}

	fmt.Fprintf(&b, "variables: %d, constraints: %d\n", len(p.vars), len(p.cons))
	return b.String()
}

// writeExpr renders an expression's non-zero terms plus its constant.
func (p *Problem) writeExpr(b *strings.Builder, e *Expr) {
	wrote := false
	for _, t := range e.terms {
		if t.Coeff == 0 {
			continue
		}

		coeff := t.Coeff
		if !wrote {
			if coeff < 0 {
				b.WriteString("-")
				coeff = -coeff
			}
		} else {
			if coeff < 0 {
				b.WriteString(" - ")
				coeff = -coeff
			} else {
				b.WriteString(" + ")
			}
		}

		if coeff == 1 {
			b.WriteString(p.vars[t.Var].name)
		} else {
			fmt.Fprintf(b, "%g %s", coeff, p.vars[t.Var].name)
		}
		wrote = true
	}

	if e.constant != 0 || !wrote {
		if !wrote {
			fmt.Fprintf(b, "%g", e.constant)
		} else if e.constant < 0 {
			fmt.Fprintf(b, " - %g", -e.constant)
		} else {
			fmt.Fprintf(b, " + %g", e.constant)
		}
	}
}
