package lp

import (
	"strings"
	"testing"
)

// TestExpr_TermMerging tests that terms for the same variable merge
func TestExpr_TermMerging(t *testing.T) {
	p := NewProblem("test")
	x := p.AddVar("x")
	y := p.AddVar("y")

	e := NewExpr().AddTerm(2, x).AddTerm(3, y).AddTerm(1, x)

	terms := e.Terms()
	if len(terms) != 2 {
		t.Fatalf("expected 2 merged terms, got %d", len(terms))
	}
	if terms[0].Var != x || terms[0].Coeff != 3 {
		t.Errorf("x term = %+v, want coeff 3", terms[0])
	}
	if e.Coeff(y) != 3 {
		t.Errorf("Coeff(y) = %g, want 3", e.Coeff(y))
	}
}

// TestExpr_AddSubScale tests expression arithmetic
func TestExpr_AddSubScale(t *testing.T) {
	p := NewProblem("test")
	x := p.AddVar("x")
	y := p.AddVar("y")

	a := TermExpr(2, x).AddConst(1)
	b := VarExpr(y).AddConst(4)

	a.Add(b)
	if a.Coeff(x) != 2 || a.Coeff(y) != 1 || a.Constant() != 5 {
		t.Errorf("after Add: x=%g y=%g c=%g", a.Coeff(x), a.Coeff(y), a.Constant())
	}

	a.Sub(TermExpr(2, y))
	if a.Coeff(y) != -1 {
		t.Errorf("after Sub: y=%g, want -1", a.Coeff(y))
	}

	a.Scale(2)
	if a.Coeff(x) != 4 || a.Constant() != 10 {
		t.Errorf("after Scale: x=%g c=%g", a.Coeff(x), a.Constant())
	}
}

// TestExpr_CloneIndependence tests that clones do not share state
func TestExpr_CloneIndependence(t *testing.T) {
	p := NewProblem("test")
	x := p.AddVar("x")

	orig := TermExpr(1, x)
	clone := orig.Clone()
	clone.AddTerm(5, x).AddConst(3)

	if orig.Coeff(x) != 1 || orig.Constant() != 0 {
		t.Errorf("original mutated by clone edits: x=%g c=%g", orig.Coeff(x), orig.Constant())
	}
}

// TestProblem_ConstraintNormalization tests RHS normalization
func TestProblem_ConstraintNormalization(t *testing.T) {
	p := NewProblem("test")
	x := p.AddVar("x")
	y := p.AddVar("y")

	// 2x + 1 <= y + 4  should normalize to  2x - y <= 3
	p.AddLe("cap", TermExpr(2, x).AddConst(1), VarExpr(y).AddConst(4))

	cons := p.Constraints()
	if len(cons) != 1 {
		t.Fatalf("expected 1 constraint, got %d", len(cons))
	}
	c := cons[0]
	if c.Sense != LE || c.RHS != 3 {
		t.Errorf("constraint = %s %g, want <= 3", c.Sense, c.RHS)
	}
	if c.Expr.Coeff(x) != 2 || c.Expr.Coeff(y) != -1 {
		t.Errorf("row coeffs: x=%g y=%g", c.Expr.Coeff(x), c.Expr.Coeff(y))
	}
	if c.Expr.Constant() != 0 {
		t.Errorf("row constant should be normalized away, got %g", c.Expr.Constant())
	}
}

// TestProblem_VarDeclarations tests variable declaration order and kinds
func TestProblem_VarDeclarations(t *testing.T) {
	p := NewProblem("test")
	x := p.AddVar("size_wind")
	f := p.AddFreeVar("slack")
	series := p.AddSeriesVars("flow_wind_demand", 3)

	if p.NumVars() != 5 {
		t.Fatalf("NumVars = %d, want 5", p.NumVars())
	}
	if p.VarName(x) != "size_wind" || p.IsFree(x) {
		t.Errorf("x decl wrong: %s free=%v", p.VarName(x), p.IsFree(x))
	}
	if !p.IsFree(f) {
		t.Error("f should be free")
	}
	if p.VarName(series[2]) != "flow_wind_demand[2]" {
		t.Errorf("series name = %s", p.VarName(series[2]))
	}
}

// TestProblem_AccumulatingObjective tests Minimize accumulation
func TestProblem_AccumulatingObjective(t *testing.T) {
	p := NewProblem("test")
	x := p.AddVar("x")
	y := p.AddVar("y")

	p.Minimize(TermExpr(10, x))
	p.Minimize(TermExpr(5, y))

	obj := p.Objective()
	if obj.Coeff(x) != 10 || obj.Coeff(y) != 5 {
		t.Errorf("objective coeffs: x=%g y=%g", obj.Coeff(x), obj.Coeff(y))
	}
}

// TestDump_Format tests the rendered problem listing
func TestDump_Format(t *testing.T) {
	p := NewProblem("test")
	x := p.AddVar("x")
	y := p.AddVar("y")

	p.AddEq("balance", VarExpr(x).AddTerm(-2, y), ConstExpr(0))
	p.AddLe("cap", VarExpr(x), ConstExpr(5))
	p.Minimize(TermExpr(10, x).AddTerm(1, y))

	dump := p.Dump()

	for _, want := range []string{
		"minimize: 10 x + y",
		"balance: x - 2 y == 0",
		"cap: x <= 5",
		"variables: 2, constraints: 2",
	} {
		if !strings.Contains(dump, want) {
			t.Errorf("dump missing %q:\n%s", want, dump)
		}
	}
}

// TestDump_Deterministic tests that identical emission yields identical text
func TestDump_Deterministic(t *testing.T) {
	build := func() string {
		p := NewProblem("test")
		x := p.AddVar("x")
		y := p.AddVar("y")
		p.AddEq("row", VarExpr(x).AddTerm(3, y), ConstExpr(7))
		p.Minimize(VarExpr(x))
		return p.Dump()
	}

	if build() != build() {
		t.Error("identical emission should produce identical dumps")
	}
}

// TestProblem_UniqueIdentity tests that problems get distinct IDs
func TestProblem_UniqueIdentity(t *testing.T) {
	a := NewProblem("a")
	b := NewProblem("b")
	if a.ID() == b.ID() {
		t.Error("problems should have distinct identities")
	}
}

// TestSolution_Accessors tests solution value lookup
func TestSolution_Accessors(t *testing.T) {
	p := NewProblem("test")
	x := p.AddVar("x")
	y := p.AddVar("y")

	s := NewSolution(StatusOptimal, 42, []float64{5, 0})
	if s.Status() != StatusOptimal || s.Objective() != 42 {
		t.Errorf("solution header = %s %g", s.Status(), s.Objective())
	}
	if s.Value(x) != 5 || s.Value(y) != 0 {
		t.Errorf("values = %g, %g", s.Value(x), s.Value(y))
	}

	vals := s.Values()
	vals[0] = 99
	if s.Value(x) != 5 {
		t.Error("Values() should return a copy")
	}
}
