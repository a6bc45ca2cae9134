package network

import (
	"testing"
	"time"

	"github.com/inwe-boku/fluxopt/pkg/lp"
	"github.com/inwe-boku/fluxopt/pkg/timegrid"
	"github.com/inwe-boku/fluxopt/pkg/units"
)

func varNames(p *lp.Problem) []string {
	names := make([]string, p.NumVars())
	for i := range names {
		names[i] = p.VarName(lp.Var(i))
	}
	return names
}

func varByName(t testing.TB, p *lp.Problem, name string) lp.Var {
	t.Helper()
	for i := 0; i < p.NumVars(); i++ {
		if p.VarName(lp.Var(i)) == name {
			return lp.Var(i)
		}
	}
	t.Fatalf("no variable %q in problem", name)
	return 0
}

func conByName(t testing.TB, p *lp.Problem, name string) lp.Constraint {
	t.Helper()
	for _, c := range p.Constraints() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no constraint %q in problem", name)
	return lp.Constraint{}
}

func hasCon(p *lp.Problem, name string) bool {
	for _, c := range p.Constraints() {
		if c.Name == name {
			return true
		}
	}
	return false
}

// TestCompile_TwoNode tests variables, rows and coefficients of the
// smallest network
func TestCompile_TwoNode(t *testing.T) {
	g := hourlyGrid(t, 2)
	net, _, _ := twoNode(t, timegrid.Const(g, 1), timegrid.Const(g, 5), units.MustQ(10, "EUR/MW"))
	p := net.Compile()

	wantVars := []string{"size_wind", "flow_wind_sink[0]", "flow_wind_sink[1]"}
	got := varNames(p)
	if len(got) != len(wantVars) {
		t.Fatalf("variables = %v, want %v", got, wantVars)
	}
	for i := range wantVars {
		if got[i] != wantVars[i] {
			t.Fatalf("variables = %v, want %v", got, wantVars)
		}
	}
	if p.NumConstraints() != 6 {
		t.Fatalf("constraints = %d, want 6", p.NumConstraints())
	}

	wantCons := []string{
		"inout_flow_balance_wind[0]", "inout_flow_balance_wind[1]",
		"limit_outflow_by_size_wind[0]", "limit_outflow_by_size_wind[1]",
		"inout_flow_balance_sink[0]", "inout_flow_balance_sink[1]",
	}
	for i, c := range p.Constraints() {
		if c.Name != wantCons[i] {
			t.Fatalf("constraint %d = %q, want %q", i, c.Name, wantCons[i])
		}
	}

	size := varByName(t, p, "size_wind")
	flow0 := varByName(t, p, "flow_wind_sink[0]")

	// Source balance: outflow equals size times profile
	bal := conByName(t, p, "inout_flow_balance_wind[0]")
	if bal.Sense != lp.EQ || bal.RHS != 0 {
		t.Errorf("wind balance: sense %v rhs %v", bal.Sense, bal.RHS)
	}
	if bal.Expr.Coeff(flow0) != 1 || bal.Expr.Coeff(size) != -1 {
		t.Errorf("wind balance coeffs: flow %v size %v", bal.Expr.Coeff(flow0), bal.Expr.Coeff(size))
	}

	// Demand balance: the fixed outflow moved onto the right-hand side
	dem := conByName(t, p, "inout_flow_balance_sink[0]")
	if dem.Sense != lp.EQ || dem.RHS != -5 {
		t.Errorf("demand balance: sense %v rhs %v", dem.Sense, dem.RHS)
	}
	if dem.Expr.Coeff(flow0) != -1 {
		t.Errorf("demand balance flow coeff = %v", dem.Expr.Coeff(flow0))
	}

	// Size limit: outflow at most size
	lim := conByName(t, p, "limit_outflow_by_size_wind[1]")
	flow1 := varByName(t, p, "flow_wind_sink[1]")
	if lim.Sense != lp.LE || lim.RHS != 0 {
		t.Errorf("size limit: sense %v rhs %v", lim.Sense, lim.RHS)
	}
	if lim.Expr.Coeff(flow1) != 1 || lim.Expr.Coeff(size) != -1 {
		t.Errorf("size limit coeffs: flow %v size %v", lim.Expr.Coeff(flow1), lim.Expr.Coeff(size))
	}

	if c := p.Objective().Coeff(size); c != 10 {
		t.Errorf("objective size coeff = %v, want 10", c)
	}
}

// TestCompile_ProfileInBalance tests that the capacity factor scales the
// size column
func TestCompile_ProfileInBalance(t *testing.T) {
	g := hourlyGrid(t, 2)
	net, _, _ := twoNode(t, series(t, g, 0.5, 0.25), timegrid.Const(g, 1), units.MustQ(1, "EUR/MW"))
	p := net.Compile()

	size := varByName(t, p, "size_wind")
	bal := conByName(t, p, "inout_flow_balance_wind[1]")
	if bal.Expr.Coeff(size) != -0.25 {
		t.Errorf("size coeff = %v, want -0.25", bal.Expr.Coeff(size))
	}
	// The size limit does not scale with the profile
	lim := conByName(t, p, "limit_outflow_by_size_wind[1]")
	if lim.Expr.Coeff(size) != -1 {
		t.Errorf("size limit coeff = %v, want -1", lim.Expr.Coeff(size))
	}
}

// TestCompile_MultiOutputConversion tests per-commodity balance rows and
// conversion factors
func TestCompile_MultiOutputConversion(t *testing.T) {
	g := hourlyGrid(t, 2)
	gas := fixedInput(t, "gas_src", timegrid.Const(g, 10))
	reformer := general(t, "reformer", []*Node{gas}, []string{"gas"}, NoCosts,
		WithConvertFactors(map[string]Conversion{
			"hydrogen": {From: "gas", Factor: 0.3},
			"co2":      {From: "gas", Factor: 0.8},
		}))
	h2 := demand(t, "h2_sink", []*Node{reformer}, "hydrogen", timegrid.Const(g, 3))
	co2 := demand(t, "co2_sink", []*Node{reformer}, "co2", timegrid.Const(g, 8))
	net := build(t, []*Node{gas, reformer, h2, co2}, g)
	p := net.Compile()

	inFlow := varByName(t, p, "flow_gas_src_reformer[0]")
	h2Flow := varByName(t, p, "flow_reformer_h2_sink[0]")
	co2Flow := varByName(t, p, "flow_reformer_co2_sink[0]")

	h2Bal := conByName(t, p, "inout_flow_balance_reformer_hydrogen[0]")
	if h2Bal.Expr.Coeff(h2Flow) != 1 || h2Bal.Expr.Coeff(inFlow) != -0.3 {
		t.Errorf("hydrogen balance coeffs: out %v in %v",
			h2Bal.Expr.Coeff(h2Flow), h2Bal.Expr.Coeff(inFlow))
	}
	co2Bal := conByName(t, p, "inout_flow_balance_reformer_co2[0]")
	if co2Bal.Expr.Coeff(co2Flow) != 1 || co2Bal.Expr.Coeff(inFlow) != -0.8 {
		t.Errorf("co2 balance coeffs: out %v in %v",
			co2Bal.Expr.Coeff(co2Flow), co2Bal.Expr.Coeff(inFlow))
	}
	// Single-output nodes do not carry the commodity suffix
	if hasCon(p, "inout_flow_balance_gas_src_gas[0]") || !hasCon(p, "inout_flow_balance_gas_src[0]") {
		t.Error("single-output balance row should not carry a commodity suffix")
	}
}

// TestCompile_Proportions tests the pivot scheme for share rows
func TestCompile_Proportions(t *testing.T) {
	g := hourlyGrid(t, 2)
	a := fixedInput(t, "a", timegrid.Const(g, 1))
	b := fixedInput(t, "b", timegrid.Const(g, 3))
	blend := general(t, "blend", []*Node{a, b}, []string{"electricity"}, NoCosts,
		WithInputProportions(map[string]float64{"a": 0.25, "b": 0.75}))
	sink := demand(t, "sink", []*Node{blend}, "electricity", timegrid.Const(g, 4))
	net := build(t, []*Node{a, b, blend, sink}, g)
	p := net.Compile()

	flowA := varByName(t, p, "flow_a_blend[0]")
	flowB := varByName(t, p, "flow_b_blend[0]")

	// The first input is the pivot and gets no row of its own
	if hasCon(p, "proportion_blend_a[0]") {
		t.Error("pivot flow should not have a proportion row")
	}
	row := conByName(t, p, "proportion_blend_b[0]")
	if row.Sense != lp.EQ || row.RHS != 0 {
		t.Errorf("proportion row: sense %v rhs %v", row.Sense, row.RHS)
	}
	if row.Expr.Coeff(flowA) != 0.75 || row.Expr.Coeff(flowB) != -0.25 {
		t.Errorf("proportion coeffs: a %v b %v", row.Expr.Coeff(flowA), row.Expr.Coeff(flowB))
	}
}

// TestCompile_OutputProportions tests share rows over consumer flows
func TestCompile_OutputProportions(t *testing.T) {
	g := hourlyGrid(t, 2)
	src := fixedInput(t, "src", timegrid.Const(g, 5))
	plant := general(t, "plant", []*Node{src}, []string{"electricity"}, NoCosts,
		WithOutputProportions(map[string]float64{"north": 0.6, "south": 0.4}))
	north := demand(t, "north", []*Node{plant}, "electricity", timegrid.Const(g, 3))
	south := demand(t, "south", []*Node{plant}, "electricity", timegrid.Const(g, 2))
	net := build(t, []*Node{src, plant, north, south}, g)
	p := net.Compile()

	toNorth := varByName(t, p, "flow_plant_north[0]")
	toSouth := varByName(t, p, "flow_plant_south[0]")

	if hasCon(p, "proportion_plant_north[0]") {
		t.Error("pivot consumer should not have a proportion row")
	}
	row := conByName(t, p, "proportion_plant_south[0]")
	if row.Expr.Coeff(toNorth) != 0.4 {
		t.Errorf("north coeff = %v, want 0.4", row.Expr.Coeff(toNorth))
	}
	if got := row.Expr.Coeff(toSouth); got != 0.4-1 {
		t.Errorf("south coeff = %v, want -0.6", got)
	}
}

// TestCompile_StorageRows tests the storage variable block and its rows
func TestCompile_StorageRows(t *testing.T) {
	g := hourlyGrid(t, 3)
	st := storage(t, units.MustQ(25, "EUR/MWh"), 0.5, 0.1, 0.2)
	solar := fixedInput(t, "solar", timegrid.Const(g, 2), WithStorage(st))
	sink := demand(t, "sink", []*Node{solar}, "electricity", timegrid.Const(g, 2))
	net := build(t, []*Node{solar, sink}, g)
	p := net.Compile()

	if p.NumVars() != 13 {
		t.Fatalf("variables = %d, want 13", p.NumVars())
	}
	if p.NumConstraints() != 18 {
		t.Fatalf("constraints = %d, want 18", p.NumConstraints())
	}

	ssize := varByName(t, p, "size_storage_solar")
	level0 := varByName(t, p, "storage_level_solar[0]")
	level1 := varByName(t, p, "storage_level_solar[1]")
	level2 := varByName(t, p, "storage_level_solar[2]")
	charge0 := varByName(t, p, "storage_charge_solar[0]")
	discharge0 := varByName(t, p, "storage_discharge_solar[0]")
	flow0 := varByName(t, p, "flow_solar_sink[0]")

	// Storage exchange enters the owner's balance
	bal := conByName(t, p, "inout_flow_balance_solar[0]")
	if bal.RHS != 2 {
		t.Errorf("balance rhs = %v, want 2", bal.RHS)
	}
	if bal.Expr.Coeff(flow0) != 1 || bal.Expr.Coeff(charge0) != 1 || bal.Expr.Coeff(discharge0) != -1 {
		t.Errorf("balance coeffs: flow %v charge %v discharge %v",
			bal.Expr.Coeff(flow0), bal.Expr.Coeff(charge0), bal.Expr.Coeff(discharge0))
	}

	// Charging speed bounds charge by a fraction of the size per step
	speed := conByName(t, p, "max_charging_speed_solar[0]")
	if speed.Sense != lp.LE || speed.Expr.Coeff(charge0) != 1 || speed.Expr.Coeff(ssize) != -0.5 {
		t.Errorf("charging speed row: %v %v %v",
			speed.Sense, speed.Expr.Coeff(charge0), speed.Expr.Coeff(ssize))
	}
	if !hasCon(p, "max_discharging_speed_solar[2]") {
		t.Error("missing discharging speed row")
	}

	cap0 := conByName(t, p, "storage_max_level_solar[1]")
	if cap0.Sense != lp.LE || cap0.Expr.Coeff(level1) != 1 || cap0.Expr.Coeff(ssize) != -1 {
		t.Errorf("level cap row: %v %v %v", cap0.Sense, cap0.Expr.Coeff(level1), cap0.Expr.Coeff(ssize))
	}

	// Cyclic recurrence wraps the first step onto the last level
	rec := conByName(t, p, "storage_level_balance_solar[0]")
	if rec.Sense != lp.EQ || rec.RHS != 0 {
		t.Errorf("recurrence: sense %v rhs %v", rec.Sense, rec.RHS)
	}
	if rec.Expr.Coeff(level0) != 1 || rec.Expr.Coeff(level2) != -0.9 {
		t.Errorf("recurrence level coeffs: %v %v", rec.Expr.Coeff(level0), rec.Expr.Coeff(level2))
	}
	if rec.Expr.Coeff(charge0) != -0.8 || rec.Expr.Coeff(discharge0) != 1 {
		t.Errorf("recurrence exchange coeffs: %v %v",
			rec.Expr.Coeff(charge0), rec.Expr.Coeff(discharge0))
	}

	if c := p.Objective().Coeff(ssize); c != 25 {
		t.Errorf("objective storage coeff = %v, want 25", c)
	}
}

// TestCompile_InitialLevelPolicies tests how the recurrence starts
func TestCompile_InitialLevelPolicies(t *testing.T) {
	compileWith := func(initial InitialLevel) *lp.Problem {
		g := hourlyGrid(t, 3)
		st := storage(t, units.MustQ(1, "EUR/MWh"), 1, 0.1, 0, WithInitialLevel(initial))
		solar := fixedInput(t, "solar", timegrid.Const(g, 2), WithStorage(st))
		sink := demand(t, "sink", []*Node{solar}, "electricity", timegrid.Const(g, 2))
		return build(t, []*Node{solar, sink}, g).Compile()
	}

	p := compileWith(InitialFixed(2))
	rec := conByName(t, p, "storage_level_balance_solar[0]")
	if rec.RHS != 1.8 {
		t.Errorf("fixed start rhs = %v, want 1.8", rec.RHS)
	}
	level2 := varByName(t, p, "storage_level_solar[2]")
	if rec.Expr.Coeff(level2) != 0 {
		t.Error("fixed start should not reference the last level")
	}

	p = compileWith(InitialFree)
	if hasCon(p, "storage_level_balance_solar[0]") {
		t.Error("free start should skip the first recurrence row")
	}
	if !hasCon(p, "storage_level_balance_solar[1]") {
		t.Error("free start should keep later recurrence rows")
	}
	if p.NumConstraints() != 17 {
		t.Errorf("constraints = %d, want 17", p.NumConstraints())
	}
}

// TestCompile_SubHourlyGrid tests interval scaling of storage exchange,
// charging speed and flow costs
func TestCompile_SubHourlyGrid(t *testing.T) {
	g, err := timegrid.New(testStart, 30*time.Minute, 2)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	st := storage(t, units.MustQ(8, "EUR/MWh"), 1, 0, 0)
	gas := fixedInput(t, "gas_src", timegrid.Const(g, 4))
	burner := general(t, "burner", []*Node{gas}, []string{"gas"}, NoCosts,
		WithInputFlowCosts(units.MustQ(30, "EUR/MWh")),
		WithStorage(st))
	sink := demand(t, "sink", []*Node{burner}, "gas", timegrid.Const(g, 4))
	net := build(t, []*Node{gas, burner, sink}, g)
	p := net.Compile()

	charge0 := varByName(t, p, "storage_charge_burner[0]")
	ssize := varByName(t, p, "size_storage_burner")
	inFlow0 := varByName(t, p, "flow_gas_src_burner[0]")
	outFlow0 := varByName(t, p, "flow_burner_sink[0]")

	// Charge is energy per step; the balance works in power
	bal := conByName(t, p, "inout_flow_balance_burner[0]")
	if bal.Expr.Coeff(charge0) != 2 {
		t.Errorf("balance charge coeff = %v, want 2", bal.Expr.Coeff(charge0))
	}
	if bal.Expr.Coeff(outFlow0) != 1 || bal.Expr.Coeff(inFlow0) != -1 {
		t.Errorf("balance flow coeffs: out %v in %v",
			bal.Expr.Coeff(outFlow0), bal.Expr.Coeff(inFlow0))
	}

	// Full charging in one step still takes the whole size over an hour
	speed := conByName(t, p, "max_charging_speed_burner[0]")
	if speed.Expr.Coeff(ssize) != -0.5 {
		t.Errorf("speed coeff = %v, want -0.5", speed.Expr.Coeff(ssize))
	}

	// Flow costs are per hour of flow
	if c := p.Objective().Coeff(inFlow0); c != 15 {
		t.Errorf("objective flow coeff = %v, want 15", c)
	}
	if c := p.Objective().Coeff(ssize); c != 8 {
		t.Errorf("objective storage coeff = %v, want 8", c)
	}
}

// TestCompile_SizeCostConversion tests cost canonicalization into the
// commodity's canonical unit
func TestCompile_SizeCostConversion(t *testing.T) {
	g := hourlyGrid(t, 2)
	net, _, _ := twoNode(t, timegrid.Const(g, 1), timegrid.Const(g, 5), units.MustQ(2, "EUR/kW"))
	p := net.Compile()

	size := varByName(t, p, "size_wind")
	if c := p.Objective().Coeff(size); c != 2000 {
		t.Errorf("objective size coeff = %v, want 2000 EUR/MW", c)
	}
}

// methanolNodes builds the synthesis chain used by the determinism
// tests. Fresh nodes every call, nodes belong to one network only.
func methanolNodes(t testing.TB, g *timegrid.Grid) []*Node {
	t.Helper()
	st := storage(t, units.MustQ(100, "EUR/t"), 1, 0, 0)
	wind := scalable(t, "wind", series(t, g, 1, 0, 1, 0), units.MustQ(1.3, "EUR/MW"))
	co2 := fixedInput(t, "co2", timegrid.Const(g, 0.5))
	hydrogen := general(t, "hydrogen", []*Node{wind}, []string{"electricity"},
		units.MustQ(3, "EUR/(t/h)"), WithStorage(st))
	synthesis := general(t, "synthesis", []*Node{hydrogen, co2}, []string{"hydrogen", "co2"},
		units.MustQ(1.2, "EUR/(t/h)"),
		WithConvertFactors(map[string]Conversion{"methanol": {From: "co2", Factor: 4}}),
		WithInputProportions(map[string]float64{"hydrogen": 0.75, "co2": 0.25}))
	sink := demand(t, "sink", []*Node{synthesis}, "methanol", timegrid.Const(g, 2))
	return []*Node{wind, co2, hydrogen, synthesis, sink}
}

// TestCompile_Deterministic tests that compiling twice yields the same
// problem text
func TestCompile_Deterministic(t *testing.T) {
	g := hourlyGrid(t, 4)
	net := build(t, methanolNodes(t, g), g)

	first := net.Compile().Dump()
	second := net.Compile().Dump()
	if first != second {
		t.Error("compiling the same network twice produced different problems")
	}
}

// TestCompile_ParallelMatchesSequential tests that concurrent emission
// does not change the problem
func TestCompile_ParallelMatchesSequential(t *testing.T) {
	g := hourlyGrid(t, 4)
	sequential := build(t, methanolNodes(t, g), g)
	parallel := build(t, methanolNodes(t, g), g, WithWorkers(4))

	if sequential.Compile().Dump() != parallel.Compile().Dump() {
		t.Error("parallel emission produced a different problem")
	}
}
