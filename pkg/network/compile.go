package network

import (
	"fmt"

	"github.com/inwe-boku/fluxopt/pkg/logging"
	"github.com/inwe-boku/fluxopt/pkg/lp"
	"github.com/inwe-boku/fluxopt/pkg/parallel"
	"github.com/inwe-boku/fluxopt/pkg/timegrid"
)

// flowKind selects how a flow enters constraint rows.
type flowKind int

const (
	flowVars   flowKind = iota // one variable per time step
	flowFixed                  // a given series
	flowScaled                 // a size variable times a profile
)

// flow is one commodity stream between two nodes, or the synthetic stream
// entering or leaving a leaf. Flows are shared: the consuming node
// declares the variables, the producing node references the same flow in
// its balance.
type flow struct {
	kind    flowKind
	vars    []lp.Var
	series  timegrid.Series
	size    lp.Var
	profile timegrid.Series
}

// at returns the flow at time step t as an expression.
func (f *flow) at(t int) *lp.Expr {
	switch f.kind {
	case flowVars:
		return lp.VarExpr(f.vars[t])
	case flowFixed:
		return lp.ConstExpr(f.series.At(t))
	default:
		return lp.TermExpr(f.profile.At(t), f.size)
	}
}

// value returns the solved flow at time step t.
func (f *flow) value(sol *lp.Solution, t int) float64 {
	switch f.kind {
	case flowVars:
		return sol.Value(f.vars[t])
	case flowFixed:
		return f.series.At(t)
	default:
		return sol.Value(f.size) * f.profile.At(t)
	}
}

// nodeModel holds the variables declared for one node. Output flows are
// references into the consumers' input flows, appended as the consumers
// are visited.
type nodeModel struct {
	size    lp.Var
	hasSize bool

	inFlows []*flow
	inNames []string // input node names, "" for a synthetic inflow

	outFlows    []*flow
	outNames    []string // consumer names, "" for a synthetic outflow
	outEdgeComm []string

	storageSize      lp.Var
	storageLevel     []lp.Var
	storageCharge    []lp.Var
	storageDischarge []lp.Var
}

// model is the per-compilation state: the problem under construction and
// the variable bookkeeping needed to write solution values back.
type model struct {
	net     *Network
	problem *lp.Problem
	nodes   []nodeModel
}

// rowDraft is one constraint before it reaches the problem. Emission
// runs per node, possibly on several goroutines; drafts keep the final
// problem deterministic regardless.
type rowDraft struct {
	name  string
	lhs   *lp.Expr
	rhs   *lp.Expr
	sense lp.Sense
}

// Compile translates the network into a linear program: nonnegative
// variables for sizes, flows and storage state, equality and inequality
// rows for balance, capacity, proportions and storage dynamics, and the
// total cost objective. Compilation cannot fail, all input checking
// happened in New.
func (n *Network) Compile() *lp.Problem {
	p, _ := n.compile()
	return p
}

func (n *Network) compile() (*lp.Problem, *model) {
	timed := logging.Begin(n.logger, logging.Network(n.name))
	p := lp.NewProblem(n.name)
	m := &model{net: n, problem: p, nodes: make([]nodeModel, len(n.nodes))}

	m.declareVars()
	m.emitConstraints()
	m.setObjective()

	n.metrics.RecordCompile(timed.Elapsed(), p.NumVars(), p.NumConstraints())
	timed.End("problem compiled",
		logging.Problem(p.ID().String()),
		logging.Vars(p.NumVars()),
		logging.Constraints(p.NumConstraints()))
	return p, m
}

// declareVars declares all variables in topological order. Per node: the
// size variable, then one flow column per input edge in declared order,
// then the storage variables. Input leaves carry no flow variables, their
// synthetic inflow is a fixed series or size times profile.
func (m *model) declareVars() {
	steps := m.net.grid.Len()
	for _, i := range m.net.order {
		node := m.net.nodes[i]
		info := &m.net.infos[i]
		nm := &m.nodes[i]

		if info.hasSize {
			nm.size = m.problem.AddVar("size_" + node.name)
			nm.hasSize = true
		}

		switch node.typ {
		case TypeFixedInput:
			nm.inFlows = []*flow{{kind: flowFixed, series: node.flow}}
			nm.inNames = []string{""}
		case TypeScalableInput:
			nm.inFlows = []*flow{{kind: flowScaled, size: nm.size, profile: node.profile}}
			nm.inNames = []string{""}
		default:
			for p, input := range node.inputs {
				f := &flow{
					kind: flowVars,
					vars: m.problem.AddSeriesVars(fmt.Sprintf("flow_%s_%s", input.name, node.name), steps),
				}
				nm.inFlows = append(nm.inFlows, f)
				nm.inNames = append(nm.inNames, input.name)

				um := &m.nodes[m.net.index[input.name]]
				um.outFlows = append(um.outFlows, f)
				um.outNames = append(um.outNames, node.name)
				um.outEdgeComm = append(um.outEdgeComm, node.inputComms[p])
			}
		}

		if node.typ == TypeFixedOutput {
			nm.outFlows = []*flow{{kind: flowFixed, series: node.flow}}
			nm.outNames = []string{""}
			nm.outEdgeComm = []string{info.outComms[0]}
		}

		if node.storage != nil {
			nm.storageSize = m.problem.AddVar("size_storage_" + node.name)
			nm.storageLevel = m.problem.AddSeriesVars("storage_level_"+node.name, steps)
			nm.storageCharge = m.problem.AddSeriesVars("storage_charge_"+node.name, steps)
			nm.storageDischarge = m.problem.AddSeriesVars("storage_discharge_"+node.name, steps)
		}
	}
}

// emitConstraints emits all constraint rows, per node in topological
// order. With more than one worker configured the per-node drafts are
// built concurrently; the append into the problem stays ordered either
// way.
func (m *model) emitConstraints() {
	order := m.net.order
	drafts := make([][]rowDraft, len(m.nodes))

	if m.net.workers > 1 {
		if pool, err := parallel.NewPool(m.net.workers, m.net.logger); err == nil {
			for _, i := range order {
				pool.Go(func() {
					drafts[i] = m.emitRows(i)
				})
			}
			pool.Wait()
		}
	}
	// Every node emits at least its balance rows, so nil marks a node
	// not handled by the pool.
	for _, i := range order {
		if drafts[i] == nil {
			drafts[i] = m.emitRows(i)
		}
	}

	for _, i := range order {
		for _, d := range drafts[i] {
			switch d.sense {
			case lp.EQ:
				m.problem.AddEq(d.name, d.lhs, d.rhs)
			default:
				m.problem.AddLe(d.name, d.lhs, d.rhs)
			}
		}
	}
}

// emitRows builds the constraint drafts of one node: flow balance per
// output commodity, the size limit, proportion rows, and the storage
// rows. Reads shared state only, safe to run concurrently per node.
func (m *model) emitRows(i int) []rowDraft {
	node := m.net.nodes[i]
	info := &m.net.infos[i]
	nm := &m.nodes[i]
	steps := m.net.grid.Len()

	var rows []rowDraft
	rows = append(rows, m.balanceRows(node, info, nm, steps)...)

	if nm.hasSize {
		for t := 0; t < steps; t++ {
			lhs := lp.NewExpr()
			for e, f := range nm.outFlows {
				if nm.outEdgeComm[e] == info.sizeComm {
					lhs.Add(f.at(t))
				}
			}
			rows = append(rows, rowDraft{
				name:  fmt.Sprintf("limit_outflow_by_size_%s[%d]", node.name, t),
				lhs:   lhs,
				rhs:   lp.VarExpr(nm.size),
				sense: lp.LE,
			})
		}
	}

	if node.proportions != nil {
		rows = append(rows, proportionRows(node.name, node.proportions, nm.inFlows, nm.inNames, steps)...)
	}
	if node.outputProportions != nil {
		rows = append(rows, proportionRows(node.name, node.outputProportions, nm.outFlows, nm.outNames, steps)...)
	}

	if node.storage != nil {
		rows = append(rows, m.storageRows(node, nm, steps)...)
	}
	return rows
}

// balanceRows ties outputs to inputs: for every output commodity, the
// outgoing flows plus the storage exchange equal the converted incoming
// flows. Leaves balance against their synthetic flow instead.
func (m *model) balanceRows(node *Node, info *nodeInfo, nm *nodeModel, steps int) []rowDraft {
	interval := m.net.grid.Interval()
	rows := make([]rowDraft, 0, steps*len(info.outComms))

	for _, comm := range info.outComms {
		name := "inout_flow_balance_" + node.name
		if len(info.outComms) > 1 {
			name += "_" + comm
		}

		for t := 0; t < steps; t++ {
			lhs := lp.NewExpr()
			for e, f := range nm.outFlows {
				if nm.outEdgeComm[e] == comm {
					lhs.Add(f.at(t))
				}
			}
			if node.storage != nil {
				lhs.AddTerm(1/interval, nm.storageCharge[t])
				lhs.AddTerm(-1/interval, nm.storageDischarge[t])
			}

			rhs := lp.NewExpr()
			switch node.typ {
			case TypeFixedInput, TypeScalableInput:
				rhs = nm.inFlows[0].at(t)
			default:
				conv := info.conversions[comm]
				for p, f := range nm.inFlows {
					if node.inputComms[p] == conv.From {
						rhs.Add(f.at(t))
					}
				}
				rhs.Scale(conv.Factor)
			}

			rows = append(rows, rowDraft{
				name:  fmt.Sprintf("%s[%d]", name, t),
				lhs:   lhs,
				rhs:   rhs,
				sense: lp.EQ,
			})
		}
	}
	return rows
}

// proportionRows pins the share of each flow in the total. The first
// flow serves as the pivot; for every other flow k with share p the row
// p * sum of the other flows + (p-1) * flow k = 0 avoids repeating a
// variable on both sides.
func proportionRows(node string, shares map[string]float64, flows []*flow, names []string, steps int) []rowDraft {
	rows := make([]rowDraft, 0, steps*(len(flows)-1))
	for k := 1; k < len(flows); k++ {
		p := shares[names[k]]
		for t := 0; t < steps; t++ {
			lhs := lp.NewExpr()
			for j, f := range flows {
				if j == k {
					lhs.Add(f.at(t).Scale(p - 1))
				} else {
					lhs.Add(f.at(t).Scale(p))
				}
			}
			rows = append(rows, rowDraft{
				name:  fmt.Sprintf("proportion_%s_%s[%d]", node, names[k], t),
				lhs:   lhs,
				rhs:   lp.ConstExpr(0),
				sense: lp.EQ,
			})
		}
	}
	return rows
}

// storageRows bounds charge and discharge by the storage size and the
// charging speed, caps the level at the size, and chains the level
// recurrence across steps. How the recurrence starts depends on the
// initial level policy: cyclic wraps to the last step, fixed starts from
// a constant, free leaves the first step open.
func (m *model) storageRows(node *Node, nm *nodeModel, steps int) []rowDraft {
	s := node.storage
	interval := m.net.grid.Interval()
	speed := interval * s.maxChargingSpeed
	rows := make([]rowDraft, 0, 4*steps)

	for t := 0; t < steps; t++ {
		rows = append(rows, rowDraft{
			name:  fmt.Sprintf("max_charging_speed_%s[%d]", node.name, t),
			lhs:   lp.VarExpr(nm.storageCharge[t]),
			rhs:   lp.TermExpr(speed, nm.storageSize),
			sense: lp.LE,
		})
	}
	for t := 0; t < steps; t++ {
		rows = append(rows, rowDraft{
			name:  fmt.Sprintf("max_discharging_speed_%s[%d]", node.name, t),
			lhs:   lp.VarExpr(nm.storageDischarge[t]),
			rhs:   lp.TermExpr(speed, nm.storageSize),
			sense: lp.LE,
		})
	}
	for t := 0; t < steps; t++ {
		rows = append(rows, rowDraft{
			name:  fmt.Sprintf("storage_max_level_%s[%d]", node.name, t),
			lhs:   lp.VarExpr(nm.storageLevel[t]),
			rhs:   lp.VarExpr(nm.storageSize),
			sense: lp.LE,
		})
	}

	retained := 1 - s.storageLoss
	charged := 1 - s.chargingLoss
	for t := 0; t < steps; t++ {
		rhs := lp.NewExpr()
		switch {
		case t > 0:
			rhs.AddTerm(retained, nm.storageLevel[t-1])
		case s.initial.mode == initialCyclic:
			rhs.AddTerm(retained, nm.storageLevel[steps-1])
		case s.initial.mode == initialFixed:
			rhs.AddConst(retained * s.initial.value)
		default: // initialFree: no row for the first step
			continue
		}
		rhs.AddTerm(charged, nm.storageCharge[t])
		rhs.AddTerm(-1, nm.storageDischarge[t])
		rows = append(rows, rowDraft{
			name:  fmt.Sprintf("storage_level_balance_%s[%d]", node.name, t),
			lhs:   lp.VarExpr(nm.storageLevel[t]),
			rhs:   rhs,
			sense: lp.EQ,
		})
	}
	return rows
}

// setObjective assembles the total cost: size costs, then storage costs,
// then flow costs, each over the nodes in topological order. Flow costs
// apply per hour, so flows scale with the grid interval.
func (m *model) setObjective() {
	interval := m.net.grid.Interval()
	obj := lp.NewExpr()

	for _, i := range m.net.order {
		info := &m.net.infos[i]
		if info.hasSize && info.sizeCost != 0 {
			obj.AddTerm(info.sizeCost, m.nodes[i].size)
		}
	}
	for _, i := range m.net.order {
		info := &m.net.infos[i]
		if m.net.nodes[i].storage != nil && info.storageCost != 0 {
			obj.AddTerm(info.storageCost, m.nodes[i].storageSize)
		}
	}
	for _, i := range m.net.order {
		info := &m.net.infos[i]
		if info.flowCost == 0 {
			continue
		}
		for _, f := range m.nodes[i].inFlows {
			if f.kind != flowVars {
				continue
			}
			for _, v := range f.vars {
				obj.AddTerm(info.flowCost*interval, v)
			}
		}
	}
	m.problem.Minimize(obj)
}
