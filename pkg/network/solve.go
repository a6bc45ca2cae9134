package network

import (
	"context"

	"github.com/inwe-boku/fluxopt/pkg/logging"
	"github.com/inwe-boku/fluxopt/pkg/lp"
	"github.com/inwe-boku/fluxopt/pkg/solver"
	"github.com/inwe-boku/fluxopt/pkg/timegrid"
)

// Solve compiles the network and optimizes it with the given solver. On
// an optimal verdict the solution is written back onto the nodes and
// their storages. Any other verdict comes back as a solver error and
// leaves earlier results untouched.
func (n *Network) Solve(ctx context.Context, s solver.Solver) error {
	p, m := n.compile()
	timed := logging.Begin(n.logger,
		logging.Network(n.name),
		logging.Problem(p.ID().String()))

	sol, err := s.Solve(ctx, p)
	if err != nil {
		n.metrics.RecordSolve(lp.StatusError.String(), timed.Elapsed())
		timed.Fail("solve failed", err)
		return err
	}

	status := sol.Status()
	n.metrics.RecordSolve(status.String(), timed.Elapsed())
	if verdict := solver.VerdictErr(status); verdict != nil {
		timed.Warn("no optimal solution", logging.Status(status.String()))
		return solver.NewError("solve", n.name, verdict)
	}

	m.writeBack(sol)
	n.solved = true
	n.totalCost = sol.Objective()
	timed.End("network solved",
		logging.Status(status.String()),
		logging.Objective(sol.Objective()))
	return nil
}

// writeBack projects the solution onto the nodes and storages.
func (m *model) writeBack(sol *lp.Solution) {
	grid := m.net.grid
	steps := grid.Len()
	for i, node := range m.net.nodes {
		nm := &m.nodes[i]
		res := &nodeResult{
			hasSize:  nm.hasSize,
			inFlows:  make(map[string]timegrid.Series, len(nm.inFlows)),
			outFlows: make(map[string]timegrid.Series, len(nm.outFlows)),
		}
		if nm.hasSize {
			res.size = sol.Value(nm.size)
		}
		for p, f := range nm.inFlows {
			res.inFlows[nm.inNames[p]] = flowSeries(sol, f, grid, steps)
		}
		for e, f := range nm.outFlows {
			res.outFlows[nm.outNames[e]] = flowSeries(sol, f, grid, steps)
		}
		node.result = res

		if node.storage != nil {
			node.storage.result = &storageResult{
				size:      sol.Value(nm.storageSize),
				level:     varSeries(sol, nm.storageLevel, grid),
				charge:    varSeries(sol, nm.storageCharge, grid),
				discharge: varSeries(sol, nm.storageDischarge, grid),
			}
		}
	}
}

func flowSeries(sol *lp.Solution, f *flow, grid *timegrid.Grid, steps int) timegrid.Series {
	values := make([]float64, steps)
	for t := range values {
		values[t] = f.value(sol, t)
	}
	return mustSeries(grid, values)
}

func varSeries(sol *lp.Solution, vars []lp.Var, grid *timegrid.Grid) timegrid.Series {
	values := make([]float64, len(vars))
	for t, v := range vars {
		values[t] = sol.Value(v)
	}
	return mustSeries(grid, values)
}

// mustSeries wraps values whose length matches the grid by construction.
func mustSeries(grid *timegrid.Grid, values []float64) timegrid.Series {
	s, _ := timegrid.FromValues(grid, values)
	return s
}
