package network

import "strings"

// indexGraph is the network topology as a plain index graph: nodes are
// addressed by their position in the original node list, edges point from
// input to consumer. Keeping it index-based makes cycle detection and the
// topological sort independent of node internals.
type indexGraph struct {
	names []string
	in    [][]int // in[i] lists the inputs of node i
	out   [][]int // out[i] lists the consumers of node i
}

// newIndexGraph builds the adjacency lists from the nodes' input
// references. Callers must have checked membership already.
func newIndexGraph(nodes []*Node, index map[string]int) *indexGraph {
	g := &indexGraph{
		names: make([]string, len(nodes)),
		in:    make([][]int, len(nodes)),
		out:   make([][]int, len(nodes)),
	}
	for i, n := range nodes {
		g.names[i] = n.name
	}
	for i, n := range nodes {
		for _, input := range n.inputs {
			j := index[input.name]
			g.in[i] = append(g.in[i], j)
			g.out[j] = append(g.out[j], i)
		}
	}
	return g
}

// topoSort returns node indices in topological order using Kahn's
// algorithm: every input comes before its consumers. Returns a cycle
// error when no such order exists. The order is deterministic: ties are
// broken by position in the original node list.
func (g *indexGraph) topoSort() ([]int, error) {
	n := len(g.names)

	inDegree := make([]int, n)
	for i := 0; i < n; i++ {
		inDegree[i] = len(g.in[i])
	}

	// Queue of nodes with in-degree 0, seeded in list order
	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	sorted := make([]int, 0, n)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		sorted = append(sorted, current)

		for _, next := range g.out[current] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	// If we didn't process all nodes, there's a cycle
	if len(sorted) != n {
		return nil, CycleError(g.cyclePath())
	}

	return sorted, nil
}

// Colors for the cycle-path DFS.
const (
	white = 0 // unvisited
	gray  = 1 // currently visiting (in recursion stack)
	black = 2 // finished visiting
)

// cyclePath finds one cycle and renders it as "a -> b -> a" for error
// reporting. Uses depth-first search with three-color marking: a gray
// neighbor during DFS is a back edge, which closes a cycle.
func (g *indexGraph) cyclePath() string {
	n := len(g.names)
	color := make([]int, n)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = -1
	}

	for i := 0; i < n; i++ {
		if color[i] == white {
			if cycle := g.dfsCycle(i, color, parent); cycle != nil {
				return g.renderCycle(cycle)
			}
		}
	}
	return ""
}

// dfsCycle performs DFS from node i and returns the first cycle found as
// a list of node indices, or nil.
func (g *indexGraph) dfsCycle(i int, color, parent []int) []int {
	color[i] = gray

	for _, next := range g.out[i] {
		// Self-loop
		if next == i {
			return []int{i}
		}
		switch color[next] {
		case white:
			parent[next] = i
			if cycle := g.dfsCycle(next, color, parent); cycle != nil {
				return cycle
			}
		case gray:
			// Back edge found - extract the cycle via parent pointers
			return extractCycle(next, i, parent)
		}
		// black neighbors are forward/cross edges, no cycle there
	}

	color[i] = black
	return nil
}

// extractCycle reconstructs the cycle closed by the back edge end->start,
// tracing parent pointers from end back to start.
func extractCycle(start, end int, parent []int) []int {
	cycle := []int{start}
	for current := end; current != start; current = parent[current] {
		if current < 0 {
			break
		}
		cycle = append(cycle, current)
	}
	// Trace runs backwards; reverse so the path follows edge direction
	for l, r := 0, len(cycle)-1; l < r; l, r = l+1, r-1 {
		cycle[l], cycle[r] = cycle[r], cycle[l]
	}
	return cycle
}

// renderCycle formats a cycle as "a -> b -> a".
func (g *indexGraph) renderCycle(cycle []int) string {
	var b strings.Builder
	for _, i := range cycle {
		b.WriteString(g.names[i])
		b.WriteString(" -> ")
	}
	b.WriteString(g.names[cycle[0]])
	return b.String()
}
