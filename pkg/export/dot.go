package export

import (
	"fmt"
	"strings"

	"github.com/inwe-boku/fluxopt/pkg/network"
)

// DOT renders the network topology in graphviz dot syntax. Input leaves
// are drawn red, converting nodes blue, and each storage appears as a
// green satellite node exchanging with its owner. Output is
// deterministic: nodes in build order, edges in declaration order.
func DOT(net *network.Network) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", net.Name())
	b.WriteString("  rankdir=LR;\n")

	for _, node := range net.Nodes() {
		color := "blue"
		switch node.Type() {
		case network.TypeFixedInput, network.TypeScalableInput:
			color = "red"
		}
		fmt.Fprintf(&b, "  %q [color=%s];\n", node.Name(), color)

		if node.Storage() != nil {
			satellite := node.Name() + "_storage"
			fmt.Fprintf(&b, "  %q [color=green];\n", satellite)
			fmt.Fprintf(&b, "  %q -> %q;\n", satellite, node.Name())
			fmt.Fprintf(&b, "  %q -> %q;\n", node.Name(), satellite)
		}
	}

	for _, edge := range net.Topology() {
		fmt.Fprintf(&b, "  %q -> %q [label=%q];\n", edge.From, edge.To, edge.Commodity)
	}

	b.WriteString("}\n")
	return b.String()
}
