package network

import (
	"math"

	"github.com/inwe-boku/fluxopt/pkg/commodity"
	"github.com/inwe-boku/fluxopt/pkg/logging"
	"github.com/inwe-boku/fluxopt/pkg/metrics"
	"github.com/inwe-boku/fluxopt/pkg/parallel"
	"github.com/inwe-boku/fluxopt/pkg/timegrid"
	"github.com/inwe-boku/fluxopt/pkg/units"
)

// proportionTolerance bounds the rounding slack allowed when checking
// that flow shares sum to one.
const proportionTolerance = 1e-6

// Edge is one directed commodity flow between two nodes.
type Edge struct {
	From      string
	To        string
	Commodity string
}

// Network is a validated, immutable conversion graph over a time grid.
// All structural and configuration checks happen in New; afterwards the
// network compiles to a linear program and, once solved, serves solution
// values through its nodes.
type Network struct {
	name     string
	nodes    []*Node
	index    map[string]int
	order    []int // node indexes in topological order
	grid     *timegrid.Grid
	registry *commodity.Registry
	currency units.Unit
	workers  int
	logger   logging.Logger
	metrics  *metrics.Registry

	infos     []nodeInfo
	solved    bool
	totalCost float64
}

// nodeInfo holds the derived per-node facts the compiler works from:
// resolved consumers, commodities, conversions and canonical costs.
type nodeInfo struct {
	consumers    []int    // indexes of consuming nodes, in build order
	consumerComm []string // commodity on each consumer edge

	outComms    []string              // distinct output commodities, first-seen order
	conversions map[string]Conversion // per output commodity, general nodes only

	hasSize  bool
	sizeComm string
	sizeCost float64 // currency per canonical size unit

	flowCost    float64 // currency per canonical unit and hour
	storageCost float64 // currency per canonical unit and hour
}

// Option configures a network at construction.
type Option func(*Network)

// WithName sets the network name used in logs and exports.
func WithName(name string) Option {
	return func(n *Network) { n.name = name }
}

// WithRegistry sets the commodity registry. Defaults to the built-in
// registry.
func WithRegistry(r *commodity.Registry) Option {
	return func(n *Network) { n.registry = r }
}

// WithCurrency sets the currency unit all costs are converted to.
// Defaults to EUR.
func WithCurrency(u units.Unit) Option {
	return func(n *Network) { n.currency = u }
}

// WithWorkers spreads constraint emission over the given number of
// goroutines. Values below two keep compilation sequential.
func WithWorkers(workers int) Option {
	return func(n *Network) { n.workers = workers }
}

// WithLogger sets the logger for build, compile and solve events.
func WithLogger(l logging.Logger) Option {
	return func(n *Network) { n.logger = l }
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metrics.Registry) Option {
	return func(n *Network) { n.metrics = m }
}

// New validates the node set and builds the network. The nodes must form
// a DAG with unique names, every input reference must be a member of the
// set, commodities and conversions must resolve against the registry, and
// all time series must live on grid. Validation failures are reported as
// StructuralError or ConfigError.
func New(nodes []*Node, grid *timegrid.Grid, opts ...Option) (*Network, error) {
	n := &Network{
		name:     "network",
		grid:     grid,
		registry: commodity.Default(),
		currency: units.MustParse("EUR"),
		logger:   logging.DefaultLogger(),
		metrics:  metrics.DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(n)
	}

	if len(nodes) == 0 {
		return nil, NewStructural("build").Cause(ErrEmptyNetwork).Err()
	}
	if grid == nil {
		return nil, NewConfig("build").Context("nil time grid").Cause(ErrGridMismatch).Err()
	}
	if n.workers > parallel.MaxWorkers {
		return nil, NewConfig("build").Contextf("%d workers", n.workers).Cause(parallel.ErrTooManyWorkers).Err()
	}
	n.nodes = append([]*Node(nil), nodes...)

	if err := n.checkMembership(); err != nil {
		return nil, err
	}
	order, err := newIndexGraph(n.nodes, n.index).topoSort()
	if err != nil {
		return nil, err
	}
	n.order = order

	n.infos = make([]nodeInfo, len(n.nodes))
	n.collectConsumers()
	if err := n.checkShapes(); err != nil {
		return nil, err
	}
	if err := n.resolveCommodities(); err != nil {
		return nil, err
	}
	if err := n.checkSeries(); err != nil {
		return nil, err
	}
	if err := n.checkProportions(); err != nil {
		return nil, err
	}
	if err := n.resolveSizes(); err != nil {
		return nil, err
	}
	if err := n.resolveCosts(); err != nil {
		return nil, err
	}

	for _, node := range n.nodes {
		node.owned = true
	}
	n.metrics.NetworkBuilt()
	n.logger.Info("network built",
		logging.Network(n.name),
		logging.Count(len(n.nodes)),
		logging.String("grid", grid.String()))
	return n, nil
}

// checkMembership builds the name index and verifies that node names are
// unique, that no node already belongs to another network, and that every
// input reference points into the node set.
func (n *Network) checkMembership() error {
	n.index = make(map[string]int, len(n.nodes))
	members := make(map[*Node]bool, len(n.nodes))
	for i, node := range n.nodes {
		if node == nil {
			return NewStructural("build").Cause(ErrNilNode).Err()
		}
		if node.owned {
			return NewStructural("build").Node(node.name).Cause(ErrNodeOwned).Err()
		}
		if _, dup := n.index[node.name]; dup {
			return DuplicateNameError(node.name)
		}
		n.index[node.name] = i
		members[node] = true
	}
	for _, node := range n.nodes {
		for _, input := range node.inputs {
			if !members[input] {
				return UnknownInputError(node.name, input.name)
			}
		}
	}
	return nil
}

// collectConsumers inverts the input references into per-node consumer
// lists, in build order so downstream iteration is deterministic.
func (n *Network) collectConsumers() {
	for i, node := range n.nodes {
		for p, input := range node.inputs {
			info := &n.infos[n.index[input.name]]
			info.consumers = append(info.consumers, i)
			info.consumerComm = append(info.consumerComm, node.inputComms[p])
		}
	}
}

// checkShapes verifies that each node's connections match its variant:
// only fixed output nodes terminate the graph, and they feed nothing.
func (n *Network) checkShapes() error {
	for i, node := range n.nodes {
		consumers := len(n.infos[i].consumers)
		if node.typ == TypeFixedOutput {
			if consumers > 0 {
				return NewConfig("build").Node(node.name).
					Context("a fixed output node cannot feed other nodes").Cause(ErrBadShape).Err()
			}
			continue
		}
		if consumers == 0 {
			return NewConfig("build").Node(node.name).
				Context("no consumers, only fixed output nodes terminate the graph").
				Cause(ErrBadShape).Err()
		}
	}
	return nil
}

// resolveCommodities determines each node's output commodities from its
// consumer edges, verifies all commodities against the registry, and
// resolves the conversion for every output commodity.
func (n *Network) resolveCommodities() error {
	for i, node := range n.nodes {
		info := &n.infos[i]

		for _, c := range node.inputComms {
			if _, ok := n.registry.Lookup(c); !ok {
				return NewConfig("build").Node(node.name).Contextf("commodity %s", c).
					Cause(ErrUnknownCommodity).Err()
			}
		}

		if node.typ == TypeFixedOutput {
			// The demand leaves in the commodity the inputs deliver.
			comms := distinct(node.inputComms)
			if len(comms) != 1 {
				return NewConfig("build").Node(node.name).
					Context("a fixed output node takes a single commodity").
					Cause(ErrCommodityMismatch).Err()
			}
			info.outComms = comms
			info.conversions = map[string]Conversion{
				comms[0]: {From: comms[0], Factor: 1},
			}
			continue
		}

		info.outComms = distinct(info.consumerComm)
		switch node.typ {
		case TypeFixedInput, TypeScalableInput:
			if len(info.outComms) != 1 {
				return NewConfig("build").Node(node.name).
					Context("an input node feeds a single commodity").
					Cause(ErrCommodityMismatch).Err()
			}
		case TypeGeneral:
			conversions, err := n.resolveConversions(node, info)
			if err != nil {
				return err
			}
			info.conversions = conversions
		}
	}
	return nil
}

// resolveConversions binds each output commodity of a general node to the
// input commodity it is produced from.
func (n *Network) resolveConversions(node *Node, info *nodeInfo) (map[string]Conversion, error) {
	inComms := distinct(node.inputComms)

	if node.convertFactors == nil {
		// Scalar factor, identity by default. Only unambiguous for a
		// single commodity on each side.
		if len(inComms) != 1 || len(info.outComms) != 1 {
			return nil, NewConfig("build").Node(node.name).
				Context("convert factors required for multiple commodities").
				Cause(ErrBadConversion).Err()
		}
		return map[string]Conversion{
			info.outComms[0]: {From: inComms[0], Factor: node.convertFactor},
		}, nil
	}

	for out := range node.convertFactors {
		if !contains(info.outComms, out) {
			return nil, NewConfig("build").Node(node.name).
				Contextf("conversion for %s, which is not an output commodity", out).
				Cause(ErrBadConversion).Err()
		}
	}
	conversions := make(map[string]Conversion, len(info.outComms))
	for _, out := range info.outComms {
		conv, ok := node.convertFactors[out]
		if !ok {
			return nil, NewConfig("build").Node(node.name).
				Contextf("no conversion for output commodity %s", out).
				Cause(ErrBadConversion).Err()
		}
		if !contains(inComms, conv.From) {
			return nil, NewConfig("build").Node(node.name).
				Contextf("conversion for %s draws from %s, which is not an input commodity", out, conv.From).
				Cause(ErrBadConversion).Err()
		}
		conversions[out] = conv
	}
	return conversions, nil
}

// checkSeries verifies that every supplied time series lives on the
// network grid.
func (n *Network) checkSeries() error {
	for _, node := range n.nodes {
		var s timegrid.Series
		switch node.typ {
		case TypeFixedInput, TypeFixedOutput:
			s = node.flow
		case TypeScalableInput:
			s = node.profile
		default:
			continue
		}
		if s.Grid() == nil || !s.Grid().Equal(n.grid) {
			return NewConfig("build").Node(node.name).Cause(ErrGridMismatch).Err()
		}
	}
	return nil
}

// checkProportions verifies flow share maps: required when a node mixes
// input commodities, keys must cover the inputs or consumers exactly, and
// shares must sum to one.
func (n *Network) checkProportions() error {
	for i, node := range n.nodes {
		if len(distinct(node.inputComms)) > 1 && node.proportions == nil {
			return NewConfig("build").Node(node.name).
				Context("input proportions required for multiple input commodities").
				Cause(ErrBadProportions).Err()
		}
		if node.proportions != nil {
			names := make([]string, len(node.inputs))
			for p, input := range node.inputs {
				names[p] = input.name
			}
			if err := n.checkShares(node.name, "input", node.proportions, names); err != nil {
				return err
			}
		}
		if node.outputProportions != nil {
			info := n.infos[i]
			names := make([]string, len(info.consumers))
			for p, c := range info.consumers {
				names[p] = n.nodes[c].name
			}
			if err := n.checkShares(node.name, "output", node.outputProportions, names); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkShares verifies one share map against the edge names it must
// cover.
func (n *Network) checkShares(node, kind string, shares map[string]float64, names []string) error {
	if len(names) < 2 {
		return NewConfig("build").Node(node).
			Contextf("%s proportions need at least two %ss", kind, kind).
			Cause(ErrBadProportions).Err()
	}
	if len(shares) != len(names) {
		return NewConfig("build").Node(node).
			Contextf("%s proportions must cover all %d %ss", kind, len(names), kind).
			Cause(ErrBadProportions).Err()
	}
	sum := 0.0
	for _, name := range names {
		share, ok := shares[name]
		if !ok {
			return NewConfig("build").Node(node).
				Contextf("no %s proportion for %s", kind, name).
				Cause(ErrBadProportions).Err()
		}
		sum += share
	}
	if math.Abs(sum-1) > proportionTolerance {
		return NewConfig("build").Node(node).
			Contextf("%s proportions sum to %v, want 1", kind, sum).
			Cause(ErrBadProportions).Err()
	}
	return nil
}

// resolveSizes decides which nodes carry a size variable and which output
// commodity it is denominated in. Storage placement is checked here too,
// a storage buffers exactly one commodity.
func (n *Network) resolveSizes() error {
	for i, node := range n.nodes {
		info := &n.infos[i]

		if node.storage != nil && len(info.outComms) != 1 {
			return NewConfig("build").Node(node.name).
				Context("storage requires a single output commodity").
				Cause(ErrStorageShape).Err()
		}

		info.hasSize = node.costs.Value > 0 || node.typ == TypeScalableInput
		if !info.hasSize {
			if node.sizeCommodity != "" {
				return NewConfig("build").Node(node.name).
					Context("size commodity given but the node has no size").
					Cause(ErrNoSize).Err()
			}
			continue
		}

		switch {
		case node.sizeCommodity != "":
			if !contains(info.outComms, node.sizeCommodity) {
				return NewConfig("build").Node(node.name).
					Contextf("size commodity %s is not an output commodity", node.sizeCommodity).
					Cause(ErrAmbiguousSize).Err()
			}
			info.sizeComm = node.sizeCommodity
		case len(info.outComms) == 1:
			info.sizeComm = info.outComms[0]
		default:
			return NewConfig("build").Node(node.name).
				Contextf("%d output commodities, set a size commodity", len(info.outComms)).
				Cause(ErrAmbiguousSize).Err()
		}
	}
	return nil
}

// resolveCosts converts all cost quantities to canonical numbers in the
// network currency: size costs per canonical unit of the size commodity,
// flow and storage costs per canonical unit and hour.
func (n *Network) resolveCosts() error {
	hour := units.MustParse("h")
	for i, node := range n.nodes {
		info := &n.infos[i]

		if info.hasSize && node.costs.Value != 0 {
			cost, err := n.registry.CanonicalCost(node.costs, info.sizeComm, n.currency)
			if err != nil {
				return NewConfig("build").Node(node.name).Context("costs").Cause(err).Err()
			}
			info.sizeCost = cost
		}

		if node.inputFlowCosts.Value != 0 {
			comm := node.inputComms[0]
			target, err := n.registry.CostUnit(comm, n.currency)
			if err != nil {
				return NewConfig("build").Node(node.name).Context("input flow costs").Cause(err).Err()
			}
			cost, err := node.inputFlowCosts.Convert(target.Div(hour))
			if err != nil {
				return NewConfig("build").Node(node.name).Context("input flow costs").Cause(err).Err()
			}
			info.flowCost = cost
		}

		if node.storage != nil && node.storage.costs.Value != 0 {
			comm := info.outComms[0]
			target, err := n.registry.CostUnit(comm, n.currency)
			if err != nil {
				return NewConfig("build").Node(node.name).Context("storage costs").Cause(err).Err()
			}
			cost, err := node.storage.costs.Convert(target.Div(hour))
			if err != nil {
				return NewConfig("build").Node(node.name).Context("storage costs").Cause(err).Err()
			}
			info.storageCost = cost
		}
	}
	return nil
}

// Name returns the network name.
func (n *Network) Name() string {
	return n.name
}

// Grid returns the time grid the network is defined on.
func (n *Network) Grid() *timegrid.Grid {
	return n.grid
}

// Nodes returns the network's nodes in the order they were given.
func (n *Network) Nodes() []*Node {
	return append([]*Node(nil), n.nodes...)
}

// Node returns the named node.
func (n *Network) Node(name string) (*Node, bool) {
	i, ok := n.index[name]
	if !ok {
		return nil, false
	}
	return n.nodes[i], true
}

// Topology returns all commodity flow edges, grouped by consuming node in
// build order.
func (n *Network) Topology() []Edge {
	var edges []Edge
	for _, node := range n.nodes {
		for p, input := range node.inputs {
			edges = append(edges, Edge{
				From:      input.name,
				To:        node.name,
				Commodity: node.inputComms[p],
			})
		}
	}
	return edges
}

// TotalCost returns the objective value of the last solve.
func (n *Network) TotalCost() (float64, error) {
	if !n.solved {
		return 0, NotSolvedError("total cost", n.name)
	}
	return n.totalCost, nil
}

// distinct returns the unique values of s in first-seen order.
func distinct(s []string) []string {
	var out []string
	for _, v := range s {
		if !contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func contains(s []string, v string) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}
