// Package network turns a directed acyclic graph of technology nodes
// connected by commodity flows into a linear program: decision variables
// for flows, sizes and storage state, constraints encoding conversion,
// capacity and storage dynamics, and a cost objective. The emitted
// problem is handed to a solver adapter; solved values are written back
// onto the nodes as read-only snapshots.
package network

import (
	"github.com/inwe-boku/fluxopt/pkg/timegrid"
	"github.com/inwe-boku/fluxopt/pkg/units"
	"github.com/inwe-boku/fluxopt/pkg/validation"
)

// NodeType distinguishes the four node variants. The variant decides
// which flow variables exist: general nodes get free flows on every edge,
// the leaf variants pin one side to a supplied time series.
type NodeType int

const (
	// TypeGeneral is a conversion node: free input and output flows.
	TypeGeneral NodeType = iota
	// TypeFixedInput is a leaf whose inflow is a given time series.
	TypeFixedInput
	// TypeFixedOutput is a sink whose outflow is a given time series.
	TypeFixedOutput
	// TypeScalableInput is a leaf whose inflow is size * profile.
	TypeScalableInput
)

// String returns the variant name.
func (t NodeType) String() string {
	switch t {
	case TypeGeneral:
		return "general"
	case TypeFixedInput:
		return "fixed_input"
	case TypeFixedOutput:
		return "fixed_output"
	case TypeScalableInput:
		return "scalable_input"
	default:
		return "unknown"
	}
}

// Conversion maps one output commodity to the input commodity it is
// produced from: output = Factor * sum of input flows of From.
type Conversion struct {
	From   string
	Factor float64
}

// NoCosts marks a node or storage without capacity costs.
var NoCosts = units.Quantity{}

// Node is one technology in the network. Nodes are built standalone,
// referencing their upstream inputs, and then handed to New as a set.
// A node belongs to at most one network for its lifetime; solution values
// are attached by Network.Solve and exposed through Size, InputFlow and
// OutputFlow.
type Node struct {
	name       string
	typ        NodeType
	inputs     []*Node
	inputComms []string // one commodity per input

	costs          units.Quantity
	inputFlowCosts units.Quantity

	convertFactor    float64
	convertFactorSet bool
	convertFactors   map[string]Conversion

	proportions       map[string]float64 // input name -> share
	outputProportions map[string]float64 // consumer name -> share

	sizeCommodity string
	storage       *Storage

	flow    timegrid.Series // fixed input flow or fixed output flow
	profile timegrid.Series // capacity factors for scalable input

	owned  bool
	result *nodeResult
}

// nodeResult is the solution snapshot written back after a solve.
type nodeResult struct {
	size     float64
	hasSize  bool
	inFlows  map[string]timegrid.Series
	outFlows map[string]timegrid.Series
}

// NodeOption configures a node at construction.
type NodeOption func(*Node) error

// WithConvertFactor sets the scalar conversion factor between the sole
// input and output commodity: output = f * input. Defaults to 1. Only
// general nodes convert.
func WithConvertFactor(f float64) NodeOption {
	return func(n *Node) error {
		if n.typ != TypeGeneral {
			return optionError(n, "convert factor requires a general node")
		}
		if f <= 0 {
			return NewConfig("new node").Node(n.name).Contextf("factor %v", f).Cause(ErrBadConversion).Err()
		}
		n.convertFactor = f
		n.convertFactorSet = true
		return nil
	}
}

// WithConvertFactors sets per-commodity conversions for nodes with more
// than one input or output commodity, keyed by output commodity.
func WithConvertFactors(factors map[string]Conversion) NodeOption {
	return func(n *Node) error {
		if n.typ != TypeGeneral {
			return optionError(n, "convert factors require a general node")
		}
		m := make(map[string]Conversion, len(factors))
		for out, conv := range factors {
			if conv.From == "" || conv.Factor <= 0 {
				return NewConfig("new node").Node(n.name).
					Contextf("conversion for %s", out).Cause(ErrBadConversion).Err()
			}
			m[out] = conv
		}
		n.convertFactors = m
		return nil
	}
}

// WithInputProportions fixes the share of each input in the node's total
// inflow. Keys are input node names; shares must sum to 1.
func WithInputProportions(proportions map[string]float64) NodeOption {
	return func(n *Node) error {
		if n.typ != TypeGeneral && n.typ != TypeFixedOutput {
			return optionError(n, "input proportions require input flows")
		}
		n.proportions = copyProportions(proportions)
		return nil
	}
}

// WithOutputProportions fixes the share of each consumer in the node's
// total outflow. Keys are consumer node names; shares must sum to 1.
// Checked once the network knows the consumers.
func WithOutputProportions(proportions map[string]float64) NodeOption {
	return func(n *Node) error {
		if n.typ == TypeFixedOutput {
			return optionError(n, "output proportions require output flows")
		}
		n.outputProportions = copyProportions(proportions)
		return nil
	}
}

// WithStorage attaches a storage to the node. The storage buffers the
// node's output commodity; a storage belongs to exactly one node.
func WithStorage(s *Storage) NodeOption {
	return func(n *Node) error {
		if n.typ == TypeFixedOutput {
			return NewConfig("new node").Node(n.name).Cause(ErrStorageShape).Err()
		}
		if s == nil {
			return optionError(n, "nil storage")
		}
		if err := s.attach(n.name); err != nil {
			return err
		}
		n.storage = s
		return nil
	}
}

// WithInputFlowCosts adds costs per unit of input flow, e.g. fuel costs.
// Only general nodes have a free inflow to price, and at most one input
// is allowed so the costed commodity is unambiguous.
func WithInputFlowCosts(costs units.Quantity) NodeOption {
	return func(n *Node) error {
		if n.typ != TypeGeneral {
			return optionError(n, "input flow costs require a general node")
		}
		n.inputFlowCosts = costs
		return nil
	}
}

// WithSizeCommodity picks the output commodity the size constraint is
// denominated in. Required when a node has several output commodities
// and capacity costs.
func WithSizeCommodity(name string) NodeOption {
	return func(n *Node) error {
		if n.typ != TypeGeneral {
			return optionError(n, "size commodity requires a general node")
		}
		n.sizeCommodity = name
		return nil
	}
}

func optionError(n *Node, context string) error {
	return NewConfig("new node").Node(n.name).Context(context).Cause(ErrBadOption).Err()
}

func copyProportions(proportions map[string]float64) map[string]float64 {
	m := make(map[string]float64, len(proportions))
	for k, v := range proportions {
		m[k] = v
	}
	return m
}

// NewNode creates a general conversion node. It consumes the flows of its
// inputs and produces the commodities its consumers declare. If costs is
// nonzero the node gets a size variable limiting its output.
func NewNode(name string, inputs []*Node, inputCommodities []string, costs units.Quantity, opts ...NodeOption) (*Node, error) {
	n := &Node{
		name:          name,
		typ:           TypeGeneral,
		costs:         costs,
		convertFactor: 1,
	}
	if err := n.setInputs(inputs, inputCommodities); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, NewConfig("new node").Node(name).
			Context("a general node needs at least one input").Cause(ErrCommodityMismatch).Err()
	}
	return finishNode(n, opts)
}

// NewFixedInputNode creates a leaf whose inflow is pinned to the given
// time series, e.g. a CO2 stream from a refinery.
func NewFixedInputNode(name string, flow timegrid.Series, opts ...NodeOption) (*Node, error) {
	n := &Node{
		name:          name,
		typ:           TypeFixedInput,
		flow:          flow,
		convertFactor: 1,
	}
	return finishNode(n, opts)
}

// NewScalableInputNode creates a leaf whose inflow is a free size
// variable scaled by the given profile. The profile holds capacity
// factors and must lie within [0, 1].
func NewScalableInputNode(name string, profile timegrid.Series, costs units.Quantity, opts ...NodeOption) (*Node, error) {
	if !profile.InRange(0, 1) {
		return nil, NewConfig("new node").Node(name).
			Context("capacity factors must be between 0 and 1").Cause(ErrBadProfile).Err()
	}
	n := &Node{
		name:          name,
		typ:           TypeScalableInput,
		profile:       profile,
		costs:         costs,
		convertFactor: 1,
	}
	return finishNode(n, opts)
}

// NewFixedOutputNode creates a sink whose outflow is pinned to the given
// time series, e.g. an electricity demand.
func NewFixedOutputNode(name string, inputs []*Node, inputCommodities []string, demand timegrid.Series, opts ...NodeOption) (*Node, error) {
	n := &Node{
		name:          name,
		typ:           TypeFixedOutput,
		flow:          demand,
		convertFactor: 1,
	}
	if err := n.setInputs(inputs, inputCommodities); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, NewConfig("new node").Node(name).
			Context("a fixed output node needs at least one input").Cause(ErrCommodityMismatch).Err()
	}
	return finishNode(n, opts)
}

// setInputs stores the input references and commodities, broadcasting a
// single commodity to all inputs.
func (n *Node) setInputs(inputs []*Node, inputCommodities []string) error {
	seen := make(map[*Node]bool, len(inputs))
	for _, input := range inputs {
		if input == nil {
			return NewConfig("new node").Node(n.name).Context("nil input").Cause(ErrNilNode).Err()
		}
		if seen[input] {
			return NewConfig("new node").Node(n.name).
				Contextf("input %s listed twice", input.name).Cause(ErrDuplicateName).Err()
		}
		seen[input] = true
	}
	switch {
	case len(inputCommodities) == len(inputs):
	case len(inputCommodities) == 1 && len(inputs) > 1:
		c := inputCommodities[0]
		inputCommodities = make([]string, len(inputs))
		for i := range inputCommodities {
			inputCommodities[i] = c
		}
	default:
		return NewConfig("new node").Node(n.name).
			Contextf("%d commodities for %d inputs", len(inputCommodities), len(inputs)).
			Cause(ErrCommodityMismatch).Err()
	}
	n.inputs = append([]*Node(nil), inputs...)
	n.inputComms = append([]string(nil), inputCommodities...)
	return nil
}

// finishNode applies options and validates scalar parameters.
func finishNode(n *Node, opts []NodeOption) (*Node, error) {
	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}

	params := &validation.NodeParams{
		Name:           n.name,
		Costs:          n.costs.Value,
		InputFlowCosts: n.inputFlowCosts.Value,
	}
	if err := validation.ValidateNodeParams(params); err != nil {
		return nil, NewConfig("new node").Node(n.name).Cause(err).Err()
	}

	if n.convertFactorSet && n.convertFactors != nil {
		return nil, NewConfig("new node").Node(n.name).
			Context("convert factor and convert factors are exclusive").Cause(ErrBadConversion).Err()
	}
	if n.inputFlowCosts.Value != 0 && len(n.inputs) != 1 {
		return nil, NewConfig("new node").Node(n.name).
			Context("input flow costs allow at most one input").Cause(ErrCommodityMismatch).Err()
	}
	for name, p := range n.proportions {
		if p <= 0 || p >= 1 {
			return nil, NewConfig("new node").Node(n.name).
				Contextf("input proportion %s=%v", name, p).Cause(ErrBadProportions).Err()
		}
	}
	for name, p := range n.outputProportions {
		if p <= 0 || p >= 1 {
			return nil, NewConfig("new node").Node(n.name).
				Contextf("output proportion %s=%v", name, p).Cause(ErrBadProportions).Err()
		}
	}
	return n, nil
}

// Name returns the node's name.
func (n *Node) Name() string {
	return n.name
}

// Type returns the node's variant.
func (n *Node) Type() NodeType {
	return n.typ
}

// Inputs returns the upstream nodes.
func (n *Node) Inputs() []*Node {
	return append([]*Node(nil), n.inputs...)
}

// InputCommodities returns the commodity carried by each input edge, in
// input order.
func (n *Node) InputCommodities() []string {
	return append([]string(nil), n.inputComms...)
}

// Storage returns the attached storage, or nil.
func (n *Node) Storage() *Storage {
	return n.storage
}

// Size returns the solved capacity of the node.
func (n *Node) Size() (float64, error) {
	if n.result == nil {
		return 0, NotSolvedError("size", n.name)
	}
	if !n.result.hasSize {
		return 0, NewConfig("size").Node(n.name).Cause(ErrNoSize).Err()
	}
	return n.result.size, nil
}

// InputFlow returns the solved flow from the named input. Leaf variants
// expose their synthetic inflow under the empty name.
func (n *Node) InputFlow(name string) (timegrid.Series, error) {
	if n.result == nil {
		return timegrid.Series{}, NotSolvedError("input flow", n.name)
	}
	s, ok := n.result.inFlows[name]
	if !ok {
		return timegrid.Series{}, NewConfig("input flow").Node(n.name).
			Contextf("from %q", name).Cause(ErrUnknownFlow).Err()
	}
	return s, nil
}

// OutputFlow returns the solved flow to the named consumer. Fixed output
// nodes expose their synthetic outflow under the empty name.
func (n *Node) OutputFlow(name string) (timegrid.Series, error) {
	if n.result == nil {
		return timegrid.Series{}, NotSolvedError("output flow", n.name)
	}
	s, ok := n.result.outFlows[name]
	if !ok {
		return timegrid.Series{}, NewConfig("output flow").Node(n.name).
			Contextf("to %q", name).Cause(ErrUnknownFlow).Err()
	}
	return s, nil
}
