package network

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrEmptyNetwork      = errors.New("network has no nodes")
	ErrDuplicateName     = errors.New("duplicate node name")
	ErrUnknownInput      = errors.New("input node is not a network member")
	ErrCycle             = errors.New("network contains a cycle")
	ErrNodeOwned         = errors.New("node already belongs to a network")
	ErrCommodityMismatch = errors.New("inconsistent commodity assignment")
	ErrUnknownCommodity  = errors.New("commodity not in registry")
	ErrBadConversion     = errors.New("invalid conversion factors")
	ErrBadProportions    = errors.New("invalid proportions")
	ErrBadProfile        = errors.New("profile values out of range")
	ErrGridMismatch      = errors.New("series does not match the network time grid")
	ErrStorageShape      = errors.New("storage not supported on this node")
	ErrAmbiguousSize     = errors.New("size commodity is ambiguous")
	ErrNoSize            = errors.New("node has no size variable")
	ErrNotSolved         = errors.New("network has not been solved")
	ErrUnknownFlow       = errors.New("no such flow")
	ErrBadOption         = errors.New("option does not apply to this node variant")
	ErrStorageOwned      = errors.New("storage already attached to a node")
	ErrBadShape          = errors.New("node connections do not match its variant")
	ErrNilNode           = errors.New("nil node")
)

// StructuralError reports a defect in the graph itself: a cycle, a
// reference to a node outside the network, or a duplicate name. Raised
// during network construction, always fatal.
type StructuralError struct {
	Op      string // Operation that failed (e.g., "build", "sort")
	Node    string // Node name (if applicable)
	Cause   error  // Underlying error
	Context string // Additional context
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	return formatError(e.Op, e.Node, e.Context, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *StructuralError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error or its cause.
func (e *StructuralError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// ConfigError reports an inconsistent node configuration: commodity or
// conversion mismatches, malformed proportions, series on the wrong grid,
// an ambiguous size commodity. Raised during construction before any
// problem artifact exists.
type ConfigError struct {
	Op      string // Operation that failed (e.g., "build", "new node")
	Node    string // Node name (if applicable)
	Cause   error  // Underlying error
	Context string // Additional context
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return formatError(e.Op, e.Node, e.Context, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error or its cause.
func (e *ConfigError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

func formatError(op, node, context string, cause error) string {
	switch {
	case node != "" && context != "":
		return fmt.Sprintf("%s node %q (%s): %v", op, node, context, cause)
	case node != "":
		return fmt.Sprintf("%s node %q: %v", op, node, cause)
	case context != "":
		return fmt.Sprintf("%s (%s): %v", op, context, cause)
	default:
		return fmt.Sprintf("%s: %v", op, cause)
	}
}

// ErrorBuilder provides a fluent interface for building network errors.
type ErrorBuilder struct {
	structural bool
	op         string
	node       string
	context    string
	cause      error
}

// NewStructural creates a builder for a StructuralError with the given
// operation.
func NewStructural(op string) *ErrorBuilder {
	return &ErrorBuilder{structural: true, op: op}
}

// NewConfig creates a builder for a ConfigError with the given operation.
func NewConfig(op string) *ErrorBuilder {
	return &ErrorBuilder{op: op}
}

// Node sets the node name.
func (b *ErrorBuilder) Node(name string) *ErrorBuilder {
	b.node = name
	return b
}

// Context sets additional context information.
func (b *ErrorBuilder) Context(ctx string) *ErrorBuilder {
	b.context = ctx
	return b
}

// Contextf sets formatted context information.
func (b *ErrorBuilder) Contextf(format string, args ...any) *ErrorBuilder {
	b.context = fmt.Sprintf(format, args...)
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.cause = err
	return b
}

// Err returns the constructed error.
func (b *ErrorBuilder) Err() error {
	if b.structural {
		return &StructuralError{Op: b.op, Node: b.node, Cause: b.cause, Context: b.context}
	}
	return &ConfigError{Op: b.op, Node: b.node, Cause: b.cause, Context: b.context}
}

// Convenience functions for common error patterns

// CycleError creates a cycle error carrying the offending path.
func CycleError(path string) error {
	return NewStructural("build").Context(path).Cause(ErrCycle).Err()
}

// UnknownInputError creates an error for an input reference that is not a
// network member.
func UnknownInputError(node, input string) error {
	return NewStructural("build").Node(node).Contextf("input %s", input).Cause(ErrUnknownInput).Err()
}

// DuplicateNameError creates a duplicate node name error.
func DuplicateNameError(name string) error {
	return NewStructural("build").Node(name).Cause(ErrDuplicateName).Err()
}

// NotSolvedError creates an error for reading solution values before a
// successful solve.
func NotSolvedError(op, node string) error {
	return NewConfig(op).Node(node).Cause(ErrNotSolved).Err()
}

// IsStructural returns true if the error is a StructuralError.
func IsStructural(err error) bool {
	var e *StructuralError
	return errors.As(err, &e)
}

// IsConfig returns true if the error is a ConfigError.
func IsConfig(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

// IsCycle returns true if the error reports a cycle in the network graph.
func IsCycle(err error) bool {
	return errors.Is(err, ErrCycle)
}

// IsNotSolved returns true if the error reports a missing solution.
func IsNotSolved(err error) bool {
	return errors.Is(err, ErrNotSolved)
}
