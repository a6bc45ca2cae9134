// Package commodity defines the commodities flowing through a conversion
// network and the registry that maps them to canonical units.
package commodity

import (
	"errors"
	"fmt"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/inwe-boku/fluxopt/pkg/units"
)

// Common sentinel errors
var (
	ErrUnknownCommodity   = errors.New("unknown commodity")
	ErrDuplicateCommodity = errors.New("duplicate commodity")
)

// Commodity is an immutable named substance or carrier with a canonical
// unit. Two commodities are the same iff their names are equal.
type Commodity struct {
	name string
	unit units.Unit
}

// New creates a commodity with the given name and canonical unit spec.
func New(name, unitSpec string) (Commodity, error) {
	if name == "" {
		return Commodity{}, fmt.Errorf("%w: empty name", ErrUnknownCommodity)
	}
	u, err := units.Parse(unitSpec)
	if err != nil {
		return Commodity{}, fmt.Errorf("commodity %q: %w", name, err)
	}
	return Commodity{name: name, unit: u}, nil
}

// MustNew is like New but panics on error. Intended for registry tables.
func MustNew(name, unitSpec string) Commodity {
	c, err := New(name, unitSpec)
	if err != nil {
		panic(fmt.Sprintf("commodity: %v", err))
	}
	return c
}

// Name returns the commodity's name.
func (c Commodity) Name() string {
	return c.name
}

// Unit returns the commodity's canonical unit. Every flow of this
// commodity inside a compiled problem is expressed in this unit.
func (c Commodity) Unit() units.Unit {
	return c.unit
}

// String returns "name [unit]".
func (c Commodity) String() string {
	return fmt.Sprintf("%s [%s]", c.name, c.unit)
}

// Registry maps commodity names to their definitions. A registry is built
// once and immutable afterwards, so lookups are safe for concurrent use.
type Registry struct {
	commodities map[string]Commodity
}

// NewRegistry builds a registry from the given commodities. Duplicate
// names are rejected.
func NewRegistry(commodities ...Commodity) (*Registry, error) {
	m := make(map[string]Commodity, len(commodities))
	for _, c := range commodities {
		if _, exists := m[c.name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCommodity, c.name)
		}
		m[c.name] = c
	}
	return &Registry{commodities: m}, nil
}

// Default returns a registry with the built-in commodities: electricity
// and gas in MW, co2, hydrogen and methanol in t/h.
func Default() *Registry {
	r, err := NewRegistry(
		MustNew("electricity", "MW"),
		MustNew("gas", "MW"),
		MustNew("co2", "t/h"),
		MustNew("hydrogen", "t/h"),
		MustNew("methanol", "t/h"),
	)
	if err != nil {
		panic(fmt.Sprintf("commodity: default registry: %v", err))
	}
	return r
}

// Lookup returns the commodity registered under name.
func (r *Registry) Lookup(name string) (Commodity, bool) {
	c, ok := r.commodities[name]
	return c, ok
}

// Names returns all registered commodity names in sorted order.
func (r *Registry) Names() []string {
	names := maps.Keys(r.commodities)
	slices.Sort(names)
	return names
}

// Canonical expresses a quantity in the canonical unit of the named
// commodity. A flow of "5000 kW" of electricity becomes 5 (MW).
func (r *Registry) Canonical(q units.Quantity, name string) (float64, error) {
	c, ok := r.commodities[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCommodity, name)
	}
	v, err := q.Convert(c.unit)
	if err != nil {
		return 0, fmt.Errorf("commodity %q: %w", name, err)
	}
	return v, nil
}

// CostUnit returns the unit of a specific cost for the named commodity:
// currency per canonical unit, e.g. EUR/MW for electricity.
func (r *Registry) CostUnit(name string, currency units.Unit) (units.Unit, error) {
	c, ok := r.commodities[name]
	if !ok {
		return units.Unit{}, fmt.Errorf("%w: %q", ErrUnknownCommodity, name)
	}
	return currency.Div(c.unit), nil
}

// CanonicalCost expresses a cost quantity in currency per canonical unit
// of the named commodity.
func (r *Registry) CanonicalCost(q units.Quantity, name string, currency units.Unit) (float64, error) {
	target, err := r.CostUnit(name, currency)
	if err != nil {
		return 0, err
	}
	v, err := q.Convert(target)
	if err != nil {
		return 0, fmt.Errorf("cost for commodity %q: %w", name, err)
	}
	return v, nil
}
