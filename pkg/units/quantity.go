package units

import (
	"fmt"
	"strconv"
	"strings"
)

// Quantity is a value paired with its unit.
type Quantity struct {
	Value float64
	Unit  Unit
}

// New creates a quantity from a value and an already-parsed unit.
func New(v float64, u Unit) Quantity {
	return Quantity{Value: v, Unit: u}
}

// Q creates a quantity from a value and a unit expression.
func Q(v float64, spec string) (Quantity, error) {
	u, err := Parse(spec)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Value: v, Unit: u}, nil
}

// MustQ is like Q but panics on a bad unit expression.
func MustQ(v float64, spec string) Quantity {
	u := MustParse(spec)
	return Quantity{Value: v, Unit: u}
}

// ParseQuantity parses "<number> <unit>" strings such as "5 EUR/MW".
func ParseQuantity(s string) (Quantity, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return Quantity{}, fmt.Errorf("%w: want \"<value> <unit>\", got %q", ErrUnknownUnit, s)
	}

	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Quantity{}, fmt.Errorf("invalid quantity value %q: %w", fields[0], err)
	}

	u, err := Parse(fields[1])
	if err != nil {
		return Quantity{}, err
	}

	return Quantity{Value: v, Unit: u}, nil
}

// Convert expresses the quantity's value in the target unit.
func (q Quantity) Convert(target Unit) (float64, error) {
	return Convert(q.Value, q.Unit, target)
}

// In expresses the quantity's value in the unit named by spec.
func (q Quantity) In(spec string) (float64, error) {
	u, err := Parse(spec)
	if err != nil {
		return 0, err
	}
	return q.Convert(u)
}

// String returns "<value> <unit>".
func (q Quantity) String() string {
	return fmt.Sprintf("%g %s", q.Value, q.Unit)
}
