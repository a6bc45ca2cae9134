// Package units provides linear unit parsing and conversion for the
// quantities that cross the compiler boundary (costs, flows, capacities).
// Inside the compiler everything is a plain float64 in a commodity's
// canonical unit; this package exists so user-facing constructors can
// accept "5 EUR/kW" and hand the core a canonical number.
package units

import (
	"errors"
	"fmt"
	"strings"
)

// Common sentinel errors
var (
	ErrUnknownUnit  = errors.New("unknown unit")
	ErrUnitMismatch = errors.New("unit mismatch")
)

// dims is the exponent vector over the base dimensions.
// Index order: power, mass, time, currency.
type dims [4]int8

const (
	dimPower = iota
	dimMass
	dimTime
	dimCurrency
)

// Unit is a linear unit: a scale factor over a dimension vector.
// Units are obtained from Parse or MustParse; the zero value is not valid.
type Unit struct {
	name  string
	scale float64
	dims  dims
}

// atoms maps unit spellings to their definitions. Scales are relative to
// the base unit of each dimension: MW, t, h, EUR (and MWh for energy).
var atoms = map[string]Unit{
	"1": {name: "1", scale: 1},

	"W":  {name: "W", scale: 1e-6, dims: dims{dimPower: 1}},
	"kW": {name: "kW", scale: 1e-3, dims: dims{dimPower: 1}},
	"MW": {name: "MW", scale: 1, dims: dims{dimPower: 1}},
	"GW": {name: "GW", scale: 1e3, dims: dims{dimPower: 1}},

	"Wh":  {name: "Wh", scale: 1e-6, dims: dims{dimPower: 1, dimTime: 1}},
	"kWh": {name: "kWh", scale: 1e-3, dims: dims{dimPower: 1, dimTime: 1}},
	"MWh": {name: "MWh", scale: 1, dims: dims{dimPower: 1, dimTime: 1}},
	"GWh": {name: "GWh", scale: 1e3, dims: dims{dimPower: 1, dimTime: 1}},

	"g":  {name: "g", scale: 1e-6, dims: dims{dimMass: 1}},
	"kg": {name: "kg", scale: 1e-3, dims: dims{dimMass: 1}},
	"t":  {name: "t", scale: 1, dims: dims{dimMass: 1}},

	"s":   {name: "s", scale: 1.0 / 3600.0, dims: dims{dimTime: 1}},
	"min": {name: "min", scale: 1.0 / 60.0, dims: dims{dimTime: 1}},
	"h":   {name: "h", scale: 1, dims: dims{dimTime: 1}},

	"EUR": {name: "EUR", scale: 1, dims: dims{dimCurrency: 1}},
}

// Parse parses a unit expression. Supported forms are single atoms ("MW",
// "t", "EUR"), energy composites ("MWh"), and left-associative division
// with optional parentheses: "t/h", "EUR/MW", "EUR/(t/h)".
func Parse(s string) (Unit, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Unit{}, fmt.Errorf("%w: empty unit expression", ErrUnknownUnit)
	}

	u, rest, err := parseExpr(trimmed)
	if err != nil {
		return Unit{}, err
	}
	if rest != "" {
		return Unit{}, fmt.Errorf("%w: unexpected %q in %q", ErrUnknownUnit, rest, s)
	}

	// Keep the user's spelling for display
	u.name = trimmed
	return u, nil
}

// MustParse is like Parse but panics on error. Intended for package-level
// unit tables and tests.
func MustParse(s string) Unit {
	u, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("units: %v", err))
	}
	return u
}

// parseExpr parses term ("/" term)* and returns the unparsed remainder.
func parseExpr(s string) (Unit, string, error) {
	u, rest, err := parseTerm(s)
	if err != nil {
		return Unit{}, "", err
	}

	for strings.HasPrefix(rest, "/") {
		var d Unit
		d, rest, err = parseTerm(rest[1:])
		if err != nil {
			return Unit{}, "", err
		}
		u = divide(u, d)
	}

	return u, rest, nil
}

// parseTerm parses an atom or a parenthesized expression.
func parseTerm(s string) (Unit, string, error) {
	if strings.HasPrefix(s, "(") {
		u, rest, err := parseExpr(s[1:])
		if err != nil {
			return Unit{}, "", err
		}
		if !strings.HasPrefix(rest, ")") {
			return Unit{}, "", fmt.Errorf("%w: missing closing parenthesis", ErrUnknownUnit)
		}
		return u, rest[1:], nil
	}

	i := 0
	for i < len(s) && s[i] != '/' && s[i] != '(' && s[i] != ')' {
		i++
	}
	atom := strings.TrimSpace(s[:i])
	u, ok := atoms[atom]
	if !ok {
		return Unit{}, "", fmt.Errorf("%w: %q", ErrUnknownUnit, atom)
	}
	return u, s[i:], nil
}

// divide builds the quotient unit of a and b.
func divide(a, b Unit) Unit {
	var d dims
	for i := range d {
		d[i] = a.dims[i] - b.dims[i]
	}

	denom := b.name
	if strings.Contains(denom, "/") {
		denom = "(" + denom + ")"
	}

	return Unit{
		name:  a.name + "/" + denom,
		scale: a.scale / b.scale,
		dims:  d,
	}
}

// Div returns the quotient unit a/b. Used to construct cost units such as
// EUR per canonical commodity unit.
func (u Unit) Div(o Unit) Unit {
	return divide(u, o)
}

// String returns the unit's spelling.
func (u Unit) String() string {
	return u.name
}

// Dimensionless reports whether the unit carries no dimension.
func (u Unit) Dimensionless() bool {
	return u.dims == dims{}
}

// Compatible reports whether two units share a dimension vector and can
// therefore be converted into each other.
func (u Unit) Compatible(o Unit) bool {
	return u.dims == o.dims
}

// MismatchError reports a conversion between incompatible units.
type MismatchError struct {
	From Unit
	To   Unit
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("cannot convert %s to %s: %v", e.From, e.To, ErrUnitMismatch)
}

// Is reports whether the target matches the mismatch sentinel.
func (e *MismatchError) Is(target error) bool {
	return target == ErrUnitMismatch
}

// Convert expresses the value v, given in unit from, in unit to.
func Convert(v float64, from, to Unit) (float64, error) {
	if !from.Compatible(to) {
		return 0, &MismatchError{From: from, To: to}
	}
	return v * from.scale / to.scale, nil
}
