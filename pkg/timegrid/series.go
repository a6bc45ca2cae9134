package timegrid

import (
	"fmt"
	"math/rand"
)

// Series is a sequence of float64 values aligned to a grid, one value per
// time stamp. Series are value types; the backing slice is never shared
// with the caller.
type Series struct {
	grid   *Grid
	values []float64
}

// Const creates a series holding the same value at every stamp.
func Const(g *Grid, v float64) Series {
	values := make([]float64, g.Len())
	for i := range values {
		values[i] = v
	}
	return Series{grid: g, values: values}
}

// Random creates a series of pseudo-random values in [0, 1), reproducible
// for a given seed. Useful for capacity-factor fixtures in tests and demos.
func Random(g *Grid, seed int64) Series {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, g.Len())
	for i := range values {
		values[i] = rng.Float64()
	}
	return Series{grid: g, values: values}
}

// FromValues creates a series from explicit values. The length must match
// the grid.
func FromValues(g *Grid, values []float64) (Series, error) {
	if len(values) != g.Len() {
		return Series{}, fmt.Errorf("%w: %d values for %d stamps", ErrLengthMismatch, len(values), g.Len())
	}
	copied := make([]float64, len(values))
	copy(copied, values)
	return Series{grid: g, values: copied}, nil
}

// Grid returns the grid the series is aligned to.
func (s Series) Grid() *Grid {
	return s.grid
}

// Len returns the number of values.
func (s Series) Len() int {
	return len(s.values)
}

// At returns the value at stamp i.
func (s Series) At(i int) float64 {
	return s.values[i]
}

// Values returns a copy of the values.
func (s Series) Values() []float64 {
	copied := make([]float64, len(s.values))
	copy(copied, s.values)
	return copied
}

// Sum returns the sum of all values.
func (s Series) Sum() float64 {
	total := 0.0
	for _, v := range s.values {
		total += v
	}
	return total
}

// Min returns the smallest value. Panics on an empty series.
func (s Series) Min() float64 {
	min := s.values[0]
	for _, v := range s.values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the largest value. Panics on an empty series.
func (s Series) Max() float64 {
	max := s.values[0]
	for _, v := range s.values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// InRange reports whether every value lies in [lo, hi].
func (s Series) InRange(lo, hi float64) bool {
	for _, v := range s.values {
		if v < lo || v > hi {
			return false
		}
	}
	return true
}

// Scale returns a new series with every value multiplied by f.
func (s Series) Scale(f float64) Series {
	values := make([]float64, len(s.values))
	for i, v := range s.values {
		values[i] = v * f
	}
	return Series{grid: s.grid, values: values}
}
