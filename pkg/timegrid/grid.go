// Package timegrid provides the shared time index of a conversion network
// and the series aligned to it. All nodes of a network reference the same
// grid; the grid's interval length scales time-coupled constraints.
package timegrid

import (
	"errors"
	"fmt"
	"time"
)

// Common sentinel errors
var (
	ErrInvalidGrid    = errors.New("invalid time grid")
	ErrNotEquidistant = errors.New("time stamps not equidistant")
	ErrLengthMismatch = errors.New("series length does not match grid")
)

// Grid is an ordered, equidistant sequence of time stamps.
type Grid struct {
	start time.Time
	step  time.Duration
	n     int
}

// New creates a grid of n stamps starting at start, spaced by step.
func New(start time.Time, step time.Duration, n int) (*Grid, error) {
	if step <= 0 {
		return nil, fmt.Errorf("%w: step must be positive, got %v", ErrInvalidGrid, step)
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: need at least one time stamp, got %d", ErrInvalidGrid, n)
	}
	return &Grid{start: start, step: step, n: n}, nil
}

// FromTimes creates a grid from explicit stamps. The stamps must be
// strictly increasing and equidistant; at least two are required so the
// spacing is defined.
func FromTimes(times []time.Time) (*Grid, error) {
	if len(times) < 2 {
		return nil, fmt.Errorf("%w: need at least two time stamps, got %d", ErrInvalidGrid, len(times))
	}

	step := times[1].Sub(times[0])
	if step <= 0 {
		return nil, fmt.Errorf("%w: stamps must be strictly increasing", ErrInvalidGrid)
	}
	for i := 2; i < len(times); i++ {
		if times[i].Sub(times[i-1]) != step {
			return nil, fmt.Errorf("%w: gap %v at index %d, expected %v",
				ErrNotEquidistant, times[i].Sub(times[i-1]), i, step)
		}
	}

	return &Grid{start: times[0], step: step, n: len(times)}, nil
}

// Hourly creates a grid of n hourly stamps starting at start. This is the
// common case for energy system models.
func Hourly(start time.Time, n int) (*Grid, error) {
	return New(start, time.Hour, n)
}

// Len returns the number of time stamps.
func (g *Grid) Len() int {
	return g.n
}

// Step returns the spacing between stamps.
func (g *Grid) Step() time.Duration {
	return g.step
}

// Interval returns the spacing between stamps in hours. Flow variables are
// rates per hour, so time-coupled constraints scale by this factor.
func (g *Grid) Interval() float64 {
	return g.step.Hours()
}

// At returns the i-th time stamp.
func (g *Grid) At(i int) time.Time {
	return g.start.Add(time.Duration(i) * g.step)
}

// Times returns all time stamps.
func (g *Grid) Times() []time.Time {
	times := make([]time.Time, g.n)
	for i := range times {
		times[i] = g.At(i)
	}
	return times
}

// Equal reports whether two grids describe the same time index.
func (g *Grid) Equal(o *Grid) bool {
	if g == nil || o == nil {
		return g == o
	}
	return g.start.Equal(o.start) && g.step == o.step && g.n == o.n
}

// String returns a compact description of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("grid[%s +%v x%d]", g.start.Format(time.RFC3339), g.step, g.n)
}
