package timegrid

import (
	"errors"
	"testing"
	"time"
)

var testStart = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// TestNew_Validation tests grid construction
func TestNew_Validation(t *testing.T) {
	g, err := New(testStart, time.Hour, 24)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if g.Len() != 24 {
		t.Errorf("Len() = %d, want 24", g.Len())
	}
	if g.Interval() != 1.0 {
		t.Errorf("Interval() = %g, want 1", g.Interval())
	}
	if !g.At(3).Equal(testStart.Add(3 * time.Hour)) {
		t.Errorf("At(3) = %v", g.At(3))
	}

	if _, err := New(testStart, 0, 24); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("zero step error = %v", err)
	}
	if _, err := New(testStart, time.Hour, 0); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("zero length error = %v", err)
	}
}

// TestInterval_SubHourly tests fractional interval lengths
func TestInterval_SubHourly(t *testing.T) {
	g, err := New(testStart, 15*time.Minute, 4)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if g.Interval() != 0.25 {
		t.Errorf("Interval() = %g, want 0.25", g.Interval())
	}
}

// TestFromTimes tests grid reconstruction from explicit stamps
func TestFromTimes(t *testing.T) {
	times := []time.Time{
		testStart,
		testStart.Add(2 * time.Hour),
		testStart.Add(4 * time.Hour),
	}
	g, err := FromTimes(times)
	if err != nil {
		t.Fatalf("FromTimes failed: %v", err)
	}
	if g.Step() != 2*time.Hour || g.Len() != 3 {
		t.Errorf("grid = %v", g)
	}

	// Irregular spacing is rejected
	bad := []time.Time{testStart, testStart.Add(time.Hour), testStart.Add(3 * time.Hour)}
	if _, err := FromTimes(bad); !errors.Is(err, ErrNotEquidistant) {
		t.Errorf("irregular spacing error = %v", err)
	}

	// Too short
	if _, err := FromTimes(times[:1]); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("single stamp error = %v", err)
	}

	// Decreasing
	if _, err := FromTimes([]time.Time{testStart.Add(time.Hour), testStart}); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("decreasing stamps error = %v", err)
	}
}

// TestEqual tests grid identity
func TestEqual(t *testing.T) {
	a, _ := New(testStart, time.Hour, 10)
	b, _ := New(testStart, time.Hour, 10)
	c, _ := New(testStart, time.Hour, 11)

	if !a.Equal(b) {
		t.Error("identical grids should be equal")
	}
	if a.Equal(c) {
		t.Error("grids of different length should differ")
	}
	if a.Equal(nil) {
		t.Error("grid should not equal nil")
	}
}

// TestSeries_Constructors tests series helpers
func TestSeries_Constructors(t *testing.T) {
	g, _ := New(testStart, time.Hour, 5)

	c := Const(g, 3.5)
	if c.Len() != 5 || c.At(0) != 3.5 || c.Sum() != 17.5 {
		t.Errorf("Const series = %v", c.Values())
	}

	s, err := FromValues(g, []float64{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("FromValues failed: %v", err)
	}
	if s.Min() != 1 || s.Max() != 5 || s.Sum() != 15 {
		t.Errorf("series stats = %g/%g/%g", s.Min(), s.Max(), s.Sum())
	}

	if _, err := FromValues(g, []float64{1, 2}); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("length mismatch error = %v", err)
	}
}

// TestSeries_Immutability tests that callers cannot mutate a series
func TestSeries_Immutability(t *testing.T) {
	g, _ := New(testStart, time.Hour, 3)
	src := []float64{1, 2, 3}
	s, _ := FromValues(g, src)

	src[0] = 99
	if s.At(0) != 1 {
		t.Error("series should copy its input")
	}

	out := s.Values()
	out[1] = 99
	if s.At(1) != 2 {
		t.Error("Values() should return a copy")
	}
}

// TestRandom_Deterministic tests seed reproducibility and range
func TestRandom_Deterministic(t *testing.T) {
	g, _ := New(testStart, time.Hour, 100)

	a := Random(g, 42)
	b := Random(g, 42)
	for i := 0; i < g.Len(); i++ {
		if a.At(i) != b.At(i) {
			t.Fatalf("same seed diverged at %d: %g vs %g", i, a.At(i), b.At(i))
		}
	}

	if !a.InRange(0, 1) {
		t.Error("random values should lie in [0, 1)")
	}

	c := Random(g, 7)
	same := true
	for i := 0; i < g.Len(); i++ {
		if a.At(i) != c.At(i) {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds should produce different series")
	}
}

// TestSeries_Scale tests scalar multiplication
func TestSeries_Scale(t *testing.T) {
	g, _ := New(testStart, time.Hour, 3)
	s, _ := FromValues(g, []float64{1, 2, 3})

	d := s.Scale(2)
	if d.At(0) != 2 || d.At(2) != 6 {
		t.Errorf("scaled = %v", d.Values())
	}
	if s.At(0) != 1 {
		t.Error("Scale should not mutate the receiver")
	}
}
