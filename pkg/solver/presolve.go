package solver

import (
	"math"

	"github.com/inwe-boku/fluxopt/pkg/lp"
)

// presolved is the reduced equality system handed to the simplex method:
// full row rank, no zero columns, right-hand sides non-negative.
type presolved struct {
	rank int
	rows [][]float64 // rank x len(keptCols)
	rhs  []float64
	cost []float64

	keptCols  []int // reduced column -> standard-form column
	ncolsOrig int
}

// presolve reduces the system. The returned status is StatusOptimal when
// solving should proceed, or a final verdict when presolve already
// decided the problem (inconsistent rows, unbounded zero columns).
func (sf *standardForm) presolve() (*presolved, lp.Status) {
	m := len(sf.rows)
	n := sf.ncols

	// Work on copies; the standard form is still needed for recombining.
	rows := make([][]float64, m)
	for i := range rows {
		rows[i] = make([]float64, n)
		copy(rows[i], sf.rows[i])
	}
	rhs := make([]float64, m)
	copy(rhs, sf.rhs)

	// Forward elimination with partial pivoting. Rows left over at the
	// bottom are linear combinations of the kept ones: consistent rows
	// are dropped, inconsistent ones prove infeasibility.
	rank := 0
	for col := 0; col < n && rank < m; col++ {
		pivot := rank
		pivotAbs := math.Abs(rows[rank][col])
		for i := rank + 1; i < m; i++ {
			if a := math.Abs(rows[i][col]); a > pivotAbs {
				pivot = i
				pivotAbs = a
			}
		}
		if pivotAbs <= pivotTol {
			continue
		}

		rows[rank], rows[pivot] = rows[pivot], rows[rank]
		rhs[rank], rhs[pivot] = rhs[pivot], rhs[rank]

		for i := rank + 1; i < m; i++ {
			f := rows[i][col] / rows[rank][col]
			if f == 0 {
				continue
			}
			for j := col; j < n; j++ {
				rows[i][j] -= f * rows[rank][j]
			}
			rows[i][col] = 0
			rhs[i] -= f * rhs[rank]
		}
		rank++
	}

	for i := rank; i < m; i++ {
		if math.Abs(rhs[i]) > residTol {
			return nil, lp.StatusInfeasible
		}
	}

	// Columns untouched by any kept row are structurally unconstrained:
	// a negative cost makes the problem unbounded, otherwise the variable
	// is fixed at zero and dropped.
	keptCols := make([]int, 0, n)
	for j := 0; j < n; j++ {
		used := false
		for i := 0; i < rank; i++ {
			if math.Abs(rows[i][j]) > pivotTol {
				used = true
				break
			}
		}
		if used {
			keptCols = append(keptCols, j)
			continue
		}
		if sf.cost[j] < -feasTol {
			return nil, lp.StatusUnbounded
		}
	}

	reduced := make([][]float64, rank)
	reducedRhs := make([]float64, rank)
	for i := 0; i < rank; i++ {
		row := make([]float64, len(keptCols))
		for jj, j := range keptCols {
			row[jj] = rows[i][j]
		}
		b := rhs[i]
		if b < 0 {
			for jj := range row {
				row[jj] = -row[jj]
			}
			b = -b
		}
		reduced[i] = row
		reducedRhs[i] = b
	}

	cost := make([]float64, len(keptCols))
	for jj, j := range keptCols {
		cost[jj] = sf.cost[j]
	}

	return &presolved{
		rank:      rank,
		rows:      reduced,
		rhs:       reducedRhs,
		cost:      cost,
		keptCols:  keptCols,
		ncolsOrig: n,
	}, lp.StatusOptimal
}

// numCols returns the number of columns in the reduced system.
func (p *presolved) numCols() int {
	return len(p.keptCols)
}

// flat returns the reduced matrix in row-major order.
func (p *presolved) flat() []float64 {
	n := p.numCols()
	data := make([]float64, p.rank*n)
	for i, row := range p.rows {
		copy(data[i*n:(i+1)*n], row)
	}
	return data
}

// expand maps reduced-column values back to standard-form columns, with
// dropped columns fixed at zero.
func (p *presolved) expand(x []float64) []float64 {
	full := make([]float64, p.ncolsOrig)
	for jj, j := range p.keptCols {
		full[j] = x[jj]
	}
	return full
}

// fixedOnly returns standard-form column values when presolve fixed every
// column.
func (p *presolved) fixedOnly() []float64 {
	return make([]float64, p.ncolsOrig)
}

// backSolve solves the square full-rank reduced system directly. When
// rank equals the column count every column is a pivot column, so the
// eliminated matrix is upper triangular and the system has exactly one
// candidate point; it is feasible iff all values are non-negative.
func (p *presolved) backSolve() ([]float64, bool) {
	n := p.numCols()
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		v := p.rhs[i]
		for j := i + 1; j < n; j++ {
			v -= p.rows[i][j] * x[j]
		}
		x[i] = v / p.rows[i][i]
	}

	for j := range x {
		if x[j] < -feasTol {
			return nil, false
		}
		if x[j] < 0 {
			x[j] = 0
		}
	}

	return p.expand(x), true
}
