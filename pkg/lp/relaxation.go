package lp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	gonumlp "gonum.org/v1/gonum/optimize/convex/lp"
)

type variable struct {
	lo, hi  float64
	integer bool
	name    string
}

type row struct {
	lo, hi float64
	coefs  map[int]float64
	name   string
}

// model is the immutable problem shared by all workers during a solve.
type model struct {
	vars []variable
	rows []row
	obj  []float64 // minimization coefficients
}

type relaxStatus int

const (
	relaxOptimal relaxStatus = iota
	relaxInfeasible
	relaxUnbounded
	relaxFailed
)

type relaxation struct {
	status relaxStatus
	obj    float64
	x      []float64
	err    error
}

// solveRelaxation solves the LP relaxation of the model with node bounds.
// The problem is put in the standard form expected by gonum's simplex
// (min c'y, Ay = b, y >= 0) by shifting every variable to its lower bound,
// dropping fixed variables and giving every row its own slack or surplus
// column, which keeps A at full row rank.
func (m *model) solveRelaxation(lo, hi []float64, tol float64) (res relaxation) {
	n := len(m.vars)
	for j := 0; j < n; j++ {
		if math.IsInf(lo[j], -1) || math.IsNaN(lo[j]) {
			return relaxation{status: relaxFailed, err: fmt.Errorf("%w: variable %d has no finite lower bound", ErrInvalidBounds, j)}
		}
		if hi[j] < lo[j]-tol {
			return relaxation{status: relaxInfeasible}
		}
	}

	// active columns
	touched := make([]bool, n)
	for _, r := range m.rows {
		if math.IsInf(r.lo, -1) && math.IsInf(r.hi, 1) {
			continue
		}
		for j, a := range r.coefs {
			if a != 0 {
				touched[j] = true
			}
		}
	}
	colOf := make([]int, n)
	var cols []int
	for j := 0; j < n; j++ {
		colOf[j] = -1
		if hi[j]-lo[j] <= tol {
			continue
		}
		if !touched[j] && math.IsInf(hi[j], 1) {
			if m.obj[j] < 0 {
				return relaxation{status: relaxUnbounded}
			}
			continue
		}
		colOf[j] = len(cols)
		cols = append(cols, j)
	}

	type stdRow struct {
		coefs map[int]float64 // column -> coefficient
		slack float64         // +1 slack, -1 surplus
		rhs   float64
	}
	var std []stdRow
	for _, r := range m.rows {
		if math.IsInf(r.lo, -1) && math.IsInf(r.hi, 1) {
			continue
		}
		shift := 0.0
		active := make(map[int]float64)
		for j, a := range r.coefs {
			if a == 0 {
				continue
			}
			shift += a * lo[j]
			if c := colOf[j]; c >= 0 {
				active[c] = a
			}
		}
		rlo, rhi := r.lo-shift, r.hi-shift
		if !math.IsInf(rlo, -1) && !math.IsInf(rhi, 1) && rlo > rhi+tol {
			return relaxation{status: relaxInfeasible}
		}
		if len(active) == 0 {
			if rlo > tol || rhi < -tol {
				return relaxation{status: relaxInfeasible}
			}
			continue
		}
		if !math.IsInf(rlo, -1) {
			std = append(std, stdRow{coefs: active, slack: -1, rhs: rlo})
		}
		if !math.IsInf(rhi, 1) {
			std = append(std, stdRow{coefs: active, slack: 1, rhs: rhi})
		}
	}
	for c, j := range cols {
		if !math.IsInf(hi[j], 1) {
			std = append(std, stdRow{coefs: map[int]float64{c: 1}, slack: 1, rhs: hi[j] - lo[j]})
		}
	}

	x := make([]float64, n)
	copy(x, lo)
	for j := range x {
		if hi[j]-lo[j] <= tol {
			// fixed at the (integral) bound
			x[j] = lo[j]
		}
	}

	rows, ncols := len(std), len(cols)
	if rows == 0 {
		// every active column is free of rows and bounded below only
		for _, j := range cols {
			if m.obj[j] < 0 {
				return relaxation{status: relaxUnbounded}
			}
		}
		return relaxation{status: relaxOptimal, obj: floats.Dot(m.obj, x), x: x}
	}

	width := ncols + rows
	A := mat.NewDense(rows, width, nil)
	b := make([]float64, rows)
	c := make([]float64, width)
	for i, r := range std {
		for col, a := range r.coefs {
			A.Set(i, col, a)
		}
		A.Set(i, ncols+i, r.slack)
		b[i] = r.rhs
	}
	for col, j := range cols {
		c[col] = m.obj[j]
	}

	defer func() {
		if p := recover(); p != nil {
			res = relaxation{status: relaxFailed, err: fmt.Errorf("%w: %v", ErrNumericFailure, p)}
		}
	}()
	_, y, err := gonumlp.Simplex(c, A, b, tol, nil)
	switch {
	case err == nil:
	case errors.Is(err, gonumlp.ErrInfeasible):
		return relaxation{status: relaxInfeasible}
	case errors.Is(err, gonumlp.ErrUnbounded):
		return relaxation{status: relaxUnbounded}
	default:
		return relaxation{status: relaxFailed, err: fmt.Errorf("%w: %v", ErrNumericFailure, err)}
	}
	for col, j := range cols {
		x[j] = lo[j] + math.Max(0, y[col])
		if x[j] > hi[j] {
			x[j] = hi[j]
		}
	}
	return relaxation{status: relaxOptimal, obj: floats.Dot(m.obj, x), x: x}
}

// feasible checks a point against all rows and bounds within tol.
func (m *model) feasible(x []float64, tol float64) bool {
	for j, v := range m.vars {
		if x[j] < v.lo-tol || x[j] > v.hi+tol {
			return false
		}
	}
	for _, r := range m.rows {
		var s float64
		for j, a := range r.coefs {
			s += a * x[j]
		}
		scale := tol * (1 + math.Abs(s))
		if s < r.lo-scale || s > r.hi+scale {
			return false
		}
	}
	return true
}
