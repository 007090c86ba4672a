// Package lp is the LP back-end adapter: a solver-agnostic (A, b, c)
// contract with dense constraint rows and one concrete adapter, a dense
// two-phase primal simplex built on gonum.org/v1/gonum/mat as its
// linear-algebra substrate.
package lp

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Epsilon is the tableau's numerical tolerance: pivot elements and reduced
// costs compare against this rather than a bare zero. The phase-1
// feasibility check uses a looser 1e-6 on the artificial sum.
const Epsilon = 1e-9

// Kind is the relation of one constraint row.
type Kind int

const (
	// Eq is an equality constraint (the master's convexity row).
	Eq Kind = iota
	// Leq is a <= constraint (the master's per-block packing rows).
	Leq
)

// Row is one constraint: Coeffs[j] is the coefficient of structural
// variable j, RHS must be non-negative (every constraint the master
// builds has RHS 1).
type Row struct {
	Kind   Kind
	RHS    float64
	Coeffs []float64
}

// Problem is the solver-agnostic LP contract: a dense objective and a
// list of constraint rows over NumVars structural variables, x >= 0,
// maximising Obj.
type Problem struct {
	NumVars int
	Obj     []float64
	Rows    []Row
}

// Status is the outcome of a Solve call.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
	StatusNumericalError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "numerical_error"
	}
}

// Solution is the LP result: the optimal objective, the structural
// primal values, and one dual per constraint row in Problem.Rows order.
type Solution struct {
	Status    Status
	Objective float64
	Primal    []float64
	Dual      []float64
}

// tableau is the two-phase primal simplex's working state: an (m+1) x
// (totalCols+1) dense matrix backed by gonum/mat, where row m is the
// current reduced-cost row and the last column is the RHS/objective
// value column. unitCol[i] is the column index of the slack or
// artificial variable originally inserted as row i's unit column; its
// final reduced cost yields row i's dual (see Solve's doc comment).
type tableau struct {
	m, structural, totalCols int
	t                        *mat.Dense
	basis                    []int
	unitCol                  []int
	isArtificial             []bool
	unbounded                bool
}

// Solve runs phase 1 (drive artificial variables for equality rows to
// zero) then phase 2 (maximise Problem.Obj) via a dense two-phase primal
// simplex, using Bland's smallest-index rule throughout for guaranteed
// termination and deterministic tie-breaking.
func Solve(p Problem) (Solution, error) {
	if p.NumVars == 0 {
		return Solution{Status: StatusOptimal, Objective: 0, Primal: nil, Dual: make([]float64, len(p.Rows))}, nil
	}
	for _, r := range p.Rows {
		if r.RHS < 0 {
			return Solution{}, fmt.Errorf("lp: row RHS must be non-negative, got %v", r.RHS)
		}
		if len(r.Coeffs) != p.NumVars {
			return Solution{}, fmt.Errorf("lp: row has %d coefficients, want %d", len(r.Coeffs), p.NumVars)
		}
	}

	tb := newTableau(p)

	if !tb.solvePhase(tb.phase1Cost(), true) {
		return Solution{}, fmt.Errorf("lp: phase 1 exceeded iteration limit")
	}
	sumArtificial := tb.t.At(tb.m, tb.totalCols)
	if sumArtificial > 1e-6 {
		return Solution{Status: StatusInfeasible}, nil
	}

	if !tb.solvePhase(tb.phase2Cost(p.Obj), false) {
		return Solution{}, fmt.Errorf("lp: phase 2 exceeded iteration limit")
	}
	if tb.unbounded {
		return Solution{Status: StatusUnbounded}, nil
	}

	primal := make([]float64, p.NumVars)
	for i, col := range tb.basis {
		if col < p.NumVars {
			primal[col] = tb.t.At(i, tb.totalCols)
		}
	}

	dual := make([]float64, len(p.Rows))
	for i := range p.Rows {
		dual[i] = -tb.t.At(tb.m, tb.unitCol[i])
	}

	objective := -tb.t.At(tb.m, tb.totalCols)

	return Solution{
		Status:    StatusOptimal,
		Objective: objective,
		Primal:    primal,
		Dual:      dual,
	}, nil
}

func newTableau(p Problem) *tableau {
	m := len(p.Rows)
	totalCols := p.NumVars + m // one slack-or-artificial column per row

	tb := &tableau{
		m:            m,
		structural:   p.NumVars,
		totalCols:    totalCols,
		t:            mat.NewDense(m+1, totalCols+1, nil),
		basis:        make([]int, m),
		unitCol:      make([]int, m),
		isArtificial: make([]bool, totalCols),
	}

	for i, row := range p.Rows {
		for j, c := range row.Coeffs {
			tb.t.Set(i, j, c)
		}
		unit := p.NumVars + i
		tb.t.Set(i, unit, 1)
		tb.t.Set(i, totalCols, row.RHS)
		tb.basis[i] = unit
		tb.unitCol[i] = unit
		if row.Kind == Eq {
			tb.isArtificial[unit] = true
		}
	}

	return tb
}

// phase1Cost assigns -1 to every artificial column (maximising minus the
// artificial sum drives them to zero) and 0 elsewhere.
func (tb *tableau) phase1Cost() []float64 {
	c := make([]float64, tb.totalCols)
	for j, art := range tb.isArtificial {
		if art {
			c[j] = -1
		}
	}
	return c
}

// phase2Cost is the real objective on structural variables, zero on
// every slack/artificial column.
func (tb *tableau) phase2Cost(obj []float64) []float64 {
	c := make([]float64, tb.totalCols)
	copy(c, obj)
	return c
}

func (tb *tableau) solvePhase(cost []float64, isPhase1 bool) bool {
	tb.resetObjectiveRow(cost)

	maxIters := 200 * (tb.m + tb.structural + 10)
	for iter := 0; iter < maxIters; iter++ {
		enter := tb.chooseEntering(isPhase1)
		if enter < 0 {
			return true // optimal
		}

		leave := tb.chooseLeaving(enter)
		if leave < 0 {
			tb.unbounded = true
			return true
		}

		tb.pivot(leave, enter)
	}
	return false
}

// resetObjectiveRow recomputes row m (the reduced-cost row) from scratch
// for the given cost vector: row_m = c - sum_i cost[basis[i]] * row_i,
// the standard elimination that makes every basic column's reduced cost
// zero.
func (tb *tableau) resetObjectiveRow(cost []float64) {
	row := tb.t.RawRowView(tb.m)
	copy(row[:tb.totalCols], cost)
	row[tb.totalCols] = 0

	for i := 0; i < tb.m; i++ {
		cb := cost[tb.basis[i]]
		if cb == 0 {
			continue
		}
		basisRow := tb.t.RawRowView(i)
		for j := 0; j <= tb.totalCols; j++ {
			row[j] -= cb * basisRow[j]
		}
	}
}

// chooseEntering applies Bland's rule: the smallest-index column whose
// reduced cost is strictly improving. Artificial columns are never
// eligible once phase 1 has ended.
func (tb *tableau) chooseEntering(allowArtificial bool) int {
	row := tb.t.RawRowView(tb.m)
	for j := 0; j < tb.totalCols; j++ {
		if !allowArtificial && tb.isArtificial[j] {
			continue
		}
		if row[j] > Epsilon {
			return j
		}
	}
	return -1
}

// chooseLeaving runs the minimum-ratio test over rows with positive
// pivot-column entries, breaking ties on the smallest basis variable
// index (Bland's rule, guarantees termination).
func (tb *tableau) chooseLeaving(enter int) int {
	best := -1
	var bestRatio float64
	for i := 0; i < tb.m; i++ {
		a := tb.t.At(i, enter)
		if a <= Epsilon {
			continue
		}
		ratio := tb.t.At(i, tb.totalCols) / a
		if best < 0 || ratio < bestRatio-Epsilon ||
			(ratio < bestRatio+Epsilon && tb.basis[i] < tb.basis[best]) {
			best = i
			bestRatio = ratio
		}
	}
	return best
}

func (tb *tableau) pivot(row, col int) {
	pivotVal := tb.t.At(row, col)
	pivotRow := tb.t.RawRowView(row)
	for j := range pivotRow {
		pivotRow[j] /= pivotVal
	}

	for i := 0; i <= tb.m; i++ {
		if i == row {
			continue
		}
		factor := tb.t.At(i, col)
		if factor == 0 {
			continue
		}
		r := tb.t.RawRowView(i)
		for j := range r {
			r[j] -= factor * pivotRow[j]
		}
	}

	tb.basis[row] = col
}
