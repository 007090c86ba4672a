// Package master is the restricted master problem (RMP): a continuous LP
// over closure-indexed variables, one convexity equality row (sum lambda
// = 1) and one packing inequality per block that has appeared in some
// column (sum of lambda over columns containing that block <= 1).
//
// Construction follows a build-the-problem/hand-to-a-solver/extract-a-
// typed-result style, with gonum/mat as the linear-algebra substrate via
// internal/lp.
//
// AddColumn adds columns in place rather than rebuilding every constraint
// from scratch: it extends every existing packing row by exactly one
// coefficient and appends new rows only for blocks not seen before,
// rather than rescanning every column's block set. No constraint-version
// counter is needed as a result.
package master

import (
	"sort"

	"bzcg/internal/lp"
	"bzcg/pkg/apperror"
	"bzcg/pkg/domain"
)

// Master holds the RMP's current column set and per-block packing rows.
// Not safe for concurrent use; the controller owns one Master per run.
type Master struct {
	columns     []*domain.Closure
	blockCoeffs map[int64][]float64 // block -> per-column coefficient, kept in sync with columns
	blockOrder  []int64             // blocks with an active packing row, sorted ascending
}

// New returns an empty master with no columns and no packing rows.
func New() *Master {
	return &Master{blockCoeffs: make(map[int64][]float64)}
}

// NumColumns returns the number of closure-indexed variables currently
// in the RMP.
func (m *Master) NumColumns() int { return len(m.columns) }

// Columns returns the current column list in LP-variable order. The
// returned slice is a shallow copy; closures themselves are shared and
// must not be mutated by callers.
func (m *Master) Columns() []*domain.Closure {
	out := make([]*domain.Closure, len(m.columns))
	copy(out, m.columns)
	return out
}

// AddColumn admits one more closure-indexed variable lambda >= 0,
// contributing c.Profit*lambda to the objective, extending the
// convexity row's implicit all-ones coefficient, and extending or
// creating the packing row for every block c.Blocks touches.
func (m *Master) AddColumn(c *domain.Closure) {
	n := len(m.columns)
	m.columns = append(m.columns, c)

	inSet := make(map[int64]bool, len(c.Blocks))
	for _, b := range c.Blocks {
		inSet[b] = true
	}

	for _, b := range m.blockOrder {
		coeff := 0.0
		if inSet[b] {
			coeff = 1
		}
		m.blockCoeffs[b] = append(m.blockCoeffs[b], coeff)
	}

	newBlocks := false
	for _, b := range c.Blocks {
		if _, exists := m.blockCoeffs[b]; exists {
			continue
		}
		row := make([]float64, n+1)
		row[n] = 1
		m.blockCoeffs[b] = row
		m.blockOrder = append(m.blockOrder, b)
		newBlocks = true
	}
	if newBlocks {
		sort.Slice(m.blockOrder, func(i, j int) bool { return m.blockOrder[i] < m.blockOrder[j] })
	}
}

// Solution is the master's solve() output: the RMP objective, the
// per-block packing duals (pi, default 0 for a block with no packing
// row), the convexity dual (z), and each column's activity lambda keyed
// by closure id.
type Solution struct {
	Objective float64
	Pi        map[int64]float64
	Z         float64
	Lambda    map[int64]float64
}

// PiOf returns the packing dual for block b, defaulting to 0 when b has
// never appeared in any column.
func (s Solution) PiOf(b int64) float64 {
	if s.Pi == nil {
		return 0
	}
	return s.Pi[b]
}

// Solve invokes the LP solver over the current column set. With zero
// columns it returns zero objective, empty duals, and zero convexity
// dual without calling the solver. A non-optimal LP status (infeasible,
// unbounded, or a numerical failure) is reported as a SolverError.
func (m *Master) Solve() (Solution, error) {
	if len(m.columns) == 0 {
		return Solution{Pi: map[int64]float64{}, Lambda: map[int64]float64{}}, nil
	}

	p := m.buildProblem()
	sol, err := lp.Solve(p)
	if err != nil {
		return Solution{}, apperror.Wrap(err, apperror.CodeAlgorithmError, "rmp solve failed")
	}
	if sol.Status != lp.StatusOptimal {
		return Solution{}, solverError(sol.Status)
	}

	pi := make(map[int64]float64, len(m.blockOrder))
	for i, b := range m.blockOrder {
		pi[b] = sol.Dual[1+i] // row 0 is convexity, rows 1..len(blockOrder) are packing
	}
	lambda := make(map[int64]float64, len(m.columns))
	for j, c := range m.columns {
		lambda[c.ID] = sol.Primal[j]
	}

	return Solution{
		Objective: sol.Objective,
		Pi:        pi,
		Z:         sol.Dual[0],
		Lambda:    lambda,
	}, nil
}

// Prune solves the RMP to obtain column activities, ranks columns by
// (lambda descending, profit descending), and discards every column
// past the top keepTopK, rebuilding the packing rows from the survivors.
// Returns the ids of the removed columns in no particular order.
// keepTopK <= 0 or keepTopK >= the current column count is a no-op.
func (m *Master) Prune(keepTopK int) ([]int64, error) {
	if keepTopK <= 0 || keepTopK >= len(m.columns) {
		return nil, nil
	}

	sol, err := m.Solve()
	if err != nil {
		return nil, err
	}

	ranked := make([]*domain.Closure, len(m.columns))
	copy(ranked, m.columns)
	sort.SliceStable(ranked, func(i, j int) bool {
		li, lj := sol.Lambda[ranked[i].ID], sol.Lambda[ranked[j].ID]
		if li != lj {
			return li > lj
		}
		return ranked[i].Profit > ranked[j].Profit
	})

	keep := ranked[:keepTopK]
	removed := ranked[keepTopK:]
	removedIDs := make([]int64, len(removed))
	for i, c := range removed {
		removedIDs[i] = c.ID
	}

	keepSorted := make([]*domain.Closure, len(keep))
	copy(keepSorted, keep)
	sort.Slice(keepSorted, func(i, j int) bool {
		return indexOf(m.columns, keepSorted[i].ID) < indexOf(m.columns, keepSorted[j].ID)
	})

	rebuilt := New()
	for _, c := range keepSorted {
		rebuilt.AddColumn(c)
	}
	*m = *rebuilt

	return removedIDs, nil
}

func indexOf(columns []*domain.Closure, id int64) int {
	for i, c := range columns {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// buildProblem assembles the current RMP as a solver-agnostic lp.Problem:
// one equality row for convexity, one <= row per block with an active
// packing constraint.
func (m *Master) buildProblem() lp.Problem {
	n := len(m.columns)
	obj := make([]float64, n)
	for j, c := range m.columns {
		obj[j] = c.Profit
	}

	convexCoeffs := make([]float64, n)
	for j := range convexCoeffs {
		convexCoeffs[j] = 1
	}

	rows := make([]lp.Row, 0, 1+len(m.blockOrder))
	rows = append(rows, lp.Row{Kind: lp.Eq, RHS: 1, Coeffs: convexCoeffs})
	for _, b := range m.blockOrder {
		coeffs := make([]float64, n)
		copy(coeffs, m.blockCoeffs[b])
		rows = append(rows, lp.Row{Kind: lp.Leq, RHS: 1, Coeffs: coeffs})
	}

	return lp.Problem{NumVars: n, Obj: obj, Rows: rows}
}

func solverError(status lp.Status) error {
	return apperror.New(apperror.CodeAlgorithmError, "rmp solve returned non-optimal status: "+status.String()).
		WithDetails("lp_status", status.String())
}
