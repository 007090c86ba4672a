package lp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolve_SingleLeqConstraint(t *testing.T) {
	// maximize 10x s.t. x <= 1, x >= 0
	p := Problem{
		NumVars: 1,
		Obj:     []float64{10},
		Rows: []Row{
			{Kind: Leq, RHS: 1, Coeffs: []float64{1}},
		},
	}

	sol, err := Solve(p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 10.0, sol.Objective, 1e-6)
	assert.InDelta(t, 1.0, sol.Primal[0], 1e-6)
	assert.InDelta(t, 10.0, sol.Dual[0], 1e-6)
}

func TestSolve_SingleEqConstraint(t *testing.T) {
	// maximize x s.t. x = 1
	p := Problem{
		NumVars: 1,
		Obj:     []float64{1},
		Rows: []Row{
			{Kind: Eq, RHS: 1, Coeffs: []float64{1}},
		},
	}

	sol, err := Solve(p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 1.0, sol.Objective, 1e-6)
	assert.InDelta(t, 1.0, sol.Dual[0], 1e-6)
}

// TestSolve_ConvexityAndPacking mirrors the master's RMP shape directly:
// one convexity equality row (sum lambda = 1) plus per-block packing
// rows (sum lambda over columns containing that block <= 1).
func TestSolve_ConvexityAndPacking(t *testing.T) {
	// Two single-block patterns, A = {block 0} profit 5, B = {block 1}
	// profit 3. Convexity: lambdaA + lambdaB = 1. Packing block0:
	// lambdaA <= 1. Packing block1: lambdaB <= 1. LP should pick
	// lambdaA = 1 entirely (higher profit column), giving objective 5.
	p := Problem{
		NumVars: 2,
		Obj:     []float64{5, 3},
		Rows: []Row{
			{Kind: Eq, RHS: 1, Coeffs: []float64{1, 1}},
			{Kind: Leq, RHS: 1, Coeffs: []float64{1, 0}},
			{Kind: Leq, RHS: 1, Coeffs: []float64{0, 1}},
		},
	}

	sol, err := Solve(p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 5.0, sol.Objective, 1e-6)
	assert.InDelta(t, 1.0, sol.Primal[0], 1e-6)
	assert.InDelta(t, 0.0, sol.Primal[1], 1e-6)
}

func TestSolve_TwoPatternsSharedBlock(t *testing.T) {
	// Pattern A = {block0, block1} profit 10, pattern B = {block1} profit 4.
	// Packing block1 <= 1 is shared by both columns; convexity forces a
	// single selection (no fractional blending needed since A alone
	// satisfies both packing rows and dominates on profit).
	p := Problem{
		NumVars: 2,
		Obj:     []float64{10, 4},
		Rows: []Row{
			{Kind: Eq, RHS: 1, Coeffs: []float64{1, 1}},
			{Kind: Leq, RHS: 1, Coeffs: []float64{1, 0}}, // block0 in A only
			{Kind: Leq, RHS: 1, Coeffs: []float64{1, 1}}, // block1 in both
		},
	}

	sol, err := Solve(p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 10.0, sol.Objective, 1e-6)
}

func TestSolve_NoVariables(t *testing.T) {
	sol, err := Solve(Problem{NumVars: 0, Rows: nil})
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.Zero(t, sol.Objective)
}

func TestSolve_NegativeRHSRejected(t *testing.T) {
	p := Problem{
		NumVars: 1,
		Obj:     []float64{1},
		Rows:    []Row{{Kind: Leq, RHS: -1, Coeffs: []float64{1}}},
	}
	_, err := Solve(p)
	assert.Error(t, err)
}

func TestSolve_CoefficientCountMismatchRejected(t *testing.T) {
	p := Problem{
		NumVars: 2,
		Obj:     []float64{1, 1},
		Rows:    []Row{{Kind: Leq, RHS: 1, Coeffs: []float64{1}}},
	}
	_, err := Solve(p)
	assert.Error(t, err)
}

func TestSolve_InfeasibleEqualities(t *testing.T) {
	// x = 1 and x = 2 simultaneously: phase 1 cannot drive the
	// artificials to zero.
	p := Problem{
		NumVars: 1,
		Obj:     []float64{1},
		Rows: []Row{
			{Kind: Eq, RHS: 1, Coeffs: []float64{1}},
			{Kind: Eq, RHS: 2, Coeffs: []float64{1}},
		},
	}

	sol, err := Solve(p)
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, sol.Status)
}

func TestSolve_UnboundedDetected(t *testing.T) {
	// maximize x with only a vacuous constraint on a second variable.
	p := Problem{
		NumVars: 2,
		Obj:     []float64{1, 0},
		Rows: []Row{
			{Kind: Leq, RHS: 1, Coeffs: []float64{0, 1}},
		},
	}

	sol, err := Solve(p)
	require.NoError(t, err)
	assert.Equal(t, StatusUnbounded, sol.Status)
}

func TestSolve_Deterministic(t *testing.T) {
	p := Problem{
		NumVars: 3,
		Obj:     []float64{7, 7, 1},
		Rows: []Row{
			{Kind: Eq, RHS: 1, Coeffs: []float64{1, 1, 1}},
			{Kind: Leq, RHS: 1, Coeffs: []float64{1, 0, 0}},
			{Kind: Leq, RHS: 1, Coeffs: []float64{0, 1, 0}},
			{Kind: Leq, RHS: 1, Coeffs: []float64{0, 0, 1}},
		},
	}

	s1, err1 := Solve(p)
	s2, err2 := Solve(p)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, s1.Objective, s2.Objective)
	assert.Equal(t, s1.Primal, s2.Primal)
	assert.Equal(t, s1.Dual, s2.Dual)
}
