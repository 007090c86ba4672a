package pricer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bzcg/pkg/domain"
)

func mustDAG(t *testing.T, n int64, edges []domain.Edge) *domain.DAG {
	t.Helper()
	d, err := domain.NewDAG(n, edges)
	require.NoError(t, err)
	return d
}

func TestPrice_S1_SinglePositiveNode(t *testing.T) {
	dag := mustDAG(t, 1, nil)
	profit := map[int64]float64{0: 10}
	duals := Duals{Pi: map[int64]float64{0: 2}, Z: 0}

	res := Price(context.Background(), dag, profit, duals, domain.PricingMinCut)

	assert.InDelta(t, 8.0, res.TotalWeight, 1e-9)
	assert.InDelta(t, -8.0, res.ReducedCost, 1e-9)
	assert.Equal(t, []int64{0}, res.Blocks)
	assert.True(t, res.IsolatedFastPath, "a lone positive block needs no min-cut solve")
}

func TestPrice_S2_SingleNegativeNode(t *testing.T) {
	dag := mustDAG(t, 1, nil)
	profit := map[int64]float64{0: 1}
	duals := Duals{Pi: map[int64]float64{0: 5}, Z: 0}

	res := Price(context.Background(), dag, profit, duals, domain.PricingMinCut)

	assert.InDelta(t, 0.0, res.TotalWeight, 1e-9)
	assert.InDelta(t, 0.0, res.ReducedCost, 1e-9)
	assert.Empty(t, res.Blocks)
}

func TestPrice_S3_ChainClosure(t *testing.T) {
	dag := mustDAG(t, 3, []domain.Edge{{U: 0, V: 1}, {U: 1, V: 2}})
	profit := map[int64]float64{0: 5, 1: 6, 2: 7}
	duals := Duals{Z: 0}

	for _, algo := range []domain.PricingAlgo{domain.PricingMinCut, domain.PricingEdmondsKarp} {
		res := Price(context.Background(), dag, profit, duals, algo)
		assert.InDelta(t, 18.0, res.TotalWeight, 1e-9, "algo %v", algo)
		assert.InDelta(t, -18.0, res.ReducedCost, 1e-9, "algo %v", algo)
		assert.Equal(t, []int64{0, 1, 2}, res.Blocks, "algo %v", algo)
	}
}

func TestPrice_AllWeightsNonPositive(t *testing.T) {
	dag := mustDAG(t, 3, []domain.Edge{{U: 0, V: 1}, {U: 1, V: 2}})
	profit := map[int64]float64{0: -1, 1: -2, 2: -3}
	duals := Duals{Z: 0.75}

	res := Price(context.Background(), dag, profit, duals, domain.PricingMinCut)

	assert.Empty(t, res.Blocks)
	assert.InDelta(t, 0.0, res.TotalWeight, 1e-9)
	assert.InDelta(t, 0.75, res.ReducedCost, 1e-9, "reduced cost must equal z when nothing is selected")
}

func TestPrice_ClosureValidity(t *testing.T) {
	dag := mustDAG(t, 5, []domain.Edge{{U: 0, V: 2}, {U: 1, V: 2}, {U: 2, V: 3}, {U: 2, V: 4}})
	profit := map[int64]float64{0: 1, 1: 1, 2: 10, 3: -1, 4: -1}
	duals := Duals{Z: 0}

	res := Price(context.Background(), dag, profit, duals, domain.PricingMinCut)

	set := make(map[int64]bool, len(res.Blocks))
	for _, b := range res.Blocks {
		set[b] = true
	}
	assert.True(t, dag.IsClosed(set), "selected set %v must be closed under predecessors", res.Blocks)
}

func TestPrice_Idempotent(t *testing.T) {
	dag := mustDAG(t, 6, []domain.Edge{{U: 0, V: 1}, {U: 1, V: 2}, {U: 0, V: 3}, {U: 3, V: 4}, {U: 4, V: 5}})
	profit := map[int64]float64{0: 3, 1: -1, 2: 4, 3: 2, 4: -5, 5: 6}
	duals := Duals{Pi: map[int64]float64{2: 1, 5: 2}, Z: 1.5}

	r1 := Price(context.Background(), dag, profit, duals, domain.PricingMinCut)
	r2 := Price(context.Background(), dag, profit, duals, domain.PricingMinCut)

	assert.Equal(t, r1.Blocks, r2.Blocks, "identical duals must select the identical set")
	assert.Equal(t, r1.TotalWeight, r2.TotalWeight)
}

func TestPrice_WeightIdentityWithinTolerance(t *testing.T) {
	dag := mustDAG(t, 8, []domain.Edge{
		{U: 0, V: 1}, {U: 1, V: 2}, {U: 2, V: 3},
		{U: 0, V: 4}, {U: 4, V: 5}, {U: 5, V: 6}, {U: 6, V: 7},
	})
	profit := map[int64]float64{0: 4, 1: -2, 2: 5, 3: -1, 4: 3, 5: -4, 6: 2, 7: -3}
	duals := Duals{Z: 0.5}

	res := Price(context.Background(), dag, profit, duals, domain.PricingMinCut)

	var sumPositive float64
	for b := int64(0); b < 8; b++ {
		w := profit[b] - duals.pi(b)
		if w > 0 {
			sumPositive += w
		}
	}
	assert.InDelta(t, sumPositive-res.CutValue, res.TotalWeight, 1e-9,
		"W* must come from the sum-positive-minus-cut identity")
}

func TestPrice_DefaultsMissingProfitToZero(t *testing.T) {
	dag := mustDAG(t, 2, nil)
	profit := map[int64]float64{0: 5} // block 1 absent
	duals := Duals{Pi: map[int64]float64{1: -3}, Z: 0}

	res := Price(context.Background(), dag, profit, duals, domain.PricingMinCut)

	// block 1: w = 0 - (-3) = 3 > 0, isolated, selected.
	assert.Contains(t, res.Blocks, int64(1), "block with default profit 0 and negative dual must be selected")
}
