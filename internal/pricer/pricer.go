// Package pricer implements the max-weight-closure pricing subproblem:
// build the s-t cut graph from the master's duals, invoke internal/mincut,
// and extract the source-side closure and its reduced cost.
//
// The orchestration follows a build-graph -> run-solver -> extract-result
// shape, with a conversion layer translating the dual vector into cut-
// graph edges rather than marshalling any wire format.
package pricer

import (
	"context"

	"bzcg/internal/mincut"
	"bzcg/pkg/domain"
)

// Duals is the master's dual vector: per-block packing duals (pi) plus
// the convexity dual (z). A missing entry in Pi defaults to 0.
type Duals struct {
	Pi map[int64]float64
	Z  float64
}

func (d Duals) pi(b int64) float64 {
	if d.Pi == nil {
		return 0
	}
	return d.Pi[b]
}

// Result is the pricing outcome: the selected closure, its total weight
// W*, and the reduced cost z - W*.
type Result struct {
	Blocks           []int64 // sorted ascending, the source-side closure
	TotalWeight      float64 // W*
	ReducedCost      float64 // z - W*
	CutValue         float64
	IsolatedFastPath bool // true when every block was isolated with positive weight; no min-cut solve ran
	Canceled         bool
}

// Price runs one pricing iteration: weights w_b = profit_b - pi_b, the
// cut-graph construction, and extraction of the source-reachable closure.
//
// profit defaults missing blocks to 0, so a DAG node absent from the
// profit map weighs -pi. algo selects the min-cut back end.
func Price(ctx context.Context, dag *domain.DAG, profit map[int64]float64, duals Duals, algo domain.PricingAlgo) Result {
	n := dag.NumBlocks()

	weight := func(b int64) float64 {
		return profit[b] - duals.pi(b)
	}

	// Isolated-node fast path: a block with no incident precedence edge
	// and positive weight is always selected alone, with no edge that
	// could ever cut it off. Skip the min-cut graph entirely for such
	// blocks rather than hand the solver single-degree nodes.
	isolated := make(map[int64]bool)
	var isolatedBlocks []int64
	var capInf float64 = 1
	for b := int64(0); b < n; b++ {
		w := weight(b)
		if w > 0 {
			capInf += w
		}
		if len(dag.Predecessors(b)) == 0 && len(dag.Successors(b)) == 0 && w > 0 {
			isolated[b] = true
			isolatedBlocks = append(isolatedBlocks, b)
		}
	}

	g := mincut.NewCutGraph()
	hasNonIsolated := false
	for b := int64(0); b < n; b++ {
		if isolated[b] {
			continue
		}
		hasNonIsolated = true
		w := weight(b)
		switch {
		case w >= 0:
			g.AddEdge(domain.SuperSourceID, b, w)
		default:
			g.AddEdge(b, domain.SuperSinkID, -w)
		}
	}
	for b := int64(0); b < n; b++ {
		if isolated[b] {
			continue
		}
		for _, u := range dag.Predecessors(b) {
			if isolated[u] {
				continue // unreachable: isolated nodes have no edges
			}
			g.AddEdge(b, u, capInf)
		}
	}

	if !hasNonIsolated {
		return buildResult(isolatedBlocks, nil, capInf-1, 0, duals.Z, false, true)
	}

	g.AddNode(domain.SuperSourceID)
	g.AddNode(domain.SuperSinkID)

	mcAlgo := mincut.Fast
	if algo == domain.PricingEdmondsKarp {
		mcAlgo = mincut.Accurate
	}
	res := mincut.SolveWith(ctx, g, domain.SuperSourceID, domain.SuperSinkID, mcAlgo)

	return buildResult(isolatedBlocks, res.SourceSide, capInf-1, res.CutValue, duals.Z, res.Canceled, false)
}

// buildResult merges the isolated-fast-path blocks with the min-cut's
// source-side partition and computes W* via the algebraic identity
// W* = sum(w_b>0) - cut_value, never by summing members directly, to
// avoid float drift.
func buildResult(isolated, cutSide []int64, sumPositive, cutValue, z float64, canceled, fastPathOnly bool) Result {
	blocks := make([]int64, 0, len(isolated)+len(cutSide))
	blocks = append(blocks, isolated...)
	blocks = append(blocks, cutSide...)
	sortInt64s(blocks)

	totalWeight := sumPositive - cutValue
	return Result{
		Blocks:           blocks,
		TotalWeight:      totalWeight,
		ReducedCost:      z - totalWeight,
		CutValue:         cutValue,
		IsolatedFastPath: fastPathOnly,
		Canceled:         canceled,
	}
}

func sortInt64s(s []int64) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
