package mincut

import (
	"context"
	"sort"
)

// Algorithm selects which max-flow back end Solve runs.
type Algorithm int

const (
	// Fast is the push-relabel ("min-cut") mode.
	Fast Algorithm = iota
	// Accurate is the BFS augmenting-path ("edmonds-karp") mode.
	Accurate
)

// Result is the outcome of a single min s-t cut computation: the cut
// value, the canonical source-reachable partition (excluding s and t),
// and bookkeeping the pricer needs (iteration count, whether a context
// deadline interrupted the solve).
type Result struct {
	CutValue   float64
	SourceSide []int64 // sorted ascending, excludes source/sink
	Iterations int
	Canceled   bool
}

// Solve computes the minimum s-t cut of g using the selected algorithm.
// g is mutated in place (flow is pushed into its residual capacities);
// callers must build a fresh CutGraph per call since nodes and edges are
// not reset between runs.
//
// Both algorithms are deterministic for a given input: edge iteration is
// sorted by node id throughout cutgraph.go, bfs.go and pushrelabel.go,
// never map-iteration or edge-insertion order.
func Solve(ctx context.Context, g *CutGraph, source, sink int64) Result {
	return SolveWith(ctx, g, source, sink, Fast)
}

// SolveWith is Solve with an explicit algorithm selector; Solve defaults
// to Fast (push-relabel).
func SolveWith(ctx context.Context, g *CutGraph, source, sink int64, algo Algorithm) Result {
	var maxFlow float64
	var iterations int
	var canceled bool

	switch algo {
	case Accurate:
		maxFlow, iterations, canceled = edmondsKarp(ctx, g, source, sink)
	default:
		maxFlow, iterations, canceled = pushRelabel(ctx, g, source, sink)
	}

	reachable := bfsReachableFromSource(g, source)
	return buildResult(maxFlow, iterations, canceled, reachable, source, sink)
}

func buildResult(maxFlow float64, iterations int, canceled bool, reachable map[int64]bool, source, sink int64) Result {
	side := make([]int64, 0, len(reachable))
	for n := range reachable {
		if n == source || n == sink {
			continue
		}
		side = append(side, n)
	}
	sort.Slice(side, func(i, j int) bool { return side[i] < side[j] })

	return Result{
		CutValue:   maxFlow,
		SourceSide: side,
		Iterations: iterations,
		Canceled:   canceled,
	}
}
