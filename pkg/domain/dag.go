package domain

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// DAG is the immutable precedence graph over a block model. Blocks are
// dense non-negative integers in [0, N). An edge u->v asserts
// "u must be extracted before v". DAG is built once per run and never
// mutated afterwards; the pricer and controller only read it.
//
// Edges are stored as CSR (offsets + neighbour list), both forward
// (successors, read by the pricer's isolated-block check) and reverse
// (predecessors, used to build the pricer's cut graph, to validate
// closures, and to find roots).
type DAG struct {
	n int64

	// succOffsets/succNeighbors is the CSR forward adjacency: successors
	// of block b are succNeighbors[succOffsets[b]:succOffsets[b+1]].
	succOffsets  []int32
	succNeighbors []int32

	// predOffsets/predNeighbors is the CSR reverse adjacency: predecessors
	// of block b are predNeighbors[predOffsets[b]:predOffsets[b+1]].
	predOffsets  []int32
	predNeighbors []int32

	roots []int64 // blocks with no predecessors, sorted ascending
}

// Edge is a single precedence edge u->v ("u is a predecessor of v").
type Edge struct {
	U, V int64
}

// NewDAG builds a DAG over n blocks ([0, n)) from the given edge list.
//
// Returns an error wrapping ErrCyclicPrecedence if the edges contain a
// cycle, ErrDanglingEdge if an edge references a block outside [0, n),
// ErrSelfLoop for a self-loop, and ErrInvalidBlockCount if n < 0. This is the one-time acyclicity check required
// before any iteration; predecessor iteration during pricing trusts the
// DAG to remain acyclic afterward.
func NewDAG(n int64, edges []Edge) (*DAG, error) {
	if n < 0 {
		return nil, errInvalidBlockCount(n)
	}

	for _, e := range edges {
		if e.U < 0 || e.U >= n || e.V < 0 || e.V >= n {
			return nil, errDanglingEdge(e)
		}
		if e.U == e.V {
			return nil, errSelfLoop(e.U)
		}
	}

	if err := checkAcyclic(n, edges); err != nil {
		return nil, err
	}

	succCount := make([]int32, n+1)
	predCount := make([]int32, n+1)
	for _, e := range edges {
		succCount[e.U+1]++
		predCount[e.V+1]++
	}
	for i := int64(1); i <= n; i++ {
		succCount[i] += succCount[i-1]
		predCount[i] += predCount[i-1]
	}

	succNeighbors := make([]int32, len(edges))
	predNeighbors := make([]int32, len(edges))
	succCursor := append([]int32(nil), succCount...)
	predCursor := append([]int32(nil), predCount...)
	for _, e := range edges {
		succNeighbors[succCursor[e.U]] = int32(e.V)
		succCursor[e.U]++
		predNeighbors[predCursor[e.V]] = int32(e.U)
		predCursor[e.V]++
	}

	d := &DAG{
		n:             n,
		succOffsets:   succCount,
		succNeighbors: succNeighbors,
		predOffsets:   predCount,
		predNeighbors: predNeighbors,
	}
	d.sortAdjacency()
	d.computeRoots()
	return d, nil
}

func (d *DAG) sortAdjacency() {
	for b := int64(0); b < d.n; b++ {
		sortInt32s(d.succNeighbors[d.succOffsets[b]:d.succOffsets[b+1]])
		sortInt32s(d.predNeighbors[d.predOffsets[b]:d.predOffsets[b+1]])
	}
}

func sortInt32s(s []int32) {
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
}

func (d *DAG) computeRoots() {
	roots := make([]int64, 0)
	for b := int64(0); b < d.n; b++ {
		if d.predOffsets[b+1] == d.predOffsets[b] {
			roots = append(roots, b)
		}
	}
	d.roots = roots
}

// NumBlocks returns N, the number of blocks in [0, N).
func (d *DAG) NumBlocks() int64 { return d.n }

// Successors returns the (sorted, deterministic) successors of block b.
func (d *DAG) Successors(b int64) []int64 {
	return int32SliceToInt64(d.succNeighbors[d.succOffsets[b]:d.succOffsets[b+1]])
}

// Predecessors returns the (sorted, deterministic) predecessors of block b.
func (d *DAG) Predecessors(b int64) []int64 {
	return int32SliceToInt64(d.predNeighbors[d.predOffsets[b]:d.predOffsets[b+1]])
}

// Roots returns the blocks with no predecessors, sorted ascending. Used by
// the controller's root-singleton seeding.
func (d *DAG) Roots() []int64 {
	out := make([]int64, len(d.roots))
	copy(out, d.roots)
	return out
}

// AncestorClosure returns b plus every transitive predecessor of b, sorted
// ascending. Backs the ancestor-closure seed mode: every emitted column
// is precedence-feasible on its own, unlike a bare top-k singleton.
func (d *DAG) AncestorClosure(b int64) []int64 {
	visited := make(map[int64]bool)
	stack := []int64{b}
	visited[b] = true
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range d.Predecessors(cur) {
			if !visited[p] {
				visited[p] = true
				stack = append(stack, p)
			}
		}
	}
	out := make([]int64, 0, len(visited))
	for b := range visited {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsClosed reports whether S is closed under the predecessor relation:
// every predecessor of every member of S is also in S. Used by tests
// asserting closure validity.
func (d *DAG) IsClosed(s map[int64]bool) bool {
	for b := range s {
		for _, p := range d.Predecessors(b) {
			if !s[p] {
				return false
			}
		}
	}
	return true
}

func int32SliceToInt64(s []int32) []int64 {
	out := make([]int64, len(s))
	for i, v := range s {
		out[i] = int64(v)
	}
	return out
}

// checkAcyclic builds a gonum/graph/simple.DirectedGraph over the edges
// and runs topo.Sort to validate the DAG before any further processing.
// An Unorderable error from topo.Sort carries the cyclic vertex set.
func checkAcyclic(n int64, edges []Edge) error {
	g := simple.NewDirectedGraph()
	for b := int64(0); b < n; b++ {
		g.AddNode(simple.Node(b))
	}
	for _, e := range edges {
		g.SetEdge(g.NewEdge(simple.Node(e.U), simple.Node(e.V)))
	}
	if _, err := topo.Sort(g); err != nil {
		return errCyclicPrecedence(err)
	}
	return nil
}
