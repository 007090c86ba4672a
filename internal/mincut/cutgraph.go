package mincut

import "sort"

// edge is one directed arc in the residual graph. Reverse edges start at
// zero capacity and absorb flow pushed along the forward edge, the
// standard residual-graph convention.
type edge struct {
	to               int64
	capacity         float64
	flow             float64
	originalCapacity float64
	isReverse        bool
}

// hasCapacity compares against exact zero, not a tolerance: saturating
// pushes subtract the full residual, so a saturated edge holds an exact
// 0 and an epsilon band would only misclassify genuinely usable arcs.
func (e *edge) hasCapacity() bool { return e.capacity > 0 }

type incoming struct {
	from int64
	edge *edge
}

// CutGraph is a capacitated directed graph built fresh for each pricing
// iteration. It is the min-cut engine's sole input/output type: callers add
// nodes and edges, hand it to Run, and read the resulting partition and cut
// value back off of it.
//
// Edge storage uses a map for O(1) lookup plus a parallel slice kept
// sorted by destination id: max-flow results depend on traversal order,
// so ties are broken by node id regardless of the order the caller added
// the edges, never by insertion order.
type CutGraph struct {
	nodes        map[int64]bool
	edges        map[int64]map[int64]*edge
	edgesList    map[int64][]*edge
	reverseEdges map[int64]map[int64]*edge

	sortedNodes      []int64
	sortedNodesDirty bool
}

// NewCutGraph returns an empty graph ready for AddEdge calls.
func NewCutGraph() *CutGraph {
	return &CutGraph{
		nodes:            make(map[int64]bool),
		edges:            make(map[int64]map[int64]*edge),
		edgesList:        make(map[int64][]*edge),
		reverseEdges:     make(map[int64]map[int64]*edge),
		sortedNodesDirty: true,
	}
}

func (g *CutGraph) ensureNode(id int64) {
	if !g.nodes[id] {
		g.nodes[id] = true
		g.sortedNodesDirty = true
	}
}

// AddNode registers an isolated node, useful for blocks with no incident
// precedence edge whose presence still has to show up in the partition.
func (g *CutGraph) AddNode(id int64) { g.ensureNode(id) }

// AddEdge adds a forward edge of the given capacity plus its zero-capacity
// reverse, the standard residual-graph construction. Capacities must be
// non-negative and finite; "uncuttable" edges carry a per-call sentinel
// (1 + sum of positive weights), not a literal infinite float.
func (g *CutGraph) AddEdge(from, to int64, capacity float64) {
	g.ensureNode(from)
	g.ensureNode(to)

	if g.edges[from] == nil {
		g.edges[from] = make(map[int64]*edge)
	}
	if existing := g.edges[from][to]; existing != nil {
		existing.capacity += capacity
		existing.originalCapacity += capacity
		return
	}

	fwd := &edge{to: to, capacity: capacity, originalCapacity: capacity}
	g.edges[from][to] = fwd
	g.edgesList[from] = insertByDestination(g.edgesList[from], fwd)
	g.addReverseIndex(from, to, fwd)

	g.addReverseEdge(to, from)
}

// insertByDestination places e into list keeping it ordered by destination
// id. Destinations are unique per list (the edge map deduplicates), so the
// order is total and independent of insertion order.
func insertByDestination(list []*edge, e *edge) []*edge {
	i := sort.Search(len(list), func(k int) bool { return list[k].to >= e.to })
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = e
	return list
}

func (g *CutGraph) addReverseEdge(from, to int64) {
	g.ensureNode(from)
	g.ensureNode(to)
	if g.edges[from] == nil {
		g.edges[from] = make(map[int64]*edge)
	}
	if existing := g.edges[from][to]; existing != nil {
		return
	}
	rev := &edge{to: to, capacity: 0, isReverse: true}
	g.edges[from][to] = rev
	g.edgesList[from] = insertByDestination(g.edgesList[from], rev)
	g.addReverseIndex(from, to, rev)
}

func (g *CutGraph) addReverseIndex(from, to int64, e *edge) {
	if g.reverseEdges[to] == nil {
		g.reverseEdges[to] = make(map[int64]*edge)
	}
	g.reverseEdges[to][from] = e
}

func (g *CutGraph) getEdge(from, to int64) *edge {
	if g.edges[from] == nil {
		return nil
	}
	return g.edges[from][to]
}

// neighbors returns from's outgoing edges sorted by destination id.
func (g *CutGraph) neighbors(from int64) []*edge { return g.edgesList[from] }

// incomingSorted returns edges pointing at `to`, sorted by source id.
func (g *CutGraph) incomingSorted(to int64) []incoming {
	m := g.reverseEdges[to]
	if len(m) == 0 {
		return nil
	}
	out := make([]incoming, 0, len(m))
	for from, e := range m {
		out = append(out, incoming{from: from, edge: e})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].from < out[j].from })
	return out
}

func (g *CutGraph) updateFlow(from, to int64, flow float64) {
	if e := g.getEdge(from, to); e != nil {
		e.flow += flow
		e.capacity -= flow
	}
	if back := g.getEdge(to, from); back != nil {
		back.capacity += flow
		return
	}
	// Forward edge exists (we just updated it) but no reverse was pre-added
	// (e.g. flow pushed along an edge AddEdge never saw directly). Create one.
	if g.edges[to] == nil {
		g.edges[to] = make(map[int64]*edge)
	}
	newEdge := &edge{to: from, capacity: flow, isReverse: true}
	g.edges[to][from] = newEdge
	g.edgesList[to] = insertByDestination(g.edgesList[to], newEdge)
	g.addReverseIndex(to, from, newEdge)
}

// SortedNodes returns every node id in ascending order, cached until the
// next AddNode/AddEdge call introduces a new node.
func (g *CutGraph) SortedNodes() []int64 {
	if g.sortedNodesDirty || len(g.sortedNodes) != len(g.nodes) {
		g.sortedNodes = make([]int64, 0, len(g.nodes))
		for n := range g.nodes {
			g.sortedNodes = append(g.sortedNodes, n)
		}
		sort.Slice(g.sortedNodes, func(i, j int) bool { return g.sortedNodes[i] < g.sortedNodes[j] })
		g.sortedNodesDirty = false
	}
	return g.sortedNodes
}

// NodeCount returns the number of nodes currently in the graph.
func (g *CutGraph) NodeCount() int { return len(g.nodes) }

// FlowOn returns the flow currently pushed along (from, to), or 0 if the
// edge has never carried flow.
func (g *CutGraph) FlowOn(from, to int64) float64 {
	if e := g.getEdge(from, to); e != nil && !e.isReverse {
		return e.flow
	}
	return 0
}
