package mincut

import "context"

// pushRelabelState holds the mutable state of a single push-relabel run:
// FIFO active-vertex selection, periodic global relabeling, current-arc
// optimization, and the gap heuristic, the one variant the "fast" mode
// needs (as opposed to the Highest/Lowest Label variants this core has no
// use for).
type pushRelabelState struct {
	g      *CutGraph
	source int64
	sink   int64

	n       int
	nodes   []int64
	nodeIdx map[int64]int

	height      []int
	excess      []float64
	heightCount []int
	currentArc  []int

	maxHeight int
}

func newPushRelabelState(g *CutGraph, source, sink int64) *pushRelabelState {
	nodes := g.SortedNodes()
	n := len(nodes)
	nodeIdx := make(map[int64]int, n)
	for i, v := range nodes {
		nodeIdx[v] = i
	}
	return &pushRelabelState{
		g:           g,
		source:      source,
		sink:        sink,
		n:           n,
		nodes:       nodes,
		nodeIdx:     nodeIdx,
		height:      make([]int, n),
		excess:      make([]float64, n),
		heightCount: make([]int, 2*n+1),
		currentArc:  make([]int, n),
		maxHeight:   2*n - 1,
	}
}

func (s *pushRelabelState) getHeight(v int64) int            { return s.height[s.nodeIdx[v]] }
func (s *pushRelabelState) setHeight(v int64, h int)         { s.height[s.nodeIdx[v]] = h }
func (s *pushRelabelState) getExcess(v int64) float64        { return s.excess[s.nodeIdx[v]] }
func (s *pushRelabelState) addExcess(v int64, delta float64) { s.excess[s.nodeIdx[v]] += delta }
func (s *pushRelabelState) getCurrentArc(v int64) int        { return s.currentArc[s.nodeIdx[v]] }
func (s *pushRelabelState) setCurrentArc(v int64, i int)     { s.currentArc[s.nodeIdx[v]] = i }

// pushRelabel runs the FIFO push-relabel max-flow computation, mutating g
// in place, and returns the max-flow value, iteration count, and whether
// ctx was cancelled mid-run.
func pushRelabel(ctx context.Context, g *CutGraph, source, sink int64) (maxFlow float64, iterations int, canceled bool) {
	if g.NodeCount() == 0 {
		return 0, 0, false
	}

	s := newPushRelabelState(g, source, sink)
	s.initialize()

	queue := make([]int64, 0, s.n)
	inQueue := make(map[int64]bool, s.n)
	for _, v := range s.nodes {
		if v != source && v != sink && s.getExcess(v) > 0 {
			queue = append(queue, v)
			inQueue[v] = true
		}
	}

	globalRelabelFreq := s.n
	if globalRelabelFreq == 0 {
		globalRelabelFreq = 1
	}
	const checkInterval = 100

	for len(queue) > 0 {
		if iterations%checkInterval == 0 {
			select {
			case <-ctx.Done():
				return s.getExcess(sink), iterations, true
			default:
			}
		}

		if iterations > 0 && iterations%globalRelabelFreq == 0 {
			s.globalRelabel()
			queue = queue[:0]
			for k := range inQueue {
				delete(inQueue, k)
			}
			for _, v := range s.nodes {
				if v != source && v != sink && s.getExcess(v) > 0 && s.getHeight(v) <= s.maxHeight {
					queue = append(queue, v)
					inQueue[v] = true
				}
			}
			if len(queue) == 0 {
				break
			}
		}

		u := queue[0]
		queue = queue[1:]
		delete(inQueue, u)

		s.discharge(u, func(v int64) {
			if v != source && v != sink && !inQueue[v] && s.getExcess(v) > 0 {
				queue = append(queue, v)
				inQueue[v] = true
			}
		})

		if s.getExcess(u) > 0 && s.getHeight(u) <= s.maxHeight && !inQueue[u] {
			queue = append(queue, u)
			inQueue[u] = true
		}

		iterations++
	}

	// Return every stranded excess to the source along residual paths, so
	// the maximum preflow becomes a maximum flow and the source-reachable
	// residual set is a valid min-cut side.
	for _, v := range s.nodes {
		for v != source && v != sink && s.getExcess(v) > 0 {
			res := bfsAugmentingPath(g, v, source)
			path := reconstructPath(res.parent, v, source)
			flow := min(bottleneck(g, path), s.getExcess(v))
			if !res.found || flow <= 0 {
				break
			}
			augment(g, path, flow)
			s.addExcess(v, -flow)
		}
	}

	return s.getExcess(sink), iterations, false
}

func (s *pushRelabelState) initialize() {
	for i := range s.height {
		s.height[i] = 0
	}
	s.setHeight(s.source, s.n)

	for i := range s.heightCount {
		s.heightCount[i] = 0
	}
	for _, v := range s.nodes {
		h := s.getHeight(v)
		if h <= s.maxHeight {
			s.heightCount[h]++
		}
	}

	for _, e := range s.g.neighbors(s.source) {
		if e.capacity > 0 {
			flow := e.capacity
			s.g.updateFlow(s.source, e.to, flow)
			s.addExcess(e.to, flow)
			s.addExcess(s.source, -flow)
		}
	}

	s.globalRelabel()
}

// globalRelabel recomputes heights by reverse BFS from sink: periodic
// exact heights keep relabel() from wandering.
func (s *pushRelabelState) globalRelabel() {
	for i := range s.heightCount {
		s.heightCount[i] = 0
	}

	newHeight := make([]int, s.n)
	for i := range newHeight {
		newHeight[i] = s.maxHeight + 1
	}
	newHeight[s.nodeIdx[s.sink]] = 0

	q := make([]int64, 0, s.n)
	q = append(q, s.sink)
	head := 0
	for head < len(q) {
		u := q[head]
		head++
		uHeight := newHeight[s.nodeIdx[u]]
		for _, in := range s.g.incomingSorted(u) {
			vIdx := s.nodeIdx[in.from]
			if newHeight[vIdx] > s.maxHeight && in.edge.capacity > 0 {
				newHeight[vIdx] = uHeight + 1
				q = append(q, in.from)
			}
		}
	}

	newHeight[s.nodeIdx[s.source]] = s.n

	for i, h := range newHeight {
		s.height[i] = h
		if h <= s.maxHeight {
			s.heightCount[h]++
		}
	}
	for i := range s.currentArc {
		s.currentArc[i] = 0
	}
}

func (s *pushRelabelState) discharge(u int64, onActivate func(int64)) {
	edges := s.g.neighbors(u)
	if edges == nil {
		return
	}

	for s.getExcess(u) > 0 && s.getHeight(u) <= s.maxHeight {
		arc := s.getCurrentArc(u)
		if arc >= len(edges) {
			if !s.relabel(u) {
				break
			}
			s.setCurrentArc(u, 0)
			continue
		}

		e := edges[arc]
		v := e.to
		if e.capacity > 0 && s.getHeight(u) == s.getHeight(v)+1 {
			delta := s.getExcess(u)
			if e.capacity < delta {
				delta = e.capacity
			}
			s.g.updateFlow(u, v, delta)
			s.addExcess(u, -delta)
			s.addExcess(v, delta)
			if onActivate != nil {
				onActivate(v)
			}
		} else {
			s.setCurrentArc(u, arc+1)
		}
	}
}

func (s *pushRelabelState) relabel(u int64) bool {
	oldHeight := s.getHeight(u)
	if oldHeight > s.maxHeight {
		return false
	}

	edges := s.g.neighbors(u)
	minHeight := s.maxHeight + 1
	for _, e := range edges {
		if e.capacity > 0 {
			if h := s.getHeight(e.to); h < minHeight {
				minHeight = h
			}
		}
	}

	if minHeight >= s.maxHeight {
		s.heightCount[oldHeight]--
		s.setHeight(u, s.maxHeight+1)
		return false
	}

	newHeight := minHeight + 1
	s.heightCount[oldHeight]--
	if s.heightCount[oldHeight] == 0 && oldHeight < s.n {
		s.applyGapHeuristic(oldHeight)
	}
	s.heightCount[newHeight]++
	s.setHeight(u, newHeight)
	return true
}

// applyGapHeuristic raises every vertex above a newly-empty height level to
// maxHeight+1: once a height has no occupants, nothing above it can reach
// the sink either, so those vertices can be parked immediately.
func (s *pushRelabelState) applyGapHeuristic(gapHeight int) {
	for i, v := range s.nodes {
		h := s.height[i]
		if h > gapHeight && h <= s.maxHeight && v != s.source {
			s.heightCount[h]--
			s.height[i] = s.maxHeight + 1
		}
	}
}
