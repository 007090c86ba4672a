package domain

import "sort"

// Closure is one column of the restricted master problem: a
// precedence-feasible (predecessor-closed) subset of blocks produced by
// the pricer, together with its cached profit. Columns carry a monotone
// integer id assigned at creation time, never reused, so the master can
// key its LP variables and packing duals by id alone.
type Closure struct {
	ID     int64
	Blocks []int64 // sorted ascending, the set the closure contains
	Profit float64 // sum of per-block profit over Blocks
	Label  string  // human-readable provenance, e.g. "seed:root:42" or "price:iter:7"
}

// Contains reports whether b is a member of the closure. Blocks is kept
// sorted so this is a binary search rather than a linear scan.
func (c *Closure) Contains(b int64) bool {
	lo, hi := 0, len(c.Blocks)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case c.Blocks[mid] == b:
			return true
		case c.Blocks[mid] < b:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return false
}

// closureIDSeq assigns monotone, never-reused ids to closures within a
// single controller run. Zero value is ready to use.
type closureIDSeq struct {
	next int64
}

func (s *closureIDSeq) take() int64 {
	id := s.next
	s.next++
	return id
}

// NewClosureIDSeq returns a fresh id sequence starting at zero.
func NewClosureIDSeq() *closureIDSeq {
	return &closureIDSeq{}
}

// Next returns the next monotone id and advances the sequence.
func (s *closureIDSeq) Next() int64 { return s.take() }

// NewClosure builds a Closure from an unsorted block set, summing profit
// from profitOf, and assigns it the next id from seq.
func NewClosure(seq *closureIDSeq, blocks []int64, profitOf func(int64) float64, label string) *Closure {
	sorted := append([]int64(nil), blocks...)
	sortInt64s(sorted)
	var profit float64
	for _, b := range sorted {
		profit += profitOf(b)
	}
	return &Closure{
		ID:     seq.Next(),
		Blocks: sorted,
		Profit: profit,
		Label:  label,
	}
}

func sortInt64s(s []int64) {
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
}
