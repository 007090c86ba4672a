package domain

import "testing"

func TestClosure_Contains(t *testing.T) {
	c := &Closure{ID: 0, Blocks: []int64{1, 3, 5, 9}}
	for _, b := range []int64{1, 3, 5, 9} {
		if !c.Contains(b) {
			t.Errorf("Contains(%d) = false, want true", b)
		}
	}
	for _, b := range []int64{0, 2, 4, 10} {
		if c.Contains(b) {
			t.Errorf("Contains(%d) = true, want false", b)
		}
	}
}

func TestClosureIDSeq_Monotone(t *testing.T) {
	seq := NewClosureIDSeq()
	var ids []int64
	for i := 0; i < 5; i++ {
		ids = append(ids, seq.Next())
	}
	for i, id := range ids {
		if id != int64(i) {
			t.Errorf("ids[%d] = %d, want %d", i, id, i)
		}
	}
}

func TestNewClosure_SortsAndSumsProfit(t *testing.T) {
	profit := map[int64]float64{0: 1.5, 1: -2.0, 2: 4.0}
	seq := NewClosureIDSeq()
	c := NewClosure(seq, []int64{2, 0, 1}, func(b int64) float64 { return profit[b] }, "test")

	want := []int64{0, 1, 2}
	for i := range want {
		if c.Blocks[i] != want[i] {
			t.Fatalf("Blocks = %v, want %v", c.Blocks, want)
		}
	}
	if got, want := c.Profit, 3.5; got != want {
		t.Errorf("Profit = %v, want %v", got, want)
	}
	if c.ID != 0 {
		t.Errorf("ID = %d, want 0", c.ID)
	}
	if c.Label != "test" {
		t.Errorf("Label = %q, want %q", c.Label, "test")
	}
}
