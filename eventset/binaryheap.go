package eventset

import (
	"container/heap"

	"github.com/sarchlab/quartz/errs"
	"github.com/sarchlab/quartz/vtime"
)

// binaryHeapCore implements container/heap.Interface's raw slice
// operations. It is kept separate from BinaryHeap because heap.Interface
// requires a method literally named Push(any)/Pop() any, which would
// collide with EventSet's Push(Handle, vtime.TimePoint).
type binaryHeapCore struct {
	entries []entry
	idx     map[Handle]int
}

func (c *binaryHeapCore) Len() int { return len(c.entries) }

func (c *binaryHeapCore) Less(i, j int) bool {
	return c.entries[i].tn.Compare(c.entries[j].tn) < 0
}

func (c *binaryHeapCore) Swap(i, j int) {
	c.entries[i], c.entries[j] = c.entries[j], c.entries[i]
	c.idx[c.entries[i].handle] = i
	c.idx[c.entries[j].handle] = j
}

func (c *binaryHeapCore) Push(x any) {
	e := x.(entry)
	c.entries = append(c.entries, e)
	c.idx[e.handle] = len(c.entries) - 1
}

func (c *binaryHeapCore) Pop() any {
	n := len(c.entries)
	e := c.entries[n-1]
	c.entries = c.entries[:n-1]
	delete(c.idx, e.handle)
	return e
}

// BinaryHeap is an array-backed min-heap keyed by tn, with a side map from
// handle to heap index for O(log n) Adjust/Delete (spec section 4.6:
// "array-backed min-heap ... with a side map from proc to index").
type BinaryHeap struct {
	core binaryHeapCore
	next uint64
}

// NewBinaryHeap constructs an empty BinaryHeap.
func NewBinaryHeap() *BinaryHeap {
	return &BinaryHeap{core: binaryHeapCore{idx: make(map[Handle]int)}}
}

func (b *BinaryHeap) Push(h Handle, tn vtime.TimePoint) {
	if i, ok := b.core.idx[h]; ok {
		b.core.entries[i].tn = tn
		heap.Fix(&b.core, i)
		return
	}
	e := entry{handle: h, tn: tn, seq: b.next}
	b.next++
	heap.Push(&b.core, e)
}

func (b *BinaryHeap) Adjust(h Handle, tn vtime.TimePoint) error {
	i, ok := b.core.idx[h]
	if !ok {
		return &errs.UnknownHandleError{Handle: toLabel(h)}
	}
	b.core.entries[i].tn = tn
	heap.Fix(&b.core, i)
	return nil
}

func (b *BinaryHeap) Delete(h Handle) error {
	i, ok := b.core.idx[h]
	if !ok {
		return &errs.UnknownHandleError{Handle: toLabel(h)}
	}
	heap.Remove(&b.core, i)
	return nil
}

func (b *BinaryHeap) PeekMin() (vtime.TimePoint, bool) {
	if len(b.core.entries) == 0 {
		return vtime.Zero, false
	}
	return b.core.entries[0].tn, true
}

func (b *BinaryHeap) PopImminent() []Handle {
	if len(b.core.entries) == 0 {
		return nil
	}
	min := b.core.entries[0].tn
	var popped []entry
	for len(b.core.entries) > 0 && b.core.entries[0].tn.Equal(min) {
		popped = append(popped, heap.Pop(&b.core).(entry))
	}
	sortEntriesBySeq(popped)
	out := make([]Handle, len(popped))
	for i, e := range popped {
		out[i] = e.handle
	}
	return out
}

func (b *BinaryHeap) Size() int { return len(b.core.entries) }

func (b *BinaryHeap) TieBreakOrder(t vtime.TimePoint) []Handle {
	return tieBreakOrderFromEntries(b.core.entries, t)
}
