package eventset

import (
	"container/heap"

	"github.com/sarchlab/quartz/errs"
	"github.com/sarchlab/quartz/vtime"
)

// bucket groups every handle currently scheduled at exactly one tn (spec
// section 4.6: "Heap-set: buckets of same-time entries keyed in an outer
// heap by time").
type bucket struct {
	tn      vtime.TimePoint
	entries []entry
}

// heapSetCore is the outer min-heap of buckets, ordered by tn. Split from
// HeapSet for the same reason binaryHeapCore is split from BinaryHeap:
// container/heap.Interface's Push(any)/Pop() any would collide with
// EventSet's Push(Handle, vtime.TimePoint).
type heapSetCore struct {
	buckets []*bucket
	byTn    map[float64]int // Quantity() -> index into buckets, for O(1) bucket lookup
}

func (c *heapSetCore) Len() int { return len(c.buckets) }
func (c *heapSetCore) Less(i, j int) bool {
	return c.buckets[i].tn.Compare(c.buckets[j].tn) < 0
}
func (c *heapSetCore) Swap(i, j int) {
	c.buckets[i], c.buckets[j] = c.buckets[j], c.buckets[i]
	c.byTn[c.buckets[i].tn.Quantity()] = i
	c.byTn[c.buckets[j].tn.Quantity()] = j
}
func (c *heapSetCore) Push(x any) {
	b := x.(*bucket)
	c.buckets = append(c.buckets, b)
	c.byTn[b.tn.Quantity()] = len(c.buckets) - 1
}
func (c *heapSetCore) Pop() any {
	n := len(c.buckets)
	b := c.buckets[n-1]
	c.buckets = c.buckets[:n-1]
	delete(c.byTn, b.tn.Quantity())
	return b
}

// HeapSet buckets same-time entries, keyed in an outer binary heap by time
// (spec section 4.6). Adjust/Delete look the handle up in a flat side map
// to find which bucket currently holds it.
type HeapSet struct {
	core heapSetCore
	at   map[Handle]float64 // handle -> tn.Quantity(), to find its bucket
	next uint64
}

// NewHeapSet constructs an empty HeapSet.
func NewHeapSet() *HeapSet {
	return &HeapSet{
		core: heapSetCore{byTn: make(map[float64]int)},
		at:   make(map[Handle]float64),
	}
}

func (s *HeapSet) Push(h Handle, tn vtime.TimePoint) {
	if oldQ, ok := s.at[h]; ok {
		s.removeFromBucket(h, oldQ)
	}
	q := tn.Quantity()
	if i, ok := s.core.byTn[q]; ok {
		s.core.buckets[i].entries = append(s.core.buckets[i].entries, entry{handle: h, tn: tn, seq: s.next})
	} else {
		heap.Push(&s.core, &bucket{tn: tn, entries: []entry{{handle: h, tn: tn, seq: s.next}}})
	}
	s.next++
	s.at[h] = q
}

func (s *HeapSet) removeFromBucket(h Handle, q float64) {
	i, ok := s.core.byTn[q]
	if !ok {
		return
	}
	b := s.core.buckets[i]
	for k, e := range b.entries {
		if e.handle == h {
			b.entries = append(b.entries[:k], b.entries[k+1:]...)
			break
		}
	}
	if len(b.entries) == 0 {
		heap.Remove(&s.core, i)
	}
	delete(s.at, h)
}

func (s *HeapSet) Adjust(h Handle, tn vtime.TimePoint) error {
	oldQ, ok := s.at[h]
	if !ok {
		return &errs.UnknownHandleError{Handle: toLabel(h)}
	}
	s.removeFromBucket(h, oldQ)
	s.Push(h, tn)
	return nil
}

func (s *HeapSet) Delete(h Handle) error {
	oldQ, ok := s.at[h]
	if !ok {
		return &errs.UnknownHandleError{Handle: toLabel(h)}
	}
	s.removeFromBucket(h, oldQ)
	return nil
}

func (s *HeapSet) PeekMin() (vtime.TimePoint, bool) {
	if len(s.core.buckets) == 0 {
		return vtime.Zero, false
	}
	return s.core.buckets[0].tn, true
}

func (s *HeapSet) PopImminent() []Handle {
	if len(s.core.buckets) == 0 {
		return nil
	}
	b := heap.Pop(&s.core).(*bucket)
	entries := append([]entry(nil), b.entries...)
	sortEntriesBySeq(entries)
	out := make([]Handle, len(entries))
	for i, e := range entries {
		out[i] = e.handle
		delete(s.at, e.handle)
	}
	return out
}

func (s *HeapSet) Size() int {
	n := 0
	for _, b := range s.core.buckets {
		n += len(b.entries)
	}
	return n
}

func (s *HeapSet) TieBreakOrder(t vtime.TimePoint) []Handle {
	if i, ok := s.core.byTn[t.Quantity()]; ok {
		entries := append([]entry(nil), s.core.buckets[i].entries...)
		sortEntriesBySeq(entries)
		out := make([]Handle, len(entries))
		for i, e := range entries {
			out[i] = e.handle
		}
		return out
	}
	return nil
}
