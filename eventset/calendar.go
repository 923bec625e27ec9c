package eventset

import (
	"sort"

	"github.com/sarchlab/quartz/errs"
	"github.com/sarchlab/quartz/vtime"
)

// CalendarQueue is a simplified calendar queue: a bucket per "day" of a
// fixed width, indexed by int(tn / width) with no upper bound, so days are
// never recycled into a fixed-size ring (spec section 4.6: "multi-tier
// bucket calendars with dynamic resizing ... used when the distribution of
// tn is known to be narrow"). The bucket width is re-derived from the live
// population (its tn span divided by its size) whenever a Push brings the
// population to a power of two of at least 4.
type CalendarQueue struct {
	width   float64
	buckets map[int][]entry
	active  []int // sorted bucket indices currently non-empty
	at      map[Handle]int
	n       int
	next    uint64
}

// NewCalendarQueue constructs an empty CalendarQueue with an initial
// bucket width of 1.0 base-precision unit; the first resize rescales it to
// the actual population once entries arrive.
func NewCalendarQueue() *CalendarQueue {
	return &CalendarQueue{
		width:   1,
		buckets: make(map[int][]entry),
		at:      make(map[Handle]int),
	}
}

func (q *CalendarQueue) bucketIndex(tn vtime.TimePoint) int {
	if q.width <= 0 {
		return 0
	}
	return int(tn.Quantity() / q.width)
}

func (q *CalendarQueue) Push(h Handle, tn vtime.TimePoint) {
	if _, ok := q.at[h]; ok {
		q.removeEntry(h)
	}
	e := entry{handle: h, tn: tn, seq: q.next}
	q.next++
	q.insertInto(e)
	q.n++
	if q.n > 0 && (q.n&(q.n-1)) == 0 && q.n >= 4 {
		q.resize()
	}
}

func (q *CalendarQueue) insertInto(e entry) {
	idx := q.bucketIndex(e.tn)
	if _, exists := q.buckets[idx]; !exists {
		q.insertActiveIndex(idx)
	}
	q.buckets[idx] = append(q.buckets[idx], e)
	q.at[e.handle] = idx
}

func (q *CalendarQueue) insertActiveIndex(idx int) {
	i := sort.SearchInts(q.active, idx)
	q.active = append(q.active, 0)
	copy(q.active[i+1:], q.active[i:])
	q.active[i] = idx
}

func (q *CalendarQueue) removeActiveIndex(idx int) {
	i := sort.SearchInts(q.active, idx)
	if i < len(q.active) && q.active[i] == idx {
		q.active = append(q.active[:i], q.active[i+1:]...)
	}
}

func (q *CalendarQueue) removeEntry(h Handle) {
	idx, ok := q.at[h]
	if !ok {
		return
	}
	b := q.buckets[idx]
	for i, e := range b {
		if e.handle == h {
			b = append(b[:i], b[i+1:]...)
			break
		}
	}
	if len(b) == 0 {
		delete(q.buckets, idx)
		q.removeActiveIndex(idx)
	} else {
		q.buckets[idx] = b
	}
	delete(q.at, h)
	q.n--
}

// resize recomputes bucket width from the average spacing of currently
// scheduled entries and rebuilds every bucket, the standard calendar-queue
// rebalancing step.
func (q *CalendarQueue) resize() {
	all := q.allEntries()
	if len(all) < 2 {
		return
	}
	sort.Slice(all, func(i, j int) bool { return all[i].tn.Compare(all[j].tn) < 0 })
	span := all[len(all)-1].tn.Quantity() - all[0].tn.Quantity()
	if span <= 0 {
		return
	}
	newWidth := span / float64(len(all))
	if newWidth <= 0 {
		return
	}

	q.width = newWidth
	q.buckets = make(map[int][]entry)
	q.active = nil
	q.at = make(map[Handle]int)
	for _, e := range all {
		q.insertInto(e)
	}
}

func (q *CalendarQueue) allEntries() []entry {
	var out []entry
	for _, idx := range q.active {
		out = append(out, q.buckets[idx]...)
	}
	return out
}

func (q *CalendarQueue) Adjust(h Handle, tn vtime.TimePoint) error {
	if _, ok := q.at[h]; !ok {
		return &errs.UnknownHandleError{Handle: toLabel(h)}
	}
	q.removeEntry(h)
	q.Push(h, tn)
	return nil
}

func (q *CalendarQueue) Delete(h Handle) error {
	if _, ok := q.at[h]; !ok {
		return &errs.UnknownHandleError{Handle: toLabel(h)}
	}
	q.removeEntry(h)
	return nil
}

func (q *CalendarQueue) minBucket() ([]entry, bool) {
	if len(q.active) == 0 {
		return nil, false
	}
	return q.buckets[q.active[0]], true
}

func (q *CalendarQueue) PeekMin() (vtime.TimePoint, bool) {
	b, ok := q.minBucket()
	if !ok {
		return vtime.Zero, false
	}
	min := b[0]
	for _, e := range b[1:] {
		if e.tn.Compare(min.tn) < 0 {
			min = e
		}
	}
	return min.tn, true
}

func (q *CalendarQueue) PopImminent() []Handle {
	if len(q.active) == 0 {
		return nil
	}
	idx := q.active[0]
	bucket := q.buckets[idx]

	min := bucket[0].tn
	for _, e := range bucket[1:] {
		if e.tn.Compare(min) < 0 {
			min = e.tn
		}
	}

	var popped, remaining []entry
	for _, e := range bucket {
		if e.tn.Equal(min) {
			popped = append(popped, e)
			delete(q.at, e.handle)
		} else {
			remaining = append(remaining, e)
		}
	}
	if len(remaining) == 0 {
		delete(q.buckets, idx)
		q.removeActiveIndex(idx)
	} else {
		q.buckets[idx] = remaining
	}
	q.n -= len(popped)

	sortEntriesBySeq(popped)
	out := make([]Handle, len(popped))
	for i, e := range popped {
		out[i] = e.handle
	}
	return out
}

func (q *CalendarQueue) Size() int { return q.n }

func (q *CalendarQueue) TieBreakOrder(t vtime.TimePoint) []Handle {
	idx := q.bucketIndex(t)
	var matched []entry
	for _, e := range q.buckets[idx] {
		if e.tn.Equal(t) {
			matched = append(matched, e)
		}
	}
	sortEntriesBySeq(matched)
	out := make([]Handle, len(matched))
	for i, e := range matched {
		out[i] = e.handle
	}
	return out
}
