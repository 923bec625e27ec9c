package eventset

import (
	"sort"

	"github.com/sarchlab/quartz/errs"
	"github.com/sarchlab/quartz/vtime"
)

// LadderQueue is a simplified two-tier ladder (spec section 4.6: "multi-tier
// bucket calendars with dynamic resizing"): a sorted `bottom` tier holding
// the currently-nearest entries ready for direct pop, and an unsorted `top`
// overflow tier for entries far enough out that keeping them sorted isn't
// worth the cost yet. Once bottom grows past splitThreshold it is split at
// its median tn, pushing the far half up into top; once bottom drains to
// empty, top is poured back in and re-sorted. Unlike the full Tang et al.
// ladder (which stacks arbitrarily many rungs), this keeps exactly one
// split, trading some of the original's asymptotics for a much smaller,
// still-correct implementation — every PeekMin/PopImminent is served out
// of bottom, which always holds the global minimum whenever it is
// non-empty.
type LadderQueue struct {
	bottom []entry // sorted ascending by (tn, seq)
	top    []entry // unsorted overflow, all with tn >= windowEnd

	hasWindow bool
	windowEnd float64

	loc  map[Handle]bool // true = in bottom, false = in top
	n    int
	next uint64

	splitThreshold int
}

// NewLadderQueue constructs an empty LadderQueue.
func NewLadderQueue() *LadderQueue {
	return &LadderQueue{
		loc:            make(map[Handle]bool),
		splitThreshold: 16,
	}
}

func entryLess(a, b entry) bool {
	c := a.tn.Compare(b.tn)
	if c != 0 {
		return c < 0
	}
	return a.seq < b.seq
}

func (l *LadderQueue) Push(h Handle, tn vtime.TimePoint) {
	if _, ok := l.loc[h]; ok {
		l.removeEntry(h)
	}
	e := entry{handle: h, tn: tn, seq: l.next}
	l.next++
	l.n++

	if l.hasWindow && tn.Quantity() >= l.windowEnd {
		l.top = append(l.top, e)
		l.loc[h] = false
		return
	}
	l.insertSorted(e)
	l.loc[h] = true
	l.splitIfNeeded()
}

func (l *LadderQueue) insertSorted(e entry) {
	i := sort.Search(len(l.bottom), func(i int) bool { return entryLess(e, l.bottom[i]) })
	l.bottom = append(l.bottom, entry{})
	copy(l.bottom[i+1:], l.bottom[i:])
	l.bottom[i] = e
}

func (l *LadderQueue) splitIfNeeded() {
	if len(l.top) > 0 || len(l.bottom) <= l.splitThreshold {
		return
	}
	mid := len(l.bottom) / 2
	// Never split a run of equal tn across the two tiers: PopImminent must
	// see every entry at the minimum tn in bottom.
	for mid > 0 && l.bottom[mid-1].tn.Equal(l.bottom[mid].tn) {
		mid--
	}
	if mid == 0 {
		return
	}
	l.windowEnd = l.bottom[mid].tn.Quantity()
	l.hasWindow = true
	for _, e := range l.bottom[mid:] {
		l.top = append(l.top, e)
		l.loc[e.handle] = false
	}
	l.bottom = l.bottom[:mid]
}

func (l *LadderQueue) refillIfEmpty() {
	if len(l.bottom) != 0 || len(l.top) == 0 {
		return
	}
	l.bottom = l.top
	l.top = nil
	l.hasWindow = false
	sort.Slice(l.bottom, func(i, j int) bool { return entryLess(l.bottom[i], l.bottom[j]) })
	for _, e := range l.bottom {
		l.loc[e.handle] = true
	}
}

func (l *LadderQueue) removeEntry(h Handle) {
	inBottom, ok := l.loc[h]
	if !ok {
		return
	}
	if inBottom {
		for i, e := range l.bottom {
			if e.handle == h {
				l.bottom = append(l.bottom[:i], l.bottom[i+1:]...)
				break
			}
		}
	} else {
		for i, e := range l.top {
			if e.handle == h {
				l.top = append(l.top[:i], l.top[i+1:]...)
				break
			}
		}
	}
	delete(l.loc, h)
	l.n--
}

func (l *LadderQueue) Adjust(h Handle, tn vtime.TimePoint) error {
	if _, ok := l.loc[h]; !ok {
		return &errs.UnknownHandleError{Handle: toLabel(h)}
	}
	l.removeEntry(h)
	l.Push(h, tn)
	return nil
}

func (l *LadderQueue) Delete(h Handle) error {
	if _, ok := l.loc[h]; !ok {
		return &errs.UnknownHandleError{Handle: toLabel(h)}
	}
	l.removeEntry(h)
	return nil
}

func (l *LadderQueue) PeekMin() (vtime.TimePoint, bool) {
	l.refillIfEmpty()
	if len(l.bottom) == 0 {
		return vtime.Zero, false
	}
	return l.bottom[0].tn, true
}

func (l *LadderQueue) PopImminent() []Handle {
	l.refillIfEmpty()
	if len(l.bottom) == 0 {
		return nil
	}
	min := l.bottom[0].tn
	i := 0
	for i < len(l.bottom) && l.bottom[i].tn.Equal(min) {
		i++
	}
	popped := l.bottom[:i]
	l.bottom = l.bottom[i:]
	l.n -= len(popped)

	out := make([]Handle, len(popped))
	for k, e := range popped {
		out[k] = e.handle
		delete(l.loc, e.handle)
	}
	return out
}

func (l *LadderQueue) Size() int { return l.n }

func (l *LadderQueue) TieBreakOrder(t vtime.TimePoint) []Handle {
	var matched []entry
	for _, e := range l.bottom {
		if e.tn.Equal(t) {
			matched = append(matched, e)
		}
	}
	for _, e := range l.top {
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
