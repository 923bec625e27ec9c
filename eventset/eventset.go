// Package eventset implements the five event-set disciplines spec section
// 4.6 names (binary heap, Fibonacci heap, heap-set, ladder queue, calendar
// queue). Every discipline satisfies the same EventSet contract, so a
// proc.Coordinator or proc.RootCoordinator can be built against any one of
// them interchangeably (selected via model.EventSetKind).
package eventset

import (
	"fmt"

	"github.com/sarchlab/quartz/vtime"
)

// Handle identifies one scheduled entry. The kernel always pushes
// *proc.Simulator or *proc.Coordinator pointers, whose identity comparison
// (==) is exactly the equality an event set needs; eventset itself stays
// ignorant of the proc package to avoid an import cycle (proc depends on
// eventset, not the other way around).
type Handle any

// EventSet is the scheduler contract spec section 4.6 describes: push,
// adjust, delete a handle's next-transition time, and pop the whole
// imminent (equal-tn) set at once.
type EventSet interface {
	// Push inserts h with next-transition time tn. Pushing an
	// already-present handle is equivalent to Adjust.
	Push(h Handle, tn vtime.TimePoint)

	// Adjust changes an already-pushed handle's tn.
	Adjust(h Handle, tn vtime.TimePoint) error

	// Delete removes a handle from the set.
	Delete(h Handle) error

	// PeekMin returns the minimum tn currently scheduled, and false if the
	// set is empty.
	PeekMin() (vtime.TimePoint, bool)

	// PopImminent removes and returns every handle whose tn equals the
	// current minimum (spec section 4.6: "ties ... must be returned
	// together"), in this event set's deterministic tie-break order.
	PopImminent() []Handle

	// Size reports how many handles are currently scheduled.
	Size() int

	// TieBreakOrder reports, without mutating the set, the order
	// PopImminent would return handles currently scheduled at exactly t
	// (spec section 5's deterministic ordering, exposed for inspection by
	// tests and Observers).
	TieBreakOrder(t vtime.TimePoint) []Handle
}

// entry is the common per-handle record every discipline below tracks:
// the handle itself, its scheduled time, and a strictly increasing
// sequence number, used only to break ties between equal tn values
// deterministically (insertion order), never to affect ordering between
// distinct tn values. BinaryHeap and FibonacciHeap keep the number a handle
// got at its first Push across later Push/Adjust calls; HeapSet,
// LadderQueue and CalendarQueue give it a fresh number on every Push or
// Adjust.
type entry struct {
	handle Handle
	tn     vtime.TimePoint
	seq    uint64
}

func tieBreakOrderFromEntries(entries []entry, t vtime.TimePoint) []Handle {
	var matched []entry
	for _, e := range entries {
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

// toLabel renders a Handle for error messages. Handles are typically
// *proc.Simulator/*proc.Coordinator pointers, whose %v form (an address)
// is enough to disambiguate which entry an error refers to.
func toLabel(h Handle) string {
	if named, ok := h.(fmt.Stringer); ok {
		return named.String()
	}
	return fmt.Sprintf("%v", h)
}

func sortEntriesBySeq(entries []entry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].seq < entries[j-1].seq; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}
