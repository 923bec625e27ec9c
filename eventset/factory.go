package eventset

import "github.com/sarchlab/quartz/model"

// New constructs the event set discipline a model.EventSetKind names (spec
// section 4.6's menu of schedulers).
func New(kind model.EventSetKind) EventSet {
	switch kind {
	case model.SchedulerFibonacciHeap:
		return NewFibonacciHeap()
	case model.SchedulerHeapSet:
		return NewHeapSet()
	case model.SchedulerLadderQueue:
		return NewLadderQueue()
	case model.SchedulerCalendarQueue:
		return NewCalendarQueue()
	default:
		return NewBinaryHeap()
	}
}
