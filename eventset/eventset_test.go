package eventset_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/quartz/duration"
	"github.com/sarchlab/quartz/eventset"
	"github.com/sarchlab/quartz/vtime"
)

func at(q float64) vtime.TimePoint {
	return vtime.Zero.Advance(duration.NewUnfixed(q, duration.Base))
}

type ctor struct {
	name string
	new  func() eventset.EventSet
}

var ctors = []ctor{
	{"BinaryHeap", func() eventset.EventSet { return eventset.NewBinaryHeap() }},
	{"FibonacciHeap", func() eventset.EventSet { return eventset.NewFibonacciHeap() }},
	{"HeapSet", func() eventset.EventSet { return eventset.NewHeapSet() }},
	{"LadderQueue", func() eventset.EventSet { return eventset.NewLadderQueue() }},
	{"CalendarQueue", func() eventset.EventSet { return eventset.NewCalendarQueue() }},
}

var _ = Describe("EventSet disciplines", func() {
	for _, c := range ctors {
		c := c
		Describe(c.name, func() {
			var es eventset.EventSet

			BeforeEach(func() {
				es = c.new()
			})

			It("starts empty", func() {
				Expect(es.Size()).To(Equal(0))
				_, ok := es.PeekMin()
				Expect(ok).To(BeFalse())
			})

			It("pops the single minimum when tn values differ", func() {
				es.Push("a", at(5))
				es.Push("b", at(2))
				es.Push("c", at(8))

				min, ok := es.PeekMin()
				Expect(ok).To(BeTrue())
				Expect(min.Equal(at(2))).To(BeTrue())

				popped := es.PopImminent()
				Expect(popped).To(ConsistOf("b"))
				Expect(es.Size()).To(Equal(2))
			})

			It("returns ties together, in push order", func() {
				es.Push("first", at(3))
				es.Push("second", at(3))
				es.Push("third", at(3))
				es.Push("later", at(10))

				popped := es.PopImminent()
				Expect(popped).To(Equal([]eventset.Handle{"first", "second", "third"}))
				Expect(es.Size()).To(Equal(1))
			})

			It("TieBreakOrder matches PopImminent's order without mutating", func() {
				es.Push("x", at(1))
				es.Push("y", at(1))

				order := es.TieBreakOrder(at(1))
				Expect(order).To(Equal([]eventset.Handle{"x", "y"}))
				Expect(es.Size()).To(Equal(2))

				popped := es.PopImminent()
				Expect(popped).To(Equal(order))
			})

			It("Adjust moves a handle to its new tn", func() {
				es.Push("a", at(5))
				es.Push("b", at(1))

				Expect(es.Adjust("a", at(0))).To(Succeed())

				min, _ := es.PeekMin()
				Expect(min.Equal(at(0))).To(BeTrue())
				Expect(es.PopImminent()).To(ConsistOf("a"))
			})

			It("Delete removes a handle entirely", func() {
				es.Push("a", at(1))
				es.Push("b", at(2))

				Expect(es.Delete("a")).To(Succeed())
				Expect(es.Size()).To(Equal(1))

				popped := es.PopImminent()
				Expect(popped).To(ConsistOf("b"))
			})

			It("Adjust/Delete on an unknown handle errors", func() {
				Expect(es.Adjust("ghost", at(1))).To(HaveOccurred())
				Expect(es.Delete("ghost")).To(HaveOccurred())
			})

			It("handles repeated push/pop cycles under churn", func() {
				for i := 0; i < 50; i++ {
					es.Push(i, at(float64(50-i)))
				}
				var last vtime.TimePoint
				count := 0
				for es.Size() > 0 {
					min, _ := es.PeekMin()
					if count > 0 {
						Expect(min.Compare(last) >= 0).To(BeTrue())
					}
					last = min
					es.PopImminent()
					count++
				}
				Expect(count).To(Equal(50))
			})
		})
	}
})
