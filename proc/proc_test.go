package proc_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/golang/mock/gomock"

	"github.com/sarchlab/quartz/duration"
	"github.com/sarchlab/quartz/model"
	"github.com/sarchlab/quartz/proc"
	"github.com/sarchlab/quartz/vtime"
)

// portObserverFunc adapts a plain func to model.PortObserver, avoiding a
// named struct for the one-off listeners these tests need.
type portObserverFunc func(model.PortNotification)

func (f portObserverFunc) Update(n model.PortNotification) { f(n) }

type generator struct {
	*model.BaseAtomic
	intCalls, outputCalls int
	out                   *model.Port
}

func newGenerator(name model.Name) *generator {
	g := &generator{BaseAtomic: model.NewBaseAtomic(name, duration.Base, nil)}
	g.Init(g)
	g.out, _ = g.AddOutputPort("out")
	return g
}

func (g *generator) TimeAdvance() duration.Duration  { return duration.NewUnfixed(1, duration.Base) }
func (g *generator) InternalTransition()             { g.intCalls++ }
func (g *generator) ExternalTransition(model.Bag)    {}
func (g *generator) Output() {
	g.outputCalls++
	_ = g.Post("value", g.out)
}

type receiver struct {
	*model.BaseAtomic
	extCalls, intCalls int
	lastBag            model.Bag
	lastElapsed        duration.Duration
	in                 *model.Port
}

func newReceiver(name model.Name) *receiver {
	r := &receiver{BaseAtomic: model.NewBaseAtomic(name, duration.Base, nil)}
	r.Init(r)
	r.in, _ = r.AddInputPort("in")
	return r
}

func (r *receiver) TimeAdvance() duration.Duration { return duration.Infinity }
func (r *receiver) InternalTransition()            { r.intCalls++ }
func (r *receiver) ExternalTransition(bag model.Bag) {
	r.extCalls++
	r.lastBag = bag
	r.lastElapsed = r.Elapsed()
}
func (r *receiver) Output() {}

var _ = Describe("RootCoordinator", func() {
	It("runs the two-generator/one-receiver scenario (spec end-to-end #1)", func() {
		parent := model.NewBaseCoupled("P")
		g1, g2 := newGenerator("G1"), newGenerator("G2")
		r := newReceiver("R")
		Expect(parent.AddChild(g1)).To(Succeed())
		Expect(parent.AddChild(g2)).To(Succeed())
		Expect(parent.AddChild(r)).To(Succeed())
		Expect(parent.Attach(g1.out, r.in)).To(Succeed())
		Expect(parent.Attach(g2.out, r.in)).To(Succeed())

		root, err := proc.Build(parent, model.SchedulerBinaryHeap)
		Expect(err).NotTo(HaveOccurred())
		Expect(root.Initialize(vtime.Zero)).To(Succeed())

		report, err := root.Step()
		Expect(err).NotTo(HaveOccurred())
		Expect(report).NotTo(BeNil())

		Expect(g1.intCalls).To(Equal(1))
		Expect(g2.intCalls).To(Equal(1))
		Expect(g1.outputCalls).To(Equal(1))
		Expect(g2.outputCalls).To(Equal(1))
		Expect(r.extCalls).To(Equal(1))
		Expect(r.intCalls).To(Equal(0))
		Expect(r.lastBag["in"]).To(ConsistOf("value", "value"))
		Expect(r.lastElapsed.Equals(duration.NewUnfixed(1, duration.Base))).To(BeTrue())
	})

	It("notifies observers once per touched model per step", func() {
		ctrl := gomock.NewController(GinkgoT())
		defer ctrl.Finish()
		obs := NewMockObserver(ctrl)

		parent := model.NewBaseCoupled("P")
		g := newGenerator("G")
		Expect(parent.AddChild(g)).To(Succeed())

		root, err := proc.Build(parent, model.SchedulerBinaryHeap)
		Expect(err).NotTo(HaveOccurred())
		root.AddObserver(obs)
		Expect(root.Initialize(vtime.Zero)).To(Succeed())

		obs.EXPECT().Update(gomock.Any()).Times(1)
		_, err = root.Step()
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects building a model already bound to another Coordinator", func() {
		parent := model.NewBaseCoupled("P")
		g := newGenerator("G")
		Expect(parent.AddChild(g)).To(Succeed())

		_, err := proc.Build(parent, model.SchedulerBinaryHeap)
		Expect(err).NotTo(HaveOccurred())

		_, err = proc.Build(parent, model.SchedulerBinaryHeap)
		Expect(err).To(HaveOccurred())
	})

	It("never transitions an atomic with ta = infinity and no couplings", func() {
		parent := model.NewBaseCoupled("P")
		r := newReceiver("R")
		Expect(parent.AddChild(r)).To(Succeed())

		root, err := proc.Build(parent, model.SchedulerBinaryHeap)
		Expect(err).NotTo(HaveOccurred())
		Expect(root.Initialize(vtime.Zero)).To(Succeed())

		Expect(root.Done()).To(BeTrue())
		Expect(r.intCalls).To(Equal(0))
		Expect(r.extCalls).To(Equal(0))
	})

	It("fires a port observer once per touched transition (spec section 6's add_observer on output ports)", func() {
		parent := model.NewBaseCoupled("P")
		g := newGenerator("G")
		Expect(parent.AddChild(g)).To(Succeed())

		var seen []model.PortNotification
		Expect(g.out.AddObserver(portObserverFunc(func(n model.PortNotification) {
			seen = append(seen, n)
		}))).To(Succeed())

		root, err := proc.Build(parent, model.SchedulerBinaryHeap)
		Expect(err).NotTo(HaveOccurred())
		Expect(root.Initialize(vtime.Zero)).To(Succeed())

		_, err = root.Step()
		Expect(err).NotTo(HaveOccurred())

		Expect(seen).To(HaveLen(1))
		Expect(seen[0].Transition).To(Equal(model.Internal))
	})

	It("rejects an observer attached to an input port with UnobservablePortError", func() {
		r := newReceiver("R")
		err := r.in.AddObserver(portObserverFunc(func(model.PortNotification) {}))
		Expect(err).To(HaveOccurred())
	})

	It("advances atomics at mixed precisions without raising (spec end-to-end #4)", func() {
		const max = 5
		gen := newCountdownGenerator("GEN", max, duration.Micro)
		cpu := newCountdownGenerator("CPU", max, duration.Nano)

		parent := model.NewBaseCoupled("P")
		Expect(parent.AddChild(gen)).To(Succeed())
		Expect(parent.AddChild(cpu)).To(Succeed())

		root, err := proc.Build(parent, model.SchedulerBinaryHeap)
		Expect(err).NotTo(HaveOccurred())
		Expect(root.Initialize(vtime.Zero)).To(Succeed())

		for !root.Done() {
			_, stepErr := root.Step()
			Expect(stepErr).NotTo(HaveOccurred())
		}

		Expect(gen.intCalls).To(Equal(max + 1))
		Expect(cpu.intCalls).To(Equal(max + 1))
	})
})

// countdownGenerator fires once per time unit at its own precision until it
// has run max+1 times, then goes permanently quiescent (ta = Infinity);
// used to exercise multiple distinct Scales coexisting under one
// Coordinator's event set (spec end-to-end scenario 4).
type countdownGenerator struct {
	*model.BaseAtomic
	max, intCalls int
	scale         duration.Scale
}

func newCountdownGenerator(name model.Name, max int, scale duration.Scale) *countdownGenerator {
	g := &countdownGenerator{BaseAtomic: model.NewBaseAtomic(name, scale, nil), max: max, scale: scale}
	g.Init(g)
	return g
}

func (g *countdownGenerator) TimeAdvance() duration.Duration {
	if g.intCalls > g.max {
		return duration.Infinity
	}
	return duration.NewFixed(1, g.scale)
}
func (g *countdownGenerator) InternalTransition()          { g.intCalls++ }
func (g *countdownGenerator) ExternalTransition(model.Bag) {}
func (g *countdownGenerator) Output()                      {}
