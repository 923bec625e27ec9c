// Package proc implements the processor tree spec section 4.7 describes:
// Simulator wraps one atomic model, Coordinator wraps one coupled model
// and owns an event set over its children, and RootCoordinator drives the
// overall loop. Message delivery at every level is expressed through the
// routing package's transitive closure rather than per-level forwarding
// calls, since routing.RouteFromOutput already walks exactly the IC/EIC/EOC
// chain spec section 4.7 describes "the Coordinator at each level" as
// performing.
package proc

import (
	"github.com/rs/xid"

	"github.com/sarchlab/quartz/duration"
	"github.com/sarchlab/quartz/errs"
	"github.com/sarchlab/quartz/eventset"
	"github.com/sarchlab/quartz/model"
	"github.com/sarchlab/quartz/routing"
	"github.com/sarchlab/quartz/vtime"
)

// Processor is the shared capability set of Simulator and Coordinator: a
// node in the processor tree, tracked by its owning Coordinator's event
// set keyed by TN(). ID identifies the processor instance itself (not the
// model it wraps), so the same model name rebuilt across two processor
// trees (e.g. maintain_hierarchy true vs. false) is still distinguishable
// in notifications and logs.
type Processor interface {
	TL() vtime.TimePoint
	TN() vtime.TimePoint
	ID() xid.ID
}

// TransitionKind classifies which of δint/δext/δcon a Simulator invoked,
// reported to Observers via sim.Notification.
type TransitionKind int

// Transition kinds (spec section 6: "transition: symbol ∈ {init,
// internal, external, confluent}").
const (
	Init TransitionKind = iota
	Internal
	External
	Confluent
)

func (k TransitionKind) String() string {
	switch k {
	case Init:
		return "init"
	case Internal:
		return "internal"
	case External:
		return "external"
	case Confluent:
		return "confluent"
	default:
		return "unknown"
	}
}

// EventKind enumerates the notification events spec section 6 names.
// ModelTransition is this package's own addition: the per-model δ
// notification the same section's "update(model, info)" describes,
// fired once per touched atomic each Step; the lifecycle events around it
// are fired by the sim package, which wraps Initialize/Step/Abort.
type EventKind int

// Notification events (spec section 6).
const (
	PreInit EventKind = iota
	PostInit
	PreSimulation
	PostSimulation
	PostAbort
	PreStep
	PostStep
	ModelTransition
)

func (k EventKind) String() string {
	switch k {
	case PreInit:
		return "PRE_INIT"
	case PostInit:
		return "POST_INIT"
	case PreSimulation:
		return "PRE_SIMULATION"
	case PostSimulation:
		return "POST_SIMULATION"
	case PostAbort:
		return "POST_ABORT"
	case PreStep:
		return "PRE_STEP"
	case PostStep:
		return "POST_STEP"
	case ModelTransition:
		return "MODEL_TRANSITION"
	default:
		return "unknown"
	}
}

// Notification is the payload delivered to every Observer.Update call
// (spec section 6: "info carries {time, transition}").
type Notification struct {
	Event       EventKind
	Model       model.Model
	Time        vtime.TimePoint
	Transition  TransitionKind
	ProcessorID xid.ID
}

// Observer receives synchronous notifications at the lifecycle and
// per-model-transition points spec section 6 names. Update must not
// mutate simulator-owned state (spec section 5). Neither this package nor
// sim recovers a panic raised inside Update: it propagates out of the
// Step, Initialize or Simulate call that fired the notification.
type Observer interface {
	Update(n Notification)
}

// Simulator wraps one atomic model (spec section 4.7: "Simulator wraps one
// atomic; fields tl, tn").
type Simulator struct {
	Atomic model.Atomic
	tl, tn vtime.TimePoint
	parent *Coordinator
	id     xid.ID
}

// NewSimulator constructs a Simulator and binds it to the atomic it
// drives, assigning it a fresh instance ID (grounded on the teacher's
// sim.GetIDGenerator().Generate() idiom in cgra/msg.go, generalized from
// per-message IDs to per-processor IDs since quartz has no message
// envelope type of its own).
func NewSimulator(a model.Atomic) (*Simulator, error) {
	s := &Simulator{Atomic: a, id: xid.New()}
	if err := a.BindProcessor(s); err != nil {
		return nil, err
	}
	return s, nil
}

// ID returns this Simulator's unique instance identity.
func (s *Simulator) ID() xid.ID { return s.id }

// TL returns the virtual time of this Simulator's last transition.
func (s *Simulator) TL() vtime.TimePoint { return s.tl }

// TN returns this Simulator's next-transition time.
func (s *Simulator) TN() vtime.TimePoint { return s.tn }

// Initialize sets tl = t0, tn = t0 + ta(model) (spec section 4.7 step 1).
func (s *Simulator) Initialize(t0 vtime.TimePoint) error {
	if err := s.Atomic.VerifyProcessor(s); err != nil {
		return err
	}
	s.tl = t0
	s.tn = t0.Advance(s.Atomic.TimeAdvance().At(s.Atomic.Precision()))
	return nil
}

// output runs λ and routes every value the model posts through the global
// routing closure, returning every Destination it reaches. Output ports are
// visited in declaration order, so the Destinations come back in a
// deterministic order.
func (s *Simulator) output() ([]routing.Destination, error) {
	s.Atomic.Output()
	bag := s.Atomic.DrainOutput()

	var dests []routing.Destination
	for _, port := range s.Atomic.OutputPorts() {
		for _, v := range bag[port.Name()] {
			dests = append(dests, routing.RouteFromOutput(port, v)...)
		}
	}
	return dests, nil
}

// transition classifies and runs this Simulator's transition at time t
// given the externally-delivered bag (possibly empty), per spec section
// 4.7 step 3, then advances tl/tn and reports which kind ran. elapsed and
// the model's returned ta are rescaled onto the model's own declared
// Precision before the model ever sees them (spec section 4.3: "its
// elapsed and returned ta are rescaled into that precision on entry/exit
// by the kernel") — a model declared in Nano never observes an elapsed or
// ta expressed in some other Scale just because the kernel's TimePoint
// arithmetic happened to produce one.
func (s *Simulator) transition(t vtime.TimePoint, bag model.Bag) TransitionKind {
	p := s.Atomic.Precision()
	imminent := s.tn.Equal(t)
	hasInput := len(bag) > 0

	var kind TransitionKind
	switch {
	case imminent && !hasInput:
		s.Atomic.InternalTransition()
		kind = Internal
	case !imminent && hasInput:
		s.Atomic.SetElapsed(t.Sub(s.tl).At(p))
		s.Atomic.ExternalTransition(bag)
		kind = External
	default: // imminent && hasInput
		s.Atomic.SetElapsed(duration.Zero.At(p))
		s.Atomic.ConfluentTransition(bag)
		kind = Confluent
	}

	s.tl = t
	s.tn = t.Advance(s.Atomic.TimeAdvance().At(p))
	s.notifyPorts(t, kind)
	s.notifyParent()
	return kind
}

// notifyPorts fires this transition on every output port's own observers
// (spec section 6: "add_observer(o) on output ports and models"), in
// addition to the model/simulation-level Observer.Update RootCoordinator
// fires from Step. Most models have no port observers, so this is a no-op
// append/range over an empty slice in the common case.
func (s *Simulator) notifyPorts(t vtime.TimePoint, kind TransitionKind) {
	n := model.PortNotification{Time: t, Transition: model.TransitionSymbol(kind)}
	for _, port := range s.Atomic.OutputPorts() {
		port.Notify(n)
	}
}

func (s *Simulator) notifyParent() {
	if s.parent != nil {
		s.parent.childUpdated(s, s.tn)
	}
}

// Coordinator wraps one coupled model; owns child processors and its own
// event set, with tn = min child tn (spec section 4.7).
type Coordinator struct {
	Coupled  model.Coupled
	children []Processor
	events   eventset.EventSet
	tl, tn   vtime.TimePoint
	parent   *Coordinator
	id       xid.ID
}

// ID returns this Coordinator's unique instance identity.
func (c *Coordinator) ID() xid.ID { return c.id }

// Build constructs the processor tree rooted at root, recursing into every
// nested coupled model. defaultKind is used wherever a coupled model
// declares no PreferredEventSet of its own; a declared PreferredEventSet
// always takes precedence over defaultKind for that model's Coordinator.
func Build(root model.Coupled, defaultKind model.EventSetKind) (*RootCoordinator, error) {
	c, err := build(root, nil, defaultKind)
	if err != nil {
		return nil, err
	}
	return &RootCoordinator{Coordinator: c, simByAtomic: collectSimulators(c)}, nil
}

func build(c model.Coupled, parent *Coordinator, defaultKind model.EventSetKind) (*Coordinator, error) {
	co := &Coordinator{Coupled: c, parent: parent, id: xid.New()}
	if err := c.BindProcessor(co); err != nil {
		return nil, err
	}

	kind := defaultKind
	if preferred, ok := c.PreferredEventSet(); ok {
		kind = preferred
	}
	co.events = eventset.New(kind)

	for _, child := range c.Children() {
		switch m := child.(type) {
		case model.Atomic:
			sim, err := NewSimulator(m)
			if err != nil {
				return nil, err
			}
			sim.parent = co
			co.children = append(co.children, sim)
		case model.Coupled:
			childCo, err := build(m, co, defaultKind)
			if err != nil {
				return nil, err
			}
			co.children = append(co.children, childCo)
		default:
			return nil, &errs.InvalidProcessorError{Model: string(child.Name())}
		}
	}
	return co, nil
}

func collectSimulators(c *Coordinator) map[model.Atomic]*Simulator {
	out := make(map[model.Atomic]*Simulator)
	var walk func(*Coordinator)
	walk = func(co *Coordinator) {
		for _, ch := range co.children {
			switch p := ch.(type) {
			case *Simulator:
				out[p.Atomic] = p
			case *Coordinator:
				walk(p)
			}
		}
	}
	walk(c)
	return out
}

// TL returns the virtual time of this Coordinator's last transition.
func (c *Coordinator) TL() vtime.TimePoint { return c.tl }

// TN returns this Coordinator's next-transition time: the minimum tn
// across its children.
func (c *Coordinator) TN() vtime.TimePoint { return c.tn }

// Initialize recurses into every child, then sets this Coordinator's own
// event set and tn = min child tn (spec section 4.7 step 1).
func (c *Coordinator) Initialize(t0 vtime.TimePoint) error {
	if err := c.Coupled.VerifyProcessor(c); err != nil {
		return err
	}
	c.tl = t0
	for _, ch := range c.children {
		switch p := ch.(type) {
		case *Simulator:
			if err := p.Initialize(t0); err != nil {
				return err
			}
		case *Coordinator:
			if err := p.Initialize(t0); err != nil {
				return err
			}
		}
		c.events.Push(ch, ch.TN())
	}
	tn, ok := c.events.PeekMin()
	if !ok {
		tn = vtime.Zero.Advance(duration.Infinity)
	}
	c.tn = tn
	return nil
}

// collectImminent pops every child processor whose tn equals t out of this
// Coordinator's event set, recursing into nested Coordinators, and returns
// the Simulators among them (spec section 4.7 step 2: "ask the root for
// outputs of its imminent set").
func (c *Coordinator) collectImminent(t vtime.TimePoint) []*Simulator {
	if !c.tn.Equal(t) {
		return nil
	}
	var out []*Simulator
	for _, h := range c.events.PopImminent() {
		switch p := h.(type) {
		case *Simulator:
			out = append(out, p)
		case *Coordinator:
			out = append(out, p.collectImminent(t)...)
		}
	}
	tn, ok := c.events.PeekMin()
	if !ok {
		tn = vtime.Zero.Advance(duration.Infinity)
	}
	c.tn = tn
	return out
}

// childUpdated re-inserts child at its new tn and propagates the
// resulting minimum upward, exactly undoing the pop collectImminent
// performed once the child's own transition has settled its new tn.
func (c *Coordinator) childUpdated(child Processor, newTN vtime.TimePoint) {
	c.events.Push(child, newTN)
	tn, ok := c.events.PeekMin()
	if !ok {
		tn = vtime.Zero.Advance(duration.Infinity)
	}
	c.tn = tn
	if c.parent != nil {
		c.parent.childUpdated(c, c.tn)
	}
}
