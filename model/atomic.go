package model

import (
	"github.com/sarchlab/quartz/duration"
	"github.com/sarchlab/quartz/errs"
	"github.com/sarchlab/quartz/state"
)

// Bag is an atomic model's input message bag: values queued per input port
// for one external/confluent transition. The formalism leaves a bag's
// value type dynamic (DESIGN.md's "Message bag as dynamic value" note);
// Go's `any` plays the role the original's tagged Any sum type would.
type Bag map[Name][]any

// Atomic is the contract an atomic model implements (spec section 4.3).
// Concrete models embed *BaseAtomic, which supplies Model, Elapsed,
// Precision, State/SetState, Post, and a default ConfluentTransition; the
// four behavior methods remain abstract.
type Atomic interface {
	Model

	TimeAdvance() duration.Duration
	InternalTransition()
	ExternalTransition(bag Bag)
	ConfluentTransition(bag Bag)
	Output()

	Elapsed() duration.Duration
	Precision() duration.Scale
	State() state.State
	SetState(s state.State) error
}

// BaseAtomic implements the scaffolding every Atomic model shares: ports,
// parent linkage, kernel-maintained elapsed/precision, declarative state,
// and an output accumulator drained once per step by the owning
// Simulator.
type BaseAtomic struct {
	ports portSet

	name      Name
	parent    Coupled
	elapsed   duration.Duration
	precision duration.Scale
	class     *state.Class
	current   state.State
	outbox    Bag

	self Atomic // set via Init; used only by the default ConfluentTransition

	// processor is a non-owning back-reference to the Simulator driving
	// this model, resolved only for equality checks (DESIGN.md's "Cyclic
	// ownership between model and processor": the processor exclusively
	// owns the model, the model never owns the processor).
	processor any
}

// NewBaseAtomic constructs the embeddable base of an atomic model. class
// may be nil for atomic models that carry no declarative Stateful fields.
func NewBaseAtomic(name Name, precision duration.Scale, class *state.Class) *BaseAtomic {
	a := &BaseAtomic{
		name:      name,
		precision: precision,
		elapsed:   duration.Zero,
		class:     class,
		outbox:    make(Bag),
	}
	a.ports = newPortSet(a)
	if class != nil {
		a.current = class.MustNew(nil)
	}
	return a
}

// Init records the concrete Atomic value embedding this BaseAtomic, so the
// default ConfluentTransition can invoke the concrete InternalTransition
// and ExternalTransition overrides. Model constructors must call this
// after embedding, before the model is handed to a Coordinator.
func (a *BaseAtomic) Init(self Atomic) { a.self = self }

// Name returns the model's name.
func (a *BaseAtomic) Name() Name { return a.name }

// Parent returns the owning coupled model, or nil at the root.
func (a *BaseAtomic) Parent() Coupled { return a.parent }

func (a *BaseAtomic) setParent(c Coupled) { a.parent = c }

// AddInputPort declares an input port on this atomic model.
func (a *BaseAtomic) AddInputPort(n Name) (*Port, error) { return a.ports.addInput(n) }

// AddOutputPort declares an output port on this atomic model.
func (a *BaseAtomic) AddOutputPort(n Name) (*Port, error) { return a.ports.addOutput(n) }

// InputPort resolves an input port by name.
func (a *BaseAtomic) InputPort(n Name) (*Port, error) { return a.ports.input(n) }

// OutputPort resolves an output port by name.
func (a *BaseAtomic) OutputPort(n Name) (*Port, error) { return a.ports.output(n) }

// InputPorts lists input ports in declaration order.
func (a *BaseAtomic) InputPorts() []*Port { return a.ports.inputList() }

// OutputPorts lists output ports in declaration order.
func (a *BaseAtomic) OutputPorts() []*Port { return a.ports.outputList() }

// Elapsed returns the time since this model's last transition, maintained
// by the kernel.
func (a *BaseAtomic) Elapsed() duration.Duration { return a.elapsed }

// SetElapsed is kernel-only: Simulator calls it when entering a
// transition. Model code must never call this (spec: "elapsed is
// maintained by the kernel, not the model").
func (a *BaseAtomic) SetElapsed(d duration.Duration) { a.elapsed = d }

// Precision returns the model's declared time-precision scale.
func (a *BaseAtomic) Precision() duration.Scale { return a.precision }

// State returns the model's current declarative state.
func (a *BaseAtomic) State() state.State { return a.current }

// SetState replaces the model's current state, rejecting a State whose
// Class does not match exactly.
func (a *BaseAtomic) SetState(s state.State) error {
	if a.class == nil {
		a.current = s
		return nil
	}
	if err := state.AssignTo(a.class, string(a.name), s); err != nil {
		return err
	}
	a.current = s
	return nil
}

// Post queues v for delivery on port, which must be one of this model's
// own output ports (spec: "Posting to a port whose host ≠ self is an
// error").
func (a *BaseAtomic) Post(v any, port *Port) error {
	if port.Mode() != Output {
		return &errs.InvalidPortHostError{Model: string(a.name), Port: string(port.Name())}
	}
	if port.Host() != Model(a) {
		return &errs.InvalidPortHostError{Model: string(a.name), Port: string(port.Name())}
	}
	a.outbox[port.Name()] = append(a.outbox[port.Name()], v)
	return nil
}

// DrainOutput returns and clears the accumulated output bag; called by the
// kernel immediately after Output() runs.
func (a *BaseAtomic) DrainOutput() Bag {
	out := a.outbox
	a.outbox = make(Bag)
	return out
}

// BindProcessor records the Simulator driving this model. Binding to a
// second, different processor is rejected (spec section 7:
// InvalidProcessorError, "attempting to drive a model through a processor
// that does not own it").
func (a *BaseAtomic) BindProcessor(p any) error {
	if a.processor != nil && a.processor != p {
		return &errs.InvalidProcessorError{Model: string(a.name)}
	}
	a.processor = p
	return nil
}

// VerifyProcessor reports an error if p is not the processor this model is
// bound to.
func (a *BaseAtomic) VerifyProcessor(p any) error {
	if a.processor != p {
		return &errs.InvalidProcessorError{Model: string(a.name)}
	}
	return nil
}

// ConfluentTransition is the default δcon = δint ∘ δext (spec section
// 4.3). A concrete model overrides it by declaring its own
// ConfluentTransition method, which Go's method resolution prefers over
// this promoted one.
func (a *BaseAtomic) ConfluentTransition(bag Bag) {
	if a.self == nil {
		panic("model " + string(a.name) + ": BaseAtomic.Init(self) was never called")
	}
	a.self.InternalTransition()
	a.self.ExternalTransition(bag)
}
