package model

import "github.com/sarchlab/quartz/errs"

// EventSetKind enumerates the schedulers a Simulation may use to select
// the imminent subtree (spec section 6). A coupled model may declare a
// preference, which takes precedence over Simulation's scheduler for that
// model; Simulation's scheduler applies only where no preference is
// declared.
type EventSetKind int

// Event set disciplines (spec section 4.6).
const (
	SchedulerBinaryHeap EventSetKind = iota
	SchedulerFibonacciHeap
	SchedulerHeapSet
	SchedulerLadderQueue
	SchedulerCalendarQueue
)

func (k EventSetKind) String() string {
	switch k {
	case SchedulerBinaryHeap:
		return "binary_heap"
	case SchedulerFibonacciHeap:
		return "fibonacci_heap"
	case SchedulerHeapSet:
		return "heap_set"
	case SchedulerLadderQueue:
		return "ladder_queue"
	case SchedulerCalendarQueue:
		return "calendar_queue"
	default:
		return "unknown"
	}
}

// Coupled is the contract of a coupled (non-leaf) model (spec section
// 4.4): it owns children and three coupling lists, and exposes the Model
// construction API's attach operations (spec section 6).
type Coupled interface {
	Model

	Children() []Model
	AddChild(m Model) error

	AddInputPort(n Name) (*Port, error)
	AddOutputPort(n Name) (*Port, error)

	// Attach classifies src -> dst automatically into IC, EIC, or EOC
	// based on which side is this model and which side is a child (spec
	// section 4.2).
	Attach(src, dst *Port) error

	ICs() []Coupling
	EICs() []Coupling
	EOCs() []Coupling
	CouplingsFrom(p *Port) []Coupling

	PreferredEventSet() (EventSetKind, bool)
	SetPreferredEventSet(k EventSetKind)
}

// BaseCoupled implements the scaffolding every CoupledModel shares.
type BaseCoupled struct {
	ports portSet

	name     Name
	parent   Coupled
	children []Model

	ic, eic, eoc []Coupling

	preferred    EventSetKind
	hasPreferred bool

	// processor is a non-owning back-reference to the Coordinator driving
	// this model; see BaseAtomic's field of the same name.
	processor any
}

// NewBaseCoupled constructs the embeddable base of a coupled model.
func NewBaseCoupled(name Name) *BaseCoupled {
	c := &BaseCoupled{name: name}
	c.ports = newPortSet(c)
	return c
}

// Name returns the model's name.
func (c *BaseCoupled) Name() Name { return c.name }

// Parent returns the owning coupled model, or nil at the root.
func (c *BaseCoupled) Parent() Coupled { return c.parent }

func (c *BaseCoupled) setParent(p Coupled) { c.parent = p }

// AddInputPort declares an input port on this coupled model.
func (c *BaseCoupled) AddInputPort(n Name) (*Port, error) { return c.ports.addInput(n) }

// AddOutputPort declares an output port on this coupled model.
func (c *BaseCoupled) AddOutputPort(n Name) (*Port, error) { return c.ports.addOutput(n) }

// InputPort resolves an input port by name.
func (c *BaseCoupled) InputPort(n Name) (*Port, error) { return c.ports.input(n) }

// OutputPort resolves an output port by name.
func (c *BaseCoupled) OutputPort(n Name) (*Port, error) { return c.ports.output(n) }

// InputPorts lists input ports in declaration order.
func (c *BaseCoupled) InputPorts() []*Port { return c.ports.inputList() }

// OutputPorts lists output ports in declaration order.
func (c *BaseCoupled) OutputPorts() []*Port { return c.ports.outputList() }

// Children lists child models in the order they were added; processor
// construction and routing both rely on this order for the deterministic
// tie-breaking spec section 4.5 and 4.7 require.
func (c *BaseCoupled) Children() []Model {
	out := make([]Model, len(c.children))
	copy(out, c.children)
	return out
}

// AddChild adds m as a child of this coupled model, reparenting it.
// Re-adding an already-added child is a no-op.
func (c *BaseCoupled) AddChild(m Model) error {
	for _, ch := range c.children {
		if ch == m {
			return nil
		}
	}
	m.setParent(c)
	c.children = append(c.children, m)
	return nil
}

func (c *BaseCoupled) isChild(m Model) bool {
	for _, ch := range c.children {
		if ch == m {
			return true
		}
	}
	return false
}

// Attach classifies and installs a coupling between src and dst (spec
// section 4.2). Attaching an already-installed (src, dst) pair is a
// no-op (couplings are idempotent).
func (c *BaseCoupled) Attach(src, dst *Port) error {
	return c.attach(src, dst, 1)
}

// AttachMultiplicity classifies and installs a coupling exactly like
// Attach, but with an explicit multiplicity instead of the idempotent
// default of 1. routing.Flatten is the only caller: flattening collapses
// one or more nested paths onto a single (src, dst) pair and must record
// how many paths collapsed there (spec section 4.2's fan-out requirement).
func (c *BaseCoupled) AttachMultiplicity(src, dst *Port, multiplicity int) error {
	if multiplicity < 1 {
		multiplicity = 1
	}
	return c.attach(src, dst, multiplicity)
}

func (c *BaseCoupled) attach(src, dst *Port, multiplicity int) error {
	self := Model(c)
	srcHost, dstHost := src.Host(), dst.Host()

	switch {
	case srcHost == self && dstHost == self:
		return &errs.FeedbackCouplingError{Port: string(src.Name())}

	case c.isChild(srcHost) && c.isChild(dstHost) && srcHost != dstHost:
		if src.Mode() != Output || dst.Mode() != Input {
			return &errs.InvalidCouplingError{
				Src: portLabel(src), Dst: portLabel(dst),
				Reason: "IC requires an output source and an input destination",
			}
		}
		return c.install(IC, src, dst, multiplicity, &c.ic)

	case srcHost == self && c.isChild(dstHost):
		if src.Mode() != Input || dst.Mode() != Input {
			return &errs.InvalidCouplingError{
				Src: portLabel(src), Dst: portLabel(dst),
				Reason: "EIC requires two input ports (parent input down to child input)",
			}
		}
		return c.install(EIC, src, dst, multiplicity, &c.eic)

	case c.isChild(srcHost) && dstHost == self:
		if src.Mode() != Output || dst.Mode() != Output {
			return &errs.InvalidCouplingError{
				Src: portLabel(src), Dst: portLabel(dst),
				Reason: "EOC requires two output ports (child output up to parent output)",
			}
		}
		return c.install(EOC, src, dst, multiplicity, &c.eoc)

	default:
		return &errs.InvalidCouplingError{
			Src: portLabel(src), Dst: portLabel(dst),
			Reason: "coupling crosses a non-sibling boundary",
		}
	}
}

func (c *BaseCoupled) install(kind CouplingKind, src, dst *Port, multiplicity int, list *[]Coupling) error {
	for i := range *list {
		if (*list)[i].Src.Equal(src) && (*list)[i].Dst.Equal(dst) {
			return nil
		}
	}
	*list = append(*list, Coupling{Src: src, Dst: dst, Kind: kind, Multiplicity: multiplicity})
	return nil
}

func portLabel(p *Port) string {
	if p == nil || p.Host() == nil {
		return "<nil>"
	}
	return string(p.Host().Name()) + "." + string(p.Name())
}

// ICs returns the internal couplings installed on this coupled model.
func (c *BaseCoupled) ICs() []Coupling { return append([]Coupling{}, c.ic...) }

// EICs returns the external-input couplings installed on this coupled
// model.
func (c *BaseCoupled) EICs() []Coupling { return append([]Coupling{}, c.eic...) }

// EOCs returns the external-output couplings installed on this coupled
// model.
func (c *BaseCoupled) EOCs() []Coupling { return append([]Coupling{}, c.eoc...) }

// CouplingsFrom returns every coupling (of any kind) whose source is p, in
// declaration order: IC first, then EIC, then EOC.
func (c *BaseCoupled) CouplingsFrom(p *Port) []Coupling {
	var out []Coupling
	for _, l := range [][]Coupling{c.ic, c.eic, c.eoc} {
		for _, cp := range l {
			if cp.Src.Equal(p) {
				out = append(out, cp)
			}
		}
	}
	return out
}

// PreferredEventSet returns the scheduler kind this coupled model
// declares, if any.
func (c *BaseCoupled) PreferredEventSet() (EventSetKind, bool) {
	return c.preferred, c.hasPreferred
}

// SetPreferredEventSet declares this coupled model's preferred scheduler.
// It takes precedence over Simulation's scheduler setting, which is not
// able to override it.
func (c *BaseCoupled) SetPreferredEventSet(k EventSetKind) {
	c.preferred = k
	c.hasPreferred = true
}

// BindProcessor records the Coordinator driving this model. Binding to a
// second, different processor is rejected (spec section 7:
// InvalidProcessorError).
func (c *BaseCoupled) BindProcessor(p any) error {
	if c.processor != nil && c.processor != p {
		return &errs.InvalidProcessorError{Model: string(c.name)}
	}
	c.processor = p
	return nil
}

// VerifyProcessor reports an error if p is not the processor this model is
// bound to.
func (c *BaseCoupled) VerifyProcessor(p any) error {
	if c.processor != p {
		return &errs.InvalidProcessorError{Model: string(c.name)}
	}
	return nil
}
