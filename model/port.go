package model

import (
	"github.com/sarchlab/quartz/errs"
	"github.com/sarchlab/quartz/vtime"
)

// TransitionSymbol mirrors proc.TransitionKind's {init, internal, external,
// confluent} classification (spec section 6), redeclared here rather than
// imported so that model, which proc itself depends on, never depends back
// on proc.
type TransitionSymbol int

// Transition symbols (spec section 6: "transition: symbol ∈ {init,
// internal, external, confluent}").
const (
	Init TransitionSymbol = iota
	Internal
	External
	Confluent
)

func (s TransitionSymbol) String() string {
	switch s {
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

// PortNotification is what a Port's observers receive: the same
// {time, transition} info a model-level Observer sees (spec section 6),
// scoped to the one output port it was attached to.
type PortNotification struct {
	Time       vtime.TimePoint
	Transition TransitionSymbol
}

// PortObserver receives PortNotifications from one observable output port.
type PortObserver interface {
	Update(n PortNotification)
}

// PortMode distinguishes a port's direction.
type PortMode int

// Port directions.
const (
	Input PortMode = iota
	Output
)

func (m PortMode) String() string {
	if m == Input {
		return "input"
	}
	return "output"
}

// Port is a directed plug on a model: (host, mode, name). Two ports are
// equal iff they share a host and a name (spec section 3).
type Port struct {
	host      Model
	mode      PortMode
	name      Name
	observers []PortObserver
}

// Host returns the model that owns this port.
func (p *Port) Host() Model { return p.host }

// Mode returns the port's direction.
func (p *Port) Mode() PortMode { return p.mode }

// Name returns the port's name.
func (p *Port) Name() Name { return p.name }

// Equal reports whether p and o are the same port (same host, same name).
func (p *Port) Equal(o *Port) bool {
	if p == o {
		return true
	}
	if p == nil || o == nil {
		return false
	}
	return p.host == o.host && p.name == o.name
}

func newPort(host Model, mode PortMode, name Name) *Port {
	return &Port{host: host, mode: mode, name: name}
}

// AddObserver registers o on this port (spec section 6: "add_observer(o)
// on output ports and models"). Only an atomic model's output port is
// observable (spec section 3: "Only output ports of atomic models are
// observable"); attaching to an input port, or to a coupled model's output
// port, is rejected with UnobservablePortError rather than silently
// accepted and never fired.
func (p *Port) AddObserver(o PortObserver) error {
	if _, ok := p.host.(Atomic); !ok || p.mode != Output {
		return &errs.UnobservablePortError{Port: string(p.name)}
	}
	p.observers = append(p.observers, o)
	return nil
}

// Notify is kernel-only: the owning Simulator calls it once per transition
// so this port's observers see the same {time, transition} info a
// model-level Observer does, scoped to the port they attached to.
func (p *Port) Notify(n PortNotification) {
	for _, o := range p.observers {
		o.Update(n)
	}
}
