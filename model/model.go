package model

import "github.com/sarchlab/quartz/errs"

// Model is the shared capability set of Atomic and Coupled models (spec
// section 3's polymorphism over {Atomic, Coupled}), a tagged-variant
// substitute for inheritance per DESIGN.md's "Coupled model polymorphism"
// note: callers branch on a type switch/assertion to Atomic or Coupled
// rather than relying on virtual dispatch in the routing hot path.
type Model interface {
	Name() Name
	Parent() Coupled
	InputPort(n Name) (*Port, error)
	OutputPort(n Name) (*Port, error)
	InputPorts() []*Port
	OutputPorts() []*Port

	// BindProcessor and VerifyProcessor implement the model/processor
	// back-reference DESIGN.md describes: the processor exclusively owns
	// the model, the model only ever compares identity.
	BindProcessor(p any) error
	VerifyProcessor(p any) error

	// setParent is unexported: only this package's AddChild may reparent a
	// model, so a model's ownership can never be forged from the outside.
	setParent(Coupled)
}

// portSet is the shared port-table implementation embedded by both
// BaseAtomic and BaseCoupled.
type portSet struct {
	host    Model
	inputs  map[Name]*Port
	outputs map[Name]*Port
	// insertion order, for deterministic iteration (spec section 4.5's
	// "deterministic given a fixed child ordering" extends naturally to
	// port ordering within a model).
	inputOrder  []Name
	outputOrder []Name
}

func newPortSet(host Model) portSet {
	return portSet{
		host:    host,
		inputs:  make(map[Name]*Port),
		outputs: make(map[Name]*Port),
	}
}

func (ps *portSet) addInput(n Name) (*Port, error) {
	if p, ok := ps.inputs[n]; ok {
		return p, nil
	}
	p := newPort(ps.host, Input, n)
	ps.inputs[n] = p
	ps.inputOrder = append(ps.inputOrder, n)
	return p, nil
}

func (ps *portSet) addOutput(n Name) (*Port, error) {
	if p, ok := ps.outputs[n]; ok {
		return p, nil
	}
	p := newPort(ps.host, Output, n)
	ps.outputs[n] = p
	ps.outputOrder = append(ps.outputOrder, n)
	return p, nil
}

func (ps *portSet) input(n Name) (*Port, error) {
	p, ok := ps.inputs[n]
	if !ok {
		return nil, &errs.NoSuchPortError{Model: string(ps.host.Name()), Port: string(n)}
	}
	return p, nil
}

func (ps *portSet) output(n Name) (*Port, error) {
	p, ok := ps.outputs[n]
	if !ok {
		return nil, &errs.NoSuchPortError{Model: string(ps.host.Name()), Port: string(n)}
	}
	return p, nil
}

func (ps *portSet) inputList() []*Port {
	out := make([]*Port, len(ps.inputOrder))
	for i, n := range ps.inputOrder {
		out[i] = ps.inputs[n]
	}
	return out
}

func (ps *portSet) outputList() []*Port {
	out := make([]*Port, len(ps.outputOrder))
	for i, n := range ps.outputOrder {
		out[i] = ps.outputs[n]
	}
	return out
}
