// Package routing implements spec section 4.5's message routing: the
// transitive closure over IC/EIC/EOC couplings that turns one atomic
// model's emitted output into input bags on every atomic model it reaches,
// and the optional flattening transform of spec section 4.2.
package routing

import "github.com/sarchlab/quartz/model"

// Destination is one (atomic input port, value) tuple produced by routing
// a single emitted value to its end. Two paths reaching the same port
// produce two Destination entries, preserving multiplicity (spec section
// 4.5: "Duplicates along distinct paths preserve multiplicity").
type Destination struct {
	Port  *model.Port
	Value any
}

func multiplicityOf(c model.Coupling) int {
	if c.Multiplicity <= 0 {
		return 1
	}
	return c.Multiplicity
}

// RouteFromOutput walks the transitive closure starting at an atomic
// model's output port, terminating at every atomic input port reachable
// via IC, EIC, and EOC couplings. Destinations are discovered in
// coupling-attachment order (spec section 9 open question (a): multiple
// paths delivering the same value to one input port preserve multiplicity
// but the source leaves delivery order undocumented — quartz fixes it as
// attachment order, so a port's CouplingsFrom sequence is the order its
// deliveries arrive in).
func RouteFromOutput(src *model.Port, value any) []Destination {
	var out []Destination
	walk(src, value, &out)
	return out
}

// RouteFromParentInput walks the transitive closure starting at a coupled
// model's own input port (used when an external driver feeds the root
// model directly, rather than via an atomic's output).
func RouteFromParentInput(src *model.Port, value any) []Destination {
	var out []Destination
	walk(src, value, &out)
	return out
}

func walk(port *model.Port, value any, out *[]Destination) {
	if _, isAtomic := port.Host().(model.Atomic); isAtomic {
		if port.Mode() == model.Input {
			*out = append(*out, Destination{Port: port, Value: value})
			return
		}
		walkFromChildOutput(port, value, out)
		return
	}

	coupled, ok := port.Host().(model.Coupled)
	if !ok {
		return
	}

	switch port.Mode() {
	case model.Input:
		walkCouplings(coupled.CouplingsFrom(port), value, out)
	case model.Output:
		walkFromChildOutput(port, value, out)
	}
}

// walkFromChildOutput resolves the couplings declared on the PARENT of
// port's host, treating port as a child's output port — true whether that
// child is an atomic model (the common case) or a coupled model forwarding
// through an EOC one level further up.
func walkFromChildOutput(port *model.Port, value any, out *[]Destination) {
	parent := port.Host().Parent()
	if parent == nil {
		return // root output port: nothing further to route to
	}
	walkCouplings(parent.CouplingsFrom(port), value, out)
}

func walkCouplings(couplings []model.Coupling, value any, out *[]Destination) {
	for _, cp := range couplings {
		for i := 0; i < multiplicityOf(cp); i++ {
			walk(cp.Dst, value, out)
		}
	}
}

// GroupByAtomic buckets a slice of Destinations into one Bag per
// destination atomic model, preserving the order Destinations were
// supplied in (the caller is responsible for supplying them in the
// deterministic order spec section 4.5 requires: a fixed child ordering
// at a given imminent time).
func GroupByAtomic(dests []Destination) map[model.Atomic]model.Bag {
	out := make(map[model.Atomic]model.Bag)
	for _, d := range dests {
		atomic, ok := d.Port.Host().(model.Atomic)
		if !ok {
			continue
		}
		bag, exists := out[atomic]
		if !exists {
			bag = make(model.Bag)
			out[atomic] = bag
		}
		bag[d.Port.Name()] = append(bag[d.Port.Name()], d.Value)
	}
	return out
}
