package routing

import "github.com/sarchlab/quartz/model"

// terminal is where a static closure walk ends: either an atomic model's
// input port, or (when the walk bubbles all the way up through one or more
// EOCs to) one of the flattening root's own output ports.
type terminal struct {
	atomicInput *model.Port
	rootOutput  *model.Port
}

// Flatten builds a new coupled model that is observationally equivalent to
// root (same own ports, same set of reachable atomic-to-atomic deliveries,
// same fan-out multiplicities) but contains only atomic children connected
// by direct IC couplings — collapsing every nested coupled shell (spec
// section 4.2). The original coupled shells and their couplings are left
// untouched, but Flatten reparents the atomic leaves themselves (not
// copies) into the new root, so model identity is preserved across the
// transform and the leaves' Parent() afterwards returns the new root.
func Flatten(root model.Coupled, name model.Name) model.Coupled {
	leaves := collectAtomicLeaves(root)

	// Closures are computed against the ORIGINAL hierarchy, before any
	// reparenting — reparenting a leaf changes what Parent() returns for
	// it, which would corrupt an upward (EOC) walk performed afterward.
	icCounts := make(map[*model.Port]map[*model.Port]int)
	eocCounts := make(map[*model.Port]map[*model.Port]int)
	for _, leaf := range leaves {
		for _, out := range leaf.OutputPorts() {
			for _, t := range closure(root, out) {
				switch {
				case t.atomicInput != nil:
					addCount(icCounts, out, t.atomicInput)
				case t.rootOutput != nil:
					addCount(eocCounts, out, t.rootOutput)
				}
			}
		}
	}

	eicCounts := make(map[*model.Port]map[*model.Port]int)
	for _, in := range root.InputPorts() {
		for _, t := range closure(root, in) {
			if t.atomicInput != nil {
				addCount(eicCounts, in, t.atomicInput)
			}
		}
	}

	flat := model.NewBaseCoupled(name)
	for _, p := range root.InputPorts() {
		flat.AddInputPort(p.Name())
	}
	for _, p := range root.OutputPorts() {
		flat.AddOutputPort(p.Name())
	}
	for _, leaf := range leaves {
		flat.AddChild(leaf)
	}

	// Reparented leaves are now direct children of flat, and flat's own
	// ports carry the same names as root's — so every collapsed path is
	// now literally a single-hop IC/EIC/EOC at flat's level.
	for srcOut, dests := range icCounts {
		for dstIn, mult := range dests {
			flat.AttachMultiplicity(srcOut, dstIn, mult)
		}
	}
	for rootIn, dests := range eicCounts {
		flatIn, err := flat.InputPort(rootIn.Name())
		if err != nil {
			continue
		}
		for dstIn, mult := range dests {
			flat.AttachMultiplicity(flatIn, dstIn, mult)
		}
	}
	for srcOut, dests := range eocCounts {
		for rootOut, mult := range dests {
			flatOut, err := flat.OutputPort(rootOut.Name())
			if err != nil {
				continue
			}
			flat.AttachMultiplicity(srcOut, flatOut, mult)
		}
	}

	return flat
}

func addCount(m map[*model.Port]map[*model.Port]int, src, dst *model.Port) {
	bucket, ok := m[src]
	if !ok {
		bucket = make(map[*model.Port]int)
		m[src] = bucket
	}
	bucket[dst]++
}

func collectAtomicLeaves(c model.Coupled) []model.Atomic {
	var out []model.Atomic
	for _, ch := range c.Children() {
		switch v := ch.(type) {
		case model.Atomic:
			out = append(out, v)
		case model.Coupled:
			out = append(out, collectAtomicLeaves(v)...)
		}
	}
	return out
}

// closure walks the static coupling graph starting at port, following the
// same IC/EIC/EOC transitive-closure rule RouteFromOutput/RouteFromParentInput
// apply at runtime, but recording terminals rather than delivering a value.
// A walk started at an atomic model's output port or at root's own input
// port always ends at one of: an atomic model's input port, or (only
// reachable from an atomic output port, via one or more EOCs) root's own
// output port.
func closure(root model.Coupled, port *model.Port) []terminal {
	var out []terminal
	var visit func(p *model.Port)

	visit = func(p *model.Port) {
		if _, isAtomic := p.Host().(model.Atomic); isAtomic {
			if p.Mode() == model.Input {
				out = append(out, terminal{atomicInput: p})
				return
			}
			parent := p.Host().Parent()
			if parent == nil {
				return
			}
			followFrom(parent, p, visit)
			return
		}

		coupled, ok := p.Host().(model.Coupled)
		if !ok {
			return
		}
		if coupled == root && p.Mode() == model.Output {
			out = append(out, terminal{rootOutput: p})
			return
		}

		switch p.Mode() {
		case model.Input:
			followFrom(coupled, p, visit)
		case model.Output:
			parent := coupled.Parent()
			if parent == nil {
				return
			}
			followFrom(parent, p, visit)
		}
	}

	visit(port)
	return out
}

func followFrom(coupled model.Coupled, p *model.Port, visit func(*model.Port)) {
	for _, cp := range coupled.CouplingsFrom(p) {
		for i := 0; i < multiplicityOf(cp); i++ {
			visit(cp.Dst)
		}
	}
}
