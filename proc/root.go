package proc

import (
	"github.com/sarchlab/quartz/duration"
	"github.com/sarchlab/quartz/model"
	"github.com/sarchlab/quartz/routing"
	"github.com/sarchlab/quartz/vtime"
)

// StepReport summarizes one RootCoordinator.Step call, for sim's
// TransitionStats bookkeeping and Observer notifications.
type StepReport struct {
	Time        vtime.TimePoint
	Transitions map[model.Atomic]TransitionKind
}

// RootCoordinator wraps the top coupled model and drives the overall loop
// (spec section 4.7: "Root wraps the top coupled model; drives the overall
// loop").
type RootCoordinator struct {
	*Coordinator

	simByAtomic map[model.Atomic]*Simulator
	observers   []Observer
}

// AddObserver registers o to receive every subsequent notification.
func (r *RootCoordinator) AddObserver(o Observer) {
	r.observers = append(r.observers, o)
}

func (r *RootCoordinator) notify(n Notification) {
	for _, o := range r.observers {
		o.Update(n)
	}
}

// Initialize runs step 1 of the PDEVS protocol across the whole tree.
func (r *RootCoordinator) Initialize(t0 vtime.TimePoint) error {
	return r.Coordinator.Initialize(t0)
}

// Done reports whether the simulation has nothing left to do: the event
// set is empty or the root's tn has reached infinity (spec section 4.7
// step 4).
func (r *RootCoordinator) Done() bool {
	return r.Coordinator.tn.Infinite()
}

// Step advances the whole tree by one imminent time: collects every
// imminent Simulator's output, routes it to destination atomics, runs
// every touched Simulator's transition, and propagates the resulting tn
// changes back up the Coordinator tree. Returns a nil report and a nil
// error if the simulation was already Done.
func (r *RootCoordinator) Step() (*StepReport, error) {
	if r.Done() {
		return nil, nil
	}
	t := r.Coordinator.tn

	imminent := r.Coordinator.collectImminent(t)

	var dests []routing.Destination
	for _, sim := range imminent {
		d, err := sim.output()
		if err != nil {
			return nil, err
		}
		dests = append(dests, d...)
	}
	grouped := routing.GroupByAtomic(dests)

	// touched is built as an ordered slice, not by ranging a map, so the
	// transition order within one simultaneous imminent set is
	// deterministic (spec section 5: "their order within the simultaneous
	// imminent set is determined by... the event set's tie-breaking"):
	// imminent simulators first, in collectImminent's already tie-broken
	// order, then any simulator reached only via a delivered bag, in the
	// order routing discovered its Destination.
	touched := r.touchedOrder(imminent, dests)

	report := r.runTransitions(t, touched, grouped)
	return report, nil
}

// touchedOrder merges forced (already ordered, e.g. an imminent set) with
// every Simulator reachable only via dests, deduplicating while preserving
// both orders — forced first, then each new dests arrival in the order
// routing discovered it. Used by both Step and the external-input path so
// neither ever determines transition order by ranging a map.
func (r *RootCoordinator) touchedOrder(forced []*Simulator, dests []routing.Destination) []*Simulator {
	seen := make(map[*Simulator]bool, len(forced))
	touched := make([]*Simulator, 0, len(forced)+len(dests))
	for _, sim := range forced {
		if !seen[sim] {
			seen[sim] = true
			touched = append(touched, sim)
		}
	}
	for _, d := range dests {
		atomic, ok := d.Port.Host().(model.Atomic)
		if !ok {
			continue
		}
		sim, ok := r.simByAtomic[atomic]
		if !ok || seen[sim] {
			continue
		}
		seen[sim] = true
		touched = append(touched, sim)
	}
	return touched
}

func (r *RootCoordinator) runTransitions(t vtime.TimePoint, touched []*Simulator, grouped map[model.Atomic]model.Bag) *StepReport {
	report := &StepReport{Time: t, Transitions: make(map[model.Atomic]TransitionKind, len(touched))}
	for _, sim := range touched {
		bag := grouped[sim.Atomic]
		kind := sim.transition(t, bag)
		report.Transitions[sim.Atomic] = kind
		r.notify(Notification{Event: ModelTransition, Model: sim.Atomic, Time: t, Transition: kind, ProcessorID: sim.ID()})
	}
	return report
}

// InjectInput feeds a value into one of the root model's own input ports
// from outside the model hierarchy, routing it exactly as if it had
// arrived from an external driver (spec section 6's Simulation API is the
// only caller: a harness stimulating the root directly). The returned
// Destinations are in routing's deterministic attachment order; callers
// pass them straight to ApplyExternalBags so that order survives into the
// transition loop.
func (r *RootCoordinator) InjectInput(port *model.Port, value any) []routing.Destination {
	return routing.RouteFromParentInput(port, value)
}

// ApplyExternalBags runs ExternalTransition/ConfluentTransition immediately
// for every atomic dests reaches at time t, exactly like Step's
// touched-atomic loop but for input injected directly rather than
// discovered via collectImminent — used when InjectInput delivers before
// the next scheduled Step.
func (r *RootCoordinator) ApplyExternalBags(t vtime.TimePoint, dests []routing.Destination) (*StepReport, error) {
	grouped := routing.GroupByAtomic(dests)
	touched := r.touchedOrder(nil, dests)
	return r.runTransitions(t, touched, grouped), nil
}

// Infinity is the TimePoint Coordinators settle on once their entire
// subtree is exhausted; exported so sim can compare against it directly
// when deciding whether a configured end time was ever reached.
func Infinity() vtime.TimePoint {
	return vtime.Zero.Advance(duration.Infinity)
}
