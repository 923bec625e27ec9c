// Package sim provides the host-facing Simulation API spec section 6
// describes: construct a Simulation over a root coupled model, drive it
// with Simulate/Step/Abort, and read back virtual time and transition
// statistics. Lifecycle notifications (PRE_INIT, POST_INIT, PRE_SIMULATION,
// POST_SIMULATION, POST_ABORT, PRE_STEP, POST_STEP) are fired here, around
// the proc package's RootCoordinator calls; the ModelTransition
// notification fired per touched atomic lives in proc, since it is raised
// from inside RootCoordinator.Step itself. Simulation re-exports proc's
// Observer and Notification types rather than redeclaring them, so a
// single observer registered once sees both kinds of event.
package sim

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/quartz/model"
	"github.com/sarchlab/quartz/proc"
	"github.com/sarchlab/quartz/routing"
	"github.com/sarchlab/quartz/vtime"
)

// Observer and Notification are proc's types, re-exported under sim's
// public surface so host code imports only this package.
type (
	Observer     = proc.Observer
	Notification = proc.Notification
)

// Re-exported EventKind/TransitionKind constants (spec section 6's
// notification events and transition symbols).
const (
	PreInit         = proc.PreInit
	PostInit        = proc.PostInit
	PreSimulation   = proc.PreSimulation
	PostSimulation  = proc.PostSimulation
	PostAbort       = proc.PostAbort
	PreStep         = proc.PreStep
	PostStep        = proc.PostStep
	ModelTransition = proc.ModelTransition

	Init      = proc.Init
	Internal  = proc.Internal
	External  = proc.External
	Confluent = proc.Confluent
)

// Simulation is the host-facing construct spec section 6 names: built over
// one root coupled model, with a scheduler choice, an optional hierarchy
// flattening, and an optional end time cutoff.
type Simulation struct {
	root              model.Coupled
	scheduler         model.EventSetKind
	maintainHierarchy bool
	endTime           *vtime.TimePoint

	logger logrus.FieldLogger

	coord     *proc.RootCoordinator
	observers []Observer
	aborted   bool
	wallStart time.Time

	stats *TransitionStats
}

// SimulationBuilder accumulates construction options before Build creates
// the processor tree (spec section 6: "construct a Simulation(rootModel,
// {maintain_hierarchy, scheduler, end_time?})").
type SimulationBuilder struct {
	root              model.Coupled
	scheduler         model.EventSetKind
	maintainHierarchy bool
	endTime           *vtime.TimePoint
	logger            logrus.FieldLogger
}

// NewBuilder starts a SimulationBuilder over root, defaulting to the
// binary heap scheduler with hierarchy maintained (flattening opt-in).
func NewBuilder(root model.Coupled) *SimulationBuilder {
	return &SimulationBuilder{
		root:              root,
		scheduler:         model.SchedulerBinaryHeap,
		maintainHierarchy: true,
		logger:            logrus.StandardLogger(),
	}
}

// WithScheduler selects the event-set discipline used at every Coordinator
// level that does not declare its own PreferredEventSet.
func (b *SimulationBuilder) WithScheduler(k model.EventSetKind) *SimulationBuilder {
	b.scheduler = k
	return b
}

// WithMaintainHierarchy controls whether the coupled model tree is built
// as-is (true, default) or flattened via routing.Flatten before the
// processor tree is constructed (false).
func (b *SimulationBuilder) WithMaintainHierarchy(maintain bool) *SimulationBuilder {
	b.maintainHierarchy = maintain
	return b
}

// WithEndTime sets a virtual-time cutoff: Simulate/Step stop once the
// root's next transition time would reach or pass t, without running it.
func (b *SimulationBuilder) WithEndTime(t vtime.TimePoint) *SimulationBuilder {
	b.endTime = &t
	return b
}

// WithLogger overrides the diagnostic logger (default
// logrus.StandardLogger()).
func (b *SimulationBuilder) WithLogger(l logrus.FieldLogger) *SimulationBuilder {
	b.logger = l
	return b
}

// Build constructs the processor tree and returns a ready-to-Initialize
// Simulation.
func (b *SimulationBuilder) Build() (*Simulation, error) {
	root := b.root
	if !b.maintainHierarchy {
		root = routing.Flatten(root, root.Name())
	}

	coord, err := proc.Build(root, b.scheduler)
	if err != nil {
		return nil, err
	}

	return &Simulation{
		root:              root,
		scheduler:         b.scheduler,
		maintainHierarchy: b.maintainHierarchy,
		endTime:           b.endTime,
		logger:            b.logger,
		coord:             coord,
		stats:             newTransitionStats(),
	}, nil
}

// AddObserver registers o on every lifecycle and model-transition
// notification this Simulation raises.
func (s *Simulation) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
	s.coord.AddObserver(o)
}

func (s *Simulation) emit(n Notification) {
	for _, o := range s.observers {
		o.Update(n)
	}
}

// Initialize runs PRE_INIT/POST_INIT around proc.RootCoordinator.Initialize
// (spec section 6, section 4.7 step 1) and starts the wall-clock used by
// ElapsedSecs.
func (s *Simulation) Initialize(t0 vtime.TimePoint) error {
	s.wallStart = time.Now()

	s.emit(Notification{Event: PreInit, Time: t0})
	if err := s.coord.Initialize(t0); err != nil {
		return err
	}
	s.emit(Notification{Event: PostInit, Time: t0})
	return nil
}

// Step runs one PDEVS step (spec section 4.7 steps 2-4), recording
// transition counters and firing PRE_STEP/POST_STEP around it. Returns
// false once the simulation has nothing left to do or has reached its
// configured end time.
func (s *Simulation) Step() (bool, error) {
	if s.Done() {
		return false, nil
	}

	t := s.coord.TN()
	s.emit(Notification{Event: PreStep, Time: t})

	report, err := s.coord.Step()
	if err != nil {
		s.logger.WithError(err).Error("quartz: aborting simulation due to transition error")
		s.aborted = true
		return false, err
	}
	if report != nil {
		for atomic, kind := range report.Transitions {
			s.stats.record(atomic, kind, t)
		}
		s.logger.WithFields(logrus.Fields{
			"time":     t.String(),
			"imminent": len(report.Transitions),
		}).Debug("quartz: step complete")
	}

	s.emit(Notification{Event: PostStep, Time: t})
	return true, nil
}

// Simulate runs Step until it returns false (spec section 6's simulate()).
func (s *Simulation) Simulate() error {
	s.emit(Notification{Event: PreSimulation, Time: s.coord.TN()})
	for {
		more, err := s.Step()
		if err != nil {
			s.emit(Notification{Event: PostAbort, Time: s.VirtualTime()})
			return err
		}
		if !more {
			break
		}
	}
	if s.aborted {
		s.emit(Notification{Event: PostAbort, Time: s.VirtualTime()})
	} else {
		s.emit(Notification{Event: PostSimulation, Time: s.VirtualTime()})
	}
	return nil
}

// Abort marks the simulation finished from the outside (spec section 5:
// "Abort hooks let external notifiers mark a simulation finished; the
// kernel must honor the flag at step boundaries").
func (s *Simulation) Abort() {
	s.aborted = true
}

// Done reports whether Step would be a no-op: the event set is exhausted,
// the root's tn has reached infinity, the simulation was aborted, or the
// configured end time has been reached.
func (s *Simulation) Done() bool {
	if s.aborted {
		return true
	}
	if s.coord.Done() {
		return true
	}
	if s.endTime != nil && !s.coord.TN().Before(*s.endTime) {
		return true
	}
	return false
}

// VirtualTime returns the root's next scheduled transition time (tn).
// After a Step this is the time of the following event, not the time of
// the step just completed.
func (s *Simulation) VirtualTime() vtime.TimePoint {
	return s.coord.TN()
}

// TransitionStats returns the live transition counters (spec section 6:
// "transition_stats: counters for int/ext/con per model class and
// total").
func (s *Simulation) TransitionStats() *TransitionStats {
	return s.stats
}

// ElapsedSecs returns wall-clock seconds since Initialize was called (spec
// section 6: "elapsed_secs (wall-clock)").
func (s *Simulation) ElapsedSecs() float64 {
	if s.wallStart.IsZero() {
		return 0
	}
	return time.Since(s.wallStart).Seconds()
}

// InjectInput feeds value into one of the root model's own input ports and
// immediately applies the resulting external/confluent transitions (spec
// section 6's model construction API exposes the port; Simulation is the
// only thing that drives it once the processor tree exists).
func (s *Simulation) InjectInput(port *model.Port, t vtime.TimePoint, value any) error {
	dests := s.coord.InjectInput(port, value)
	if len(dests) == 0 {
		return nil
	}
	report, err := s.coord.ApplyExternalBags(t, dests)
	if err != nil {
		return err
	}
	for atomic, kind := range report.Transitions {
		s.stats.record(atomic, kind, t)
	}
	return nil
}

// Infinity re-exports proc.Infinity for callers comparing against
// end-of-simulation time without importing proc directly.
func Infinity() vtime.TimePoint { return proc.Infinity() }
