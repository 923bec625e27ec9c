package sim_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sarchlab/quartz/duration"
	"github.com/sarchlab/quartz/model"
	"github.com/sarchlab/quartz/sim"
	"github.com/sarchlab/quartz/vtime"
)

type generator struct {
	*model.BaseAtomic
	intCalls int
	out      *model.Port
}

func newGenerator(name model.Name) *generator {
	g := &generator{BaseAtomic: model.NewBaseAtomic(name, duration.Base, nil)}
	g.Init(g)
	g.out, _ = g.AddOutputPort("out")
	return g
}

func (g *generator) TimeAdvance() duration.Duration { return duration.NewUnfixed(1, duration.Base) }
func (g *generator) InternalTransition()            { g.intCalls++ }
func (g *generator) ExternalTransition(model.Bag)   {}
func (g *generator) Output()                        { _ = g.Post("value", g.out) }

type receiver struct {
	*model.BaseAtomic
	extCalls int
	in       *model.Port
}

func newReceiver(name model.Name) *receiver {
	r := &receiver{BaseAtomic: model.NewBaseAtomic(name, duration.Base, nil)}
	r.Init(r)
	r.in, _ = r.AddInputPort("in")
	return r
}

func (r *receiver) TimeAdvance() duration.Duration { return duration.Infinity }
func (r *receiver) InternalTransition()             {}
func (r *receiver) ExternalTransition(model.Bag)    { r.extCalls++ }
func (r *receiver) Output()                          {}

func buildGenReceiver(t *testing.T) (*generator, *receiver, model.Coupled) {
	t.Helper()
	parent := model.NewBaseCoupled("P")
	g := newGenerator("G")
	r := newReceiver("R")
	require.NoError(t, parent.AddChild(g))
	require.NoError(t, parent.AddChild(r))
	require.NoError(t, parent.Attach(g.out, r.in))
	return g, r, parent
}

func TestStepDrivesGeneratorAndReceiver(t *testing.T) {
	g, r, parent := buildGenReceiver(t)

	s, err := sim.NewBuilder(parent).Build()
	require.NoError(t, err)
	require.NoError(t, s.Initialize(vtime.Zero))

	for i := 0; i < 5; i++ {
		more, stepErr := s.Step()
		require.NoError(t, stepErr)
		if !more {
			break
		}
	}

	require.GreaterOrEqual(t, g.intCalls, 1)
	require.GreaterOrEqual(t, r.extCalls, 1)
}

func TestTransitionStatsAccumulateTotals(t *testing.T) {
	g, r, parent := buildGenReceiver(t)
	_ = g
	_ = r

	s, err := sim.NewBuilder(parent).Build()
	require.NoError(t, err)
	require.NoError(t, s.Initialize(vtime.Zero))

	_, err = s.Step()
	require.NoError(t, err)

	internal, external, confluent, total := s.TransitionStats().Total()
	require.Equal(t, 1, internal)
	require.Equal(t, 1, external)
	require.Equal(t, 0, confluent)
	require.Equal(t, 2, total)
}

func TestWithEndTimeStopsBeforeReachingIt(t *testing.T) {
	g, _, parent := buildGenReceiver(t)

	end := vtime.Zero.Advance(duration.NewUnfixed(3, duration.Base))
	s, err := sim.NewBuilder(parent).WithEndTime(end).Build()
	require.NoError(t, err)
	require.NoError(t, s.Initialize(vtime.Zero))

	for {
		more, stepErr := s.Step()
		require.NoError(t, stepErr)
		if !more {
			break
		}
	}

	require.True(t, s.Done())
	require.LessOrEqual(t, g.intCalls, 3)
}

func TestAbortHaltsFurtherSteps(t *testing.T) {
	_, _, parent := buildGenReceiver(t)

	s, err := sim.NewBuilder(parent).Build()
	require.NoError(t, err)
	require.NoError(t, s.Initialize(vtime.Zero))

	s.Abort()
	more, stepErr := s.Step()
	require.NoError(t, stepErr)
	require.False(t, more)
	require.True(t, s.Done())
}

type recordingObserver struct {
	events []sim.Notification
}

func (o *recordingObserver) Update(n sim.Notification) {
	o.events = append(o.events, n)
}

func TestObserverSeesLifecycleAndTransitionEvents(t *testing.T) {
	_, _, parent := buildGenReceiver(t)

	s, err := sim.NewBuilder(parent).Build()
	require.NoError(t, err)

	obs := &recordingObserver{}
	s.AddObserver(obs)

	require.NoError(t, s.Initialize(vtime.Zero))
	_, err = s.Step()
	require.NoError(t, err)

	var sawPreInit, sawPostInit, sawPreStep, sawPostStep, sawTransition bool
	for _, e := range obs.events {
		switch e.Event {
		case sim.PreInit:
			sawPreInit = true
		case sim.PostInit:
			sawPostInit = true
		case sim.PreStep:
			sawPreStep = true
		case sim.PostStep:
			sawPostStep = true
		case sim.ModelTransition:
			sawTransition = true
		}
	}
	require.True(t, sawPreInit)
	require.True(t, sawPostInit)
	require.True(t, sawPreStep)
	require.True(t, sawPostStep)
	require.True(t, sawTransition)
}

func TestMaintainHierarchyFalseFlattensBeforeBuild(t *testing.T) {
	top := model.NewBaseCoupled("TOP")
	mid := model.NewBaseCoupled("MID")
	g := newGenerator("G")
	r := newReceiver("R")
	require.NoError(t, mid.AddChild(g))
	require.NoError(t, mid.AddChild(r))
	require.NoError(t, mid.Attach(g.out, r.in))
	require.NoError(t, top.AddChild(mid))

	s, err := sim.NewBuilder(top).WithMaintainHierarchy(false).Build()
	require.NoError(t, err)
	require.NoError(t, s.Initialize(vtime.Zero))

	_, err = s.Step()
	require.NoError(t, err)

	require.Equal(t, 1, r.extCalls)
}
