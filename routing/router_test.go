package routing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sarchlab/quartz/duration"
	"github.com/sarchlab/quartz/model"
	"github.com/sarchlab/quartz/routing"
)

type stubAtomic struct {
	*model.BaseAtomic
}

func newStub(name model.Name) *stubAtomic {
	a := &stubAtomic{BaseAtomic: model.NewBaseAtomic(name, duration.Base, nil)}
	a.Init(a)
	return a
}

func (s *stubAtomic) TimeAdvance() duration.Duration { return duration.Infinity }
func (s *stubAtomic) InternalTransition()            {}
func (s *stubAtomic) ExternalTransition(model.Bag)   {}
func (s *stubAtomic) Output()                        {}

func TestRouteFromOutputDirectIC(t *testing.T) {
	parent := model.NewBaseCoupled("P")
	a, b := newStub("A"), newStub("B")
	require.NoError(t, parent.AddChild(a))
	require.NoError(t, parent.AddChild(b))

	out, _ := a.AddOutputPort("out")
	in, _ := b.AddInputPort("in")
	require.NoError(t, parent.Attach(out, in))

	dests := routing.RouteFromOutput(out, 7)
	require.Len(t, dests, 1)
	require.Equal(t, in, dests[0].Port)
	require.Equal(t, 7, dests[0].Value)
}

func TestRouteFromOutputFanOutMultiplicity(t *testing.T) {
	parent := model.NewBaseCoupled("P")
	a, b := newStub("A"), newStub("B")
	require.NoError(t, parent.AddChild(a))
	require.NoError(t, parent.AddChild(b))

	out, _ := a.AddOutputPort("out")
	in, _ := b.AddInputPort("in")
	// declare a fan-out coupling with multiplicity 3 directly
	require.NoError(t, parent.AttachMultiplicity(out, in, 3))

	dests := routing.RouteFromOutput(out, "x")
	require.Len(t, dests, 3)
}

func TestRouteThroughNestedEICAndEOC(t *testing.T) {
	top := model.NewBaseCoupled("TOP")
	mid := model.NewBaseCoupled("MID")
	leaf := newStub("LEAF")
	require.NoError(t, top.AddChild(mid))
	require.NoError(t, mid.AddChild(leaf))

	topIn, _ := top.AddInputPort("in")
	midIn, _ := mid.AddInputPort("in")
	leafIn, _ := leaf.AddInputPort("in")
	require.NoError(t, top.Attach(topIn, midIn))
	require.NoError(t, mid.Attach(midIn, leafIn))

	leafOut, _ := leaf.AddOutputPort("out")
	midOut, _ := mid.AddOutputPort("out")
	topOut, _ := top.AddOutputPort("out")
	require.NoError(t, mid.Attach(leafOut, midOut))
	require.NoError(t, top.Attach(midOut, topOut))

	inDests := routing.RouteFromParentInput(topIn, "v")
	require.Len(t, inDests, 1)
	require.Equal(t, leafIn, inDests[0].Port)

	outDests := routing.RouteFromOutput(leafOut, "w")
	require.Empty(t, outDests) // terminates at TOP's own output, no atomic input reached
}

func TestGroupByAtomic(t *testing.T) {
	parent := model.NewBaseCoupled("P")
	a, b, c := newStub("A"), newStub("B"), newStub("C")
	require.NoError(t, parent.AddChild(a))
	require.NoError(t, parent.AddChild(b))
	require.NoError(t, parent.AddChild(c))

	out, _ := a.AddOutputPort("out")
	inB, _ := b.AddInputPort("in")
	inC, _ := c.AddInputPort("in")
	require.NoError(t, parent.Attach(out, inB))
	require.NoError(t, parent.Attach(out, inC))

	dests := routing.RouteFromOutput(out, 1)
	bags := routing.GroupByAtomic(dests)
	require.Len(t, bags, 2)
	require.Contains(t, bags, model.Atomic(b))
	require.Contains(t, bags, model.Atomic(c))
}
