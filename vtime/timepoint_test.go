package vtime_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sarchlab/quartz/duration"
	"github.com/sarchlab/quartz/vtime"
)

func TestAdvanceAndSub(t *testing.T) {
	start := vtime.Zero
	next := start.Advance(duration.NewUnfixed(5, duration.Base))

	diff := next.Sub(start)
	require.InDelta(t, 5.0, diff.Quantity(), 1e-9)
}

func TestAdvancePreservesLastScale(t *testing.T) {
	tp := vtime.Zero.Advance(duration.NewUnfixed(250, duration.Milli))
	scale, ok := tp.LastScale()
	require.True(t, ok)
	require.Equal(t, duration.Milli, scale)
}

func TestMonotoneOrdering(t *testing.T) {
	a := vtime.Zero.Advance(duration.NewUnfixed(1, duration.Base))
	b := a.Advance(duration.NewUnfixed(2, duration.Base))

	require.True(t, a.Before(b))
	require.True(t, b.After(a))
	require.False(t, a.Equal(b))
}

func TestInfiniteAdvanceNeverComparesLess(t *testing.T) {
	a := vtime.Zero.Advance(duration.Infinity)
	b := vtime.Zero.Advance(duration.NewUnfixed(1e6, duration.Base))

	require.True(t, b.Before(a))
	require.True(t, a.Infinite())
}

func TestMixedPrecisionAdvancesStayExact(t *testing.T) {
	tp := vtime.Zero.
		Advance(duration.NewUnfixed(2, duration.Base)).
		Advance(duration.NewUnfixed(500, duration.Milli))

	require.InDelta(t, 2.5, tp.Quantity(), 1e-9)
}
