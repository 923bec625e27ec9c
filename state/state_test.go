package state_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sarchlab/quartz/state"
)

func TestDefaultsAndOverrides(t *testing.T) {
	class := state.NewClass("generator",
		state.FieldSpec{Name: "count", Default: func() any { return 0 }},
		state.FieldSpec{Name: "period", Default: func() any { return 1.0 }},
	)

	s, err := class.New(map[string]any{"period": 2.0})
	require.NoError(t, err)

	count, _ := s.Get("count")
	require.Equal(t, 0, count)

	period, _ := s.Get("period")
	require.Equal(t, 2.0, period)
}

func TestLazyFieldSeesEarlierFields(t *testing.T) {
	class := state.NewClass("buffer",
		state.FieldSpec{Name: "capacity", Default: func() any { return 4 }},
		state.FieldSpec{Name: "halfCapacity", Lazy: func(s state.State) any {
			return s.MustGet("capacity").(int) / 2
		}},
	)

	s, err := class.New(nil)
	require.NoError(t, err)

	half, _ := s.Get("halfCapacity")
	require.Equal(t, 2, half)
}

func TestMissingFieldWithoutDefaultFails(t *testing.T) {
	class := state.NewClass("broken",
		state.FieldSpec{Name: "required"},
	)

	_, err := class.New(nil)
	require.Error(t, err)
}

func TestSubclassExtendsParentFields(t *testing.T) {
	parent := state.NewClass("base", state.FieldSpec{Name: "x", Default: func() any { return 1 }})
	child := parent.Extend("derived", state.FieldSpec{Name: "y", Default: func() any { return 2 }})

	s, err := child.New(nil)
	require.NoError(t, err)

	x, _ := s.Get("x")
	y, _ := s.Get("y")
	require.Equal(t, 1, x)
	require.Equal(t, 2, y)
}

func TestAssignToRejectsCrossClassAssignment(t *testing.T) {
	parent := state.NewClass("base", state.FieldSpec{Name: "x", Default: func() any { return 1 }})
	child := parent.Extend("derived", state.FieldSpec{Name: "y", Default: func() any { return 2 }})

	parentState := parent.MustNew(nil)
	childState := child.MustNew(nil)

	require.Error(t, state.AssignTo(child, "childModel", parentState))
	require.Error(t, state.AssignTo(parent, "parentModel", childState))
	require.NoError(t, state.AssignTo(child, "childModel", childState))
}

func TestSetMutatesInPlace(t *testing.T) {
	class := state.NewClass("counter", state.FieldSpec{Name: "n", Default: func() any { return 0 }})
	s := class.MustNew(nil)

	s.Set("n", 5)

	n, _ := s.Get("n")
	require.Equal(t, 5, n)
}
