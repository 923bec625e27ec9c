// Package vtime implements the monotone virtual clock (spec section 3's
// TimePoint) that the processor tree advances through Durations.
package vtime

import (
	"fmt"
	"math"
	"sort"

	"github.com/sarchlab/quartz/duration"
)

// TimePoint is an ordered, sparse positional sum of scaled multipliers: the
// virtual-time analogue of a multi-radix number, one term per Scale level
// actually touched by an advance. Unlike Duration it never coarsens, so the
// precision of any individual advance remains recoverable. A separate
// signed infinity accumulator tracks advances by Duration::INFINITY without
// polluting the finite terms.
type TimePoint struct {
	terms     map[duration.Scale]float64
	inf       float64 // 0, +1, or -1 signed infinity marker
	lastScale duration.Scale
	hasLast   bool
}

// Zero is the origin of virtual time.
var Zero = TimePoint{}

// LastScale returns the precision of the most recent Advance applied to
// this TimePoint, and whether one has happened yet.
func (t TimePoint) LastScale() (duration.Scale, bool) {
	return t.lastScale, t.hasLast
}

// Advance returns a new TimePoint equal to t + d. Finite durations are
// merged into the sparse term map at their own precision rather than being
// coarsened, so Advance(d1).Advance(d2)... remains exactly invertible by
// Sub. An infinite Duration instead sets the infinity marker.
func (t TimePoint) Advance(d duration.Duration) TimePoint {
	next := TimePoint{
		terms:     cloneTerms(t.terms),
		inf:       t.inf,
		lastScale: d.Precision(),
		hasLast:   true,
	}

	if d.Infinite() {
		next.inf = signOf(d.Quantity())
		return next
	}

	if next.terms == nil {
		next.terms = make(map[duration.Scale]float64)
	}
	next.terms[d.Precision()] += d.Multiplier()

	return next
}

func signOf(q float64) float64 {
	if q < 0 {
		return -1
	}
	return 1
}

func cloneTerms(in map[duration.Scale]float64) map[duration.Scale]float64 {
	out := make(map[duration.Scale]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Quantity reduces the TimePoint to a single base-precision float64. It is
// used for comparison and is the only place precision is actually
// collapsed; the sparse terms themselves are preserved exactly.
func (t TimePoint) Quantity() float64 {
	if t.inf != 0 {
		return math.Inf(int(t.inf))
	}
	var sum float64
	for p, m := range t.terms {
		sum += m * p.Factor()
	}
	return sum
}

// Infinite reports whether this TimePoint was reached via an infinite
// advance (i.e. it is never actually reached by the kernel).
func (t TimePoint) Infinite() bool { return t.inf != 0 }

// Sub returns the Duration t - o, expressed at the finest Scale present in
// either operand (spec section 3: "-TimePoint yielding a Duration").
func (t TimePoint) Sub(o TimePoint) duration.Duration {
	if t.inf != 0 || o.inf != 0 {
		return duration.NewUnfixed(t.Quantity()-o.Quantity(), duration.Base)
	}

	finest := finestScale(t.terms, o.terms)
	diff := rescaledSum(t.terms, finest) - rescaledSum(o.terms, finest)
	return duration.NewUnfixed(diff, finest)
}

func finestScale(a, b map[duration.Scale]float64) duration.Scale {
	finest := duration.Base
	first := true
	for p := range a {
		if first || p < finest {
			finest, first = p, false
		}
	}
	for p := range b {
		if first || p < finest {
			finest, first = p, false
		}
	}
	return finest
}

func rescaledSum(terms map[duration.Scale]float64, target duration.Scale) float64 {
	var sum float64
	for p, m := range terms {
		sum += m * (p.Factor() / target.Factor())
	}
	return sum
}

// Compare returns -1, 0, or 1 comparing t and o monotonically.
func (t TimePoint) Compare(o TimePoint) int {
	a, b := t.Quantity(), o.Quantity()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Before reports whether t < o.
func (t TimePoint) Before(o TimePoint) bool { return t.Compare(o) < 0 }

// After reports whether t > o.
func (t TimePoint) After(o TimePoint) bool { return t.Compare(o) > 0 }

// Equal reports whether t and o carry the same quantity.
func (t TimePoint) Equal(o TimePoint) bool { return t.Compare(o) == 0 }

func (t TimePoint) String() string {
	if t.inf != 0 {
		if t.inf > 0 {
			return "+inf"
		}
		return "-inf"
	}

	scales := make([]duration.Scale, 0, len(t.terms))
	for p := range t.terms {
		scales = append(scales, p)
	}
	sort.Slice(scales, func(i, j int) bool { return scales[i] > scales[j] })

	s := ""
	for _, p := range scales {
		s += fmt.Sprintf("%g@10^%d ", t.terms[p], int(p))
	}
	if s == "" {
		return "0"
	}
	return s
}
