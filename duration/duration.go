package duration

import (
	"fmt"
	"math"

	"github.com/sarchlab/quartz/errs"
)

// MultiplierLimit is the largest absolute multiplier a finite Duration may
// carry before it collapses to infinity: 1000^5.
const MultiplierLimit = 1e15

// Duration is a signed, multi-scale quantity of virtual time: a multiplier
// at a given Scale, optionally locked ("fixed") to that scale.
type Duration struct {
	m     float64
	p     Scale
	fixed bool
}

// Infinity is the sentinel meaning "never" in the positive direction.
var Infinity = Duration{m: math.Inf(1), p: Base, fixed: false}

// NegInfinity is the sentinel meaning "never, in the past" direction; the
// kernel never schedules it but it is a valid operand.
var NegInfinity = Duration{m: math.Inf(-1), p: Base, fixed: false}

// Zero is the additive identity at base precision, unfixed.
var Zero = Duration{m: 0, p: Base, fixed: false}

// New constructs a Duration, collapsing to infinity if the multiplier
// exceeds MultiplierLimit.
func New(m float64, p Scale, fixed bool) Duration {
	if math.Abs(m) > MultiplierLimit && !math.IsInf(m, 0) {
		m = math.Inf(sign(m))
	}
	return Duration{m: m, p: p, fixed: fixed}
}

// NewFixed constructs a precision-locked Duration.
func NewFixed(m float64, p Scale) Duration {
	return New(m, p, true)
}

// NewUnfixed constructs a Duration free to be rescaled by arithmetic.
func NewUnfixed(m float64, p Scale) Duration {
	return New(m, p, false)
}

// From converts a decimal quantity at base precision into a Duration by
// repeatedly scaling by 1000 until the magnitude is at least 1, recording
// a negative precision, then rounding to the nearest integer multiplier.
// Values already >= 1 in magnitude round at base precision.
func From(n float64) Duration {
	if n == 0 || math.IsInf(n, 0) {
		return NewUnfixed(n, Base)
	}

	p := Base
	v := n
	for math.Abs(v) < 1 && math.Abs(v) > 0 {
		v *= 1000
		p--
	}

	return NewUnfixed(math.Round(v), p)
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

// Precision returns the Duration's scale.
func (d Duration) Precision() Scale { return d.p }

// Multiplier returns the raw multiplier, without scaling.
func (d Duration) Multiplier() float64 { return d.m }

// Fixed reports whether the Duration's precision is locked.
func (d Duration) Fixed() bool { return d.fixed }

// WithFixed returns a copy of d with its fixed flag set to v.
func (d Duration) WithFixed(v bool) Duration {
	d.fixed = v
	return d
}

// Finite reports whether d is a finite quantity.
func (d Duration) Finite() bool { return !math.IsInf(d.m, 0) }

// Infinite reports whether d is +/- infinity.
func (d Duration) Infinite() bool { return math.IsInf(d.m, 0) }

// Quantity returns the Duration's value as a float64 at base scale:
// m * 1000^p.
func (d Duration) Quantity() float64 {
	if d.Infinite() {
		return d.m
	}
	return d.m * d.p.Factor()
}

// Float64 is an alias of Quantity kept for call sites reading as a plain
// numeric conversion.
func (d Duration) Float64() float64 { return d.Quantity() }

// Equals compares two Durations bit-for-bit on (multiplier, precision).
func (d Duration) Equals(o Duration) bool {
	return d.m == o.m && d.p == o.p
}

// Compare returns -1, 0, or 1 comparing the quantities of d and o,
// considering durations at different precisions equal if their rescaled
// quantities match.
func (d Duration) Compare(o Duration) int {
	a, b := d.Quantity(), o.Quantity()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (d Duration) String() string {
	if d.Infinite() {
		if d.m > 0 {
			return "Duration::INFINITY"
		}
		return "Duration::-INFINITY"
	}
	tag := "~"
	if d.fixed {
		tag = "="
	}
	return fmt.Sprintf("%g%s10^%d", d.m, tag, int(d.p))
}

// rescale converts d's multiplier into an equivalent multiplier at target
// precision: m' such that m'*1000^target == m*1000^p.
func rescale(m float64, p, target Scale) float64 {
	return m * math.Pow(1000, float64(p-target))
}

// At returns d re-expressed at target precision, fixed to it: the same
// quantity, m' such that m'*1000^target == d.Quantity(). Used by the
// kernel to bring a model's elapsed/ta onto its own declared Precision
// (spec section 4.3: "elapsed and ta are rescaled into that precision on
// entry/exit by the kernel") regardless of what precision the Duration
// arrived at. Infinite Durations pass through unchanged, since no finite
// target scale changes their meaning.
func (d Duration) At(target Scale) Duration {
	if d.Infinite() {
		return d
	}
	return NewFixed(rescale(d.m, d.p, target), target)
}

func coarsenUnfixed(m float64, p Scale) (float64, Scale) {
	for math.Abs(m) >= MultiplierLimit && !math.IsInf(m, 0) {
		m /= 1000
		p++
	}
	return m, p
}

func refineUnfixed(m float64, p Scale) (float64, Scale) {
	for m != math.Trunc(m) {
		candidate := m * 1000
		if math.Abs(candidate) >= MultiplierLimit {
			break
		}
		m = candidate
		p--
	}
	return m, p
}

// Add implements spec section 4.1's "+": fixed operands must share
// precision; a fixed and an unfixed operand align to the fixed side; two
// unfixed operands compute at the finer precision and coarsen on overflow.
func (d Duration) Add(o Duration) (Duration, error) {
	return combine(d, o, "Add", func(a, b float64) float64 { return a + b })
}

// Sub implements spec section 4.1's "-", symmetric to Add.
func (d Duration) Sub(o Duration) (Duration, error) {
	return combine(d, o.Negate(), "Sub", func(a, b float64) float64 { return a + b })
}

// Negate returns -d at the same precision and fixedness.
func (d Duration) Negate() Duration {
	return Duration{m: -d.m, p: d.p, fixed: d.fixed}
}

func combine(a, b Duration, op string, f func(float64, float64) float64) (Duration, error) {
	if a.Infinite() || b.Infinite() {
		return combineInfinite(a, b, op)
	}

	switch {
	case a.fixed && b.fixed:
		if a.p != b.p {
			return Duration{}, &errs.BadSynchronisationError{
				LeftPrecision:  int(a.p),
				RightPrecision: int(b.p),
			}
		}
		m := f(a.m, b.m)
		return collapseFixed(m, a.p), nil

	case a.fixed && !b.fixed:
		m := f(a.m, rescale(b.m, b.p, a.p))
		return collapseFixed(m, a.p), nil

	case !a.fixed && b.fixed:
		m := f(rescale(a.m, a.p, b.p), b.m)
		return collapseFixed(m, b.p), nil

	default:
		finer := a.p
		if b.p < finer {
			finer = b.p
		}
		m := f(rescale(a.m, a.p, finer), rescale(b.m, b.p, finer))
		if math.IsNaN(m) {
			return Duration{}, &errs.ArithmeticError{Op: op}
		}
		m, p := coarsenUnfixed(m, finer)
		return NewUnfixed(m, p), nil
	}
}

func collapseFixed(m float64, p Scale) Duration {
	if math.IsNaN(m) {
		return NewFixed(math.NaN(), p)
	}
	if math.Abs(m) > MultiplierLimit {
		m = math.Inf(sign(m))
	}
	return NewFixed(m, p)
}

func combineInfinite(a, b Duration, op string) (Duration, error) {
	aInf, bInf := a.Infinite(), b.Infinite()
	switch {
	case aInf && bInf:
		as, bs := sign(a.m), sign(b.m)
		if op == "Sub" {
			bs = -bs
		}
		if as != bs {
			return Duration{}, &errs.ArithmeticError{Op: op}
		}
		return Duration{m: math.Inf(int(as)), p: a.p, fixed: a.fixed || b.fixed}, nil
	case aInf:
		return Duration{m: a.m, p: a.p, fixed: a.fixed}, nil
	default:
		m := b.m
		if op == "Sub" {
			m = -m
		}
		return Duration{m: m, p: b.p, fixed: b.fixed}, nil
	}
}

// MulScalar implements spec section 4.1's "a * n". Fixed durations round
// the product to the nearest multiplier, ties away from zero. Unfixed
// durations refine precision while a fractional part remains (and
// refinement does not overflow), or coarsen while the product overflows.
func (d Duration) MulScalar(n float64) (Duration, error) {
	if math.IsNaN(n) {
		return Duration{}, &errs.ArithmeticError{Op: "MulScalar"}
	}

	if d.Infinite() {
		if n == 0 {
			return Duration{}, &errs.ArithmeticError{Op: "MulScalar"}
		}
		return Duration{m: math.Inf(int(sign(d.m) * sign(n))), p: d.p, fixed: d.fixed}, nil
	}

	raw := d.m * n
	if math.IsNaN(raw) {
		return Duration{}, &errs.ArithmeticError{Op: "MulScalar"}
	}

	if d.fixed {
		return collapseFixed(math.Round(raw), d.p), nil
	}

	return rescaleUnfixedProduct(raw, d.p, n), nil
}

// DivScalar implements spec section 4.1's "a / n" (scalar), the mirror of
// MulScalar.
func (d Duration) DivScalar(n float64) (Duration, error) {
	if math.IsNaN(n) {
		return Duration{}, &errs.ArithmeticError{Op: "DivScalar"}
	}
	if n == 0 {
		if d.m == 0 {
			return Duration{}, &errs.ArithmeticError{Op: "DivScalar"}
		}
		if d.Infinite() {
			return Duration{}, &errs.ArithmeticError{Op: "DivScalar"}
		}
		return Duration{m: math.Inf(int(sign(d.m))), p: d.p, fixed: d.fixed}, nil
	}
	return d.MulScalar(1 / n)
}

func rescaleUnfixedProduct(raw float64, p Scale, n float64) Duration {
	switch {
	case math.Abs(n) < 1 && n != 0:
		m, np := refineUnfixed(raw, p)
		return NewUnfixed(m, np)
	case math.Abs(n) > 1:
		m, np := coarsenUnfixed(raw, p)
		return NewUnfixed(m, np)
	default:
		return NewUnfixed(raw, p)
	}
}

// DivDuration implements spec section 4.1's "a / b" (duration), a pure
// floating point ratio of quantities.
func (d Duration) DivDuration(o Duration) (float64, error) {
	a, b := d.Quantity(), o.Quantity()
	r := a / b
	if math.IsNaN(r) {
		return 0, &errs.ArithmeticError{Op: "DivDuration"}
	}
	return r, nil
}
