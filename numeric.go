package rpgstat

import "math"

// Numeric abstracts over the scalar type used for stat arithmetic. Two
// backends are provided: FloatValue (native float64) and FixedPoint (a
// deterministic, scaled-integer representation). Implementers must document
// whether rounding is deterministic; FixedPoint's contract is that it is.
type Numeric[T any] interface {
	Add(other T) T
	Sub(other T) T
	Mul(other T) T
	Div(other T) T
	// Cmp returns -1, 0, or 1 as the receiver is less than, equal to, or
	// greater than other.
	Cmp(other T) int
	Zero() T
	One() T
	FromInt(n int64) T
	FromRational(numerator, denominator int64) T
	// FromFloat converts an f64 scalar into T, rounding to the backend's own
	// representable precision. Used where a computation is inherently
	// floating-point (e.g. the Diminishing stack rule's exponential decay)
	// regardless of which backend the resolver is instantiated with.
	FromFloat(f float64) T
	Float64() float64
}

// Saturating is an optional capability a Numeric backend may implement to
// report that its last-produced value sits at a representable limit rather
// than the mathematically exact result — FixedPoint's saturating add/mul,
// or FloatValue drifting to +/-Inf or NaN. The resolver consults it once per
// resolution to set ResolvedStat.Overflowed (§7).
type Saturating interface {
	Saturated() bool
}

// Min returns the lesser of a and b per the backend's Cmp.
func Min[T Numeric[T]](a, b T) T {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Max returns the greater of a and b per the backend's Cmp.
func Max[T Numeric[T]](a, b T) T {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// FloatValue is the native floating-point Numeric backend. Its arithmetic
// inherits IEEE-754 float64 semantics; accumulation order (documented in
// SPEC_FULL.md §9 / resolver.go) is stable but rounding is only as
// deterministic as the platform's float64 unit, which in practice means
// "deterministic within a single build of Go on amd64/arm64" rather than the
// bitwise cross-platform guarantee FixedPoint provides.
type FloatValue float64

func (v FloatValue) Add(other FloatValue) FloatValue { return v + other }
func (v FloatValue) Sub(other FloatValue) FloatValue { return v - other }
func (v FloatValue) Mul(other FloatValue) FloatValue { return v * other }
func (v FloatValue) Div(other FloatValue) FloatValue {
	if other == 0 {
		return 0
	}
	return v / other
}

func (v FloatValue) Cmp(other FloatValue) int {
	switch {
	case v < other:
		return -1
	case v > other:
		return 1
	default:
		return 0
	}
}

func (v FloatValue) Zero() FloatValue { return 0 }
func (v FloatValue) One() FloatValue  { return 1 }

func (v FloatValue) FromInt(n int64) FloatValue { return FloatValue(n) }

func (v FloatValue) FromRational(numerator, denominator int64) FloatValue {
	if denominator == 0 {
		return 0
	}
	return FloatValue(numerator) / FloatValue(denominator)
}

func (v FloatValue) FromFloat(f float64) FloatValue { return FloatValue(f) }

func (v FloatValue) Float64() float64 { return float64(v) }

// Saturated reports whether v has drifted outside IEEE-754's finite range.
func (v FloatValue) Saturated() bool {
	f := float64(v)
	return math.IsInf(f, 0) || math.IsNaN(f)
}
