package rpgstat

// Source produces a base contribution for a stat given a context. Sources
// never depend on other stats — only on caller-supplied context facts — and
// are always summed together (§4.3).
type Source[N Numeric[N]] interface {
	Produce(ctx Context) N
}

// ConstantSource produces a fixed value unconditionally.
type ConstantSource[N Numeric[N]] struct {
	Value N
}

func (s ConstantSource[N]) Produce(Context) N { return s.Value }

// ContextSource reads a numeric value out of the context by key, falling
// back to Fallback when the key is unset or not an integer.
type ContextSource[N Numeric[N]] struct {
	Key      string
	Fallback N
}

func (s ContextSource[N]) Produce(ctx Context) N {
	v, ok := ctx.Get(s.Key)
	if !ok || v.Kind != ContextValueInt {
		return s.Fallback
	}
	var zero N
	return zero.FromInt(v.Int)
}

// Predicate evaluates a boolean fact about a context. Built-in conditional
// sources/transforms accept any Predicate, including ones compiled from
// scripted expressions (see internal/luacond).
type Predicate func(ctx Context) bool

// ConditionalSource produces Inner's value when Predicate holds, and zero
// otherwise.
type ConditionalSource[N Numeric[N]] struct {
	Predicate Predicate
	Inner     Source[N]
}

func (s ConditionalSource[N]) Produce(ctx Context) N {
	var zero N
	if s.Predicate == nil || !s.Predicate(ctx) {
		return zero.Zero()
	}
	return s.Inner.Produce(ctx)
}
