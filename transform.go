package rpgstat

// Phase is a totally-ordered tag controlling when a transform runs relative
// to others on the same stat. Phases execute in ascending numeric order;
// Custom phases sort by their declared number. Final(2) is placed after
// Additive(0) and Multiplicative(1) purely because its numeric value (2) is
// greater — there is no special-casing in the resolver, only the documented
// convention that gameplay code assigns clamp-style transforms to Final.
type Phase int32

const (
	PhaseAdditive       Phase = 0
	PhaseMultiplicative Phase = 1
	PhaseFinal          Phase = 2
)

// CustomPhase builds a Phase with a caller-chosen ordinal. n should be >= 3
// to sort after the built-in phases, but the resolver enforces nothing
// beyond numeric ordering.
func CustomPhase(n int32) Phase { return Phase(n) }

// StackRuleKind enumerates the families of stacking policy. Diminishing
// carries an extra parameter and so is modeled as StackRule rather than a
// bare enum value.
type StackRuleKind uint8

const (
	StackOverride StackRuleKind = iota
	StackAdditive
	StackMultiplicative
	StackDiminishing
	StackMin
	StackMax
	StackMinMax
)

// priority is the fixed fold order within a phase:
// Override -> Additive -> Multiplicative -> Diminishing -> Min -> Max -> MinMax.
func (k StackRuleKind) priority() int {
	switch k {
	case StackOverride:
		return 0
	case StackAdditive:
		return 1
	case StackMultiplicative:
		return 2
	case StackDiminishing:
		return 3
	case StackMin:
		return 4
	case StackMax:
		return 5
	case StackMinMax:
		return 6
	default:
		return 99
	}
}

func (k StackRuleKind) String() string {
	switch k {
	case StackOverride:
		return "override"
	case StackAdditive:
		return "additive"
	case StackMultiplicative:
		return "multiplicative"
	case StackDiminishing:
		return "diminishing"
	case StackMin:
		return "min"
	case StackMax:
		return "max"
	case StackMinMax:
		return "minmax"
	default:
		return "unknown"
	}
}

// StackRule is a stacking policy. K is only meaningful when Kind is
// StackDiminishing, where it is the exponential decay rate: a bucket of n
// Diminishing-tagged transforms multiplies the running value by
// 1 - exp(-K*n), per §4.9.
type StackRule struct {
	Kind StackRuleKind
	K    float64
}

func (r StackRule) priority() int { return r.Kind.priority() }

var (
	RuleOverride       = StackRule{Kind: StackOverride}
	RuleAdditive       = StackRule{Kind: StackAdditive}
	RuleMultiplicative = StackRule{Kind: StackMultiplicative}
	// RuleDiminishing is StackDiminishing with a default decay rate of 0.5;
	// use DiminishingRule to pick a different K.
	RuleDiminishing = StackRule{Kind: StackDiminishing, K: 0.5}
	RuleMin         = StackRule{Kind: StackMin}
	RuleMax         = StackRule{Kind: StackMax}
	RuleMinMax      = StackRule{Kind: StackMinMax}
)

// DiminishingRule builds a StackDiminishing rule with decay rate k.
func DiminishingRule(k float64) StackRule {
	return StackRule{Kind: StackDiminishing, K: k}
}

// Lookup returns the already-resolved value of a dependency stat. It is
// read-only: a transform can observe but never mutate another stat's value.
type Lookup[N Numeric[N]] func(dep StatID) (N, bool)

// Bounds carries the optional (min, max) contributed by a MinMax-rule
// transform such as ClampTransform.
type Bounds[N Numeric[N]] struct {
	HasMin bool
	Min    N
	HasMax bool
	Max    N
}

// Transform modifies an accumulating stat value. It declares its own
// dependencies, phase, stack rule, and priority so the resolver can schedule
// it deterministically.
type Transform[N Numeric[N]] interface {
	Apply(current N, ctx Context, lookup Lookup[N]) N
	Dependencies() []StatID
	Phase() Phase
	StackRule() StackRule
	Priority() int32
	Label() string
}

// boundsProvider is an optional capability: transforms registered under the
// MinMax stack rule contribute to that fold only through their bounds. A
// MinMax-rule transform that does not implement it is skipped by the fold.
type boundsProvider[N Numeric[N]] interface {
	Bounds(ctx Context) Bounds[N]
}

// baseTransform centralizes the bookkeeping fields shared by every built-in
// transform so each variant only needs to implement Apply.
type baseTransform struct {
	phase     Phase
	rule      StackRule
	priority  int32
	label     string
	deps      []StatID
}

func (b baseTransform) Dependencies() []StatID { return b.deps }
func (b baseTransform) Phase() Phase            { return b.phase }
func (b baseTransform) StackRule() StackRule    { return b.rule }
func (b baseTransform) Priority() int32         { return b.priority }
func (b baseTransform) Label() string           { return b.label }

// AdditiveTransform adds a flat delta to the running value.
type AdditiveTransform[N Numeric[N]] struct {
	baseTransform
	Delta N
}

// NewAdditiveTransform builds an AdditiveTransform in PhaseAdditive with
// RuleAdditive, as specified in §4.4.
func NewAdditiveTransform[N Numeric[N]](delta N) AdditiveTransform[N] {
	return AdditiveTransform[N]{
		baseTransform: baseTransform{phase: PhaseAdditive, rule: RuleAdditive, label: "additive"},
		Delta:         delta,
	}
}

func (t AdditiveTransform[N]) Apply(current N, _ Context, _ Lookup[N]) N {
	return current.Add(t.Delta)
}

// MultiplicativeTransform multiplies the running value by a factor.
type MultiplicativeTransform[N Numeric[N]] struct {
	baseTransform
	Factor N
}

// NewMultiplicativeTransform builds a MultiplicativeTransform in
// PhaseMultiplicative with RuleMultiplicative.
func NewMultiplicativeTransform[N Numeric[N]](factor N) MultiplicativeTransform[N] {
	return MultiplicativeTransform[N]{
		baseTransform: baseTransform{phase: PhaseMultiplicative, rule: RuleMultiplicative, label: "multiplicative"},
		Factor:        factor,
	}
}

func (t MultiplicativeTransform[N]) Apply(current N, _ Context, _ Lookup[N]) N {
	return current.Mul(t.Factor)
}

// ScalingTransform adds lookup(Dep) * Factor to the running value. It
// declares Dep as its sole dependency.
type ScalingTransform[N Numeric[N]] struct {
	baseTransform
	Dep    StatID
	Factor N
}

// NewScalingTransform builds a ScalingTransform in PhaseAdditive with
// RuleAdditive, depending on dep.
func NewScalingTransform[N Numeric[N]](dep StatID, factor N) ScalingTransform[N] {
	return ScalingTransform[N]{
		baseTransform: baseTransform{phase: PhaseAdditive, rule: RuleAdditive, label: "scaling", deps: []StatID{dep}},
		Dep:           dep,
		Factor:        factor,
	}
}

func (t ScalingTransform[N]) Apply(current N, _ Context, lookup Lookup[N]) N {
	depValue, ok := lookup(t.Dep)
	if !ok {
		return current
	}
	return current.Add(depValue.Mul(t.Factor))
}

// ClampTransform bounds the running value to [Min, Max] in PhaseFinal with
// RuleMinMax. Either bound may be absent.
type ClampTransform[N Numeric[N]] struct {
	baseTransform
	HasMin bool
	Min    N
	HasMax bool
	Max    N
}

// NewClampTransform builds a ClampTransform. hasMin/hasMax control whether
// the respective bound participates; passing both with min > max builds
// successfully here but is rejected with InvalidConfiguration the moment the
// result reaches Resolver.RegisterTransform, which validates every
// boundsProvider's bounds before mutating any state.
func NewClampTransform[N Numeric[N]](hasMin bool, min N, hasMax bool, max N) ClampTransform[N] {
	return ClampTransform[N]{
		baseTransform: baseTransform{phase: PhaseFinal, rule: RuleMinMax, label: "clamp"},
		HasMin:        hasMin,
		Min:           min,
		HasMax:        hasMax,
		Max:           max,
	}
}

func (t ClampTransform[N]) Apply(current N, _ Context, _ Lookup[N]) N {
	result := current
	if t.HasMin {
		result = Max(result, t.Min)
	}
	if t.HasMax {
		result = Min(result, t.Max)
	}
	return result
}

func (t ClampTransform[N]) Bounds(Context) Bounds[N] {
	return Bounds[N]{HasMin: t.HasMin, Min: t.Min, HasMax: t.HasMax, Max: t.Max}
}

// OverrideTransform replaces the running value with Value unconditionally,
// regardless of phase. Rule is always RuleOverride; phase is caller-chosen.
type OverrideTransform[N Numeric[N]] struct {
	baseTransform
	Value N
}

// NewOverrideTransform builds an OverrideTransform in the given phase.
func NewOverrideTransform[N Numeric[N]](phase Phase, value N) OverrideTransform[N] {
	return OverrideTransform[N]{
		baseTransform: baseTransform{phase: phase, rule: RuleOverride, label: "override"},
		Value:         value,
	}
}

func (t OverrideTransform[N]) Apply(_ N, _ Context, _ Lookup[N]) N {
	return t.Value
}

// ConditionalTransform delegates to Inner only when Predicate holds against
// the context; otherwise the running value passes through unchanged. It
// inherits Inner's phase, stack rule, and priority.
type ConditionalTransform[N Numeric[N]] struct {
	Predicate Predicate
	Inner     Transform[N]
}

func (t ConditionalTransform[N]) Apply(current N, ctx Context, lookup Lookup[N]) N {
	if t.Predicate == nil || !t.Predicate(ctx) {
		return current
	}
	return t.Inner.Apply(current, ctx, lookup)
}

func (t ConditionalTransform[N]) Dependencies() []StatID { return t.Inner.Dependencies() }
func (t ConditionalTransform[N]) Phase() Phase            { return t.Inner.Phase() }
func (t ConditionalTransform[N]) StackRule() StackRule    { return t.Inner.StackRule() }
func (t ConditionalTransform[N]) Priority() int32         { return t.Inner.Priority() }
func (t ConditionalTransform[N]) Label() string           { return "conditional(" + t.Inner.Label() + ")" }
