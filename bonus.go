package rpgstat

import "fmt"

// Bonus is a declarative builder for a batch of stat modifications —
// equipment, talents, buffs, anything gameplay code wants to grant or revoke
// as a unit. It separates DESCRIBING a set of bonuses (this file's builder
// methods) from APPLYING them (ApplyCompiledBonuses): Compile does all of
// the branching — op-kind dispatch, phase/rule defaulting, validation — once,
// up front, and hands back a flat slice of (StatID, Transform) pairs that
// ApplyCompiledBonuses registers in a single, branch-free loop. This mirrors
// the resolver's own split between registration (which may fail, validates,
// walks the graph) and resolution (which must stay on the hot path).
type Bonus[N Numeric[N]] struct {
	ops []bonusOp[N]
}

// NewBonus returns an empty Bonus builder.
func NewBonus[N Numeric[N]]() *Bonus[N] {
	return &Bonus[N]{}
}

type bonusOpKind uint8

const (
	bonusOpFlat bonusOpKind = iota
	bonusOpPercent
	bonusOpScaling
	bonusOpOverride
	bonusOpClamp
)

type bonusOp[N Numeric[N]] struct {
	kind      bonusOpKind
	stat      StatID
	phase     Phase
	priority  int32
	rule      StackRule
	value     N
	dep       StatID
	hasMin    bool
	min       N
	hasMax    bool
	max       N
	predicate Predicate
	label     string
}

// BonusEntry is the per-stat chain returned by Bonus.Add/Bonus.Mul: it
// accumulates phase/priority/predicate overrides and is terminated by
// exactly one value method (Flat, Percent, Scaling, Diminishing), which
// appends the finished op to the parent Bonus and returns it for further
// chaining.
type BonusEntry[N Numeric[N]] struct {
	parent   *Bonus[N]
	stat     StatID
	phase    Phase
	priority int32
	rule     StackRule
	predicate Predicate
}

// Add starts a flat-additive entry for stat (PhaseAdditive, RuleAdditive by
// default).
func (b *Bonus[N]) Add(stat StatID) *BonusEntry[N] {
	return &BonusEntry[N]{parent: b, stat: stat, phase: PhaseAdditive, rule: RuleAdditive}
}

// Mul starts a multiplicative entry for stat (PhaseMultiplicative,
// RuleMultiplicative by default).
func (b *Bonus[N]) Mul(stat StatID) *BonusEntry[N] {
	return &BonusEntry[N]{parent: b, stat: stat, phase: PhaseMultiplicative, rule: RuleMultiplicative}
}

// InPhase overrides the phase the eventual transform is scheduled in.
func (e *BonusEntry[N]) InPhase(phase Phase) *BonusEntry[N] {
	e.phase = phase
	return e
}

// WithPriority overrides the eventual transform's intra-bucket priority.
func (e *BonusEntry[N]) WithPriority(priority int32) *BonusEntry[N] {
	e.priority = priority
	return e
}

// WithRule overrides the stacking rule the eventual transform folds under.
func (e *BonusEntry[N]) WithRule(rule StackRule) *BonusEntry[N] {
	e.rule = rule
	return e
}

// When makes the eventual transform conditional: it only applies while
// predicate holds against the resolution context.
func (e *BonusEntry[N]) When(predicate Predicate) *BonusEntry[N] {
	e.predicate = predicate
	return e
}

// Flat grants a flat delta to the entry's stat.
func (e *BonusEntry[N]) Flat(delta N) *Bonus[N] {
	return e.finish(bonusOpFlat, delta, StatID{}, "flat")
}

// Percent grants r as a fractional bonus to the entry's stat — Percent(0.10)
// compiles to a MultiplicativeTransform with Factor 1.10, i.e. "+10%", per
// §4.5.
func (e *BonusEntry[N]) Percent(r N) *Bonus[N] {
	return e.finish(bonusOpPercent, r, StatID{}, "percent")
}

// Scaling grants lookup(dep) * factor to the entry's stat, declaring dep as
// a dependency.
func (e *BonusEntry[N]) Scaling(dep StatID, factor N) *Bonus[N] {
	return e.finish(bonusOpScaling, factor, dep, "scaling")
}

// Diminishing marks the entry as one stack of a Diminishing-returns bucket
// with decay rate k: a bucket of n such entries on the same stat multiplies
// the running value by 1 - exp(-k*n), per §4.9 and the exponential formula
// in the original resolver. The entry carries no value of its own — only
// its presence in the bucket (and k) feeds the fold — matching the common
// "Nth stack of this buff is worth less" gameplay pattern.
func (e *BonusEntry[N]) Diminishing(k float64) *Bonus[N] {
	e.rule = DiminishingRule(k)
	var zero N
	return e.finish(bonusOpFlat, zero.Zero(), StatID{}, "diminishing")
}

func (e *BonusEntry[N]) finish(kind bonusOpKind, value N, dep StatID, label string) *Bonus[N] {
	e.parent.ops = append(e.parent.ops, bonusOp[N]{
		kind:      kind,
		stat:      e.stat,
		phase:     e.phase,
		priority:  e.priority,
		rule:      e.rule,
		value:     value,
		dep:       dep,
		predicate: e.predicate,
		label:     label,
	})
	return e.parent
}

// Override unconditionally replaces stat's value with v once resolution
// reaches phase, discarding every other contribution to stat in that phase.
func (b *Bonus[N]) Override(stat StatID, phase Phase, v N) *Bonus[N] {
	b.ops = append(b.ops, bonusOp[N]{kind: bonusOpOverride, stat: stat, phase: phase, rule: RuleOverride, value: v, label: "override"})
	return b
}

// ClampMin bounds stat's final value to be at least min.
func (b *Bonus[N]) ClampMin(stat StatID, min N) *Bonus[N] {
	b.ops = append(b.ops, bonusOp[N]{kind: bonusOpClamp, stat: stat, phase: PhaseFinal, rule: RuleMinMax, hasMin: true, min: min, label: "clamp_min"})
	return b
}

// ClampMax bounds stat's final value to be at most max.
func (b *Bonus[N]) ClampMax(stat StatID, max N) *Bonus[N] {
	b.ops = append(b.ops, bonusOp[N]{kind: bonusOpClamp, stat: stat, phase: PhaseFinal, rule: RuleMinMax, hasMax: true, max: max, label: "clamp_max"})
	return b
}

// Clamp bounds stat's final value to [min, max].
func (b *Bonus[N]) Clamp(stat StatID, min, max N) *Bonus[N] {
	b.ops = append(b.ops, bonusOp[N]{kind: bonusOpClamp, stat: stat, phase: PhaseFinal, rule: RuleMinMax, hasMin: true, min: min, hasMax: true, max: max, label: "clamp"})
	return b
}

// CompiledBonus pairs a stat with the Transform its bonus op compiled to.
type CompiledBonus[N Numeric[N]] struct {
	Stat      StatID
	Transform Transform[N]
}

// Compile validates and lowers every accumulated op into a CompiledBonus.
// All decision-making — which concrete Transform type an op needs, whether
// it must be wrapped in a ConditionalTransform, whether a clamp's bounds are
// sane — happens here, once, so ApplyCompiledBonuses never has to branch on
// op kind again.
func (b *Bonus[N]) Compile() ([]CompiledBonus[N], error) {
	compiled := make([]CompiledBonus[N], 0, len(b.ops))
	for _, op := range b.ops {
		transform, err := compileBonusOp[N](op)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, CompiledBonus[N]{Stat: op.stat, Transform: transform})
	}
	return compiled, nil
}

func compileBonusOp[N Numeric[N]](op bonusOp[N]) (Transform[N], error) {
	base := baseTransform{phase: op.phase, rule: op.rule, priority: op.priority, label: op.label}

	var transform Transform[N]
	switch op.kind {
	case bonusOpFlat:
		transform = AdditiveTransform[N]{baseTransform: base, Delta: op.value}

	case bonusOpPercent:
		transform = MultiplicativeTransform[N]{baseTransform: base, Factor: op.value.One().Add(op.value)}

	case bonusOpScaling:
		base.deps = []StatID{op.dep}
		transform = ScalingTransform[N]{baseTransform: base, Dep: op.dep, Factor: op.value}

	case bonusOpOverride:
		base.rule = RuleOverride
		transform = OverrideTransform[N]{baseTransform: base, Value: op.value}

	case bonusOpClamp:
		if op.hasMin && op.hasMax && op.min.Cmp(op.max) > 0 {
			return nil, errInvalidConfiguration(fmt.Sprintf("clamp on stat %q has min > max", op.stat))
		}
		base.rule = RuleMinMax
		transform = ClampTransform[N]{baseTransform: base, HasMin: op.hasMin, Min: op.min, HasMax: op.hasMax, Max: op.max}

	default:
		return nil, errInvalidConfiguration("unrecognized bonus op")
	}

	if op.predicate != nil {
		return ConditionalTransform[N]{Predicate: op.predicate, Inner: transform}, nil
	}
	return transform, nil
}

// ApplyCompiledBonuses registers every compiled bonus's transform against
// its stat, in order. It is intentionally branch-free over op kind — all of
// that happened in Compile — so the only way this loop can fail is the
// resolver's own graph validation (a compiled Scaling bonus whose dependency
// would close a cycle).
func ApplyCompiledBonuses[N Numeric[N]](r *Resolver[N], compiled []CompiledBonus[N]) error {
	for _, c := range compiled {
		if err := r.RegisterTransform(c.Stat, c.Transform); err != nil {
			return err
		}
	}
	return nil
}

// CompileAndApply compiles b and registers every resulting transform against
// r in one call, returning the first registration error (if any). Bonuses
// already registered before the failing one remain registered — callers
// that need all-or-nothing semantics should Compile first and inspect the
// result before calling ApplyCompiledBonuses themselves.
func (b *Bonus[N]) CompileAndApply(r *Resolver[N]) error {
	compiled, err := b.Compile()
	if err != nil {
		return err
	}
	return ApplyCompiledBonuses(r, compiled)
}
