package rpgstat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1 — Basic sum & multiply.
func TestResolveBasicSumAndMultiply(t *testing.T) {
	r := New[FloatValue]()
	hp := NewStatID("HP")
	r.RegisterSource(hp, ConstantSource[FloatValue]{Value: 100})
	r.RegisterSource(hp, ConstantSource[FloatValue]{Value: 50})
	require.NoError(t, r.RegisterTransform(hp, NewMultiplicativeTransform[FloatValue](1.5)))

	resolved, err := r.Resolve(hp, EmptyContext())
	require.NoError(t, err)
	assert.Equal(t, FloatValue(225), resolved.Value)
}

// S2 — Derived stat, resolved as a batch.
func TestResolveBatchDerivedStats(t *testing.T) {
	r := New[FloatValue]()
	str, dex, vit := NewStatID("STR"), NewStatID("DEX"), NewStatID("VIT")
	attack, defense, hp := NewStatID("ATTACK"), NewStatID("DEFENSE"), NewStatID("HP")

	r.RegisterSource(str, ConstantSource[FloatValue]{Value: 10})
	r.RegisterSource(dex, ConstantSource[FloatValue]{Value: 8})
	r.RegisterSource(vit, ConstantSource[FloatValue]{Value: 12})

	require.NoError(t, r.RegisterTransform(attack, NewScalingTransform[FloatValue](str, 2.0)))
	require.NoError(t, r.RegisterTransform(attack, NewScalingTransform[FloatValue](dex, 1.0)))
	require.NoError(t, r.RegisterTransform(defense, NewScalingTransform[FloatValue](vit, 1.5)))
	require.NoError(t, r.RegisterTransform(hp, NewScalingTransform[FloatValue](vit, 10)))

	results, err := r.ResolveBatch([]StatID{attack, defense, hp}, EmptyContext())
	require.NoError(t, err)
	assert.Equal(t, FloatValue(28), results[attack].Value)
	assert.Equal(t, FloatValue(18), results[defense].Value)
	assert.Equal(t, FloatValue(120), results[hp].Value)
}

// S3 — Phase ordering: item-phase additive and multiplicative fold before
// the later buff-phase multiplier is applied.
func TestResolvePhaseOrdering(t *testing.T) {
	r := New[FloatValue]()
	hp := NewStatID("HP")
	itemPhase := CustomPhase(3)
	buffPhase := CustomPhase(4)

	r.RegisterSource(hp, ConstantSource[FloatValue]{Value: 1000})

	itemAdd := AdditiveTransform[FloatValue]{
		baseTransform: baseTransform{phase: itemPhase, rule: RuleAdditive, label: "item_add"},
		Delta:         200,
	}
	itemMul := MultiplicativeTransform[FloatValue]{
		baseTransform: baseTransform{phase: itemPhase, rule: RuleMultiplicative, label: "item_mul"},
		Factor:        1.10,
	}
	buffMul := MultiplicativeTransform[FloatValue]{
		baseTransform: baseTransform{phase: buffPhase, rule: RuleMultiplicative, label: "buff_mul"},
		Factor:        1.50,
	}

	require.NoError(t, r.RegisterTransform(hp, itemAdd))
	require.NoError(t, r.RegisterTransform(hp, itemMul))
	require.NoError(t, r.RegisterTransform(hp, buffMul))

	resolved, err := r.Resolve(hp, EmptyContext())
	require.NoError(t, err)
	assert.InDelta(t, 1980, float64(resolved.Value), 1e-9)
}

// S4 — Clamp in the final phase, including the re-clamp after adding a
// second item-phase contribution.
func TestResolveClampInFinalPhase(t *testing.T) {
	crit := NewStatID("CRIT")
	itemPhase := CustomPhase(3)
	buffPhase := CustomPhase(4)
	// Phases after the built-ins (Additive=0, Multiplicative=1, Final=2)
	// sort by ascending ordinal, so the clamp needs a custom phase number
	// greater than both item and buff phases to run strictly after them.
	finalPhase := CustomPhase(5)

	build := func() *Resolver[FloatValue] {
		r := New[FloatValue]()
		itemAdd := AdditiveTransform[FloatValue]{
			baseTransform: baseTransform{phase: itemPhase, rule: RuleAdditive, label: "item_add"},
			Delta:         0.30,
		}
		buffMul := MultiplicativeTransform[FloatValue]{
			baseTransform: baseTransform{phase: buffPhase, rule: RuleMultiplicative, label: "buff_mul"},
			Factor:        1.50,
		}
		clamp := ClampTransform[FloatValue]{
			baseTransform: baseTransform{phase: finalPhase, rule: RuleMinMax, label: "clamp_max"},
			HasMax:        true,
			Max:           0.75,
		}
		require.NoError(t, r.RegisterTransform(crit, itemAdd))
		require.NoError(t, r.RegisterTransform(crit, buffMul))
		require.NoError(t, r.RegisterTransform(crit, clamp))
		return r
	}

	r := build()
	resolved, err := r.Resolve(crit, EmptyContext())
	require.NoError(t, err)
	assert.InDelta(t, 0.45, float64(resolved.Value), 1e-9)

	secondItemAdd := AdditiveTransform[FloatValue]{
		baseTransform: baseTransform{phase: itemPhase, rule: RuleAdditive, label: "item_add_2"},
		Delta:         0.40,
	}
	require.NoError(t, r.RegisterTransform(crit, secondItemAdd))

	resolved, err = r.Resolve(crit, EmptyContext())
	require.NoError(t, err)
	assert.InDelta(t, 0.75, float64(resolved.Value), 1e-9)
}

// S5 — A cycle is rejected without mutating the resolver.
func TestRegisterTransformRejectsCycle(t *testing.T) {
	r := New[FloatValue]()
	a, b := NewStatID("A"), NewStatID("B")

	require.NoError(t, r.RegisterTransform(a, NewScalingTransform[FloatValue](b, 1)))

	err := r.RegisterTransform(b, NewScalingTransform[FloatValue](a, 1))
	require.Error(t, err)

	statErr, ok := err.(*StatError)
	require.True(t, ok)
	assert.Equal(t, ErrCycleDetected, statErr.Kind)

	// B must be left exactly as it was: no transforms installed.
	assert.Empty(t, r.collectTransforms(b.String()))
}

// Invalid transform configuration (a clamp with min > max) is rejected at
// registration time regardless of whether the transform was built through a
// Bonus or constructed directly.
func TestRegisterTransformRejectsInvertedClamp(t *testing.T) {
	r := New[FloatValue]()
	crit := NewStatID("CRIT")

	err := r.RegisterTransform(crit, NewClampTransform[FloatValue](true, 10, true, 5))
	require.Error(t, err)

	statErr, ok := err.(*StatError)
	require.True(t, ok)
	assert.Equal(t, ErrInvalidConfiguration, statErr.Kind)

	// The resolver must be left exactly as it was: no transforms installed.
	assert.Empty(t, r.collectTransforms(crit.String()))
}

func TestResolveUnknownStatErrors(t *testing.T) {
	r := New[FloatValue]()
	_, err := r.Resolve(NewStatID("GHOST"), EmptyContext())
	require.Error(t, err)
	statErr, ok := err.(*StatError)
	require.True(t, ok)
	assert.Equal(t, ErrUnknownStat, statErr.Kind)
}

// Resolving a directly-requested stat with nothing registered for it is
// ErrUnknownStat (above); resolving a stat whose only transform depends on a
// stat that in turn has nothing registered is the distinct ErrMissingDependency.
func TestResolveReportsMissingDependencyOnDependentStat(t *testing.T) {
	r := New[FloatValue]()
	attack, str := NewStatID("ATTACK"), NewStatID("STR")
	require.NoError(t, r.RegisterTransform(attack, NewScalingTransform[FloatValue](str, 2)))

	_, err := r.Resolve(attack, EmptyContext())
	require.Error(t, err)

	statErr, ok := err.(*StatError)
	require.True(t, ok)
	assert.Equal(t, ErrMissingDependency, statErr.Kind)
	assert.Equal(t, attack, statErr.Stat)
	assert.Equal(t, str, statErr.Dep)
}

func TestResolveIsDeterministic(t *testing.T) {
	r := New[FloatValue]()
	hp := NewStatID("HP")
	r.RegisterSource(hp, ConstantSource[FloatValue]{Value: 100})
	require.NoError(t, r.RegisterTransform(hp, NewMultiplicativeTransform[FloatValue](1.25)))

	ctx := EmptyContext()
	first, err := r.Resolve(hp, ctx)
	require.NoError(t, err)
	second, err := r.Resolve(hp, ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Value, second.Value)
}

func TestInvalidateClearsDependentsOnly(t *testing.T) {
	r := New[FloatValue]()
	str, attack, unrelated := NewStatID("STR"), NewStatID("ATTACK"), NewStatID("GOLD")

	r.RegisterSource(str, ConstantSource[FloatValue]{Value: 10})
	r.RegisterSource(unrelated, ConstantSource[FloatValue]{Value: 5})
	require.NoError(t, r.RegisterTransform(attack, NewScalingTransform[FloatValue](str, 2)))

	ctx := EmptyContext()
	_, err := r.Resolve(attack, ctx)
	require.NoError(t, err)
	_, err = r.Resolve(unrelated, ctx)
	require.NoError(t, err)

	key := cacheKey{stat: unrelated.String(), fp: ctx.Fingerprint()}
	_, cachedBefore := r.cache[key]
	require.True(t, cachedBefore)

	r.Invalidate(str)

	attackKey := cacheKey{stat: attack.String(), fp: ctx.Fingerprint()}
	_, attackStillCached := r.cache[attackKey]
	assert.False(t, attackStillCached)

	_, unrelatedStillCached := r.cache[key]
	assert.True(t, unrelatedStillCached)
}

func TestDebugModeRecordsBreakdown(t *testing.T) {
	r := New[FloatValue]()
	r.Debug(true)
	hp := NewStatID("HP")
	r.RegisterSource(hp, ConstantSource[FloatValue]{Value: 100})
	require.NoError(t, r.RegisterTransform(hp, NewAdditiveTransform[FloatValue](20)))

	resolved, err := r.Resolve(hp, EmptyContext())
	require.NoError(t, err)
	require.Len(t, resolved.SourceContributions, 1)
	require.Len(t, resolved.TransformSteps, 1)
	assert.Equal(t, FloatValue(100), resolved.SourceContributions[0].Value)
}

func TestReleaseModeSkipsBreakdown(t *testing.T) {
	r := New[FloatValue]()
	hp := NewStatID("HP")
	r.RegisterSource(hp, ConstantSource[FloatValue]{Value: 100})

	resolved, err := r.Resolve(hp, EmptyContext())
	require.NoError(t, err)
	assert.Nil(t, resolved.SourceContributions)
	assert.Nil(t, resolved.TransformSteps)
}
