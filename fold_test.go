package rpgstat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Three stacks of a Diminishing-returns bucket multiply the running value by
// 1 - exp(-k*stacks), per §4.9 and the exponential formula in the original
// resolver — not a per-contribution additive approximation.
func TestFoldDiminishingMultipliesByExponentialDecay(t *testing.T) {
	r := New[FloatValue]()
	hp := NewStatID("HP")
	r.RegisterSource(hp, ConstantSource[FloatValue]{Value: 100})

	const k = 0.5
	for i := 0; i < 3; i++ {
		stack := AdditiveTransform[FloatValue]{
			baseTransform: baseTransform{phase: PhaseAdditive, rule: DiminishingRule(k), label: "dim"},
		}
		require.NoError(t, r.RegisterTransform(hp, stack))
	}

	resolved, err := r.Resolve(hp, EmptyContext())
	require.NoError(t, err)

	expected := 100 * (1 - math.Exp(-k*3))
	assert.InDelta(t, expected, float64(resolved.Value), 1e-9)
}

// A single Diminishing stack (n=1) still decays the value — it is not a
// no-op — matching the formula even at the smallest bucket size.
func TestFoldDiminishingSingleStackStillDecays(t *testing.T) {
	r := New[FloatValue]()
	hp := NewStatID("HP")
	r.RegisterSource(hp, ConstantSource[FloatValue]{Value: 100})
	require.NoError(t, r.RegisterTransform(hp, AdditiveTransform[FloatValue]{
		baseTransform: baseTransform{phase: PhaseAdditive, rule: DiminishingRule(0.5), label: "dim"},
	}))

	resolved, err := r.Resolve(hp, EmptyContext())
	require.NoError(t, err)

	expected := 100 * (1 - math.Exp(-0.5))
	assert.InDelta(t, expected, float64(resolved.Value), 1e-9)
}

// StackMin transforms each contribute a floor (via Apply against zero); the
// most restrictive (largest) floor wins, and the running value is raised to
// at least that floor.
func TestFoldMinRaisesValueToTightestFloor(t *testing.T) {
	r := New[FloatValue]()
	speed := NewStatID("SPEED")
	r.RegisterSource(speed, ConstantSource[FloatValue]{Value: 10})

	require.NoError(t, r.RegisterTransform(speed, AdditiveTransform[FloatValue]{
		baseTransform: baseTransform{phase: PhaseFinal, rule: RuleMin, label: "floor_a"},
		Delta:         15,
	}))
	require.NoError(t, r.RegisterTransform(speed, AdditiveTransform[FloatValue]{
		baseTransform: baseTransform{phase: PhaseFinal, rule: RuleMin, label: "floor_b"},
		Delta:         12,
	}))

	resolved, err := r.Resolve(speed, EmptyContext())
	require.NoError(t, err)
	assert.Equal(t, FloatValue(15), resolved.Value) // max(10, max(15, 12))
}

// StackMax transforms each contribute a ceiling; the most restrictive
// (smallest) ceiling wins, and the running value is lowered to at most that
// ceiling.
func TestFoldMaxLowersValueToTightestCeiling(t *testing.T) {
	r := New[FloatValue]()
	speed := NewStatID("SPEED")
	r.RegisterSource(speed, ConstantSource[FloatValue]{Value: 10})

	require.NoError(t, r.RegisterTransform(speed, AdditiveTransform[FloatValue]{
		baseTransform: baseTransform{phase: PhaseFinal, rule: RuleMax, label: "ceil_a"},
		Delta:         8,
	}))
	require.NoError(t, r.RegisterTransform(speed, AdditiveTransform[FloatValue]{
		baseTransform: baseTransform{phase: PhaseFinal, rule: RuleMax, label: "ceil_b"},
		Delta:         5,
	}))

	resolved, err := r.Resolve(speed, EmptyContext())
	require.NoError(t, err)
	assert.Equal(t, FloatValue(5), resolved.Value) // min(10, min(8, 5))
}

// Multiple ClampTransforms sharing one RuleMinMax bucket in a single resolve
// combine into the tightest bound (max of mins, min of maxes) and clamp once
// — not a sequence of independent clamps.
func TestFoldMinMaxCombinesMultipleClampsInOneBucket(t *testing.T) {
	r := New[FloatValue]()
	crit := NewStatID("CRIT")
	r.RegisterSource(crit, ConstantSource[FloatValue]{Value: 1.0})

	require.NoError(t, r.RegisterTransform(crit, ClampTransform[FloatValue]{
		baseTransform: baseTransform{phase: PhaseFinal, rule: RuleMinMax, label: "clamp_max_a"},
		HasMax:        true,
		Max:           0.80,
	}))
	require.NoError(t, r.RegisterTransform(crit, ClampTransform[FloatValue]{
		baseTransform: baseTransform{phase: PhaseFinal, rule: RuleMinMax, label: "clamp_max_b"},
		HasMax:        true,
		Max:           0.60,
	}))
	require.NoError(t, r.RegisterTransform(crit, ClampTransform[FloatValue]{
		baseTransform: baseTransform{phase: PhaseFinal, rule: RuleMinMax, label: "clamp_min"},
		HasMin:        true,
		Min:           0.50,
	}))

	resolved, err := r.Resolve(crit, EmptyContext())
	require.NoError(t, err)
	assert.InDelta(t, 0.60, float64(resolved.Value), 1e-9) // clamp(1.0, 0.50, min(0.80, 0.60))
}
