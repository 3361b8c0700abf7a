package rpgstat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstantSourceProducesFixedValue(t *testing.T) {
	s := ConstantSource[FloatValue]{Value: 100}
	assert.Equal(t, FloatValue(100), s.Produce(EmptyContext()))
}

func TestContextSourceReadsFact(t *testing.T) {
	ctx := NewContextBuilder().WithInt("bonus_hp", 50).Freeze()
	s := ContextSource[FloatValue]{Key: "bonus_hp", Fallback: 0}
	assert.Equal(t, FloatValue(50), s.Produce(ctx))
}

func TestContextSourceFallsBackWhenMissing(t *testing.T) {
	s := ContextSource[FloatValue]{Key: "missing", Fallback: 7}
	assert.Equal(t, FloatValue(7), s.Produce(EmptyContext()))
}

func TestContextSourceFallsBackOnWrongKind(t *testing.T) {
	ctx := NewContextBuilder().WithString("bonus_hp", "not a number").Freeze()
	s := ContextSource[FloatValue]{Key: "bonus_hp", Fallback: 3}
	assert.Equal(t, FloatValue(3), s.Produce(ctx))
}

func TestConditionalSourceGatesOnPredicate(t *testing.T) {
	inCombat := func(ctx Context) bool { return ctx.GetBool("in_combat", false) }
	s := ConditionalSource[FloatValue]{Predicate: inCombat, Inner: ConstantSource[FloatValue]{Value: 25}}

	assert.Equal(t, FloatValue(0), s.Produce(EmptyContext()))

	ctx := NewContextBuilder().WithBool("in_combat", true).Freeze()
	assert.Equal(t, FloatValue(25), s.Produce(ctx))
}

func TestConditionalSourceNilPredicateNeverFires(t *testing.T) {
	s := ConditionalSource[FloatValue]{Inner: ConstantSource[FloatValue]{Value: 25}}
	assert.Equal(t, FloatValue(0), s.Produce(EmptyContext()))
}
