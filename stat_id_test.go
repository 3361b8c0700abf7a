package rpgstat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatIDEquality(t *testing.T) {
	a := NewStatID("HP")
	b := NewStatID("HP")
	c := NewStatID("MP")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "HP", a.String())
}

func TestStatIDZeroValue(t *testing.T) {
	var id StatID
	assert.True(t, id.IsZero())
	assert.False(t, NewStatID("HP").IsZero())
}

func TestStatIDLess(t *testing.T) {
	assert.True(t, NewStatID("ATTACK").Less(NewStatID("DEFENSE")))
	assert.False(t, NewStatID("DEFENSE").Less(NewStatID("ATTACK")))
	assert.False(t, NewStatID("HP").Less(NewStatID("HP")))
}
