package rpgstat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextBuilderGetters(t *testing.T) {
	ctx := NewContextBuilder().
		WithBool("in_combat", true).
		WithInt("level", 42).
		WithString("zone", "pvp").
		Freeze()

	assert.True(t, ctx.GetBool("in_combat", false))
	assert.Equal(t, int64(42), ctx.GetInt("level", 0))
	assert.Equal(t, "pvp", ctx.GetString("zone", ""))
}

func TestContextGetMissingKeyFallsBack(t *testing.T) {
	ctx := EmptyContext()
	assert.False(t, ctx.GetBool("missing", false))
	assert.Equal(t, int64(7), ctx.GetInt("missing", 7))
	assert.Equal(t, "default", ctx.GetString("missing", "default"))

	_, ok := ctx.Get("missing")
	assert.False(t, ok)
}

func TestContextGetWrongKindFallsBack(t *testing.T) {
	ctx := NewContextBuilder().WithString("zone", "pvp").Freeze()
	assert.Equal(t, int64(-1), ctx.GetInt("zone", -1))
}

func TestContextFingerprintOrderIndependent(t *testing.T) {
	a := NewContextBuilder().
		WithBool("in_combat", true).
		WithInt("level", 5).
		Freeze()
	b := NewContextBuilder().
		WithInt("level", 5).
		WithBool("in_combat", true).
		Freeze()

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestContextFingerprintDiffersOnValue(t *testing.T) {
	a := NewContextBuilder().WithInt("level", 5).Freeze()
	b := NewContextBuilder().WithInt("level", 6).Freeze()
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestContextFingerprintDiffersOnKind(t *testing.T) {
	a := NewContextBuilder().WithInt("flag", 1).Freeze()
	b := NewContextBuilder().WithBool("flag", true).Freeze()
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestEmptyContextFingerprintIsStable(t *testing.T) {
	assert.Equal(t, EmptyContext().Fingerprint(), EmptyContext().Fingerprint())
}

func TestContextEntriesIsDefensiveCopy(t *testing.T) {
	ctx := NewContextBuilder().WithInt("level", 5).Freeze()
	entries := ctx.Entries()
	require.Contains(t, entries, "level")
	entries["level"] = IntValue(999)

	// Mutating the returned copy must not affect the context.
	assert.Equal(t, int64(5), ctx.GetInt("level", 0))
}
