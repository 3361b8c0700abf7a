package rpgstat

import (
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ContextValueKind tags the type carried by a ContextValue.
type ContextValueKind uint8

const (
	ContextValueBool ContextValueKind = iota
	ContextValueInt
	ContextValueString
)

// ContextValue is the small tagged union of values a Context may hold.
type ContextValue struct {
	Kind ContextValueKind
	Bool bool
	Int  int64
	Str  string
}

// BoolValue wraps a boolean as a ContextValue.
func BoolValue(v bool) ContextValue { return ContextValue{Kind: ContextValueBool, Bool: v} }

// IntValue wraps an integer as a ContextValue.
func IntValue(v int64) ContextValue { return ContextValue{Kind: ContextValueInt, Int: v} }

// StringValue wraps a string as a ContextValue.
func StringValue(v string) ContextValue { return ContextValue{Kind: ContextValueString, Str: v} }

// Context is a read-only, immutable bag of caller-supplied runtime facts
// (e.g. in_combat=true, zone="pvp") consulted by conditional sources and
// transforms. Build one with a ContextBuilder and Freeze it; rebinding a key
// requires building a new instance.
type Context struct {
	entries     map[string]ContextValue
	fingerprint uint64
}

// Get returns the value bound to key, or false if it is unset.
func (c Context) Get(key string) (ContextValue, bool) {
	v, ok := c.entries[key]
	return v, ok
}

// GetBool returns the boolean bound to key, or fallback if unset or of a
// different kind.
func (c Context) GetBool(key string, fallback bool) bool {
	if v, ok := c.entries[key]; ok && v.Kind == ContextValueBool {
		return v.Bool
	}
	return fallback
}

// GetInt returns the integer bound to key, or fallback if unset or of a
// different kind.
func (c Context) GetInt(key string, fallback int64) int64 {
	if v, ok := c.entries[key]; ok && v.Kind == ContextValueInt {
		return v.Int
	}
	return fallback
}

// GetString returns the string bound to key, or fallback if unset or of a
// different kind.
func (c Context) GetString(key string, fallback string) string {
	if v, ok := c.entries[key]; ok && v.Kind == ContextValueString {
		return v.Str
	}
	return fallback
}

// Entries returns a defensive copy of every (key, value) pair bound in the
// context, for callers that need to enumerate facts rather than look one up
// by name — e.g. internal/luacond, which exposes each fact as a Lua global
// before evaluating a compiled predicate.
func (c Context) Entries() map[string]ContextValue {
	out := make(map[string]ContextValue, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Fingerprint returns a 64-bit, order-independent hash of the context's
// entries, used to key the resolver's cache. Two contexts built from the
// same (key, kind, value) triples fingerprint identically regardless of
// insertion order.
func (c Context) Fingerprint() uint64 {
	return c.fingerprint
}

// ContextBuilder accumulates entries before freezing them into an immutable
// Context.
type ContextBuilder struct {
	entries map[string]ContextValue
}

// NewContextBuilder returns an empty builder.
func NewContextBuilder() *ContextBuilder {
	return &ContextBuilder{entries: make(map[string]ContextValue)}
}

// With binds key to value and returns the builder for chaining.
func (b *ContextBuilder) With(key string, value ContextValue) *ContextBuilder {
	b.entries[key] = value
	return b
}

// WithBool is a convenience wrapper around With(key, BoolValue(v)).
func (b *ContextBuilder) WithBool(key string, v bool) *ContextBuilder {
	return b.With(key, BoolValue(v))
}

// WithInt is a convenience wrapper around With(key, IntValue(v)).
func (b *ContextBuilder) WithInt(key string, v int64) *ContextBuilder {
	return b.With(key, IntValue(v))
}

// WithString is a convenience wrapper around With(key, StringValue(v)).
func (b *ContextBuilder) WithString(key string, v string) *ContextBuilder {
	return b.With(key, StringValue(v))
}

// Freeze produces the immutable Context and computes its fingerprint.
func (b *ContextBuilder) Freeze() Context {
	entries := make(map[string]ContextValue, len(b.entries))
	for k, v := range b.entries {
		entries[k] = v
	}
	return Context{entries: entries, fingerprint: fingerprintEntries(entries)}
}

// EmptyContext returns a frozen Context with no entries.
func EmptyContext() Context {
	return NewContextBuilder().Freeze()
}

// fingerprintEntries combines a per-entry xxhash digest with XOR, which
// makes the combination commutative (and thus order-independent) by
// construction, the way fracturing.space leans on cespare/xxhash for
// content-addressed fingerprints rather than hand-rolling FNV.
func fingerprintEntries(entries map[string]ContextValue) uint64 {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var fp uint64
	for _, k := range keys {
		v := entries[k]
		digest := xxhash.New()
		digest.WriteString(k)
		digest.Write([]byte{byte(v.Kind)})
		switch v.Kind {
		case ContextValueBool:
			if v.Bool {
				digest.Write([]byte{1})
			} else {
				digest.Write([]byte{0})
			}
		case ContextValueInt:
			digest.WriteString(strconv.FormatInt(v.Int, 10))
		case ContextValueString:
			digest.WriteString(v.Str)
		}
		fp ^= digest.Sum64()
	}
	return fp
}
