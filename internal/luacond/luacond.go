// Package luacond compiles small Lua boolean expressions into predicates
// over a fact bag, grounded on the Lua-scenario binding in
// louisbranch-fracturing.space's test harness (internal/test/game): a fresh
// *lua.State per compiled expression, context facts pushed in as globals
// before each evaluation, and the expression's result read back off the
// stack. Unlike that harness — which builds a whole scenario DSL with
// userdata types and metatables — a predicate only ever needs to read facts
// and return one boolean, so this package stays to that narrow slice of the
// go-lua API.
package luacond

import (
	"fmt"

	lua "github.com/Shopify/go-lua"
)

// Fact is the tagged value a predicate expression can read as a global. It
// mirrors rpgstat.ContextValue without importing the root package (which
// would create an import cycle, since the root package imports luacond to
// compile scripted predicates).
type Fact struct {
	Kind FactKind
	Bool bool
	Int  int64
	Str  string
}

// FactKind tags the type carried by a Fact.
type FactKind uint8

const (
	FactBool FactKind = iota
	FactInt
	FactString
)

// BoolFact, IntFact and StringFact are convenience constructors mirroring
// rpgstat's BoolValue/IntValue/StringValue.
func BoolFact(v bool) Fact     { return Fact{Kind: FactBool, Bool: v} }
func IntFact(v int64) Fact     { return Fact{Kind: FactInt, Int: v} }
func StringFact(v string) Fact { return Fact{Kind: FactString, Str: v} }

// Predicate evaluates a compiled expression against a snapshot of facts.
type Predicate func(facts map[string]Fact) (bool, error)

// Compile parses expr as a Lua expression ("return <expr>") and returns a
// Predicate that evaluates it fresh against the given facts every call. The
// expression is validated once at compile time (a syntax error is returned
// immediately) but a new *lua.State is spun up per evaluation: these
// predicates run rarely (gating a conditional source/transform, not the hot
// per-value fold) and a fresh interpreter avoids any chance of state leaking
// between independent resolutions.
func Compile(expr string) (Predicate, error) {
	script := "return (" + expr + ")"

	// Validate syntax eagerly so a malformed expression fails at
	// registration time rather than the first time it gates a resolve.
	probe := lua.NewState()
	lua.OpenLibraries(probe)
	if err := lua.LoadString(probe, script); err != nil {
		return nil, fmt.Errorf("luacond: compile %q: %w", expr, err)
	}

	return func(facts map[string]Fact) (bool, error) {
		state := lua.NewState()
		lua.OpenLibraries(state)
		pushFacts(state, facts)

		if err := lua.LoadString(state, script); err != nil {
			return false, fmt.Errorf("luacond: load %q: %w", expr, err)
		}
		if err := state.ProtectedCall(0, 1, 0); err != nil {
			return false, fmt.Errorf("luacond: eval %q: %w", expr, err)
		}
		result := state.ToBoolean(-1)
		state.Pop(1)
		return result, nil
	}, nil
}

func pushFacts(state *lua.State, facts map[string]Fact) {
	for key, fact := range facts {
		switch fact.Kind {
		case FactBool:
			state.PushBoolean(fact.Bool)
		case FactInt:
			state.PushInteger(int(fact.Int))
		case FactString:
			state.PushString(fact.Str)
		default:
			continue
		}
		state.SetGlobal(key)
	}
}
