package rpgstat

import "rpgstat/internal/luacond"

// CompileScriptedPredicate compiles expr (a Lua boolean expression) into a
// Predicate usable anywhere a hand-written Predicate func is accepted —
// ConditionalSource, ConditionalTransform, Bonus.When. Every Context fact is
// exposed to the script as a same-named global before it runs, so an
// expression like "in_combat and zone == 'pvp'" reads the facts a
// ContextBuilder bound with WithBool("in_combat", ...) and
// WithString("zone", ...).
func CompileScriptedPredicate(expr string) (Predicate, error) {
	compiled, err := luacond.Compile(expr)
	if err != nil {
		return nil, err
	}
	return func(ctx Context) bool {
		facts := toLuaFacts(ctx)
		ok, err := compiled(facts)
		if err != nil {
			return false
		}
		return ok
	}, nil
}

func toLuaFacts(ctx Context) map[string]luacond.Fact {
	entries := ctx.Entries()
	facts := make(map[string]luacond.Fact, len(entries))
	for key, v := range entries {
		switch v.Kind {
		case ContextValueBool:
			facts[key] = luacond.BoolFact(v.Bool)
		case ContextValueInt:
			facts[key] = luacond.IntFact(v.Int)
		case ContextValueString:
			facts[key] = luacond.StringFact(v.Str)
		}
	}
	return facts
}
