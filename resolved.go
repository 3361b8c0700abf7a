package rpgstat

// SourceContribution records one source's contribution to a stat's base
// value, in registration order.
type SourceContribution[N Numeric[N]] struct {
	Origin string
	Value  N
}

// TransformStep records one (phase, stack rule) bucket fold applied during
// resolution, before/after values, and a human-readable label.
type TransformStep[N Numeric[N]] struct {
	Phase  Phase
	Rule   StackRule
	Before N
	After  N
	Label  string
}

// ResolvedStat is the result of resolving a single stat: its final value
// plus an optional structured breakdown. Breakdowns are populated only when
// the resolver had debug mode enabled when it computed the result (see
// Resolver.Debug);
// release mode skips recording them to keep the hot path allocation-free.
type ResolvedStat[N Numeric[N]] struct {
	Stat                 StatID
	Value                N
	SourceContributions  []SourceContribution[N]
	TransformSteps       []TransformStep[N]
	Overflowed           bool
}
