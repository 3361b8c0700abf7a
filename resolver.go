package rpgstat

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/iancoleman/orderedmap"

	"rpgstat/graph"
	"rpgstat/telemetry"
)

type registryLayer[N Numeric[N]] struct {
	sources    *orderedmap.OrderedMap // string -> []Source[N]
	transforms *orderedmap.OrderedMap // string -> []Transform[N]
	graph      *graph.Graph
}

func newRegistryLayer[N Numeric[N]]() *registryLayer[N] {
	return &registryLayer[N]{
		sources:    orderedmap.New(),
		transforms: orderedmap.New(),
		graph:      graph.New(),
	}
}

type cacheKey struct {
	stat string
	fp   uint64
}

// Resolver is the top-level stat engine: registration of sources and
// transforms, the dependency graph, a per-instance cache, and the
// phase/stack-rule evaluation pipeline (§4.7). A Resolver created with Fork
// shares this resolver's registries by holding a pointer to its parent
// rather than copying them (Go's garbage collector gives the shared
// ownership the spec asks for: the parent stays alive as long as any fork
// still references it).
type Resolver[N Numeric[N]] struct {
	parent     *Resolver[N]
	layer      *registryLayer[N]
	cache      map[cacheKey]ResolvedStat[N]
	generation uint64
	debug      bool
	publisher  telemetry.Publisher
}

// New constructs an empty Resolver. Pass a concrete Numeric implementation
// as the type parameter, e.g. rpgstat.New[rpgstat.FloatValue]() or
// rpgstat.New[rpgstat.FixedPoint]().
func New[N Numeric[N]]() *Resolver[N] {
	return &Resolver[N]{
		layer:     newRegistryLayer[N](),
		cache:     make(map[cacheKey]ResolvedStat[N]),
		publisher: telemetry.NopPublisher(),
	}
}

// NewWithTelemetry constructs a Resolver that publishes a telemetry.Event
// for every registration, rejected cycle, Invalidate call, and Resolve that
// computes its result through pub (a Resolve answered from the cache
// publishes nothing). This is purely observational — no resolution semantics depend on telemetry.
func NewWithTelemetry[N Numeric[N]](pub telemetry.Publisher) *Resolver[N] {
	r := New[N]()
	if pub != nil {
		r.publisher = pub
	}
	return r
}

// Debug enables recording of SourceContributions/TransformSteps on every
// ResolvedStat produced from this point on. Release mode (the default)
// skips recording to keep the hot path allocation-free, per §3.
func (r *Resolver[N]) Debug(enabled bool) {
	r.debug = enabled
}

// RegisterSource appends source to stat's source list, ensures a graph node
// exists for stat, bumps the generation counter, and invalidates cache
// entries for stat and its descendants.
func (r *Resolver[N]) RegisterSource(stat StatID, source Source[N]) {
	key := stat.String()
	raw, _ := r.layer.sources.Get(key)
	list, _ := raw.([]Source[N])
	list = append(list, source)
	r.layer.sources.Set(key, list)
	r.layer.graph.AddNode(key)

	r.generation++
	r.invalidateLocal(key)
	r.publish(context.Background(), "register_source", stat)
}

// RegisterTransform appends transform to stat's transform chain. transform's
// own configuration is validated first (e.g. a MinMax bound with min > max),
// then the dependency edges it declares are checked for cycles against the
// FULL merged graph (including any base/ancestor layers), all before
// anything is mutated: on either failure the resolver is left bitwise
// unchanged, satisfying §7's "registration-time errors...without mutating
// state" and invariant 4 in §8.
func (r *Resolver[N]) RegisterTransform(stat StatID, transform Transform[N]) error {
	if bp, ok := any(transform).(boundsProvider[N]); ok {
		b := bp.Bounds(EmptyContext())
		if b.HasMin && b.HasMax && b.Min.Cmp(b.Max) > 0 {
			return errInvalidConfiguration(fmt.Sprintf("transform on stat %q has min > max", stat))
		}
	}

	key := stat.String()
	deps := transform.Dependencies()

	candidate := r.mergedGraph()
	candidate.AddNode(key)
	for _, dep := range deps {
		candidate.AddEdge(key, dep.String())
	}
	if cyc := candidate.DetectCycle(); cyc != nil {
		r.publish(context.Background(), "cycle_rejected", stat)
		return errCycleDetected(pathFromStrings(cyc.Path))
	}

	raw, _ := r.layer.transforms.Get(key)
	list, _ := raw.([]Transform[N])
	list = append(list, transform)
	r.layer.transforms.Set(key, list)

	r.layer.graph.AddNode(key)
	for _, dep := range deps {
		r.layer.graph.AddEdge(key, dep.String())
	}

	r.generation++
	r.invalidateLocal(key)
	r.publish(context.Background(), "register_transform", stat)
	return nil
}

// Invalidate removes cache entries for stat and every stat that transitively
// depends on it (a reverse-edge walk over the merged graph), per §4.7. Only
// this resolver's own cache is affected — see Fork's invalidation isolation.
func (r *Resolver[N]) Invalidate(stat StatID) {
	r.invalidateLocal(stat.String())
	r.publish(context.Background(), "invalidate", stat)
}

func (r *Resolver[N]) invalidateLocal(stat string) {
	mg := r.mergedGraph()
	for _, descendant := range mg.Descendants(stat) {
		for key := range r.cache {
			if key.stat == descendant {
				delete(r.cache, key)
			}
		}
	}
}

// Fork creates a copy-on-write overlay resolver sharing this resolver's
// registries. Forking allocates only an empty overlay layer and an empty
// cache — no base data is copied (§4.8).
func (r *Resolver[N]) Fork() *Resolver[N] {
	return &Resolver[N]{
		parent:    r,
		layer:     newRegistryLayer[N](),
		cache:     make(map[cacheKey]ResolvedStat[N]),
		debug:     r.debug,
		publisher: r.publisher,
	}
}

// Resolve resolves stat against ctx, returning its final value and
// breakdown, per the algorithm in §4.7.
func (r *Resolver[N]) Resolve(stat StatID, ctx Context) (ResolvedStat[N], error) {
	key := cacheKey{stat: stat.String(), fp: ctx.Fingerprint()}
	if v, ok := r.cache[key]; ok {
		return v, nil
	}

	mg := r.mergedGraph()
	order, cyc := mg.TopoOrder([]string{stat.String()})
	if cyc != nil {
		return ResolvedStat[N]{}, errCycleDetected(pathFromStrings(cyc.Path))
	}

	targets := map[string]bool{stat.String(): true}
	local := make(map[string]ResolvedStat[N], len(order))
	for _, s := range order {
		resolved, err := r.resolveOne(s, ctx, local, mg, targets)
		if err != nil {
			return ResolvedStat[N]{}, err
		}
		local[s] = resolved
	}

	result, ok := local[stat.String()]
	if !ok {
		return ResolvedStat[N]{}, errUnknownStat(stat)
	}
	r.publish(context.Background(), "resolve", stat)
	return result, nil
}

// ResolveBatch resolves the transitive closure of stats once and returns an
// entry for each requested stat. The batch fails atomically: the first
// error aborts the whole call (§7).
func (r *Resolver[N]) ResolveBatch(stats []StatID, ctx Context) (map[StatID]ResolvedStat[N], error) {
	targets := make([]string, len(stats))
	for i, s := range stats {
		targets[i] = s.String()
	}

	mg := r.mergedGraph()
	order, cyc := mg.TopoOrder(targets)
	if cyc != nil {
		return nil, errCycleDetected(pathFromStrings(cyc.Path))
	}

	targetSet := make(map[string]bool, len(targets))
	for _, t := range targets {
		targetSet[t] = true
	}

	local := make(map[string]ResolvedStat[N], len(order))
	fp := ctx.Fingerprint()
	for _, s := range order {
		if v, ok := r.cache[cacheKey{stat: s, fp: fp}]; ok {
			local[s] = v
			continue
		}
		resolved, err := r.resolveOne(s, ctx, local, mg, targetSet)
		if err != nil {
			return nil, err
		}
		local[s] = resolved
	}

	out := make(map[StatID]ResolvedStat[N], len(stats))
	for _, s := range stats {
		v, ok := local[s.String()]
		if !ok {
			return nil, errUnknownStat(s)
		}
		out[s] = v
	}
	return out, nil
}

// resolveOne resolves a single node already placed in topo order. mg and
// targets let it tell apart two distinct failure modes over the same
// "nothing registered for this stat" condition: a directly requested stat
// with no sources/transforms is ErrUnknownStat, while a stat pulled in only
// because some other transform's Dependencies() named it is
// ErrMissingDependency (§7).
func (r *Resolver[N]) resolveOne(statKey string, ctx Context, local map[string]ResolvedStat[N], mg *graph.Graph, targets map[string]bool) (ResolvedStat[N], error) {
	key := cacheKey{stat: statKey, fp: ctx.Fingerprint()}
	if v, ok := r.cache[key]; ok {
		return v, nil
	}

	stat := NewStatID(statKey)
	sources := r.collectSources(statKey)
	transforms := r.collectTransforms(statKey)
	if len(sources) == 0 && len(transforms) == 0 {
		if targets[statKey] {
			return ResolvedStat[N]{}, errUnknownStat(stat)
		}
		if dependents := mg.DependentsOf(statKey); len(dependents) > 0 {
			return ResolvedStat[N]{}, errMissingDependency(NewStatID(dependents[0]), stat)
		}
		return ResolvedStat[N]{}, errUnknownStat(stat)
	}

	var zero N
	value := zero.Zero()
	var contributions []SourceContribution[N]
	for i, src := range sources {
		v := src.Produce(ctx)
		value = value.Add(v)
		if r.debug {
			contributions = append(contributions, SourceContribution[N]{Origin: sourceOrigin(i), Value: v})
		}
	}

	lookup := Lookup[N](func(dep StatID) (N, bool) {
		if rv, ok := local[dep.String()]; ok {
			return rv.Value, true
		}
		if rv, ok := r.cache[cacheKey{stat: dep.String(), fp: ctx.Fingerprint()}]; ok {
			return rv.Value, true
		}
		return zero.Zero(), false
	})

	value, steps, overflowed := r.foldTransforms(transforms, value, ctx, lookup)

	resolved := ResolvedStat[N]{Stat: stat, Value: value, Overflowed: overflowed}
	if r.debug {
		resolved.SourceContributions = contributions
		resolved.TransformSteps = steps
	}
	r.cache[key] = resolved
	return resolved, nil
}

func sourceOrigin(index int) string {
	return "source#" + strconv.Itoa(index)
}

// collectSources concatenates sources along the parent chain (root first,
// each ancestor's overlay in order, self last), matching the overlay
// append-after-base lookup rule in §4.8.
func (r *Resolver[N]) collectSources(stat string) []Source[N] {
	var out []Source[N]
	if r.parent != nil {
		out = append(out, r.parent.collectSources(stat)...)
	}
	if raw, ok := r.layer.sources.Get(stat); ok {
		out = append(out, raw.([]Source[N])...)
	}
	return out
}

func (r *Resolver[N]) collectTransforms(stat string) []Transform[N] {
	var out []Transform[N]
	if r.parent != nil {
		out = append(out, r.parent.collectTransforms(stat)...)
	}
	if raw, ok := r.layer.transforms.Get(stat); ok {
		out = append(out, raw.([]Transform[N])...)
	}
	return out
}

// mergedGraph builds a single graph.Graph containing every edge recorded at
// this layer and all ancestor layers. This is recomputed on demand rather
// than cached because registries can change between calls and the engine's
// scale (a handful of stats per entity) makes a fresh union cheap.
func (r *Resolver[N]) mergedGraph() *graph.Graph {
	g := graph.New()
	r.collectGraphInto(g)
	return g
}

func (r *Resolver[N]) collectGraphInto(g *graph.Graph) {
	if r.parent != nil {
		r.parent.collectGraphInto(g)
	}
	for _, node := range r.layer.graph.Nodes() {
		g.AddNode(node)
		for _, dep := range r.layer.graph.DependenciesOf(node) {
			g.AddEdge(node, dep)
		}
	}
}

func pathFromStrings(path []string) []StatID {
	out := make([]StatID, len(path))
	for i, p := range path {
		out[i] = NewStatID(p)
	}
	return out
}

func (r *Resolver[N]) publish(ctx context.Context, category string, stat StatID) {
	if r.publisher == nil {
		return
	}
	r.publisher.Publish(ctx, telemetry.Event{
		Type:     telemetry.EventType("stat." + category),
		Category: category,
		Severity: telemetry.SeverityDebug,
		Subject:  stat.String(),
		TraceID:  uuid.NewString(),
	})
}

