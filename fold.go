package rpgstat

import (
	"math"
	"sort"
)

// phaseBucket groups the transforms active on a stat for one phase, further
// split by stack rule.
type phaseBucket[N Numeric[N]] struct {
	phase Phase
	rules []ruleBucket[N]
}

type ruleBucket[N Numeric[N]] struct {
	kind       StackRuleKind
	transforms []Transform[N]
}

// foldTransforms groups transforms by (phase ascending, stack-rule priority)
// and folds each bucket into the running value, per the algorithm in §4.7.
// It returns the final value, the recorded breakdown steps (nil unless
// r.debug), and whether the final value reports itself saturated (see
// Saturating).
func (r *Resolver[N]) foldTransforms(transforms []Transform[N], value N, ctx Context, lookup Lookup[N]) (N, []TransformStep[N], bool) {
	buckets := groupTransforms(transforms)

	var steps []TransformStep[N]
	overflowed := false

	for _, bucket := range buckets {
		for _, rule := range bucket.rules {
			before := value
			sorted := stableSortBucket(rule.transforms)
			value = foldBucket(rule.kind, sorted, value, ctx, lookup)
			if r.debug {
				steps = append(steps, TransformStep[N]{
					Phase: bucket.phase,
					Rule:  StackRule{Kind: rule.kind},
					Before: before,
					After:  value,
					Label:  bucketLabel(sorted),
				})
			}
			if rule.kind == StackOverride {
				// Override short-circuits the rest of THIS phase only;
				// later phases still run (§4.9).
				break
			}
		}
	}

	if sat, ok := any(value).(Saturating); ok && sat.Saturated() {
		overflowed = true
	}
	return value, steps, overflowed
}

func groupTransforms[N Numeric[N]](transforms []Transform[N]) []phaseBucket[N] {
	phaseIndex := make(map[Phase]int)
	var buckets []phaseBucket[N]

	for _, t := range transforms {
		p := t.Phase()
		idx, ok := phaseIndex[p]
		if !ok {
			idx = len(buckets)
			phaseIndex[p] = idx
			buckets = append(buckets, phaseBucket[N]{phase: p})
		}
		buckets[idx].rules = appendToRule(buckets[idx].rules, t)
	}

	sort.Slice(buckets, func(i, j int) bool { return buckets[i].phase < buckets[j].phase })
	for i := range buckets {
		sort.Slice(buckets[i].rules, func(a, b int) bool {
			return buckets[i].rules[a].kind.priority() < buckets[i].rules[b].kind.priority()
		})
	}
	return buckets
}

func appendToRule[N Numeric[N]](rules []ruleBucket[N], t Transform[N]) []ruleBucket[N] {
	kind := t.StackRule().Kind
	for i := range rules {
		if rules[i].kind == kind {
			rules[i].transforms = append(rules[i].transforms, t)
			return rules
		}
	}
	return append(rules, ruleBucket[N]{kind: kind, transforms: []Transform[N]{t}})
}

// stableSortBucket orders a bucket's transforms by (priority desc,
// registration-order asc), a stable sort over the slice's incoming order
// (which is already registration order thanks to collectTransforms).
func stableSortBucket[N Numeric[N]](transforms []Transform[N]) []Transform[N] {
	out := append([]Transform[N](nil), transforms...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() > out[j].Priority()
	})
	return out
}

func bucketLabel[N Numeric[N]](transforms []Transform[N]) string {
	if len(transforms) == 0 {
		return ""
	}
	label := transforms[0].Label()
	for _, t := range transforms[1:] {
		label += "+" + t.Label()
	}
	return label
}

func foldBucket[N Numeric[N]](kind StackRuleKind, bucket []Transform[N], value N, ctx Context, lookup Lookup[N]) N {
	if len(bucket) == 0 {
		return value
	}
	var zero N

	switch kind {
	case StackOverride:
		v := value
		for _, t := range bucket {
			v = t.Apply(v, ctx, lookup)
		}
		return v

	case StackAdditive:
		sum := zero.Zero()
		for _, t := range bucket {
			sum = sum.Add(t.Apply(zero.Zero(), ctx, lookup))
		}
		return value.Add(sum)

	case StackMultiplicative:
		product := zero.One()
		for _, t := range bucket {
			product = product.Mul(t.Apply(zero.One(), ctx, lookup))
		}
		return value.Mul(product)

	case StackDiminishing:
		// value * (1 - exp(-k * stacks)): each additional transform in the
		// bucket pushes the multiplier asymptotically toward 1 rather than
		// contributing its own delta directly. Stacks sharing a bucket are
		// assumed to agree on k; the first transform's StackRule carries it.
		// A ConditionalTransform whose predicate does not hold is not a stack.
		k := bucket[0].StackRule().K
		stacks := 0.0
		for _, t := range bucket {
			if ct, ok := any(t).(ConditionalTransform[N]); ok && (ct.Predicate == nil || !ct.Predicate(ctx)) {
				continue
			}
			stacks++
		}
		if stacks == 0 {
			return value
		}
		multiplier := 1 - math.Exp(-k*stacks)
		return value.Mul(zero.FromFloat(multiplier))

	case StackMin:
		// Each transform contributes a floor; the most restrictive (largest)
		// floor among them wins, then the running value is raised to at
		// least that floor.
		var effMin N
		has := false
		for _, t := range bucket {
			candidate := t.Apply(zero.Zero(), ctx, lookup)
			if !has {
				effMin, has = candidate, true
			} else {
				effMin = Max(effMin, candidate)
			}
		}
		if !has {
			return value
		}
		return Max(value, effMin)

	case StackMax:
		// Mirror of StackMin: each transform contributes a ceiling, the most
		// restrictive (smallest) ceiling wins, and the running value is
		// lowered to at most that ceiling.
		var effMax N
		has := false
		for _, t := range bucket {
			candidate := t.Apply(zero.Zero(), ctx, lookup)
			if !has {
				effMax, has = candidate, true
			} else {
				effMax = Min(effMax, candidate)
			}
		}
		if !has {
			return value
		}
		return Min(value, effMax)

	case StackMinMax:
		var effMin, effMax N
		hasMin, hasMax := false, false
		for _, t := range bucket {
			bp, ok := any(t).(boundsProvider[N])
			if !ok {
				continue
			}
			b := bp.Bounds(ctx)
			if b.HasMin {
				if !hasMin {
					effMin = b.Min
					hasMin = true
				} else {
					effMin = Max(effMin, b.Min)
				}
			}
			if b.HasMax {
				if !hasMax {
					effMax = b.Max
					hasMax = true
				} else {
					effMax = Min(effMax, b.Max)
				}
			}
		}
		result := value
		if hasMin {
			result = Max(result, effMin)
		}
		if hasMax {
			result = Min(result, effMax)
		}
		return result

	default:
		return value
	}
}
