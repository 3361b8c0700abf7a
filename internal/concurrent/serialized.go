// Package concurrent wraps a single resolver behind a mutex and a
// singleflight group so callers on multiple goroutines can safely share one
// engine instance. The engine's own types are allocation-shy and
// single-threaded by design (see SPEC_FULL.md §5 on the fold hot path); this
// package is where the concurrency the rest of the example pack reaches for
// (la2go's cmd/gameserver coordinates its subsystems with
// golang.org/x/sync/errgroup) gets applied to stat resolution instead —
// request coalescing via singleflight.Group so N goroutines asking for the
// same (stat, context) during the same tick collapse into one fold.
package concurrent

import (
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"rpgstat"
)

// Serialized coordinates concurrent access to a *rpgstat.Resolver[N]: writes
// (anything that can mutate the resolver — RegisterSource,
// RegisterTransform, Invalidate) go through Mutate and take an exclusive
// lock, and reads (Resolve) are coalesced per (stat, fingerprint) through a
// singleflight.Group so concurrent callers asking for the same value share
// one underlying fold instead of each paying for their own.
type Serialized[N rpgstat.Numeric[N]] struct {
	mu    sync.Mutex
	inner *rpgstat.Resolver[N]
	group singleflight.Group
}

// New wraps inner for concurrent use. inner should not be accessed outside
// of s once wrapped.
func New[N rpgstat.Numeric[N]](inner *rpgstat.Resolver[N]) *Serialized[N] {
	return &Serialized[N]{inner: inner}
}

// Resolve resolves stat against ctx, coalescing concurrent callers
// requesting the same (stat, context fingerprint) into a single underlying
// Resolve call.
func (s *Serialized[N]) Resolve(stat rpgstat.StatID, ctx rpgstat.Context) (rpgstat.ResolvedStat[N], error) {
	key := stat.String() + "#" + strconv.FormatUint(ctx.Fingerprint(), 16)
	v, err, _ := s.group.Do(key, func() (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.inner.Resolve(stat, ctx)
	})
	if err != nil {
		var zero rpgstat.ResolvedStat[N]
		return zero, err
	}
	return v.(rpgstat.ResolvedStat[N]), nil
}

// Mutate runs fn with exclusive access to the underlying resolver — use it
// to wrap RegisterSource/RegisterTransform/Invalidate/Fork calls that must
// not interleave with an in-flight Resolve.
func (s *Serialized[N]) Mutate(fn func(inner *rpgstat.Resolver[N]) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.inner)
}
