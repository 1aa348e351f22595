package cache

import (
	"fmt"
	"iter"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/IvanBrykalov/smartcache/policy"
)

// Store is an instrumented key/value store. It is NOT safe for concurrent
// use; wrap it with NewSync when several goroutines share it.
//
// Single-key operations are O(1) expected: one map access plus constant
// bookkeeping. Keys, All and Entries are O(n).
type Store[K comparable, V any] struct {
	name    string
	m       map[K]*Entry[K, V]
	stack   *ContextStack
	counts  map[string]int // live entries per context, AllContexts included
	bytes   int64
	limits  Limits
	pol     policy.Policy
	sizer   func(V) int64
	obs     Observer
	clock   Clock
	last    int64 // last observed UnixNano; time never goes backwards
	created time.Time
	stats   collector
}

// New constructs a store with the provided Options.
//
// The zero value of K is reserved as the missing key and can never be
// stored: for a Store[int, V], key 0 is rejected by Set with ErrMissingKey.
//
// Defaults:
//   - empty Name   -> "default"
//   - nil Observer -> NopObserver
//   - nil Clock    -> system clock
func New[K comparable, V any](opt Options[K, V]) (*Store[K, V], error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	s := &Store[K, V]{
		name:   coalesce(opt.Name, "default"),
		m:      make(map[K]*Entry[K, V], len(opt.Contents)),
		stack:  NewContextStack(opt.DefaultContext),
		counts: map[string]int{AllContexts: 0},
		limits: Limits{MaxEntries: opt.MaxEntries, MaxBytes: opt.MaxBytes},
		pol:    opt.Policy,
		sizer:  opt.Sizer,
		obs:    opt.Observer,
		clock:  opt.Clock,
	}
	if s.obs == nil {
		s.obs = NopObserver{}
	}
	if s.clock == nil {
		s.clock = systemClock{}
	}
	s.created = s.nowTime()

	for k, v := range opt.Contents {
		if err := s.Set(k, v); err != nil {
			return nil, fmt.Errorf("%w: contents: %w", ErrInvalidOptions, err)
		}
	}
	return s, nil
}

// ---- identity & configuration ----

// Name returns the store label.
func (s *Store[K, V]) Name() string { return s.name }

// CreateTime returns when the store was constructed.
func (s *Store[K, V]) CreateTime() time.Time { return s.created }

// Limits returns the declared (unenforced) size limits.
func (s *Store[K, V]) Limits() Limits { return s.limits }

// Policy returns the declared (unexecuted) expiry policy.
func (s *Store[K, V]) Policy() policy.Policy { return s.pol }

// ---- context stack ----

// PushContext makes name the active context for subsequent inserts.
// Entries already stored are unaffected.
func (s *Store[K, V]) PushContext(name string) error {
	if err := s.stack.Push(name); err != nil {
		return err
	}
	s.emitContext(EventContextPushed, name, s.stack.Depth())
	return nil
}

// PopContext removes and returns the active context.
func (s *Store[K, V]) PopContext() (string, error) {
	name, err := s.stack.Pop()
	if err != nil {
		return "", err
	}
	s.emitContext(EventContextPopped, name, s.stack.Depth())
	return name, nil
}

// CurrentContext returns the active context.
func (s *Store[K, V]) CurrentContext() string { return s.stack.Current() }

// ContextDepth returns the number of pushed contexts.
func (s *Store[K, V]) ContextDepth() int { return s.stack.Depth() }

// Enter pushes name and returns a guard whose Release pops it.
//
//	g, err := s.Enter("batch")
//	if err != nil { return err }
//	defer g.Release()
func (s *Store[K, V]) Enter(name string) (*ContextGuard, error) {
	if err := s.PushContext(name); err != nil {
		return nil, err
	}
	return &ContextGuard{name: name, pop: s.PopContext}, nil
}

// WithContext runs fn with name as the active context and pops it on every
// exit path. fn's error is returned unchanged.
func (s *Store[K, V]) WithContext(name string, fn func() error) error {
	return withGuard(s, name, fn)
}

// ---- entry operations ----

// Set inserts k→v, or updates the value of an existing entry in place.
// An overwrite keeps the entry's InsertTime and Context.
//
// k equal to the zero value of K (0, "", nil) fails with ErrMissingKey and
// is counted in SetMissingKey. An InContext option naming AllContexts fails
// with ErrReservedContext, for new and existing keys alike.
func (s *Store[K, V]) Set(k K, v V, opts ...SetOption) error {
	var so setOptions
	for _, o := range opts {
		o(&so)
	}

	var zero K
	if k == zero {
		s.stats.missingKey()
		s.emit(EventSetRejected, "set", k, s.stack.Current())
		return &KeyError{Op: "set", Key: k, Err: ErrMissingKey}
	}
	ctx := s.stack.Current()
	if so.hasContext {
		if so.context == AllContexts {
			s.emit(EventSetRejected, "set", k, so.context)
			return &KeyError{Op: "set", Key: k, Err: ErrReservedContext}
		}
		ctx = so.context
	}

	now := s.nowTime()
	size := s.sizeOf(v)

	if e, ok := s.m[k]; ok {
		e.Value = v
		e.LastSetTime = now
		e.CountSets++
		s.bytes += size - e.size
		e.size = size
		if so.hasResource {
			e.Resource = so.resource
		}
		s.stats.overwrite()
		s.emit(EventEntryOverwritten, "set", k, e.Context)
		return nil
	}

	s.m[k] = &Entry[K, V]{
		Key:         k,
		Value:       v,
		InsertTime:  now,
		LastSetTime: now,
		Context:     ctx,
		Resource:    so.resource,
		CountSets:   1,
		size:        size,
	}
	s.bytes += size
	s.counts[ctx]++
	s.counts[AllContexts]++
	s.emit(EventEntryCreated, "set", k, ctx)
	return nil
}

// Get returns the value for k, or def if k is absent. A hit bumps the
// entry's read counter and last read time; a miss is counted, never raised.
func (s *Store[K, V]) Get(k K, def V) V {
	e, ok := s.m[k]
	s.stats.get(!ok)
	if !ok {
		s.emit(EventMiss, "get", k, s.stack.Current())
		return def
	}
	s.touch(e)
	return e.Value
}

// GetRequired is Get without a default: an absent key yields ErrNotFound.
func (s *Store[K, V]) GetRequired(k K) (V, error) {
	e, ok := s.m[k]
	s.stats.get(false)
	if !ok {
		s.emit(EventMiss, "get_required", k, s.stack.Current())
		var zero V
		return zero, &KeyError{Op: "get", Key: k, Err: ErrNotFound}
	}
	s.touch(e)
	return e.Value, nil
}

// Contains reports whether k is present. Entry counters are not touched.
func (s *Store[K, V]) Contains(k K) bool {
	_, ok := s.m[k]
	s.stats.test(ok)
	return ok
}

// Delete removes k if present. Deleting an absent key is counted in
// DeletesFail and otherwise does nothing.
func (s *Store[K, V]) Delete(k K) {
	s.remove(k, "delete")
}

// Pop removes k and returns its value. An absent key returns the zero V and
// false. Pop is counted exactly like Delete and never touches read counters.
func (s *Store[K, V]) Pop(k K) (V, bool) {
	e, ok := s.remove(k, "pop")
	if !ok {
		var zero V
		return zero, false
	}
	return e.Value, true
}

// remove is the shared removal path of Delete and Pop.
func (s *Store[K, V]) remove(k K, op string) (*Entry[K, V], bool) {
	e, ok := s.m[k]
	s.stats.del(ok)
	if !ok {
		s.emit(EventMiss, op, k, s.stack.Current())
		return nil, false
	}
	delete(s.m, k)
	s.bytes -= e.size
	s.counts[AllContexts]--
	s.counts[e.Context]--
	if s.counts[e.Context] <= 0 {
		delete(s.counts, e.Context)
	}
	s.emit(EventEntryDeleted, op, k, e.Context)
	return e, true
}

// Update is not supported; it always fails with ErrUnsupported and leaves
// the store untouched.
func (s *Store[K, V]) Update(map[K]V) error { return ErrUnsupported }

// Len returns the number of live entries.
func (s *Store[K, V]) Len() int { return len(s.m) }

// Bytes returns the sum of Sizer results over live entries.
func (s *Store[K, V]) Bytes() int64 { return s.bytes }

// Keys returns a snapshot of all keys in unspecified order.
// It scans the whole map: keep it off hot paths.
func (s *Store[K, V]) Keys() []K {
	out := make([]K, 0, len(s.m))
	for k := range s.m {
		out = append(out, k)
	}
	return out
}

// All returns a one-shot sequence over the pairs present at call time.
// Later mutations do not affect it, and iterating does not count as a read.
func (s *Store[K, V]) All() iter.Seq2[K, V] {
	keys := make([]K, 0, len(s.m))
	vals := make([]V, 0, len(s.m))
	for k, e := range s.m {
		keys = append(keys, k)
		vals = append(vals, e.Value)
	}
	return oneShot(keys, vals)
}

// Inspect returns a copy of k's entry without counting a read.
func (s *Store[K, V]) Inspect(k K) (Entry[K, V], bool) {
	e, ok := s.m[k]
	if !ok {
		return Entry[K, V]{}, false
	}
	return *e, true
}

// Entries returns copies of all entries, oldest insertion first.
func (s *Store[K, V]) Entries() []Entry[K, V] {
	out := make([]Entry[K, V], 0, len(s.m))
	for _, e := range s.m {
		out = append(out, *e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].InsertTime.Before(out[j].InsertTime) })
	return out
}

// Age returns the time since k was inserted.
func (s *Store[K, V]) Age(k K) (time.Duration, bool) {
	e, ok := s.m[k]
	if !ok {
		return 0, false
	}
	return e.Age(s.nowTime()), true
}

// ---- statistics ----

// Stats returns a snapshot of the operation counters.
func (s *Store[K, V]) Stats() Stats { return s.stats.snapshot() }

// ContextCount returns the number of live entries attributed to name.
// ContextCount(AllContexts) equals Len().
func (s *Store[K, V]) ContextCount(name string) int { return s.counts[name] }

// ContextCounts returns a copy of the per-context live counts.
func (s *Store[K, V]) ContextCounts() map[string]int {
	out := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

func (s *Store[K, V]) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "smartcache(name=%q, entries=%d", s.name, len(s.m))
	if s.limits.MaxEntries > 0 {
		fmt.Fprintf(&b, ", max_entries=%d", s.limits.MaxEntries)
	}
	if s.limits.MaxBytes > 0 {
		fmt.Fprintf(&b, ", max_bytes=%d", s.limits.MaxBytes)
	}
	if !s.pol.IsZero() {
		fmt.Fprintf(&b, ", expire_policy=%s", s.pol)
	}
	b.WriteByte(')')
	return b.String()
}

// ---- helpers ----

func (s *Store[K, V]) touch(e *Entry[K, V]) {
	e.CountGets++
	e.LastGetTime = s.nowTime()
}

// nowTime reads the clock, clamped so it never moves backwards.
func (s *Store[K, V]) nowTime() time.Time {
	n := s.clock.NowUnixNano()
	if n < s.last {
		n = s.last
	}
	s.last = n
	return time.Unix(0, n)
}

func (s *Store[K, V]) sizeOf(v V) int64 {
	if s.sizer == nil {
		return 0
	}
	if n := s.sizer(v); n > 0 {
		return n
	}
	return 0
}

func (s *Store[K, V]) emit(kind EventKind, op string, k K, ctx string) {
	s.obs.OnEvent(Event{
		Kind:    kind,
		Store:   s.name,
		Op:      op,
		Key:     k,
		Context: ctx,
		Depth:   s.stack.Depth(),
		Entries: len(s.m),
		Bytes:   s.bytes,
		At:      s.nowTime(),
	})
}

// emitContext reports a push/pop; depth is passed explicitly because scopes
// under SyncStore keep their own stacks.
func (s *Store[K, V]) emitContext(kind EventKind, name string, depth int) {
	op := "push_context"
	if kind == EventContextPopped {
		op = "pop_context"
	}
	s.obs.OnEvent(Event{
		Kind:    kind,
		Store:   s.name,
		Op:      op,
		Context: name,
		Depth:   depth,
		Entries: len(s.m),
		Bytes:   s.bytes,
		At:      s.nowTime(),
	})
}

// oneShot yields the snapshot pairs once; ranging over it again, from any
// goroutine, yields nothing.
func oneShot[K comparable, V any](keys []K, vals []V) iter.Seq2[K, V] {
	var used atomic.Bool
	return func(yield func(K, V) bool) {
		if !used.CompareAndSwap(false, true) {
			return
		}
		for i := range keys {
			if !yield(keys[i], vals[i]) {
				return
			}
		}
	}
}

var (
	_ Container[string, any] = (*Store[string, any])(nil)
	_ View[string, any]      = (*Store[string, any])(nil)
	_ StatsSource            = (*Store[string, any])(nil)
	_ Scoper                 = (*Store[string, any])(nil)
)
