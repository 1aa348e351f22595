package cache

import (
	"iter"
	"sync"
	"time"

	"github.com/IvanBrykalov/smartcache/policy"
)

// SyncStore is a Store guarded by a single mutex held around every public
// operation. It is safe for concurrent use.
//
// A context stack models one caller's nested scope, so SyncStore does not
// share one: each goroutine that needs contexts takes its own Scope. Calls
// made directly on SyncStore use the default context.
type SyncStore[K comparable, V any] struct {
	mu sync.Mutex
	s  *Store[K, V]
}

// NewSync constructs a concurrency-safe store. See New for Options handling.
func NewSync[K comparable, V any](opt Options[K, V]) (*SyncStore[K, V], error) {
	s, err := New(opt)
	if err != nil {
		return nil, err
	}
	return &SyncStore[K, V]{s: s}, nil
}

// Scope returns a new caller-local handle with its own empty context stack.
// A Scope must not be shared between goroutines.
func (ss *SyncStore[K, V]) Scope() *Scope[K, V] {
	return &Scope[K, V]{ss: ss, stack: NewContextStack(ss.s.stack.Default())}
}

// Name returns the store label.
func (ss *SyncStore[K, V]) Name() string { return ss.s.Name() }

// CreateTime returns when the store was constructed.
func (ss *SyncStore[K, V]) CreateTime() time.Time { return ss.s.CreateTime() }

// Limits returns the declared size limits.
func (ss *SyncStore[K, V]) Limits() Limits { return ss.s.Limits() }

// Policy returns the declared expiry policy.
func (ss *SyncStore[K, V]) Policy() policy.Policy { return ss.s.Policy() }

// Set inserts or overwrites k in the default context. See Store.Set.
func (ss *SyncStore[K, V]) Set(k K, v V, opts ...SetOption) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.s.Set(k, v, opts...)
}

// Get returns the value for k, or def if k is absent.
func (ss *SyncStore[K, V]) Get(k K, def V) V {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.s.Get(k, def)
}

// GetRequired returns the value for k or ErrNotFound.
func (ss *SyncStore[K, V]) GetRequired(k K) (V, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.s.GetRequired(k)
}

// Contains reports whether k is present.
func (ss *SyncStore[K, V]) Contains(k K) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.s.Contains(k)
}

// Delete removes k if present.
func (ss *SyncStore[K, V]) Delete(k K) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.s.Delete(k)
}

// Pop removes k and returns its value. See Store.Pop.
func (ss *SyncStore[K, V]) Pop(k K) (V, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.s.Pop(k)
}

// Update always fails with ErrUnsupported.
func (ss *SyncStore[K, V]) Update(items map[K]V) error { return ss.s.Update(items) }

// Len returns the number of live entries.
func (ss *SyncStore[K, V]) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.s.Len()
}

// Bytes returns the sum of Sizer results over live entries.
func (ss *SyncStore[K, V]) Bytes() int64 {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.s.Bytes()
}

// Keys returns a snapshot of all keys. O(n) under the lock.
func (ss *SyncStore[K, V]) Keys() []K {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.s.Keys()
}

// All snapshots under the lock and yields without holding it, so the loop
// body may call back into the store.
func (ss *SyncStore[K, V]) All() iter.Seq2[K, V] {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.s.All()
}

// Inspect returns a copy of k's entry without counting a read.
func (ss *SyncStore[K, V]) Inspect(k K) (Entry[K, V], bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.s.Inspect(k)
}

// Entries returns copies of all entries, oldest insertion first.
func (ss *SyncStore[K, V]) Entries() []Entry[K, V] {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.s.Entries()
}

// Age returns the time since k was inserted.
func (ss *SyncStore[K, V]) Age(k K) (time.Duration, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.s.Age(k)
}

// Stats returns a snapshot of the operation counters.
func (ss *SyncStore[K, V]) Stats() Stats {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.s.Stats()
}

// ContextCount returns the number of live entries attributed to name.
func (ss *SyncStore[K, V]) ContextCount(name string) int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.s.ContextCount(name)
}

// ContextCounts returns a copy of the per-context live counts.
func (ss *SyncStore[K, V]) ContextCounts() map[string]int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.s.ContextCounts()
}

// String describes the store and its declared configuration.
func (ss *SyncStore[K, V]) String() string {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.s.String()
}

// Scope is one caller's view of a SyncStore: it owns a private context
// stack and attributes its inserts to that stack's active context.
type Scope[K comparable, V any] struct {
	ss    *SyncStore[K, V]
	stack *ContextStack
}

// PushContext makes name active for this scope only.
func (sc *Scope[K, V]) PushContext(name string) error {
	if err := sc.stack.Push(name); err != nil {
		return err
	}
	sc.ss.mu.Lock()
	sc.ss.s.emitContext(EventContextPushed, name, sc.stack.Depth())
	sc.ss.mu.Unlock()
	return nil
}

// PopContext removes and returns this scope's active context.
func (sc *Scope[K, V]) PopContext() (string, error) {
	name, err := sc.stack.Pop()
	if err != nil {
		return "", err
	}
	sc.ss.mu.Lock()
	sc.ss.s.emitContext(EventContextPopped, name, sc.stack.Depth())
	sc.ss.mu.Unlock()
	return name, nil
}

// CurrentContext returns this scope's active context.
func (sc *Scope[K, V]) CurrentContext() string { return sc.stack.Current() }

// ContextDepth returns the number of contexts pushed on this scope.
func (sc *Scope[K, V]) ContextDepth() int { return sc.stack.Depth() }

// Enter pushes name on this scope and returns a guard whose Release pops it.
func (sc *Scope[K, V]) Enter(name string) (*ContextGuard, error) {
	if err := sc.PushContext(name); err != nil {
		return nil, err
	}
	return &ContextGuard{name: name, pop: sc.PopContext}, nil
}

// WithContext runs fn with name active on this scope, popping on every exit path.
func (sc *Scope[K, V]) WithContext(name string, fn func() error) error {
	return withGuard(sc, name, fn)
}

// Set inserts under this scope's active context; an explicit InContext
// option still takes precedence.
func (sc *Scope[K, V]) Set(k K, v V, opts ...SetOption) error {
	all := make([]SetOption, 0, len(opts)+1)
	all = append(all, InContext(sc.stack.Current()))
	all = append(all, opts...)
	return sc.ss.Set(k, v, all...)
}

// Get delegates to SyncStore.Get.
func (sc *Scope[K, V]) Get(k K, def V) V { return sc.ss.Get(k, def) }

// GetRequired delegates to SyncStore.GetRequired.
func (sc *Scope[K, V]) GetRequired(k K) (V, error) { return sc.ss.GetRequired(k) }

// Contains delegates to SyncStore.Contains.
func (sc *Scope[K, V]) Contains(k K) bool { return sc.ss.Contains(k) }

// Delete delegates to SyncStore.Delete.
func (sc *Scope[K, V]) Delete(k K) { sc.ss.Delete(k) }

// Pop delegates to SyncStore.Pop.
func (sc *Scope[K, V]) Pop(k K) (V, bool) { return sc.ss.Pop(k) }

// Len returns the number of live entries in the shared store.
func (sc *Scope[K, V]) Len() int { return sc.ss.Len() }

// All delegates to SyncStore.All.
func (sc *Scope[K, V]) All() iter.Seq2[K, V] { return sc.ss.All() }

var (
	_ Container[string, any] = (*SyncStore[string, any])(nil)
	_ Container[string, any] = (*Scope[string, any])(nil)
	_ View[string, any]      = (*SyncStore[string, any])(nil)
	_ StatsSource            = (*SyncStore[string, any])(nil)
	_ Scoper                 = (*Scope[string, any])(nil)
)
