// Package cache provides an instrumented, generic in-memory key/value store
// that keeps per-entry bookkeeping (insert time, read/write counters, last
// read time, a logical context tag) and aggregate operation statistics, so a
// host application can observe access patterns and later plug in eviction.
//
// Design
//
//   - Entries: each key maps to one Entry record. Set on an existing key
//     mutates the record in place; InsertTime and Context never change.
//
//   - Contexts: a stack of context names attributes new entries. The top
//     of the stack (or Options.DefaultContext when empty) is the active
//     context. "ALL" is reserved for the aggregate count and can never be
//     pushed. Enter/WithContext/Within pair every push with exactly one pop.
//
//   - Statistics: nine monotonically increasing counters (Stats) record
//     operation outcomes. Soft misses (Get with a default, Delete of an
//     absent key) are counted, never returned as errors.
//
//   - Extension point: MaxEntries, MaxBytes and Policy are stored but never
//     enforced. An external evictor reads them together with entry metadata
//     through View and calls Delete.
//
//   - Observability: Options.Observer receives discrete events (entry
//     created/overwritten/deleted, context pushed/popped, miss recorded).
//     By default NopObserver is used; adapters live under observe/ and
//     metrics/prom.
//
// Basic usage
//
//	s, err := cache.New[string, int](cache.Options[string, int]{Name: "users"})
//	if err != nil {
//	    return err
//	}
//	_ = s.Set("a", 1)
//	v := s.Get("a", -1) // 1
//	s.Delete("a")
//
// Contexts
//
//	err := s.WithContext("import", func() error {
//	    return s.Set("x", 10) // Entry for "x" has Context "import"
//	})
//
// Thread-safety
//
// Store is single-threaded. NewSync wraps it with one mutex around every
// operation; each goroutine then takes its own Scope, which carries a
// private context stack.
package cache
