package cache

import (
	"iter"

	"github.com/IvanBrykalov/smartcache/policy"
)

// Container is the minimal key/value contract consumers of a store depend
// on. Both *Store and *SyncStore implement it.
type Container[K comparable, V any] interface {
	// Get returns the value for k, or def if k is absent.
	Get(k K, def V) V

	// Set inserts k→v or updates the existing entry in place.
	// Returns ErrMissingKey if k is the zero value of K.
	Set(k K, v V, opts ...SetOption) error

	// Contains reports whether k is present without touching entry counters.
	Contains(k K) bool

	// Delete removes k. Deleting an absent key is a counted no-op.
	Delete(k K)

	// Len returns the number of live entries.
	Len() int

	// All yields every key/value pair of a snapshot taken at call time.
	All() iter.Seq2[K, V]
}

// View is what an external evictor consumes: entry metadata, the store's
// size counters and declared limits, and the removal operation.
// The store itself never invokes an evictor.
type View[K comparable, V any] interface {
	Entries() []Entry[K, V]
	Len() int
	Bytes() int64
	Limits() Limits
	Policy() policy.Policy
	Delete(k K)
	Pop(k K) (V, bool)
}

// StatsSource exposes aggregate counters, e.g. to a metrics exporter.
type StatsSource interface {
	Name() string
	Stats() Stats
	Len() int
	Bytes() int64
	ContextCounts() map[string]int
}
