package cache

import (
	"fmt"
	"time"
)

// Entry is one cached value plus its bookkeeping. The store owns the live
// record; callers only ever see copies.
type Entry[K comparable, V any] struct {
	Key   K
	Value V

	InsertTime  time.Time
	LastSetTime time.Time
	// LastGetTime is the zero time until the first successful read.
	LastGetTime time.Time

	// Context is captured at insertion and never changes afterwards.
	Context string
	// Resource is an association only; see WithResource.
	Resource any

	CountGets uint64
	CountSets uint64

	size int64
}

// Read reports whether the entry has been read at least once.
func (e Entry[K, V]) Read() bool { return !e.LastGetTime.IsZero() }

// Size is the Sizer result recorded for the current value.
func (e Entry[K, V]) Size() int64 { return e.size }

// Age returns how long ago the entry was inserted, relative to now.
func (e Entry[K, V]) Age(now time.Time) time.Duration { return now.Sub(e.InsertTime) }

func (e Entry[K, V]) String() string {
	return fmt.Sprintf("Entry(%v=%v, context=%q, count_gets=%d, count_sets=%d, inserted=%s)",
		e.Key, e.Value, e.Context, e.CountGets, e.CountSets, e.InsertTime.Format(time.RFC3339Nano))
}
