package cache

import (
	"fmt"
	"time"

	"github.com/IvanBrykalov/smartcache/policy"
)

// AllContexts is the reserved name of the aggregate per-context count.
// It can never be pushed onto a context stack.
const AllContexts = "ALL"

// Clock provides time in UnixNano; useful for deterministic tests.
// The store never lets observed time go backwards, even if the Clock does.
type Clock interface{ NowUnixNano() int64 }

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() int64

// NowUnixNano implements Clock.
func (f ClockFunc) NowUnixNano() int64 { return f() }

type systemClock struct{}

func (systemClock) NowUnixNano() int64 { return time.Now().UnixNano() }

// Limits are the declared soft size limits of a store. They are stored and
// exposed, never enforced: a zero field means "no limit".
type Limits struct {
	MaxEntries int
	MaxBytes   int64
}

// Exceeded reports whether the given totals are over either limit.
// Intended for external evictors.
func (l Limits) Exceeded(entries int, bytes int64) bool {
	if l.MaxEntries > 0 && entries > l.MaxEntries {
		return true
	}
	return l.MaxBytes > 0 && bytes > l.MaxBytes
}

// Options configures a Store. Zero values are safe;
// defaults are applied in New():
//   - empty Name       => "default"
//   - nil Observer     => NopObserver
//   - nil Clock        => time.Now()
//   - zero Policy      => policy.None()
type Options[K comparable, V any] struct {
	// Name identifies the store in events, metrics and String().
	Name string

	// Contents seeds the store at construction; each pair goes through Set
	// under DefaultContext, so it is counted and observed like any other write.
	Contents map[K]V

	// DefaultContext is the active context while the stack is empty.
	// Empty means "no context". It must not be AllContexts.
	DefaultContext string

	// Soft limits for an external evictor (0 = unlimited).
	MaxEntries int
	MaxBytes   int64

	// Sizer reports the byte size of a value; it feeds Bytes(). nil => 0 per entry.
	Sizer func(v V) int64

	// Policy is the expiry policy descriptor. Stored, never executed.
	Policy policy.Policy

	// Observability
	// Observer receives events synchronously; keep it lightweight or wrap it
	// with observe/async.
	Observer Observer

	// Clock allows overriding time source (tests). Nil => time.Now().
	Clock Clock
}

func (o Options[K, V]) validate() error {
	if o.MaxEntries < 0 {
		return fmt.Errorf("%w: MaxEntries must be >= 0, got %d", ErrInvalidOptions, o.MaxEntries)
	}
	if o.MaxBytes < 0 {
		return fmt.Errorf("%w: MaxBytes must be >= 0, got %d", ErrInvalidOptions, o.MaxBytes)
	}
	if o.DefaultContext == AllContexts {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, ErrReservedContext)
	}
	if err := o.Policy.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return nil
}

// SetOption customizes a single Set call.
type SetOption func(*setOptions)

type setOptions struct {
	context     string
	hasContext  bool
	resource    any
	hasResource bool
}

// InContext attributes a new entry to name instead of the active context.
// An existing entry keeps the context fixed at its insertion, but name is
// validated on every Set: AllContexts is always rejected.
func InContext(name string) SetOption {
	return func(o *setOptions) {
		o.context = name
		o.hasContext = true
	}
}

// WithResource associates r with the entry. The store keeps the reference
// but never owns, copies or closes it.
func WithResource(r any) SetOption {
	return func(o *setOptions) {
		o.resource = r
		o.hasResource = true
	}
}

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
