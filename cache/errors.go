package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingKey is returned by Set when the key is the zero value of K.
	ErrMissingKey = errors.New("smartcache: no key specified")
	// ErrNotFound is returned by GetRequired for an absent key.
	ErrNotFound = errors.New("smartcache: key not found")
	// ErrReservedContext is returned when the reserved aggregate context name is
	// pushed, passed to InContext or configured as the default context.
	ErrReservedContext = fmt.Errorf("smartcache: context name %q is reserved for the aggregate view", AllContexts)
	// ErrEmptyContextStack is returned when popping a context with nothing pushed.
	ErrEmptyContextStack = errors.New("smartcache: context stack is empty")
	// ErrUnsupported is returned by Update. It matches errors.ErrUnsupported.
	ErrUnsupported = fmt.Errorf("smartcache: bulk update: %w", errors.ErrUnsupported)
	// ErrInvalidOptions wraps every validation failure reported by New.
	ErrInvalidOptions = errors.New("smartcache: invalid options")
)

// KeyError records a failed operation on a single key.
type KeyError struct {
	Op  string
	Key any
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%s %v: %v", e.Op, e.Key, e.Err)
}

func (e *KeyError) Unwrap() error { return e.Err }
