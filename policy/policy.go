// Package policy declares the expiry policy descriptor a store carries.
//
// A Policy is data only: the store records it and exposes it to whoever
// implements eviction, but never executes it. An evictor reads entry
// metadata (insert time, read counters, last read time) and the store's
// size counters through cache.View and calls Delete for the victims.
package policy

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind enumerates the closed set of policy variants.
type Kind uint8

const (
	// Unconstrained places no age or recency constraint on entries.
	Unconstrained Kind = iota
	// MaxAge bounds how long an entry may live after insertion.
	MaxAge
	// LRU prefers removing the least recently read entries.
	LRU
)

var kindNames = [...]string{
	Unconstrained: "unconstrained",
	MaxAge:        "max_age",
	LRU:           "lru",
}

// String returns the stable lower-case name of k.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ErrUnknownKind is returned by ParseKind and Validate for kinds outside the closed set.
var ErrUnknownKind = errors.New("policy: unknown kind")

// ParseKind maps a name ("lru", "max_age", "age", "unconstrained", "none")
// to a Kind. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "unconstrained":
		return Unconstrained, nil
	case "max_age", "maxage", "age":
		return MaxAge, nil
	case "lru", "recency":
		return LRU, nil
	}
	return Unconstrained, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Policy is the descriptor stored on a cache. The zero value is Unconstrained.
type Policy struct {
	Kind Kind
	// MaxAge is meaningful only for Kind == MaxAge.
	MaxAge time.Duration
}

// None returns the unconstrained placeholder policy.
func None() Policy { return Policy{Kind: Unconstrained} }

// Age returns an age-based policy with the given maximum entry age.
func Age(d time.Duration) Policy { return Policy{Kind: MaxAge, MaxAge: d} }

// Recency returns a recency-based (LRU) policy.
func Recency() Policy { return Policy{Kind: LRU} }

// Validate reports whether p is a well-formed descriptor.
func (p Policy) Validate() error {
	switch p.Kind {
	case Unconstrained, LRU:
		return nil
	case MaxAge:
		if p.MaxAge <= 0 {
			return fmt.Errorf("policy: max_age must be > 0, got %v", p.MaxAge)
		}
		return nil
	}
	return fmt.Errorf("%w: %d", ErrUnknownKind, uint8(p.Kind))
}

// IsZero reports whether p is the zero (unconstrained) descriptor.
func (p Policy) IsZero() bool { return p == Policy{} }

func (p Policy) String() string {
	if p.Kind == MaxAge {
		return fmt.Sprintf("policy(%s=%v)", p.Kind, p.MaxAge)
	}
	return fmt.Sprintf("policy(%s)", p.Kind)
}
