package cache

// ContextStack is an ordered stack of logical context names used to
// attribute new entries. It models a nested call scope: one per store for
// single-threaded use, one per Scope under SyncStore.
type ContextStack struct {
	items []string
	def   string
}

// NewContextStack returns an empty stack whose Current falls back to def.
func NewContextStack(def string) *ContextStack {
	return &ContextStack{def: def}
}

// Push makes name the active context. AllContexts is rejected and leaves
// the stack unchanged.
func (s *ContextStack) Push(name string) error {
	if name == AllContexts {
		return ErrReservedContext
	}
	s.items = append(s.items, name)
	return nil
}

// Pop removes and returns the active context.
func (s *ContextStack) Pop() (string, error) {
	n := len(s.items)
	if n == 0 {
		return "", ErrEmptyContextStack
	}
	top := s.items[n-1]
	s.items[n-1] = ""
	s.items = s.items[:n-1]
	return top, nil
}

// Current returns the top of the stack, or the default context when empty.
func (s *ContextStack) Current() string {
	if n := len(s.items); n > 0 {
		return s.items[n-1]
	}
	return s.def
}

// Default returns the fallback context.
func (s *ContextStack) Default() string { return s.def }

// Depth returns the number of pushed contexts.
func (s *ContextStack) Depth() int { return len(s.items) }

// Contexts returns a copy of the stack, bottom first.
func (s *ContextStack) Contexts() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// ContextGuard is a pushed context awaiting its matching pop.
// Obtain one from Enter and release it with defer.
type ContextGuard struct {
	name     string
	pop      func() (string, error)
	released bool
}

// Name returns the context this guard pushed.
func (g *ContextGuard) Name() string { return g.name }

// Release pops the guarded context. Only the first call pops; later calls
// return nil.
func (g *ContextGuard) Release() error {
	if g.released {
		return nil
	}
	g.released = true
	_, err := g.pop()
	return err
}

// Scoper is anything that can open a guarded context: *Store and *Scope.
type Scoper interface {
	Enter(name string) (*ContextGuard, error)
}

// withGuard runs fn inside a guarded context. The pop happens on every exit
// path, panics included; fn's error takes precedence over a pop error.
func withGuard(sc Scoper, name string, fn func() error) (err error) {
	g, err := sc.Enter(name)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := g.Release(); err == nil {
			err = rerr
		}
	}()
	return fn()
}

// Within runs fn inside the named context of sc and returns fn's result.
func Within[R any](sc Scoper, name string, fn func() (R, error)) (R, error) {
	var out R
	err := withGuard(sc, name, func() error {
		var err error
		out, err = fn()
		return err
	})
	return out, err
}
