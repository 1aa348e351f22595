package cache

import (
	"errors"
	"slices"
	"testing"
)

func TestContextStack_PushPop(t *testing.T) {
	t.Parallel()

	s := NewContextStack("dflt")
	if s.Current() != "dflt" {
		t.Fatalf("empty stack must report default, got %q", s.Current())
	}
	_ = s.Push("a")
	_ = s.Push("b")
	if s.Current() != "b" || s.Depth() != 2 {
		t.Fatalf("current=%q depth=%d", s.Current(), s.Depth())
	}
	if got := s.Contexts(); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("contexts: %v", got)
	}
	if top, err := s.Pop(); err != nil || top != "b" {
		t.Fatalf("pop: %q %v", top, err)
	}
	if top, err := s.Pop(); err != nil || top != "a" {
		t.Fatalf("pop: %q %v", top, err)
	}
	if s.Current() != "dflt" {
		t.Fatalf("drained stack must fall back to default, got %q", s.Current())
	}
}

func TestContextStack_RejectsReserved(t *testing.T) {
	t.Parallel()

	s := NewContextStack("")
	_ = s.Push("x")
	if err := s.Push(AllContexts); !errors.Is(err, ErrReservedContext) {
		t.Fatalf("want ErrReservedContext, got %v", err)
	}
	if s.Depth() != 1 || s.Current() != "x" {
		t.Fatalf("rejected push mutated the stack: depth=%d current=%q", s.Depth(), s.Current())
	}
}

func TestContextStack_PopEmpty(t *testing.T) {
	t.Parallel()

	s := NewContextStack("")
	if _, err := s.Pop(); !errors.Is(err, ErrEmptyContextStack) {
		t.Fatalf("want ErrEmptyContextStack, got %v", err)
	}
	if s.Depth() != 0 {
		t.Fatal("failed pop mutated the stack")
	}
}

func TestStore_PushReservedLeavesStack(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options[string, int]{})
	rec := &recorder{}
	s.obs = rec

	if err := s.PushContext(AllContexts); !errors.Is(err, ErrReservedContext) {
		t.Fatalf("want ErrReservedContext, got %v", err)
	}
	if s.ContextDepth() != 0 {
		t.Fatalf("depth: want 0, got %d", s.ContextDepth())
	}
	if _, err := s.PopContext(); !errors.Is(err, ErrEmptyContextStack) {
		t.Fatalf("want ErrEmptyContextStack, got %v", err)
	}
	if len(rec.events) != 0 {
		t.Fatalf("failed push/pop must not emit events: %v", rec.kinds())
	}
}

func TestWithContext_BalancedOnError(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options[string, int]{})
	boom := errors.New("boom")

	err := s.WithContext("outer", func() error {
		return s.WithContext("inner", func() error {
			if s.CurrentContext() != "inner" {
				t.Errorf("current: want inner, got %q", s.CurrentContext())
			}
			return boom
		})
	})
	if !errors.Is(err, boom) {
		t.Fatalf("body error must surface unchanged, got %v", err)
	}
	if s.ContextDepth() != 0 {
		t.Fatalf("stack not balanced after failure: depth=%d", s.ContextDepth())
	}
}

func TestWithContext_BalancedOnPanic(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options[string, int]{})
	_ = s.PushContext("base")

	func() {
		defer func() {
			if r := recover(); r != "kaboom" {
				t.Fatalf("panic must propagate, got %v", r)
			}
		}()
		_ = s.WithContext("scoped", func() error { panic("kaboom") })
	}()

	if s.ContextDepth() != 1 || s.CurrentContext() != "base" {
		t.Fatalf("depth=%d current=%q after panic", s.ContextDepth(), s.CurrentContext())
	}
}

func TestWithContext_ReservedNeverRunsBody(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options[string, int]{})
	ran := false
	err := s.WithContext(AllContexts, func() error { ran = true; return nil })
	if !errors.Is(err, ErrReservedContext) || ran {
		t.Fatalf("err=%v ran=%v", err, ran)
	}
}

// LIFO unwind order across nested guards.
func TestEnter_NestedLIFO(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	s := newStore(t, Options[string, int]{Observer: rec})

	func() {
		g1, err := s.Enter("read-user")
		if err != nil {
			t.Fatal(err)
		}
		defer g1.Release()
		_ = s.Set("three", 3)

		g2, err := s.Enter("write-user")
		if err != nil {
			t.Fatal(err)
		}
		defer g2.Release()
		_ = s.Set("five", 5)
	}()

	var pops []string
	for _, e := range rec.events {
		if e.Kind == EventContextPopped {
			pops = append(pops, e.Context)
		}
	}
	if !slices.Equal(pops, []string{"write-user", "read-user"}) {
		t.Fatalf("unwind order: %v", pops)
	}
	if e, _ := s.Inspect("five"); e.Context != "write-user" {
		t.Fatalf("five context: %q", e.Context)
	}
	if e, _ := s.Inspect("three"); e.Context != "read-user" {
		t.Fatalf("three context: %q", e.Context)
	}
}

func TestContextGuard_ReleaseOnce(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options[string, int]{})
	_ = s.PushContext("keep")
	g, err := s.Enter("tmp")
	if err != nil {
		t.Fatal(err)
	}
	if g.Name() != "tmp" {
		t.Fatalf("name: %q", g.Name())
	}
	if err := g.Release(); err != nil {
		t.Fatal(err)
	}
	if err := g.Release(); err != nil {
		t.Fatalf("second release: %v", err)
	}
	if s.ContextDepth() != 1 || s.CurrentContext() != "keep" {
		t.Fatalf("double release popped twice: depth=%d", s.ContextDepth())
	}
}

func TestWithin_ReturnsBodyResult(t *testing.T) {
	t.Parallel()

	s := newStore(t, Options[string, int]{})
	_ = s.Set("a", 41)

	got, err := Within(s, "calc", func() (int, error) {
		return s.Get("a", 0) + 1, nil
	})
	if err != nil || got != 42 {
		t.Fatalf("Within: got %d err=%v", got, err)
	}
	if s.ContextDepth() != 0 {
		t.Fatal("Within left the stack unbalanced")
	}
}
