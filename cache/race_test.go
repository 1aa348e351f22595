package cache

import (
	"fmt"
	"math/rand"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

// A mixed workload of concurrent Set/Get/Contains/Delete on random keys.
// Should pass under `-race` without detector reports.
func TestRace_SyncStore(t *testing.T) {
	s, err := NewSync(Options[string, []byte]{Name: "race"})
	if err != nil {
		t.Fatal(err)
	}

	workers := 4 * runtime.GOMAXPROCS(0)
	keyspace := 5_000
	deadline := time.Now().Add(500 * time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			sc := s.Scope()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)*9973))
			for time.Now().Before(deadline) {
				k := "k:" + strconv.Itoa(r.Intn(keyspace))
				switch r.Intn(100) {
				case 0, 1, 2, 3, 4: // ~5% Delete
					sc.Delete(k)
				case 5, 6, 7, 8, 9: // ~5% scoped Set
					_ = sc.WithContext("w"+strconv.Itoa(id), func() error {
						return sc.Set(k, []byte("x"))
					})
				case 10, 11, 12, 13, 14, 15, 16, 17, 18, 19: // ~10% Set
					_ = s.Set(k, []byte("x"))
				case 20, 21, 22: // ~3% stats readers
					_ = s.Stats()
					_ = s.ContextCounts()
				default: // ~77% Get / Contains
					if r.Intn(2) == 0 {
						s.Get(k, nil)
					} else {
						s.Contains(k)
					}
				}
			}
			if sc.ContextDepth() != 0 {
				t.Errorf("worker %d: unbalanced scope depth %d", id, sc.ContextDepth())
			}
		}(w)
	}
	wg.Wait()

	if got, all := s.Len(), s.ContextCount(AllContexts); got != all {
		t.Fatalf("Len=%d but ALL count=%d", got, all)
	}
	st := s.Stats()
	if st.Tests != st.TestsTrue+st.TestsFalse {
		t.Fatalf("tests=%d != true+false=%d", st.Tests, st.TestsTrue+st.TestsFalse)
	}
}

// Scopes on different goroutines never observe each other's contexts.
func TestScope_ContextsAreCallerLocal(t *testing.T) {
	s, err := NewSync(Options[string, string]{DefaultContext: "shared"})
	if err != nil {
		t.Fatal(err)
	}

	const goroutines = 16
	start := make(chan struct{})
	var g errgroup.Group
	for i := 0; i < goroutines; i++ {
		g.Go(func() error {
			sc := s.Scope()
			name := "ctx-" + strconv.Itoa(i)
			<-start
			return sc.WithContext(name, func() error {
				for j := 0; j < 50; j++ {
					if cur := sc.CurrentContext(); cur != name {
						return fmt.Errorf("scope %d sees %q", i, cur)
					}
					if err := sc.Set(name+":"+strconv.Itoa(j), "v"); err != nil {
						return err
					}
					runtime.Gosched()
				}
				return nil
			})
		})
	}
	close(start)
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < goroutines; i++ {
		name := "ctx-" + strconv.Itoa(i)
		if got := s.ContextCount(name); got != 50 {
			t.Fatalf("%s: want 50 entries, got %d", name, got)
		}
		e, ok := s.Inspect(name + ":0")
		if !ok || e.Context != name {
			t.Fatalf("%s:0 context %q ok=%v", name, e.Context, ok)
		}
	}

	// Direct calls use the default context, untouched by any scope.
	_ = s.Set("direct", "v")
	if e, _ := s.Inspect("direct"); e.Context != "shared" {
		t.Fatalf("direct set context: %q", e.Context)
	}
}

func TestScope_ExplicitContextWins(t *testing.T) {
	t.Parallel()

	s, err := NewSync(Options[string, int]{})
	if err != nil {
		t.Fatal(err)
	}
	sc := s.Scope()
	_ = sc.PushContext("scoped")
	_ = sc.Set("a", 1, InContext("explicit"))
	if name, err := sc.PopContext(); err != nil || name != "scoped" {
		t.Fatalf("pop: %q %v", name, err)
	}
	if e, _ := s.Inspect("a"); e.Context != "explicit" {
		t.Fatalf("context: want explicit, got %q", e.Context)
	}
	if _, err := sc.PopContext(); err == nil {
		t.Fatal("pop on empty scope must fail")
	}
}

// The loop body may call back into the store while iterating.
func TestSyncStore_AllReleasesLock(t *testing.T) {
	t.Parallel()

	s, err := NewSync(Options[string, int]{})
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Set("a", 1)
	_ = s.Set("b", 2)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for k, v := range s.All() {
			_ = s.Set(k+"'", v*10)
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("All held the lock during iteration")
	}
	if s.Len() != 4 {
		t.Fatalf("len: want 4, got %d", s.Len())
	}
}

// One iterator shared by several goroutines still yields its pairs once.
func TestSyncStore_AllOneShotAcrossGoroutines(t *testing.T) {
	t.Parallel()

	s, err := NewSync(Options[string, int]{})
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 50; i++ {
		_ = s.Set("k:"+strconv.Itoa(i), i)
	}

	seq := s.All()
	const readers = 8
	seen := make([]int, readers)
	start := make(chan struct{})
	var g errgroup.Group
	for r := 0; r < readers; r++ {
		g.Go(func() error {
			<-start
			for range seq {
				seen[r]++
			}
			return nil
		})
	}
	close(start)
	_ = g.Wait()

	total, winners := 0, 0
	for _, n := range seen {
		total += n
		if n > 0 {
			winners++
		}
	}
	if winners != 1 || total != 50 {
		t.Fatalf("want one reader to see 50 pairs, got %v", seen)
	}
}
