// Package asyncobs delivers store events to another cache.Observer from
// background workers, dropping events when the queue is full.
//
// Usage:
//
//	zo := zapobs.New(logger)
//	obs := asyncobs.New(zo, 1, 1000) // 1 worker; queue 1000 events
//	defer obs.Close()
//
//	s, _ := cache.NewSync[string, []byte](cache.Options[string, []byte]{
//	    Name:     "sessions",
//	    Observer: obs,
//	})
package asyncobs

import (
	"sync"
	"sync/atomic"

	"github.com/IvanBrykalov/smartcache/cache"
)

// Observer hands events to worker goroutines so the store never blocks on
// a slow sink. When the queue is full the event is dropped and counted.
type Observer struct {
	inner   cache.Observer
	q       chan cache.Event
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ cache.Observer = (*Observer)(nil)

func New(inner cache.Observer, workers, qlen int) *Observer {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	o := &Observer{inner: inner, q: make(chan cache.Event, qlen)}
	o.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer o.wg.Done()
			for e := range o.q {
				o.inner.OnEvent(e)
			}
		}()
	}
	return o
}

// Close stops accepting events, drains the queue and waits for the workers.
func (o *Observer) Close() {
	o.once.Do(func() {
		o.mu.Lock()
		o.closed = true
		close(o.q)
		o.mu.Unlock()
		o.wg.Wait()
	})
}

// Dropped returns how many events were discarded (queue full or closed).
func (o *Observer) Dropped() uint64 { return o.dropped.Load() }

func (o *Observer) OnEvent(e cache.Event) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		o.dropped.Add(1)
		return
	}
	select {
	case o.q <- e:
	default: // drop
		o.dropped.Add(1)
	}
}
