package cache

import "time"

// EventKind identifies what happened in a store.
type EventKind uint8

const (
	// EventEntryCreated: Set inserted a new key.
	EventEntryCreated EventKind = iota + 1
	// EventEntryOverwritten: Set updated an existing key in place.
	EventEntryOverwritten
	// EventEntryDeleted: Delete removed a present key.
	EventEntryDeleted
	// EventContextPushed: a context became active.
	EventContextPushed
	// EventContextPopped: a context was popped.
	EventContextPopped
	// EventMiss: a read or delete found no entry (Op tells which).
	EventMiss
	// EventSetRejected: Set failed (missing key or reserved context).
	EventSetRejected
)

var eventNames = [...]string{
	EventEntryCreated:     "entry_created",
	EventEntryOverwritten: "entry_overwritten",
	EventEntryDeleted:     "entry_deleted",
	EventContextPushed:    "context_pushed",
	EventContextPopped:    "context_popped",
	EventMiss:             "miss",
	EventSetRejected:      "set_rejected",
}

// String returns a stable snake_case label for k.
func (k EventKind) String() string {
	if int(k) < len(eventNames) && eventNames[k] != "" {
		return eventNames[k]
	}
	return "unknown"
}

// Event is one discrete store occurrence.
// Entries and Bytes are the store totals after the operation.
type Event struct {
	Kind    EventKind
	Store   string
	Op      string
	Key     any // nil for context events
	Context string
	Depth   int // context stack depth after the operation
	Entries int
	Bytes   int64
	At      time.Time
}

// Observer receives store events. Calls happen synchronously on the
// operation's goroutine (under the SyncStore lock when used there).
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnEvent implements Observer.
func (f ObserverFunc) OnEvent(e Event) { f(e) }

// NopObserver is a drop-in Observer that does nothing.
// It is the default when no Observer is configured.
type NopObserver struct{}

func (NopObserver) OnEvent(Event) {}

// Observers fans every event out to each element in order.
type Observers []Observer

// OnEvent implements Observer.
func (os Observers) OnEvent(e Event) {
	for _, o := range os {
		o.OnEvent(e)
	}
}

// Ensure the observer implementations satisfy the interface at compile time.
var (
	_ Observer = NopObserver{}
	_ Observer = ObserverFunc(nil)
	_ Observer = Observers(nil)
)
