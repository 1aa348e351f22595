package cache

// Stats is a snapshot of a store's operation counters. Every counter only
// ever grows for the lifetime of the store.
type Stats struct {
	InsertOverwrite uint64 // Set on an existing key
	GetDefaultVal   uint64 // Get returned the caller's default
	Gets            uint64 // Get and GetRequired calls
	Tests           uint64 // Contains calls
	TestsTrue       uint64
	TestsFalse      uint64
	Deletes         uint64 // Delete calls
	DeletesFail     uint64 // Delete of an absent key
	SetMissingKey   uint64 // Set rejected with ErrMissingKey
}

var statNames = []string{
	"insert_overwrite",
	"get_default_val",
	"gets",
	"tests",
	"tests_true",
	"tests_false",
	"deletes",
	"deletes_fail",
	"set_missing_key",
}

// StatNames returns the canonical counter names in a stable order.
func StatNames() []string {
	out := make([]string, len(statNames))
	copy(out, statNames)
	return out
}

// Map returns the counters keyed by their canonical names.
func (s Stats) Map() map[string]uint64 {
	return map[string]uint64{
		"insert_overwrite": s.InsertOverwrite,
		"get_default_val":  s.GetDefaultVal,
		"gets":             s.Gets,
		"tests":            s.Tests,
		"tests_true":       s.TestsTrue,
		"tests_false":      s.TestsFalse,
		"deletes":          s.Deletes,
		"deletes_fail":     s.DeletesFail,
		"set_missing_key":  s.SetMissingKey,
	}
}

// collector owns the live counters; all updates go through its methods so
// that no path can decrement.
type collector struct{ s Stats }

func (c *collector) overwrite()  { c.s.InsertOverwrite++ }
func (c *collector) missingKey() { c.s.SetMissingKey++ }

// get records a read; def reports whether the caller's default was returned.
func (c *collector) get(def bool) {
	c.s.Gets++
	if def {
		c.s.GetDefaultVal++
	}
}

func (c *collector) test(found bool) {
	c.s.Tests++
	if found {
		c.s.TestsTrue++
	} else {
		c.s.TestsFalse++
	}
}

func (c *collector) del(found bool) {
	c.s.Deletes++
	if !found {
		c.s.DeletesFail++
	}
}

func (c *collector) snapshot() Stats { return c.s }
