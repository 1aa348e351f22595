// Package logrus logs store events through github.com/sirupsen/logrus.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/IvanBrykalov/smartcache/cache"
)

// Observer writes one log entry per event at Level. A nil E logs to
// logrus.StandardLogger().
type Observer struct {
	E     *logrus.Entry
	Level logrus.Level
}

var _ cache.Observer = Observer{}

// New logs every event at Debug on e (the standard logger when nil).
func New(e *logrus.Entry) Observer {
	if e == nil {
		e = logrus.NewEntry(logrus.StandardLogger())
	}
	return Observer{E: e, Level: logrus.DebugLevel}
}

// OnEvent implements cache.Observer.
func (o Observer) OnEvent(e cache.Event) {
	entry := o.E
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	f := logrus.Fields{
		"store":   e.Store,
		"op":      e.Op,
		"context": e.Context,
		"depth":   e.Depth,
		"entries": e.Entries,
		"bytes":   e.Bytes,
	}
	if e.Key != nil {
		f["key"] = e.Key
	}
	entry.WithFields(f).WithTime(e.At).Log(o.Level, "smartcache."+e.Kind.String())
}
