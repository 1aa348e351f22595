//go:build go1.21

// Package slog logs store events through log/slog.
package slog

import (
	"context"
	stdslog "log/slog"

	"github.com/IvanBrykalov/smartcache/cache"
)

var _ cache.Observer = Observer{}

// Observer writes one record per event at Level. A nil L drops events.
type Observer struct {
	L     *stdslog.Logger
	Level stdslog.Level
}

// New logs every event at Debug on l.
func New(l *stdslog.Logger) Observer { return Observer{L: l, Level: stdslog.LevelDebug} }

// OnEvent implements cache.Observer.
func (o Observer) OnEvent(e cache.Event) {
	if o.L == nil {
		return
	}
	o.L.LogAttrs(context.Background(), o.Level, "smartcache."+e.Kind.String(), attrs(e)...)
}

func attrs(e cache.Event) []stdslog.Attr {
	out := make([]stdslog.Attr, 0, 7)
	out = append(out,
		stdslog.String("store", e.Store),
		stdslog.String("op", e.Op),
	)
	if e.Key != nil {
		out = append(out, stdslog.Any("key", e.Key))
	}
	return append(out,
		stdslog.String("context", e.Context),
		stdslog.Int("depth", e.Depth),
		stdslog.Int("entries", e.Entries),
		stdslog.Int64("bytes", e.Bytes),
	)
}
