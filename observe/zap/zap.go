// Package zap logs store events through go.uber.org/zap.
package zap

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/IvanBrykalov/smartcache/cache"
)

// Observer writes one log entry per event. Misses and rejected sets are
// logged at Warn when WarnOnMiss is set, everything else at Debug.
type Observer struct {
	L          *zap.Logger
	WarnOnMiss bool
}

var _ cache.Observer = Observer{}

// New returns an Observer logging to l (zap.NewNop() when nil).
func New(l *zap.Logger) Observer {
	if l == nil {
		l = zap.NewNop()
	}
	return Observer{L: l}
}

func (o Observer) OnEvent(e cache.Event) {
	lvl := zapcore.DebugLevel
	if o.WarnOnMiss && (e.Kind == cache.EventMiss || e.Kind == cache.EventSetRejected) {
		lvl = zapcore.WarnLevel
	}
	ce := o.L.Check(lvl, "smartcache."+e.Kind.String())
	if ce == nil {
		return
	}
	ce.Write(fields(e)...)
}

func fields(e cache.Event) []zap.Field {
	out := make([]zap.Field, 0, 8)
	out = append(out,
		zap.String("store", e.Store),
		zap.String("op", e.Op),
	)
	if e.Key != nil {
		out = append(out, zap.Any("key", e.Key))
	}
	out = append(out,
		zap.String("context", e.Context),
		zap.Int("depth", e.Depth),
		zap.Int("entries", e.Entries),
		zap.Int64("bytes", e.Bytes),
		zap.Time("at", e.At),
	)
	return out
}
