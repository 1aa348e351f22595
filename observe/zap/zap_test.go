package zap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/IvanBrykalov/smartcache/cache"
)

func TestObserver_LogsStoreEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s, err := cache.New(cache.Options[string, int]{
		Name:     "zapped",
		Observer: Observer{L: zap.New(core), WarnOnMiss: true},
	})
	require.NoError(t, err)

	require.NoError(t, s.WithContext("read-user", func() error {
		return s.Set("a", 1)
	}))
	s.Get("missing", 0)

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "smartcache.context_pushed", entries[0].Message)
	assert.Equal(t, "smartcache.entry_created", entries[1].Message)
	assert.Equal(t, "smartcache.context_popped", entries[2].Message)

	created := entries[1].ContextMap()
	assert.Equal(t, "zapped", created["store"])
	assert.Equal(t, "a", created["key"])
	assert.Equal(t, "read-user", created["context"])
	assert.EqualValues(t, 1, created["entries"])

	miss := entries[3]
	assert.Equal(t, zapcore.WarnLevel, miss.Level)
	assert.Equal(t, "get", miss.ContextMap()["op"])
}

func TestObserver_RespectsLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	o := New(zap.New(core))

	o.OnEvent(cache.Event{Kind: cache.EventEntryCreated, Store: "s", Key: "k"})
	assert.Zero(t, logs.Len(), "debug events must be filtered at info level")

	assert.NotPanics(t, func() { New(nil).OnEvent(cache.Event{Kind: cache.EventMiss}) })
}
