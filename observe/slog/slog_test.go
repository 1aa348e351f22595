//go:build go1.21

package slog

import (
	"bytes"
	"encoding/json"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/smartcache/cache"
)

func TestObserver_WritesStructuredRecords(t *testing.T) {
	var buf bytes.Buffer
	l := stdslog.New(stdslog.NewJSONHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelDebug}))

	s, err := cache.New(cache.Options[string, int]{Name: "sl", Observer: New(l)})
	require.NoError(t, err)
	require.NoError(t, s.Set("a", 1))
	s.Delete("nope")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, "smartcache.miss", rec["msg"])
	assert.Equal(t, "delete", rec["op"])
	assert.Equal(t, "nope", rec["key"])
	assert.Equal(t, "sl", rec["store"])
}

func TestObserver_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() { Observer{}.OnEvent(cache.Event{Kind: cache.EventMiss}) })
}
