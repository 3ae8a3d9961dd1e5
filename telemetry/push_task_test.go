package telemetry

import (
	"errors"
	"testing"

	"github.com/KOMKZ/go-dbtelemetry/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPushTask_Run batch assembly and delivery
func TestPushTask_Run(t *testing.T) {
	log := logger.GetLogger("telemetry")

	t.Run("pushes serialized batch", func(t *testing.T) {
		push := &mockPushClient{}
		events := []*Event{
			{Kind: "query", ConnectionID: "c1"},
			{Kind: "error", ErrorName: "TIMEOUT"},
		}

		newPushTask(events, push, log).Run()

		require.Len(t, push.pushed(), 1)
		req := push.pushed()[0]
		assert.Len(t, req.ProtoLogs, 2)
		assert.Positive(t, req.UploadTimeMillis)
		assert.Contains(t, req.ProtoLogs[0], `"kind":"query"`)
		assert.Contains(t, req.ProtoLogs[1], `"errorName":"TIMEOUT"`)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		push := &mockPushClient{}
		newPushTask(nil, push, log).Run()
		assert.Empty(t, push.pushed())
	})

	t.Run("serialization failure drops only that event", func(t *testing.T) {
		push := &mockPushClient{}
		events := []*Event{
			{Kind: "query"},
			{Kind: "broken", Payload: map[string]any{"ch": make(chan int)}},
			{Kind: "error"},
		}

		newPushTask(events, push, log).Run()

		require.Len(t, push.pushed(), 1)
		req := push.pushed()[0]
		require.Len(t, req.ProtoLogs, 2)
		assert.Contains(t, req.ProtoLogs[0], `"kind":"query"`)
		assert.Contains(t, req.ProtoLogs[1], `"kind":"error"`)
	})

	t.Run("push failure is swallowed", func(t *testing.T) {
		push := &mockPushClient{err: errors.New("collector down")}
		events := []*Event{{Kind: "query"}}

		// Must not panic or retry
		newPushTask(events, push, log).Run()
		assert.Len(t, push.pushed(), 1)
	})
}

// TestEvent_Serialize absent fields are omitted from the wire form
func TestEvent_Serialize(t *testing.T) {
	t.Run("full event", func(t *testing.T) {
		e := &Event{
			Kind:            "query",
			TimestampMillis: 1700000000000,
			ConnectionID:    "c1",
			SessionID:       "s1",
			StatementID:     "st1",
			LatencyMillis:   42,
		}
		s, err := e.serialize()
		require.NoError(t, err)
		assert.Contains(t, s, `"latencyMillis":42`)
		assert.Contains(t, s, `"sessionId":"s1"`)
	})

	t.Run("zero fields omitted", func(t *testing.T) {
		s, err := (&Event{Kind: "query"}).serialize()
		require.NoError(t, err)
		assert.Equal(t, `{"kind":"query"}`, s)
	})
}
