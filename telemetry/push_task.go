package telemetry

import (
	"context"
	"time"

	"github.com/KOMKZ/go-dbtelemetry/logger"
	"go.uber.org/zap"
)

// pushTask one unit of work: serialize a drained batch and transmit it.
// Fire-and-forget from the producer's perspective; it never reports an
// error to anyone.
type pushTask struct {
	events     []*Event
	pushClient PushClient
	logger     *logger.CtxZapLogger
}

func newPushTask(events []*Event, pushClient PushClient, log *logger.CtxZapLogger) *pushTask {
	return &pushTask{
		events:     events,
		pushClient: pushClient,
		logger:     log,
	}
}

// Run serializes each event independently and pushes the batch.
// A serialization failure drops that event, never the batch. A push
// failure is only logged: the transport collaborator already performs
// its own retries, so this layer must not retry.
func (t *pushTask) Run() {
	ctx := context.Background()

	if len(t.events) == 0 {
		return
	}
	t.logger.DebugCtx(ctx, "pushing telemetry logs", zap.Int("size", len(t.events)))

	protoLogs := make([]string, 0, len(t.events))
	for _, event := range t.events {
		payload, err := event.serialize()
		if err != nil {
			t.logger.ErrorCtx(ctx, "failed to serialize telemetry event",
				zap.String("kind", event.Kind),
				zap.Error(err))
			continue
		}
		protoLogs = append(protoLogs, payload)
	}

	req := &Request{
		UploadTimeMillis: time.Now().UnixMilli(),
		ProtoLogs:        protoLogs,
	}

	if err := t.pushClient.PushEvent(ctx, req); err != nil {
		t.logger.DebugCtx(ctx, "failed to push telemetry logs", zap.Error(err))
	}
}
