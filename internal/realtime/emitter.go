package realtime

import (
	"context"

	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

// Publisher is satisfied by the Redis bus.
type Publisher interface {
	Publish(ctx context.Context, msg SSEMessage) error
}

type Emitter interface {
	Emit(ctx context.Context, msg SSEMessage)
}

// HubEmitter delivers to clients connected to this instance.
type HubEmitter struct{ Hub *SSEHub }

func (e *HubEmitter) Emit(ctx context.Context, msg SSEMessage) {
	e.Hub.Broadcast(msg)
}

// BusEmitter publishes through the bus; every instance's forwarder rebroadcasts
// into its local hub, this one included.
type BusEmitter struct {
	Bus Publisher
	Log *logger.Logger
}

func (e *BusEmitter) Emit(ctx context.Context, msg SSEMessage) {
	if err := e.Bus.Publish(ctx, msg); err != nil && e.Log != nil {
		e.Log.Warn("SSE bus publish failed", "error", err, "event", msg.Event)
	}
}

type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, SSEMessage) {}
