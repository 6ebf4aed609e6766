package realtime

import (
	"strings"

	"github.com/google/uuid"
)

type SSEEvent string

const (
	SSEEventMessageCreated SSEEvent = "MessageCreated"
	SSEEventMessageDeleted SSEEvent = "MessageDeleted"
	SSEEventConnected      SSEEvent = "Connected"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// UserChannel is the per-user channel every stream subscribes to.
func UserChannel(userID uuid.UUID) string {
	return "user:" + strings.ToLower(userID.String())
}
