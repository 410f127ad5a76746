package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventTaskStatus  = "task.status"
	EventQueueStatus = "queue.status"
)

// TaskStatusEvent is broadcast when a task transitions state.
type TaskStatusEvent struct {
	TaskID    string `json:"task_id"`
	ContextID string `json:"context_id"`
	AgentName string `json:"agent_name,omitempty"`
	State     string `json:"state"`
}

// QueueStatusEvent is broadcast when queue occupancy changes.
type QueueStatusEvent struct {
	QueueLength int  `json:"queue_length"`
	Processing  bool `json:"processing"`
}

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
