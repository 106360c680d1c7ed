package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the task service.
const (
	TypeTaskCreated  = "task.created"
	TypeTaskUpdated  = "task.updated"
	TypeTaskDeleted  = "task.deleted"
	TypeTasksCleared = "tasks.cleared"
)

// TaskEvent describes one lifecycle change.
type TaskEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// OccurredAt is when the change was committed
	OccurredAt time.Time `json:"occurred_at"`
}

// TaskPayload identifies the task a single-task event refers to.
type TaskPayload struct {
	TaskID    uuid.UUID  `json:"task_id"`
	OwnerID   *uuid.UUID `json:"owner_id,omitempty"`
	Completed bool       `json:"completed"`
}

// ClearedPayload lists the tasks removed by a bulk clear.
type ClearedPayload struct {
	Removed int         `json:"removed"`
	TaskIDs []uuid.UUID `json:"task_ids"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *TaskEvent) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewTaskEvent creates a TaskEvent of eventType carrying payload.
func NewTaskEvent(eventType string, payload any, occurredAt time.Time) (*TaskEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &TaskEvent{
		ID:         uuid.New(),
		Type:       eventType,
		Payload:    payloadBytes,
		OccurredAt: occurredAt.UTC(),
	}, nil
}

// EventHandler processes task events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *TaskEvent) error
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, event *TaskEvent) error

// HandleEvent calls f.
func (f EventHandlerFunc) HandleEvent(ctx context.Context, event *TaskEvent) error {
	return f(ctx, event)
}

// EventEmitter publishes task events without knowing who consumes them.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *TaskEvent) error
}
