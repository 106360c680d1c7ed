package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskEvent(t *testing.T) {
	owner := uuid.New()
	payload := TaskPayload{TaskID: uuid.New(), OwnerID: &owner, Completed: true}
	at := time.Date(2024, 4, 2, 10, 0, 0, 0, time.FixedZone("CET", 3600))

	event, err := NewTaskEvent(TypeTaskUpdated, payload, at)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeTaskUpdated, event.Type)
	assert.Equal(t, at.UTC(), event.OccurredAt)

	var decoded TaskPayload
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewTaskEvent_UnencodablePayload(t *testing.T) {
	_, err := NewTaskEvent(TypeTaskCreated, make(chan int), time.Now())
	assert.Error(t, err)
}

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	// The last event received by this handler
	LastEvent *TaskEvent
	// Error to return from HandleEvent
	HandlerError error
	// Count of events handled
	HandledCount int
}

// HandleEvent implements the EventHandler interface
func (h *MockEventHandler) HandleEvent(ctx context.Context, event *TaskEvent) error {
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}

func TestEventHandlerFunc(t *testing.T) {
	var got *TaskEvent
	h := EventHandlerFunc(func(_ context.Context, e *TaskEvent) error {
		got = e
		return errors.New("nope")
	})

	event, err := NewTaskEvent(TypeTaskDeleted, TaskPayload{TaskID: uuid.New()}, time.Now())
	require.NoError(t, err)
	assert.EqualError(t, h.HandleEvent(context.Background(), event), "nope")
	assert.Same(t, event, got)
}
