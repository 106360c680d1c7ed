package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryEventEmitter(t *testing.T) {
	// Create a minimal logger that discards output
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	newEvent := func(t *testing.T) *TaskEvent {
		event, err := NewTaskEvent(TypeTaskCreated, TaskPayload{TaskID: uuid.New()}, time.Now())
		require.NoError(t, err)
		return event
	}

	t.Run("emit event with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		assert.NoError(t, emitter.EmitEvent(context.Background(), newEvent(t)))
	})

	t.Run("emit event with successful handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		handler1 := &MockEventHandler{}
		handler2 := &MockEventHandler{}
		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		event := newEvent(t)
		assert.NoError(t, emitter.EmitEvent(context.Background(), event))

		assert.Equal(t, 1, handler1.HandledCount)
		assert.Equal(t, 1, handler2.HandledCount)
		assert.Equal(t, event, handler1.LastEvent)
		assert.Equal(t, event, handler2.LastEvent)
	})

	t.Run("emit event with failing handler", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		successHandler := &MockEventHandler{}
		failingHandler := &MockEventHandler{HandlerError: errors.New("handler error")}
		secondFailing := &MockEventHandler{HandlerError: errors.New("second error")}
		emitter.RegisterHandler(failingHandler)
		emitter.RegisterHandler(successHandler)
		emitter.RegisterHandler(secondFailing)

		err := emitter.EmitEvent(context.Background(), newEvent(t))
		assert.EqualError(t, err, "handler error")

		assert.Equal(t, 1, successHandler.HandledCount)
		assert.Equal(t, 1, failingHandler.HandledCount)
		assert.Equal(t, 1, secondFailing.HandledCount)
	})

	t.Run("nil logger", func(t *testing.T) {
		assert.NotPanics(t, func() { NewInMemoryEventEmitter(nil) })
	})
}

func TestLoggingHandler(t *testing.T) {
	var buf bytes.Buffer
	h := NewLoggingHandler(slog.New(slog.NewJSONHandler(&buf, nil)))

	t.Run("single task event", func(t *testing.T) {
		buf.Reset()
		id := uuid.New()
		event, err := NewTaskEvent(TypeTaskUpdated, TaskPayload{TaskID: id, Completed: true}, time.Now())
		require.NoError(t, err)
		require.NoError(t, h.HandleEvent(context.Background(), event))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "task event", entry["msg"])
		assert.Equal(t, TypeTaskUpdated, entry["event_type"])
		assert.Equal(t, id.String(), entry["task_id"])
		assert.Equal(t, true, entry["completed"])
		assert.Equal(t, "task_events", entry["component"])
	})

	t.Run("cleared event", func(t *testing.T) {
		buf.Reset()
		event, err := NewTaskEvent(TypeTasksCleared, ClearedPayload{Removed: 3}, time.Now())
		require.NoError(t, err)
		require.NoError(t, h.HandleEvent(context.Background(), event))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, float64(3), entry["removed"])
	})

	t.Run("malformed payload", func(t *testing.T) {
		event := &TaskEvent{ID: uuid.New(), Type: TypeTaskCreated, Payload: json.RawMessage(`[`)}
		assert.Error(t, h.HandleEvent(context.Background(), event))
	})
}
