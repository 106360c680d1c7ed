package events

import (
	"context"
	"log/slog"

	"github.com/phrazzld/taskflow-api/internal/platform/logger"
)

// LoggingHandler writes every event to the request logger at INFO.
type LoggingHandler struct {
	logger *slog.Logger
}

// NewLoggingHandler creates a LoggingHandler.
// If log is nil, a default logger will be used.
func NewLoggingHandler(log *slog.Logger) *LoggingHandler {
	if log == nil {
		log = slog.Default()
	}
	return &LoggingHandler{logger: log.With("component", "task_events")}
}

// HandleEvent implements EventHandler.
func (h *LoggingHandler) HandleEvent(ctx context.Context, event *TaskEvent) error {
	attrs := []any{
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
	}

	switch event.Type {
	case TypeTasksCleared:
		var p ClearedPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return err
		}
		attrs = append(attrs, slog.Int("removed", p.Removed))
	default:
		var p TaskPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return err
		}
		attrs = append(attrs, slog.String("task_id", p.TaskID.String()), slog.Bool("completed", p.Completed))
	}

	logger.FromContextOrDefault(ctx, h.logger).InfoContext(ctx, "task event", attrs...)
	return nil
}
