package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/service"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskService service.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
// If logger is nil, a default logger will be used.
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if taskService == nil {
		panic("taskService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		taskService: taskService,
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// ListTasks handles GET /api/tasks requests
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)
	if err := validateRequest(params); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	ownerID, err := domain.ParseOwnerID(params.OwnerID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	query := domain.NewTaskQuery(domain.ParseFilter(params.Filter), ownerID, params.Page, params.Limit)
	list, err := h.taskService.List(r.Context(), query)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskListToResponse(list))
}

// GetTask handles GET /api/tasks/{id} requests
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := getPathTaskID(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.taskService.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// CreateTask handles POST /api/tasks requests
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := decodeBody(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := validateRequest(req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	ownerID, err := domain.ParseOwnerID(req.OwnerID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.taskService.Create(r.Context(), req.Text, ownerID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("task created",
		slog.String("task_id", task.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// UpdateTask handles PUT and PATCH /api/tasks/{id} requests
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := getPathTaskID(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req UpdateTaskRequest
	if err := decodeBody(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.taskService.Update(r.Context(), id, domain.TaskPatch{
		Text:      req.Text,
		Completed: req.Completed,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteTask handles DELETE /api/tasks/{id} requests
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := getPathTaskID(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	removed, err := h.taskService.Delete(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DeleteTaskResponse{
		Message: "Task deleted",
		ID:      removed.String(),
	})
}

// ClearCompleted handles DELETE /api/tasks requests
func (h *TaskHandler) ClearCompleted(w http.ResponseWriter, r *http.Request) {
	result, err := h.taskService.ClearCompleted(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to clear completed tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ClearCompletedResponse{Removed: result.Removed})
}
