package api

import (
	"time"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

// CreateTaskRequest is the body of POST /api/tasks. Text is validated by the
// domain after normalization, so it carries no length tag here.
type CreateTaskRequest struct {
	Text    string `json:"text"`
	OwnerID string `json:"ownerId,omitempty" validate:"omitempty,uuid"`
}

// UpdateTaskRequest is the body of PUT and PATCH /api/tasks/{id}. Absent
// fields are left unchanged.
type UpdateTaskRequest struct {
	Text      *string `json:"text,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// ListTasksParams are the query parameters of GET /api/tasks.
type ListTasksParams struct {
	Filter  string `json:"filter"`
	OwnerID string `json:"ownerId" validate:"omitempty,uuid"`
	Page    int    `json:"page"`
	Limit   int    `json:"limit"`
}

// TaskResponse is the wire form of a task.
type TaskResponse struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	OwnerID   string    `json:"ownerId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TaskListResponse is the body of GET /api/tasks.
type TaskListResponse struct {
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Tasks []TaskResponse `json:"tasks"`
}

// DeleteTaskResponse confirms a single delete.
type DeleteTaskResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// ClearCompletedResponse reports the result of DELETE /api/tasks.
type ClearCompletedResponse struct {
	Removed int `json:"removed"`
}

// MessageResponse is a plain status message.
type MessageResponse struct {
	Message string `json:"message"`
}

// taskToResponse converts a domain.Task to a TaskResponse
func taskToResponse(task *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:        task.ID.String(),
		Text:      task.Text,
		Completed: task.Completed,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
	if task.OwnerID != nil {
		resp.OwnerID = task.OwnerID.String()
	}
	return resp
}

func taskListToResponse(list *domain.TaskList) TaskListResponse {
	tasks := make([]TaskResponse, 0, len(list.Tasks))
	for _, task := range list.Tasks {
		tasks = append(tasks, taskToResponse(task))
	}
	return TaskListResponse{
		Total: list.Total,
		Page:  list.Page,
		Limit: list.Limit,
		Tasks: tasks,
	}
}
