package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/service"
)

// MockTaskService is a mock implementation of service.TaskService for testing
type MockTaskService struct {
	ListFn           func(ctx context.Context, q domain.TaskQuery) (*domain.TaskList, error)
	GetFn            func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	CreateFn         func(ctx context.Context, text string, ownerID *uuid.UUID) (*domain.Task, error)
	UpdateFn         func(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)
	DeleteFn         func(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	ClearCompletedFn func(ctx context.Context) (*service.ClearResult, error)
}

var _ service.TaskService = (*MockTaskService)(nil)

// List implements service.TaskService
func (m *MockTaskService) List(ctx context.Context, q domain.TaskQuery) (*domain.TaskList, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, q)
	}
	return &domain.TaskList{Page: q.Page, Limit: q.Limit, Tasks: []*domain.Task{}}, nil
}

// Get implements service.TaskService
func (m *MockTaskService) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	return nil, nil
}

// Create implements service.TaskService
func (m *MockTaskService) Create(ctx context.Context, text string, ownerID *uuid.UUID) (*domain.Task, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, text, ownerID)
	}
	return nil, nil
}

// Update implements service.TaskService
func (m *MockTaskService) Update(ctx context.Context, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, patch)
	}
	return nil, nil
}

// Delete implements service.TaskService
func (m *MockTaskService) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return id, nil
}

// ClearCompleted implements service.TaskService
func (m *MockTaskService) ClearCompleted(ctx context.Context) (*service.ClearResult, error) {
	if m.ClearCompletedFn != nil {
		return m.ClearCompletedFn(ctx)
	}
	return &service.ClearResult{}, nil
}

// MockPinger is a Pinger returning Err.
type MockPinger struct {
	Err error
}

// Ping implements Pinger
func (m MockPinger) Ping(context.Context) error {
	return m.Err
}
