package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Paging limits for task listings.
const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// TaskFilter selects tasks by completion state.
type TaskFilter string

const (
	FilterAll       TaskFilter = "all"
	FilterActive    TaskFilter = "active"
	FilterCompleted TaskFilter = "completed"
)

// ParseFilter maps a raw filter value to a TaskFilter. Empty and unrecognized
// values select all tasks.
func ParseFilter(raw string) TaskFilter {
	switch TaskFilter(strings.ToLower(strings.TrimSpace(raw))) {
	case FilterActive:
		return FilterActive
	case FilterCompleted:
		return FilterCompleted
	default:
		return FilterAll
	}
}

// Completed returns the completion state the filter requires, or nil when the
// filter matches both states.
func (f TaskFilter) Completed() *bool {
	var v bool
	switch f {
	case FilterActive:
		v = false
	case FilterCompleted:
		v = true
	default:
		return nil
	}
	return &v
}

// TaskQuery is a normalized list request. Build it with NewTaskQuery.
type TaskQuery struct {
	Filter  TaskFilter
	OwnerID *uuid.UUID
	Page    int
	Limit   int
}

// NewTaskQuery clamps paging parameters into range: page below 1 becomes 1,
// limit below 1 becomes DefaultLimit and limit above MaxLimit becomes MaxLimit.
func NewTaskQuery(filter TaskFilter, ownerID *uuid.UUID, page, limit int) TaskQuery {
	if page < 1 {
		page = 1
	}
	switch {
	case limit < 1:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	if filter == "" {
		filter = FilterAll
	}
	return TaskQuery{
		Filter:  filter,
		OwnerID: ownerID,
		Page:    page,
		Limit:   limit,
	}
}

// Offset is the number of matching tasks skipped before this page.
func (q TaskQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// TaskList is one page of a listing. Total counts every task matching the
// query, not just this page.
type TaskList struct {
	Total int64   `json:"total"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
	Tasks []*Task `json:"tasks"`
}
