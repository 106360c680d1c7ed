package sqlite

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// taskRecord is the row layout of the tasks table. Timestamps are stored as
// Unix milliseconds so ordering and MAX() compare numbers.
type taskRecord struct {
	ID        string  `gorm:"primaryKey;size:36"`
	Text      string  `gorm:"size:140;not null;index:idx_tasks_text"`
	Completed bool    `gorm:"not null;index:idx_tasks_completed;index:idx_tasks_owner_completed_created,priority:2"`
	OwnerID   *string `gorm:"size:36;index:idx_tasks_owner_id;index:idx_tasks_owner_completed_created,priority:1"`
	CreatedAt int64   `gorm:"not null;autoCreateTime:false;index:idx_tasks_owner_completed_created,priority:3,sort:desc"`
	UpdatedAt int64   `gorm:"not null;autoUpdateTime:false"`
}

// TableName returns the table name for taskRecord.
func (taskRecord) TableName() string {
	return "tasks"
}

func toRecord(task *domain.Task) *taskRecord {
	rec := &taskRecord{
		ID:        task.ID.String(),
		Text:      task.Text,
		Completed: task.Completed,
		CreatedAt: task.CreatedAt.UnixMilli(),
		UpdatedAt: task.UpdatedAt.UnixMilli(),
	}
	if task.OwnerID != nil {
		owner := task.OwnerID.String()
		rec.OwnerID = &owner
	}
	return rec
}

func (r *taskRecord) toDomain() (*domain.Task, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, err
	}
	task := &domain.Task{
		ID:        id,
		Text:      r.Text,
		Completed: r.Completed,
		CreatedAt: time.UnixMilli(r.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(r.UpdatedAt).UTC(),
	}
	if r.OwnerID != nil {
		owner, err := uuid.Parse(*r.OwnerID)
		if err != nil {
			return nil, err
		}
		task.OwnerID = &owner
	}
	return task, nil
}
