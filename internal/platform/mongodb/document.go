package mongodb

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
)

// Field names of taskDocument.
const (
	fieldID        = "_id"
	fieldText      = "text"
	fieldCompleted = "completed"
	fieldOwnerID   = "ownerId"
	fieldCreatedAt = "createdAt"
	fieldUpdatedAt = "updatedAt"
)

type taskDocument struct {
	ID        string    `bson:"_id"`
	Text      string    `bson:"text"`
	Completed bool      `bson:"completed"`
	OwnerID   *string   `bson:"ownerId,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func toDocument(task *domain.Task) *taskDocument {
	doc := &taskDocument{
		ID:        task.ID.String(),
		Text:      task.Text,
		Completed: task.Completed,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
	if task.OwnerID != nil {
		owner := task.OwnerID.String()
		doc.OwnerID = &owner
	}
	return doc
}

func (d *taskDocument) toDomain() (*domain.Task, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	task := &domain.Task{
		ID:        id,
		Text:      d.Text,
		Completed: d.Completed,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
	if d.OwnerID != nil {
		owner, err := uuid.Parse(*d.OwnerID)
		if err != nil {
			return nil, err
		}
		task.OwnerID = &owner
	}
	return task, nil
}

// filterFor builds the query document shared by List and Count.
func filterFor(q domain.TaskQuery) bson.D {
	filter := bson.D{}
	if completed := q.Filter.Completed(); completed != nil {
		filter = append(filter, bson.E{Key: fieldCompleted, Value: *completed})
	}
	if q.OwnerID != nil {
		filter = append(filter, bson.E{Key: fieldOwnerID, Value: q.OwnerID.String()})
	}
	return filter
}

// listSort orders newest first with the id as tie-break.
var listSort = bson.D{{Key: fieldCreatedAt, Value: -1}, {Key: fieldID, Value: -1}}

// updateFor builds an aggregation-pipeline update that sets the present patch
// fields and updatedAt = max(createdAt, now) in one write.
func updateFor(patch domain.TaskPatch, now time.Time) bson.A {
	set := bson.D{}
	if patch.Text != nil {
		set = append(set, bson.E{Key: fieldText, Value: *patch.Text})
	}
	if patch.Completed != nil {
		set = append(set, bson.E{Key: fieldCompleted, Value: *patch.Completed})
	}
	set = append(set, bson.E{
		Key:   fieldUpdatedAt,
		Value: bson.D{{Key: "$max", Value: bson.A{"$" + fieldCreatedAt, domain.Timestamp(now)}}},
	})
	return bson.A{bson.D{{Key: "$set", Value: set}}}
}
