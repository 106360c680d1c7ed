package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// CollectionName is the collection holding task documents.
const CollectionName = "tasks"

// TaskStore implements store.TaskStore on a MongoDB collection.
type TaskStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	inTx   bool
	logger *slog.Logger
}

// NewTaskStore creates a TaskStore on the tasks collection of database.
// If logger is nil, a default logger will be used.
func NewTaskStore(client *mongo.Client, database string, logger *slog.Logger) *TaskStore {
	if client == nil {
		panic("client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		client: client,
		coll:   client.Database(database).Collection(CollectionName),
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*TaskStore)(nil)

// EnsureIndexes creates the indexes list queries rely on. It is idempotent.
func (s *TaskStore) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: fieldCompleted, Value: 1}}},
		{Keys: bson.D{{Key: fieldOwnerID, Value: 1}}},
		{Keys: bson.D{{Key: fieldText, Value: 1}}},
		{Keys: bson.D{
			{Key: fieldOwnerID, Value: 1},
			{Key: fieldCompleted, Value: 1},
			{Key: fieldCreatedAt, Value: -1},
		}},
	}
	names, err := s.coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return fmt.Errorf("failed to create task indexes: %w", err)
	}
	s.logger.Debug("task indexes ensured", slog.Any("indexes", names))
	return nil
}

// Create implements store.TaskStore.Create.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	if _, err := s.coll.InsertOne(ctx, toDocument(task)); err != nil {
		err = MapError(err)
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	log.Info("task created successfully", slog.String("task_id", task.ID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var doc taskDocument
	err := s.coll.FindOne(ctx, bson.D{{Key: fieldID, Value: id.String()}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}
	return doc.toDomain()
}

// List implements store.TaskStore.List.
func (s *TaskStore) List(ctx context.Context, q domain.TaskQuery) ([]*domain.Task, error) {
	opts := options.Find().
		SetSort(listSort).
		SetSkip(int64(q.Offset())).
		SetLimit(int64(q.Limit))

	cursor, err := s.coll.Find(ctx, filterFor(q), opts)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list tasks",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}

	tasks := make([]*domain.Task, 0, len(docs))
	for i := range docs {
		task, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Count implements store.TaskStore.Count.
func (s *TaskStore) Count(ctx context.Context, q domain.TaskQuery) (int64, error) {
	total, err := s.coll.CountDocuments(ctx, filterFor(q))
	if err != nil {
		return 0, MapError(err)
	}
	return total, nil
}

// Update implements store.TaskStore.Update with a single findAndModify.
func (s *TaskStore) Update(
	ctx context.Context,
	id uuid.UUID,
	patch domain.TaskPatch,
	now time.Time,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc taskDocument
	err := s.coll.FindOneAndUpdate(ctx, bson.D{{Key: fieldID, Value: id.String()}}, updateFor(patch, now), opts).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	log.Info("task updated successfully", slog.String("task_id", id.String()))
	return doc.toDomain()
}

// Delete implements store.TaskStore.Delete.
func (s *TaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: fieldID, Value: id.String()}})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}
	if res.DeletedCount == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

// DeleteCompleted implements store.TaskStore.DeleteCompleted. Run it through
// WithinTx so the ids read are exactly the documents removed.
func (s *TaskStore) DeleteCompleted(ctx context.Context) ([]uuid.UUID, error) {
	completed := bson.D{{Key: fieldCompleted, Value: true}}

	cursor, err := s.coll.Find(ctx, completed, options.Find().SetProjection(bson.D{{Key: fieldID, Value: 1}}))
	if err != nil {
		return nil, MapError(err)
	}
	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode completed task ids: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	raw := make(bson.A, 0, len(docs))
	ids := make([]uuid.UUID, 0, len(docs))
	for _, d := range docs {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			return nil, err
		}
		raw = append(raw, d.ID)
		ids = append(ids, id)
	}

	if _, err := s.coll.DeleteMany(ctx, bson.D{{Key: fieldID, Value: bson.D{{Key: "$in", Value: raw}}}}); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete completed tasks",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return ids, nil
}

// WithinTx implements store.TaskStore.WithinTx using an explicit session:
// the transaction reads a snapshot, commits with majority write concern,
// aborts on error or panic and always ends the session.
func (s *TaskStore) WithinTx(ctx context.Context, fn store.TxTaskFn) (err error) {
	if s.inTx {
		return fn(ctx, s)
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.EndSession(context.Background())

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority()).
		SetReadPreference(readpref.Primary())
	if err := sess.StartTransaction(txOpts); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	sc := mongo.NewSessionContext(ctx, sess)
	defer func() {
		if p := recover(); p != nil {
			if abortErr := sess.AbortTransaction(context.Background()); abortErr != nil {
				log.Error("failed to abort transaction after panic",
					slog.String("error", abortErr.Error()),
					slog.Any("panic", p))
			}
			// ALLOW-PANIC: propagating caught panic from transaction
			panic(p)
		}
	}()

	txStore := &TaskStore{client: s.client, coll: s.coll, inTx: true, logger: s.logger}
	if err := fn(sc, txStore); err != nil {
		if abortErr := sess.AbortTransaction(context.Background()); abortErr != nil {
			log.Error("failed to abort transaction",
				slog.String("abort_error", abortErr.Error()),
				slog.String("original_error", err.Error()))
			return fmt.Errorf("error aborting transaction: %v (original error: %w)", abortErr, err)
		}
		return err
	}

	if err := sess.CommitTransaction(sc); err != nil {
		log.Error("failed to commit transaction", slog.String("error", err.Error()))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping implements store.TaskStore.Ping.
func (s *TaskStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}
