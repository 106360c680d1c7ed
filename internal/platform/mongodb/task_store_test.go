package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/phrazzld/taskflow-api/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

// testClient connects to MONGODB_URI or skips. Transactions need a replica set.
func testClient(t *testing.T) *mongo.Client {
	t.Helper()
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set, skipping mongo store tests")
	}

	cfg := config.DatabaseConfig{
		Driver:          config.DriverMongo,
		URL:             uri,
		Name:            "taskflow_test",
		ConnectAttempts: 3,
		ConnectBackoff:  100 * time.Millisecond,
		ConnectTimeout:  5 * time.Second,
		MaxOpenConns:    10,
		ConnMaxLifetime: time.Minute,
	}
	client, err := Connect(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Disconnect(context.Background(), client, nil) })
	return client
}

// newTestStore returns a store on a fresh database that is dropped afterwards.
func newTestStore(t *testing.T, client *mongo.Client) *TaskStore {
	t.Helper()
	name := fmt.Sprintf("taskflow_test_%s", uuid.NewString()[:8])
	s := NewTaskStore(client, name, nil)
	require.NoError(t, s.EnsureIndexes(context.Background()))
	t.Cleanup(func() { _ = client.Database(name).Drop(context.Background()) })
	return s
}

func TestTaskStore_Suite(t *testing.T) {
	client := testClient(t)
	storetest.Run(t, func(t *testing.T) store.TaskStore {
		return newTestStore(t, client)
	})
}

func TestEnsureIndexesIdempotent(t *testing.T) {
	s := newTestStore(t, testClient(t))
	require.NoError(t, s.EnsureIndexes(context.Background()))

	specs, err := s.coll.Indexes().ListSpecifications(context.Background())
	require.NoError(t, err)
	// _id plus four secondary indexes
	assert.Len(t, specs, 5)
}

func TestNewTaskStore_PanicsOnNilClient(t *testing.T) {
	assert.Panics(t, func() { NewTaskStore(nil, "db", nil) })
}
