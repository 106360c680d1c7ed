//go:build integration

package postgres_test

import (
	"context"
	"testing"

	"github.com/phrazzld/taskflow-api/internal/platform/postgres"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/phrazzld/taskflow-api/internal/store/storetest"
	"github.com/phrazzld/taskflow-api/internal/testdb"
	"github.com/stretchr/testify/require"
)

func TestPostgresTaskStore_Suite(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	testdb.SetupTestDatabaseSchema(t, db)

	storetest.Run(t, func(t *testing.T) store.TaskStore {
		testdb.TruncateTasks(t, db)
		return postgres.NewPostgresTaskStore(db, nil)
	})
}

func TestMigrateStatusAndVersion(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	testdb.SetupTestDatabaseSchema(t, db)

	ctx := context.Background()
	require.NoError(t, postgres.Migrate(ctx, db, postgres.MigrateStatus, nil))
	require.NoError(t, postgres.Migrate(ctx, db, postgres.MigrateVersion, nil))
	require.Error(t, postgres.Migrate(ctx, db, "sideways", nil))
}
