// Package testdb provides helpers for PostgreSQL integration tests.
//
// Tests get a connection with GetTestDBWithT, which skips the test when no
// database is configured, apply the embedded schema with
// SetupTestDatabaseSchema and isolate their writes with WithTx:
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.SetupTestDatabaseSchema(t, db)
//
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        s := postgres.NewPostgresTaskStore(tx, nil)
//	        // ...
//	    })
//	}
//
// The connection string is read from DATABASE_URL, falling back to
// TASKFLOW_TEST_DB_URL.
package testdb
