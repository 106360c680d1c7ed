// Package postgres provides the PostgreSQL implementation of store.TaskStore,
// the embedded schema migrations it depends on, and the mapping from
// PostgreSQL errors to store errors. Connections go through the pgx stdlib
// driver so the rest of the code works with database/sql.
package postgres
