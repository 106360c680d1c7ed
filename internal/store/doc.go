// Package store defines the persistence port for tasks and the pieces every
// backend shares: the error taxonomy, the DBTX abstraction and the SQL
// transaction scope. Concrete backends live under internal/platform.
package store
