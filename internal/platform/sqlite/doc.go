// Package sqlite provides an embedded store.TaskStore backed by SQLite through
// GORM. It suits single-node deployments and local development; the schema is
// created with AutoMigrate on Open.
package sqlite
