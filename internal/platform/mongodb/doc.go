// Package mongodb provides a MongoDB implementation of store.TaskStore.
//
// Tasks live in a single "tasks" collection keyed by the string form of their
// id. ClearCompleted-style work runs in a multi-document transaction, so the
// server must be a replica set or sharded cluster.
package mongodb
