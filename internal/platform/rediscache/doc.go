// Package rediscache provides an optional Redis read-through cache for task
// lookups by id.
//
// CachedTaskStore decorates any store.TaskStore. Single-task reads are served
// from Redis when possible; every write removes the affected keys. Writes made
// inside WithinTx are invalidated only after the transaction commits, so a
// rolled back change never evicts anything.
//
// Cache failures never fail a request: they are counted, logged and the call
// falls through to the underlying store.
package rediscache
