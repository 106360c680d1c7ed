// Package events carries in-process notifications about task lifecycle
// changes.
//
// The service emits a TaskEvent after each successful mutation. Handlers are
// registered on an InMemoryEventEmitter and run synchronously on the caller's
// goroutine; a failing handler never undoes the mutation that caused the event.
//
// Event types:
//   - task.created, task.updated, task.deleted: payload is TaskPayload
//   - tasks.cleared: payload is ClearedPayload
package events
