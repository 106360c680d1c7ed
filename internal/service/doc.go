// Package service contains the task use cases. It sits between the HTTP
// layer and the store port: it normalizes and validates input, drives the
// store, wraps unexpected failures in TaskServiceError and emits lifecycle
// events after each successful change.
//
// The service depends on the store.TaskStore interface only, never on a
// particular backend.
package service
