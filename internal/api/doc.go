// Package api adapts HTTP requests to the task service. It decodes and
// validates request bodies and query strings, calls service.TaskService and
// writes JSON responses.
//
// All error responses go through HandleAPIError, which derives the status and
// a client-safe message from the error chain (MapErrorToStatusCode,
// GetSafeErrorMessage). Internal details are only ever logged, after
// redaction.
package api
