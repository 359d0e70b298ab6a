// Package errors provides the structured error type used across pullpipe.
// Errors carry a machine-readable code, a retryable flag and an HTTP status
// so the same value can be logged, matched with errors.Is/As and rendered
// by the HTTP streaming layer.
package errors
