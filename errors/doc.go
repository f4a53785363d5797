// Package errors provides the structured error type shared by pinch packages.
// Transport failures raised by the native backend and parse failures raised by
// response accessors are AppErrors carrying a machine-readable code and a
// retryable hint.
package errors
