package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Transport errors (retryable unless noted)
const (
	// ErrCodeConnectionFailed indicates the request could not reach the remote host.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates the request did not complete in time.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeUntrustedCertificate indicates the server certificate did not
	// chain to any pinned certificate. Not retryable.
	ErrCodeUntrustedCertificate ErrorCode = "UNTRUSTED_CERTIFICATE"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeInvalidFormat indicates a value could not be parsed in the expected format.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
)

// Internal errors
const (
	// ErrCodeUnsupported indicates the operation is not available on this backend.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED"
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeConnectionFailed: true,
	ErrCodeTimeout:          true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
