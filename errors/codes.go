package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Producer errors
const (
	// ErrCodeProducerFailed indicates the producer function returned an error.
	ErrCodeProducerFailed ErrorCode = "PRODUCER_FAILED"
	// ErrCodeProducerPanic indicates the producer function panicked.
	ErrCodeProducerPanic ErrorCode = "PRODUCER_PANIC"
)

// Conduit errors
const (
	// ErrCodeBrokenConduit indicates a write after the consumer closed its end.
	ErrCodeBrokenConduit ErrorCode = "BROKEN_CONDUIT"
	// ErrCodeConduitUnavailable indicates the OS pipe could not be created.
	ErrCodeConduitUnavailable ErrorCode = "CONDUIT_UNAVAILABLE"
	// ErrCodeStreamClosed indicates a read on a stream that was already closed.
	ErrCodeStreamClosed ErrorCode = "STREAM_CLOSED"
	// ErrCodeNotSeekable indicates an unsupported seek on an append-only stream.
	ErrCodeNotSeekable ErrorCode = "NOT_SEEKABLE"
	// ErrCodeModeMismatch indicates a text operation on a binary stream.
	ErrCodeModeMismatch ErrorCode = "MODE_MISMATCH"
)

// Usage errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeTimeout indicates an operation gave up waiting.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeConduitUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeProducerFailed:     false,
	ErrCodeBrokenConduit:      false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
