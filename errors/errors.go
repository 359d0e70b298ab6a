package errors

import (
	"fmt"
	"io"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an *AppError with the same code, so
// errors.Is(err, errors.StreamClosed()) matches any closed-stream error.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Stream error constructors ---

// ProducerFailed wraps an error returned by a producer.
func ProducerFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeProducerFailed, Message: "The producer failed while writing the stream.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// ProducerPanic records a recovered producer panic together with its stack.
func ProducerPanic(value any, stack []byte) *AppError {
	e := &AppError{
		Code: ErrCodeProducerPanic, Message: fmt.Sprintf("The producer panicked: %v", value),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"panic": fmt.Sprint(value)},
	}
	if err, ok := value.(error); ok {
		e.Cause = err
	}
	if len(stack) > 0 {
		e.Details["stack"] = string(stack)
	}
	return e
}

// BrokenConduit wraps a write error caused by the consumer closing its end.
func BrokenConduit(cause error) *AppError {
	return &AppError{
		Code: ErrCodeBrokenConduit, Message: "The consumer closed the stream before the producer finished.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// ConduitUnavailable wraps a failure to create the OS pipe.
func ConduitUnavailable(cause error) *AppError {
	return &AppError{
		Code: ErrCodeConduitUnavailable, Message: "Unable to open a pipe for the stream.",
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true, Cause: cause,
	}
}

// StreamClosed reports an operation on a stream that was already closed.
func StreamClosed() *AppError {
	return &AppError{
		Code: ErrCodeStreamClosed, Message: "The stream is closed.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
	}
}

// NotSeekable reports a seek the append-only write end cannot honour.
func NotSeekable(offset int64, whence int) *AppError {
	return &AppError{
		Code: ErrCodeNotSeekable, Message: "The stream only supports position queries (Seek(0, io.SeekCurrent)).",
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"offset": offset, "whence": whenceName(whence)},
	}
}

// ModeMismatch reports an operation that needs a different stream mode.
func ModeMismatch(op, want string) *AppError {
	return &AppError{
		Code: ErrCodeModeMismatch, Message: fmt.Sprintf("%s requires a %s stream", op, want),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"operation": op, "mode": want},
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// Timeout creates a new AppError for an operation that gave up waiting.
func Timeout(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("Timed out waiting for %s.", operation),
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation}, Cause: cause,
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

func whenceName(whence int) string {
	switch whence {
	case io.SeekStart:
		return "start"
	case io.SeekCurrent:
		return "current"
	case io.SeekEnd:
		return "end"
	default:
		return fmt.Sprintf("unknown(%d)", whence)
	}
}
