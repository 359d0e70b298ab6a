package logger

import (
	"time"
)

// Standard field key constants for structured logging.
const (
	FieldComponent = "component"
	FieldStreamID  = "stream_id"
	FieldMode      = "mode"
	FieldBytes     = "bytes"
	FieldOffset    = "offset"
	FieldOperation = "operation"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldCode      = "code"
	FieldDuration  = "duration_ms"
	FieldCommand   = "command"
	FieldPath      = "path"
)

// Fields builds a map from alternating key-value pairs.
//
//	logger.Info("done", logger.Fields("op", "tar", "entries", 42))
func Fields(kvs ...any) map[string]any {
	m := make(map[string]any, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// StreamFields identifies a stream in log lines.
func StreamFields(id, mode string, bytes int64) map[string]any {
	return map[string]any{
		FieldStreamID: id,
		FieldMode:     mode,
		FieldBytes:    bytes,
	}
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]any {
	return map[string]any{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}

// DurationFields creates fields for a timed operation.
func DurationFields(op string, d time.Duration) map[string]any {
	return map[string]any{
		FieldOperation: op,
		FieldDuration:  d.Milliseconds(),
	}
}

// Merge combines field maps; later maps win on key collisions.
func Merge(fields ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, fm := range fields {
		for k, v := range fm {
			out[k] = v
		}
	}
	return out
}
