package logger

import "time"

// Field keys shared by all packages.
const (
	FieldComponent  = "component"
	FieldTraceID    = "trace_id"
	FieldSpanID     = "span_id"
	FieldRequestID  = "request_id"
	FieldSessionID  = "session_id"
	FieldRunID      = "run_id"
	FieldAgentID    = "agent_id"
	FieldUser       = "user"
	FieldOperation  = "operation"
	FieldMethod     = "method"
	FieldURL        = "url"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
	FieldUnits      = "units"
	FieldBytes      = "bytes"
	FieldOutcome    = "outcome"
	FieldPolicy     = "policy"
	FieldRemainder  = "remainder_bytes"
	FieldContentLen = "content_length"
)

// Fields builds a field map from alternating key-value pairs.
//
//	logger.Info("done", logger.Fields("op", "save", "id", 42))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}

// DurationFields creates fields for a timed operation.
func DurationFields(op string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldDuration:  d.Milliseconds(),
	}
}

// MergeWithDuration adds a duration field to an existing map.
func MergeWithDuration(fields map[string]interface{}, d time.Duration) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields[FieldDuration] = d.Milliseconds()
	return fields
}
