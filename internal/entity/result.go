package entity

import (
	"github.com/joseph-ayodele/docrouter/constants"
)

// Result is the transient mapping a handler hands back to the dispatcher.
type Result map[string]any

// Keys shared by every result.
const (
	KeyStatus    = "status"
	KeyMessage   = "message"
	KeyThreadID  = "thread_id"
	KeyAnomalies = "anomalies"
	KeyRawOutput = "raw_output"
)

// ErrorResult builds an error-status result carrying message.
func ErrorResult(message string) Result {
	return Result{KeyStatus: constants.StatusError, KeyMessage: message}
}

// IsError reports whether the result carries status=error.
func (r Result) IsError() bool {
	s, _ := r[KeyStatus].(string)
	return s == constants.StatusError
}

// ThreadID returns the thread id stamped by the dispatcher, or "".
func (r Result) ThreadID() string {
	s, _ := r[KeyThreadID].(string)
	return s
}
