package core

import (
	"strings"

	"github.com/pkg/errors"
)

// FieldError reports a rejected request field, named as in the JSON payload or query string.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a request rejected before reaching storage.
// Err is the underlying cause when there is one.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

// FieldMessages maps each rejected field to its message. A field reported twice keeps its first message.
func (err ValidationError) FieldMessages() map[string]string {
	msgs := make(map[string]string, len(err.Fields))
	for _, f := range err.Fields {
		if _, ok := msgs[f.Field]; !ok {
			msgs[f.Field] = f.Error
		}
	}
	return msgs
}

// Error reads "field: message, ..." in report order, or the cause when no field was rejected.
func (err ValidationError) Error() string {
	if len(err.Fields) == 0 {
		if err.Err == nil {
			return "invalid request"
		}
		return err.Err.Error()
	}
	parts := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		parts = append(parts, f.Field+": "+f.Error)
	}
	return strings.Join(parts, ", ")
}

// shutdown asks the API server to stop gracefully once the current response is written.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s *shutdown) Error() string { return s.message }

func IsShutdown(err error) bool {
	var s *shutdown
	return errors.As(err, &s)
}
