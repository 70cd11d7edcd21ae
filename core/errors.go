package core

import "github.com/pkg/errors"

// FieldError ties a validation message to the request field it concerns.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries per-field messages back to the API error
// handler, which renders them as a field-to-message map.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdownError marks a failure the process cannot safely continue past,
// such as corrupt stored data. The API error handler signals the server
// to stop when it sees one.
type shutdownError struct {
	msg string
}

func NewShutdownError(msg string) error {
	return &shutdownError{msg: msg}
}

func (err shutdownError) Error() string { return err.msg }

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdownError)
	return ok
}
