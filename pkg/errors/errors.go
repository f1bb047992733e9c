package errors

import "fmt"

// ErrorType classifies failures of the ranking and streaming pipelines
type ErrorType string

const (
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeAuth          ErrorType = "auth"
	ErrorTypeFetch         ErrorType = "fetch"
	ErrorTypeParse         ErrorType = "parse"
	ErrorTypeLookup        ErrorType = "lookup"
	ErrorTypeStream        ErrorType = "stream"
	ErrorTypeUnknown       ErrorType = "unknown"
)

// Error represents a classified pipeline error
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error without a cause
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap creates a classified error around a cause
func Wrap(t ErrorType, message string, err error) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// IsFatal checks if an error type aborts a whole run.
// Configuration, auth, fetch, and stream failures short-circuit to empty
// results; parse and lookup failures are per-item and recoverable.
func IsFatal(t ErrorType) bool {
	switch t {
	case ErrorTypeConfiguration, ErrorTypeAuth, ErrorTypeFetch, ErrorTypeStream:
		return true
	case ErrorTypeParse, ErrorTypeLookup:
		return false
	default:
		return true
	}
}
