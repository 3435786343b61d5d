package validation

import (
	"errors"
	"strings"
)

// Error is the aggregated validation failure. It carries every message,
// not just the first.
type Error struct {
	Messages []string
}

func (e *Error) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// ErrorFactory builds the error raised for a list of failure messages.
type ErrorFactory func(messages []string) error

// NewError is the default ErrorFactory.
func NewError(messages []string) error {
	return &Error{Messages: append([]string(nil), messages...)}
}

// IsValidationError reports whether err is (or wraps) an *Error.
func IsValidationError(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

// Messages returns the messages of a wrapped *Error, or nil.
func Messages(err error) []string {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Messages
	}
	return nil
}
