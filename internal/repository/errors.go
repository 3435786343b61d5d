package repository

import (
	"errors"
	"fmt"

	"github.com/roach88/repokit/internal/validation"
)

// ErrorCode categorizes repository errors.
type ErrorCode string

const (
	// CodeNotFound indicates no record has the requested key.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeMissingIdentifier indicates an update without a key.
	CodeMissingIdentifier ErrorCode = "MISSING_IDENTIFIER"

	// CodeInvalidInputShape indicates a single-item API received several
	// items, or the other way round.
	CodeInvalidInputShape ErrorCode = "INVALID_INPUT_SHAPE"

	// CodeImmutableKey indicates a persisted record's key was changed.
	CodeImmutableKey ErrorCode = "IMMUTABLE_KEY"

	// CodeQueryExecution wraps a failure reported by the store.
	CodeQueryExecution ErrorCode = "QUERY_EXECUTION"
)

// Error is a repository failure with structured context.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Entity names the entity the operation ran against.
	Entity string

	// Message is a human-readable description.
	Message string

	// ID is the key involved, when there is one.
	ID any

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Entity != "" && e.ID != nil {
		msg = fmt.Sprintf("%s (entity=%s, id=%v)", msg, e.Entity, e.ID)
	} else if e.Entity != "" {
		msg = fmt.Sprintf("%s (entity=%s)", msg, e.Entity)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsMissingIdentifier reports whether err is a missing-identifier error.
func IsMissingIdentifier(err error) bool {
	return hasCode(err, CodeMissingIdentifier)
}

// IsInvalidInputShape reports whether err is an input-shape error.
func IsInvalidInputShape(err error) bool {
	return hasCode(err, CodeInvalidInputShape)
}

// IsImmutableKey reports whether err is a changed-key error.
func IsImmutableKey(err error) bool {
	return hasCode(err, CodeImmutableKey)
}

// IsQueryExecution reports whether err came from the store.
func IsQueryExecution(err error) bool {
	return hasCode(err, CodeQueryExecution)
}

// IsValidationFailed reports whether err is the default aggregated
// validation error.
func IsValidationFailed(err error) bool {
	return validation.IsValidationError(err)
}

func newNotFound(entity string, id any) *Error {
	return &Error{Code: CodeNotFound, Entity: entity, Message: "record not found", ID: id}
}

func newMissingIdentifier(entity string) *Error {
	return &Error{Code: CodeMissingIdentifier, Entity: entity, Message: "no identifier given and none found in attributes"}
}

func newInvalidInputShape(entity, msg string) *Error {
	return &Error{Code: CodeInvalidInputShape, Entity: entity, Message: msg}
}

func newQueryError(entity, op string, err error) *Error {
	return &Error{Code: CodeQueryExecution, Entity: entity, Message: op + " failed", Err: err}
}
