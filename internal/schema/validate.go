package schema

import (
	"fmt"
	"regexp"

	"github.com/roach88/repokit/internal/record"
)

// Validation error codes (E100-E199)
const (
	ErrCodeInvalidEntity      = "E100" // entity failed to compile
	ErrCodeInvalidName        = "E101" // table, column or key is not an identifier
	ErrCodeInvalidKeyType     = "E102" // unknown key_type
	ErrCodeInvalidKind        = "E103" // unknown association kind
	ErrCodeUnknownEntity      = "E104" // association targets an unknown entity
	ErrCodeDuplicateName      = "E105" // duplicate column or association
	ErrCodeFillableNotColumn  = "E106" // fillable attribute is not a column
	ErrCodeAssociationColumns = "E107" // association name shadows a column
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks a schema for structural problems.
// Returns all errors found (does not fail-fast).
func Validate(s *record.Schema) []ValidationError {
	var errs []ValidationError
	for _, name := range s.Names() {
		e, _ := s.Entity(name)
		errs = append(errs, validateEntity(s, e)...)
	}
	return errs
}

func validateEntity(s *record.Schema, e *record.Entity) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			Field:   e.Name + "." + field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
		})
	}

	if !identifierRe.MatchString(e.Table) {
		add("table", ErrCodeInvalidName, "table %q is not an identifier", e.Table)
	}
	if !identifierRe.MatchString(e.KeyName()) {
		add("key", ErrCodeInvalidName, "key %q is not an identifier", e.KeyName())
	}
	switch e.KeyType {
	case "", record.KeyAutoIncrement, record.KeyUUID:
	default:
		add("key_type", ErrCodeInvalidKeyType, "unknown key type %q (want %q or %q)", e.KeyType, record.KeyAutoIncrement, record.KeyUUID)
	}

	columns := make(map[string]bool, len(e.Columns))
	for _, c := range e.Columns {
		if !identifierRe.MatchString(c) {
			add("columns", ErrCodeInvalidName, "column %q is not an identifier", c)
		}
		if columns[c] {
			add("columns", ErrCodeDuplicateName, "duplicate column %q", c)
		}
		columns[c] = true
	}
	if len(e.Columns) > 0 {
		for _, f := range e.Fillable {
			if !columns[f] {
				add("fillable", ErrCodeFillableNotColumn, "fillable attribute %q is not a column", f)
			}
		}
	}

	seen := make(map[string]bool, len(e.Associations))
	for _, a := range e.Associations {
		field := "associations." + a.Name
		if seen[a.Name] {
			add(field, ErrCodeDuplicateName, "duplicate association")
		}
		seen[a.Name] = true
		if columns[a.Name] {
			add(field, ErrCodeAssociationColumns, "association shadows column %q", a.Name)
		}
		if !record.ValidKinds[a.Kind] {
			add(field, ErrCodeInvalidKind, "unknown kind %q", a.Kind)
		}
		if _, ok := s.Entity(a.Entity); !ok {
			add(field, ErrCodeUnknownEntity, "unknown entity %q", a.Entity)
		}
	}
	return errs
}
