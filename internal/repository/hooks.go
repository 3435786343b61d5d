package repository

import (
	"context"
	"fmt"

	"github.com/roach88/repokit/internal/record"
)

// BeforeSaveFunc runs after validation and before a record is written.
// Returning an error aborts the save.
type BeforeSaveFunc func(ctx context.Context, rec *record.Record) error

// ValueFunc yields a value derived from the request context.
type ValueFunc func(ctx context.Context) (any, error)

// StampOnCreate sets attr on new records from value, leaving stored
// records untouched. A nil value leaves the attribute as it is.
func StampOnCreate(attr string, value ValueFunc) BeforeSaveFunc {
	return func(ctx context.Context, rec *record.Record) error {
		if rec.Exists() {
			return nil
		}
		v, err := value(ctx)
		if err != nil {
			return fmt.Errorf("stamp %s: %w", attr, err)
		}
		if v != nil {
			rec.Set(attr, v)
		}
		return nil
	}
}

type contextKey string

// WithValue returns a context carrying v under name, for use with
// FromContext.
func WithValue(ctx context.Context, name string, v any) context.Context {
	return context.WithValue(ctx, contextKey(name), v)
}

// FromContext reads the value stored under name by WithValue.
func FromContext(name string) ValueFunc {
	return func(ctx context.Context) (any, error) {
		return ctx.Value(contextKey(name)), nil
	}
}
