package testutil

import "context"

// FixedStamp returns a value source that yields the same value every time,
// for use with before-save stamping hooks.
//
// Thread-safety: the returned function is stateless and safe for
// concurrent use.
func FixedStamp(v any) func(context.Context) (any, error) {
	return func(context.Context) (any, error) {
		return v, nil
	}
}

// FailingStamp returns a value source that always fails with err.
func FailingStamp(err error) func(context.Context) (any, error) {
	return func(context.Context) (any, error) {
		return nil, err
	}
}
