package repository

import (
	"time"

	"github.com/roach88/repokit/internal/validation"
)

// Option configures a Repository.
type Option func(*Repository)

// WithUpdateWhenIDExists controls create-vs-update resolution for attribute
// maps. When on (the default), a map carrying the primary key updates the
// existing record.
func WithUpdateWhenIDExists(on bool) Option {
	return func(r *Repository) {
		r.updateWhenIDExists = on
	}
}

// WithSaveRecursive makes saves cascade into attached associations.
func WithSaveRecursive(on bool) Option {
	return func(r *Repository) {
		r.saveRecursive = on
	}
}

// WithBeforeSave appends hooks run after validation and before commit.
func WithBeforeSave(hooks ...BeforeSaveFunc) Option {
	return func(r *Repository) {
		r.beforeSave = append(r.beforeSave, hooks...)
	}
}

// WithRules sets the rule provider.
func WithRules(provider validation.RuleProvider) Option {
	return func(r *Repository) {
		r.rules = provider
	}
}

// WithValidator replaces the built-in rule validator.
func WithValidator(v validation.Validator) Option {
	return func(r *Repository) {
		r.validator = v
	}
}

// WithChecks appends extra validation checks.
func WithChecks(checks ...validation.Check) Option {
	return func(r *Repository) {
		r.checks = append(r.checks, checks...)
	}
}

// WithErrorFactory replaces the aggregated validation error.
func WithErrorFactory(f validation.ErrorFactory) Option {
	return func(r *Repository) {
		r.errorFactory = f
	}
}

// WithRegistry makes cascading saves use the registry's repositories for
// related entities. A cascade into an entity the registry does not hold
// fails. Without a registry, cascades use unconfigured repositories.
func WithRegistry(reg *Registry) Option {
	return func(r *Repository) {
		r.registry = reg
	}
}

// WithClock sets the time source for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}
