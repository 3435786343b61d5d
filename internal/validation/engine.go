package validation

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/repokit/internal/record"
)

// Validator checks attribute values against rules and returns one message
// per violation. The error return is for failures of the validator itself
// (an unknown rule, an unreachable store), not for rule violations.
type Validator interface {
	Validate(ctx context.Context, attrs map[string]any, rules RuleSet) ([]string, error)
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, attrs map[string]any, rules RuleSet) ([]string, error)

func (f ValidatorFunc) Validate(ctx context.Context, attrs map[string]any, rules RuleSet) ([]string, error) {
	return f(ctx, attrs, rules)
}

// Check is an extra validation run after the rules. It returns a failure
// message, or "" when the attributes pass.
type Check func(ctx context.Context, attrs map[string]any) string

// Engine validates records before they are saved.
type Engine struct {
	provider  RuleProvider
	validator Validator
	checks    []Check
	factory   ErrorFactory
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithChecks appends extra checks.
func WithChecks(checks ...Check) EngineOption {
	return func(e *Engine) {
		e.checks = append(e.checks, checks...)
	}
}

// WithErrorFactory replaces the error built from failure messages.
func WithErrorFactory(f ErrorFactory) EngineOption {
	return func(e *Engine) {
		if f != nil {
			e.factory = f
		}
	}
}

// NewEngine creates an engine. A nil provider means no rules.
func NewEngine(provider RuleProvider, validator Validator, opts ...EngineOption) *Engine {
	if provider == nil {
		provider = StaticRules{}
	}
	e := &Engine{
		provider:  provider,
		validator: validator,
		factory:   NewError,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsEmpty reports whether the engine has nothing to check. Callers skip
// validation entirely when it does.
func (e *Engine) IsEmpty() bool {
	if len(e.checks) > 0 {
		return false
	}
	return e.provider.DefaultRules().IsEmpty() &&
		e.provider.CreateRules().IsEmpty() &&
		e.provider.UpdateRules().IsEmpty()
}

// Subject returns the attributes and rules Validate would check for rec,
// after interpolation.
//
// New records are checked on all attributes against the create rules.
// Persisted records are checked only on dirty attributes, against the
// update rules for those attributes.
func (e *Engine) Subject(rec *record.Record) (map[string]any, RuleSet) {
	var attrs map[string]any
	var rules RuleSet
	if rec.Exists() {
		attrs = rec.Dirty()
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rules = e.provider.UpdateRules().Only(keys)
	} else {
		attrs = rec.Attributes()
		rules = e.provider.CreateRules()
	}
	return attrs, Interpolate(rules, rec.Attributes(), rec.Entity().KeyName())
}

// Validate checks rec and returns the aggregated error built by the
// engine's ErrorFactory when any rule or check fails.
func (e *Engine) Validate(ctx context.Context, rec *record.Record) error {
	attrs, rules := e.Subject(rec)

	var messages []string
	if !rules.IsEmpty() {
		if e.validator == nil {
			return fmt.Errorf("validate %s: no validator configured", rec.Entity().Name)
		}
		msgs, err := e.validator.Validate(ctx, attrs, rules)
		if err != nil {
			return fmt.Errorf("validate %s: %w", rec.Entity().Name, err)
		}
		messages = append(messages, msgs...)
	}

	for _, check := range e.checks {
		if msg := check(ctx, attrs); msg != "" {
			messages = append(messages, msg)
		}
	}

	if len(messages) > 0 {
		return e.factory(messages)
	}
	return nil
}
