package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/repokit/internal/query"
	"github.com/roach88/repokit/internal/queryir"
	"github.com/roach88/repokit/internal/record"
	"github.com/roach88/repokit/internal/validation"
)

// Store is the persistence gateway a Repository runs against.
// *store.Store satisfies it.
type Store interface {
	Select(ctx context.Context, q queryir.Select) ([]map[string]any, error)
	Count(ctx context.Context, q queryir.Count) (int64, error)
	Insert(ctx context.Context, table, key string, attrs map[string]any) (any, error)
	Update(ctx context.Context, table, key string, id any, attrs map[string]any) (int64, error)
	DeleteByKeys(ctx context.Context, table, key string, ids []any) (int64, error)
	Columns(ctx context.Context, table string) ([]string, error)
}

// Repository is the data-access façade for one entity.
type Repository struct {
	store  Store
	schema *record.Schema
	entity *record.Entity
	spec   *query.Spec

	rules        validation.RuleProvider
	validator    validation.Validator
	checks       []validation.Check
	errorFactory validation.ErrorFactory
	engine       *validation.Engine

	beforeSave         []BeforeSaveFunc
	updateWhenIDExists bool
	saveRecursive      bool
	registry           *Registry
	now                func() time.Time
}

// New creates a Repository for the named entity of schema.
//
// Defaults: updates when an attribute map carries the key, no cascading,
// no rules, the built-in rule validator backed by st, and time.Now for
// timestamps.
func New(st Store, schema *record.Schema, entityName string, opts ...Option) (*Repository, error) {
	entity, ok := schema.Entity(entityName)
	if !ok {
		return nil, fmt.Errorf("unknown entity %q", entityName)
	}
	r := &Repository{
		store:              st,
		schema:             schema,
		entity:             entity,
		spec:               query.New(),
		updateWhenIDExists: true,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.validator == nil {
		r.validator = validation.NewRuleValidator(st)
	}
	var engineOpts []validation.EngineOption
	if len(r.checks) > 0 {
		engineOpts = append(engineOpts, validation.WithChecks(r.checks...))
	}
	if r.errorFactory != nil {
		engineOpts = append(engineOpts, validation.WithErrorFactory(r.errorFactory))
	}
	r.engine = validation.NewEngine(r.rules, r.validator, engineOpts...)
	return r, nil
}

// Entity returns the entity this repository serves.
func (r *Repository) Entity() *record.Entity {
	return r.entity
}

// Schema returns the schema the entity belongs to.
func (r *Repository) Schema() *record.Schema {
	return r.schema
}

// Fresh returns a copy sharing configuration but with empty builder state.
func (r *Repository) Fresh() *Repository {
	c := *r
	c.spec = query.New()
	return &c
}

// Reset discards accumulated builder state.
func (r *Repository) Reset() *Repository {
	r.spec.Reset()
	return r
}

// With adds relations to eager-load on the next read.
func (r *Repository) With(rels ...query.Relation) *Repository {
	r.spec.With(rels...)
	return r
}

// WithNames adds relations to eager-load with every related column.
func (r *Repository) WithNames(names ...string) *Repository {
	for _, n := range names {
		r.spec.With(query.Rel(n))
	}
	return r
}

// Attributes sets the default projection for the next read.
func (r *Repository) Attributes(attrs ...string) *Repository {
	r.spec.Attributes(attrs...)
	return r
}

// Filters merges a filter map (see query.ParseFilters).
func (r *Repository) Filters(m map[string]any) *Repository {
	r.spec.Filters(m)
	return r
}

// Where adds one filter condition.
func (r *Repository) Where(attr, op string, values ...any) *Repository {
	r.spec.Where(attr, op, values...)
	return r
}

// Sort appends sort keys.
func (r *Repository) Sort(keys ...query.SortKey) *Repository {
	r.spec.Sort(keys...)
	return r
}

// HasRelation requires at least count related rows (or whatever op says).
// An empty op means ">=".
func (r *Repository) HasRelation(relation, op string, count int) *Repository {
	r.spec.Has(query.Has(relation, op, count))
	return r
}

// Limit sets the row limit. Zero is ignored.
func (r *Repository) Limit(n int) *Repository {
	r.spec.Limit(n)
	return r
}

// Offset sets the row offset. Zero is ignored.
func (r *Repository) Offset(n int) *Repository {
	r.spec.Offset(n)
	return r
}

// ApplyParams applies a request-parameter bag: relations, attributes,
// filters, sort and paging.
func (r *Repository) ApplyParams(p query.Params) *Repository {
	r.spec.Apply(p)
	return r
}

// Compile returns the plan the accumulated state produces, then resets it.
func (r *Repository) Compile(projection ...string) (*query.Plan, error) {
	defer r.spec.Reset()
	plan, err := r.spec.Compile(r.entity, r.schema, projection)
	if err != nil {
		return nil, newQueryError(r.entity.Name, "compile", err)
	}
	return plan, nil
}
