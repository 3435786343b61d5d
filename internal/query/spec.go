package query

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/repokit/internal/queryir"
	"github.com/roach88/repokit/internal/record"
)

// Spec accumulates read-query intent for one request.
//
// Builder methods mutate the Spec and return it for chaining. A Spec is
// not safe for concurrent use.
type Spec struct {
	relations  []Relation
	attributes []string
	filters    []Filter
	sort       []SortKey
	has        []HasConstraint
	search     *queryir.Fuzzy
	limit      int
	offset     int
	errs       []error
}

// New returns an empty Spec.
func New() *Spec {
	return &Spec{}
}

// With adds relations to eager-load. A relation named again replaces the
// earlier entry.
func (s *Spec) With(rels ...Relation) *Spec {
	for _, r := range rels {
		if r.Name == "" {
			s.errs = append(s.errs, errors.New("relation with empty name"))
			continue
		}
		if i := slices.IndexFunc(s.relations, func(x Relation) bool { return x.Name == r.Name }); i >= 0 {
			s.relations[i] = r
			continue
		}
		s.relations = append(s.relations, r)
	}
	return s
}

// Attributes sets the default projection. No attributes or a lone "*"
// means every column.
func (s *Spec) Attributes(attrs ...string) *Spec {
	s.attributes = normalizeProjection(attrs)
	return s
}

// Filters parses a filter map and merges it in. An attribute filtered
// again replaces its earlier filter.
func (s *Spec) Filters(m map[string]any) *Spec {
	parsed, err := ParseFilters(m)
	if err != nil {
		s.errs = append(s.errs, err)
		return s
	}
	for _, f := range parsed {
		s.setFilter(f)
	}
	return s
}

// Where adds one condition on attr, ANDed with any existing conditions on
// the same attribute.
func (s *Spec) Where(attr, op string, values ...any) *Spec {
	c := Condition{Operator: ResolveOperator(op), Values: values}
	if c.Values == nil {
		c.Values = []any{}
	}
	for i := range s.filters {
		if s.filters[i].Attribute == attr {
			s.filters[i].Conditions = append(s.filters[i].Conditions, c)
			return s
		}
	}
	s.filters = append(s.filters, Filter{Attribute: attr, Conditions: []Condition{c}})
	return s
}

// WhereEquals adds an equality condition for every attribute in m.
func (s *Spec) WhereEquals(m map[string]any) *Spec {
	parsed, err := ParseFilters(m)
	if err != nil {
		s.errs = append(s.errs, err)
		return s
	}
	for _, f := range parsed {
		for _, c := range f.Conditions {
			s.Where(f.Attribute, string(c.Operator), c.Values...)
		}
	}
	return s
}

func (s *Spec) setFilter(f Filter) {
	for i := range s.filters {
		if s.filters[i].Attribute == f.Attribute {
			s.filters[i] = f
			return
		}
	}
	s.filters = append(s.filters, f)
}

// Sort appends sort keys in order. Sorting an attribute again changes its
// direction without moving it.
func (s *Spec) Sort(keys ...SortKey) *Spec {
	s.sort = mergeSort(s.sort, keys)
	return s
}

// Has adds a has-relation constraint. A relation constrained again
// replaces its earlier constraint.
func (s *Spec) Has(constraints ...HasConstraint) *Spec {
	for _, h := range constraints {
		if i := slices.IndexFunc(s.has, func(x HasConstraint) bool { return x.Relation == h.Relation }); i >= 0 {
			s.has[i] = h
			continue
		}
		s.has = append(s.has, h)
	}
	return s
}

// Search restricts results to rows where any of columns fuzzily matches
// input.
func (s *Spec) Search(columns []string, input string) *Spec {
	f := SearchPredicate(columns, input).(queryir.Fuzzy)
	s.search = &f
	return s
}

// Limit sets the row limit. Zero leaves the current value unchanged.
func (s *Spec) Limit(n int) *Spec {
	if n != 0 {
		s.limit = n
	}
	return s
}

// Offset sets the row offset. Zero leaves the current value unchanged.
func (s *Spec) Offset(n int) *Spec {
	if n != 0 {
		s.offset = n
	}
	return s
}

// Page sets limit and offset from page-based paging.
func (s *Spec) Page(p PageLimitOffset) *Spec {
	s.limit = p.Limit()
	s.offset = p.Offset()
	return s
}

// Reset clears all accumulated state.
func (s *Spec) Reset() {
	*s = Spec{}
}

// Err returns the builder errors collected so far.
func (s *Spec) Err() error {
	return errors.Join(s.errs...)
}

// Relations returns the eager-load relations in declaration order.
func (s *Spec) Relations() []Relation {
	return slices.Clone(s.relations)
}

// Projection resolves the columns to select: an explicit non-wildcard
// projection wins, then the default attributes, then every column (nil).
func (s *Spec) Projection(explicit []string) []string {
	if p := normalizeProjection(explicit); p != nil {
		return p
	}
	return slices.Clone(s.attributes)
}

func normalizeProjection(attrs []string) []string {
	if len(attrs) == 0 || (len(attrs) == 1 && attrs[0] == "*") {
		return nil
	}
	return slices.Clone(attrs)
}

// Eager is one eager-load step of a Plan: after the owner rows are read,
// related rows whose RemoteKey is among the owners' LocalKey values are
// read and attached under Relation.
type Eager struct {
	Relation    string
	Association record.Association
	Related     *record.Entity
	LocalKey    string
	RemoteKey   string
	Columns     []string
}

// Plan is a compiled Spec.
type Plan struct {
	Select queryir.Select
	Eager  []Eager
}

// Compile resolves the Spec against entity and produces a Plan. projection
// is the per-call projection (see Projection).
func (s *Spec) Compile(entity *record.Entity, schema *record.Schema, projection []string) (*Plan, error) {
	if err := s.Err(); err != nil {
		return nil, err
	}

	cols := s.Projection(projection)
	plan := &Plan{
		Select: queryir.Select{From: entity.Table, Key: entity.KeyName()},
	}

	// eager-load
	for _, rel := range s.relations {
		assoc, related, err := schema.Related(entity, rel.Name)
		if err != nil {
			return nil, fmt.Errorf("eager load: %w", err)
		}
		local, remote := assoc.Keys(entity, related)
		step := Eager{
			Relation:    rel.Name,
			Association: assoc,
			Related:     related,
			LocalKey:    local,
			RemoteKey:   remote,
		}
		if len(rel.Attributes) > 0 && !(len(rel.Attributes) == 1 && rel.Attributes[0] == "*") {
			step.Columns = slices.Clone(rel.Attributes)
			if !slices.Contains(step.Columns, remote) {
				step.Columns = append(step.Columns, remote)
			}
		}
		if cols != nil && !slices.Contains(cols, local) {
			cols = append(cols, local)
		}
		plan.Eager = append(plan.Eager, step)
	}
	if cols != nil && !slices.Contains(cols, entity.KeyName()) {
		cols = append(cols, entity.KeyName())
	}
	plan.Select.Columns = cols

	var preds []queryir.Predicate

	// has-relation constraints
	for _, h := range s.has {
		assoc, related, err := schema.Related(entity, h.Relation)
		if err != nil {
			return nil, fmt.Errorf("has relation: %w", err)
		}
		local, remote := assoc.Keys(entity, related)
		preds = append(preds, queryir.Has{
			Table:        related.Table,
			RemoteColumn: remote,
			LocalColumn:  local,
			Op:           h.Op,
			Count:        h.Count,
		})
	}

	// filters
	for _, f := range s.filters {
		preds = append(preds, f.Predicate())
	}

	if s.search != nil {
		preds = append(preds, *s.search)
	}

	switch len(preds) {
	case 0:
	case 1:
		plan.Select.Filter = preds[0]
	default:
		plan.Select.Filter = queryir.And{Predicates: preds}
	}

	// sort
	for _, k := range s.sort {
		plan.Select.OrderBy = append(plan.Select.OrderBy, queryir.Order{Field: k.Attribute, Direction: k.Direction})
	}

	// limit and offset
	if s.limit > 0 {
		plan.Select.Limit = s.limit
		plan.Select.Offset = s.offset
	}

	return plan, nil
}

// Count returns the count query for the Spec's constraints, ignoring
// projection, eager loads, sort and paging.
func (s *Spec) Count(entity *record.Entity, schema *record.Schema) (queryir.Count, error) {
	plan, err := s.Compile(entity, schema, nil)
	if err != nil {
		return queryir.Count{}, err
	}
	return queryir.Count{From: plan.Select.From, Filter: plan.Select.Filter}, nil
}
