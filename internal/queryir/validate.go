package queryir

import (
	"fmt"
	"strings"
)

// ValidationResult lists the structural problems found in a query.
type ValidationResult struct {
	// Problems is empty when the query can be compiled.
	Problems []string
}

// OK reports whether the query has no problems.
func (r ValidationResult) OK() bool {
	return len(r.Problems) == 0
}

// Err folds the problems into one error, or nil.
func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("invalid query: %s", strings.Join(r.Problems, "; "))
}

// Validate checks a query for problems a backend cannot recover from:
// missing table or field names, operators outside the allowed set, and
// negative paging values.
//
// It does not check that tables or fields exist. Unknown names surface when
// the store executes the query.
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{problems: []string{}}
	v.validateQuery(query)
	return ValidationResult{Problems: v.problems}
}

type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	if q == nil {
		v.addProblem("nil query")
		return
	}

	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		v.validateSelect(*query)
	case Count:
		v.validateFrom(query.From)
		v.validatePredicate(query.Filter)
	case *Count:
		v.validateFrom(query.From)
		v.validatePredicate(query.Filter)
	default:
		v.addProblem("unknown query type %T", q)
	}
}

func (v *validator) validateFrom(from string) {
	if strings.TrimSpace(from) == "" {
		v.addProblem("query has no table")
	}
}

func (v *validator) validateSelect(sel Select) {
	v.validateFrom(sel.From)
	for i, c := range sel.Columns {
		if strings.TrimSpace(c) == "" {
			v.addProblem("column %d is empty", i)
		}
	}
	for i, o := range sel.OrderBy {
		if strings.TrimSpace(o.Field) == "" {
			v.addProblem("sort key %d has no field", i)
		}
		if o.Direction != Asc && o.Direction != Desc {
			v.addProblem("sort key %q has invalid direction %q", o.Field, o.Direction)
		}
	}
	if sel.Limit < 0 {
		v.addProblem("negative limit %d", sel.Limit)
	}
	if sel.Offset < 0 {
		v.addProblem("negative offset %d", sel.Offset)
	}
	v.validatePredicate(sel.Filter)
}

func (v *validator) validatePredicate(p Predicate) {
	if p == nil {
		return
	}

	switch pred := p.(type) {
	case In:
		v.validateField("in", pred.Field)
	case NotIn:
		v.validateField("not in", pred.Field)
	case IsNull:
		v.validateField("is null", pred.Field)
	case NotNull:
		v.validateField("not null", pred.Field)
	case Compare:
		v.validateField("compare", pred.Field)
		if !Operators[strings.ToLower(pred.Op)] {
			v.addProblem("field %q: unsupported operator %q", pred.Field, pred.Op)
		}
	case Fuzzy:
		for _, f := range pred.Fields {
			v.validateField("fuzzy", f)
		}
	case Has:
		if pred.Table == "" || pred.RemoteColumn == "" || pred.LocalColumn == "" {
			v.addProblem("has constraint on %q is missing its join columns", pred.Table)
		}
		if !CountOperators[pred.Op] {
			v.addProblem("has constraint on %q: unsupported operator %q", pred.Table, pred.Op)
		}
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}

func (v *validator) validateField(kind, field string) {
	if strings.TrimSpace(field) == "" {
		v.addProblem("%s predicate has no field", kind)
	}
}
