package query

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/repokit/internal/queryir"
	"github.com/roach88/repokit/internal/record"
)

// Operator is a filter operator after alias resolution.
type Operator string

const (
	Equals    Operator = "equals"
	NotEquals Operator = "not_equals"
	Null      Operator = "null"
	NotNull   Operator = "not_null"
)

var operatorAliases = map[string]Operator{
	"":           Equals,
	"e":          Equals,
	"=":          Equals,
	"equals":     Equals,
	"ne":         NotEquals,
	"!=":         NotEquals,
	"<>":         NotEquals,
	"not_equals": NotEquals,
	"n":          Null,
	"null":       Null,
	"nn":         NotNull,
	"not_null":   NotNull,
}

// ResolveOperator maps an operator key to its canonical form. Numeric keys
// resolve to Equals; unknown operators pass through lowercased.
func ResolveOperator(key string) Operator {
	k := strings.ToLower(strings.TrimSpace(key))
	if _, err := strconv.Atoi(k); err == nil {
		return Equals
	}
	if op, ok := operatorAliases[k]; ok {
		return op
	}
	return Operator(k)
}

// Condition is one operator applied to an attribute.
type Condition struct {
	Operator Operator
	Values   []any
}

// Filter holds every condition on one attribute. Conditions are ANDed.
type Filter struct {
	Attribute  string
	Conditions []Condition
}

// Predicate compiles the filter to a conjunction of its conditions.
func (f Filter) Predicate() queryir.Predicate {
	preds := make([]queryir.Predicate, 0, len(f.Conditions))
	for _, c := range f.Conditions {
		preds = append(preds, c.predicate(f.Attribute))
	}
	if len(preds) == 1 {
		return preds[0]
	}
	return queryir.And{Predicates: preds}
}

func (c Condition) predicate(attr string) queryir.Predicate {
	switch c.Operator {
	case Equals:
		return queryir.In{Field: attr, Values: c.Values}
	case NotEquals:
		return queryir.NotIn{Field: attr, Values: c.Values}
	case Null:
		return queryir.IsNull{Field: attr}
	case NotNull:
		return queryir.NotNull{Field: attr}
	default:
		var head any
		if len(c.Values) > 0 {
			head = c.Values[0]
		}
		return queryir.Compare{Field: attr, Op: string(c.Operator), Value: head}
	}
}

// ParseFilters converts a filter map into Filters ordered by attribute.
//
// A scalar or list value is one equality condition over the whole set. A
// map value is an operator map; each entry is an independent condition.
func ParseFilters(m map[string]any) ([]Filter, error) {
	attrs := make([]string, 0, len(m))
	for k := range m {
		attrs = append(attrs, k)
	}
	sort.Strings(attrs)

	filters := make([]Filter, 0, len(attrs))
	for _, attr := range attrs {
		if strings.TrimSpace(attr) == "" {
			return nil, fmt.Errorf("filter with empty attribute name")
		}
		f, err := parseFilter(attr, m[attr])
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

func parseFilter(attr string, v any) (Filter, error) {
	ops, ok, err := operatorMap(v)
	if err != nil {
		return Filter{}, fmt.Errorf("filter %q: %w", attr, err)
	}
	if !ok {
		return Filter{Attribute: attr, Conditions: []Condition{{Operator: Equals, Values: record.ToSlice(v)}}}, nil
	}

	keys := make([]string, 0, len(ops))
	for k := range ops {
		keys = append(keys, k)
	}
	sortOperatorKeys(keys)

	f := Filter{Attribute: attr}
	for _, k := range keys {
		f.Conditions = append(f.Conditions, Condition{
			Operator: ResolveOperator(k),
			Values:   record.ToSlice(ops[k]),
		})
	}
	return f, nil
}

// operatorMap reports whether v is a map and returns it keyed by string.
func operatorMap(v any) (map[string]any, bool, error) {
	switch m := v.(type) {
	case map[string]any:
		return m, true, nil
	case nil:
		return nil, false, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, false, nil
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key().Interface()
		switch key := k.(type) {
		case string:
			out[key] = iter.Value().Interface()
		case int, int64, int32, uint, uint64:
			out[fmt.Sprint(key)] = iter.Value().Interface()
		default:
			return nil, false, fmt.Errorf("unsupported operator key %v (%T)", k, k)
		}
	}
	return out, true, nil
}

// sortOperatorKeys orders numeric keys numerically ahead of named ones.
func sortOperatorKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		ni, ei := strconv.Atoi(keys[i])
		nj, ej := strconv.Atoi(keys[j])
		switch {
		case ei == nil && ej == nil:
			return ni < nj
		case ei == nil:
			return true
		case ej == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
}
