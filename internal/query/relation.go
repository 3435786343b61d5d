package query

import (
	"fmt"
	"strconv"
)

// Relation is an association to eager-load, optionally limited to a set of
// attributes.
type Relation struct {
	Name       string
	Attributes []string
}

// Rel builds a Relation.
func Rel(name string, attrs ...string) Relation {
	return Relation{Name: name, Attributes: attrs}
}

// HasConstraint requires the number of related records to satisfy
// Op Count, e.g. ">= 1".
type HasConstraint struct {
	Relation string
	Op       string
	Count    int
}

// Has builds a HasConstraint. An empty op defaults to ">=" and is paired
// with count.
func Has(relation, op string, count int) HasConstraint {
	if op == "" {
		op = ">="
	}
	return HasConstraint{Relation: relation, Op: op, Count: count}
}

// ParseRelations accepts the loose relation forms used in request params:
//
//   - "target"
//   - ["target", "missions"]
//   - {"target": {"attributes": ["name"]}, "0": "missions"}
//
// Entries keyed by a number are bare relation names.
func ParseRelations(v any) ([]Relation, error) {
	switch rels := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []Relation{{Name: rels}}, nil
	case []string:
		out := make([]Relation, len(rels))
		for i, r := range rels {
			out[i] = Relation{Name: r}
		}
		return out, nil
	case []any:
		out := make([]Relation, 0, len(rels))
		for _, r := range rels {
			parsed, err := ParseRelations(r)
			if err != nil {
				return nil, err
			}
			out = append(out, parsed...)
		}
		return out, nil
	case map[string]any:
		return parseRelationMap(rels)
	case map[any]any:
		m := make(map[string]any, len(rels))
		for k, v := range rels {
			m[fmt.Sprint(k)] = v
		}
		return parseRelationMap(m)
	case []Relation:
		return rels, nil
	default:
		return nil, fmt.Errorf("unsupported relations value %T", v)
	}
}

func parseRelationMap(m map[string]any) ([]Relation, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortOperatorKeys(keys)

	var out []Relation
	for _, k := range keys {
		if _, err := strconv.Atoi(k); err == nil {
			name, ok := m[k].(string)
			if !ok {
				return nil, fmt.Errorf("relation %s: expected a name, got %T", k, m[k])
			}
			out = append(out, Relation{Name: name})
			continue
		}

		rel := Relation{Name: k}
		if rules, ok := m[k].(map[string]any); ok {
			attrs, err := stringList(rules["attributes"])
			if err != nil {
				return nil, fmt.Errorf("relation %s attributes: %w", k, err)
			}
			rel.Attributes = attrs
		}
		out = append(out, rel)
	}
	return out, nil
}

func stringList(v any) ([]string, error) {
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return list, nil
	case string:
		return []string{list}, nil
	case []any:
		out := make([]string, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", v)
	}
}
