package query

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/repokit/internal/queryir"
)

// SortKey is one attribute → direction pair.
type SortKey struct {
	Attribute string
	Direction queryir.Direction
}

// Asc sorts attr ascending.
func Asc(attr string) SortKey {
	return SortKey{Attribute: attr, Direction: queryir.Asc}
}

// Desc sorts attr descending.
func Desc(attr string) SortKey {
	return SortKey{Attribute: attr, Direction: queryir.Desc}
}

// ParseDirection accepts asc/desc in any case.
func ParseDirection(s string) (queryir.Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "":
		return queryir.Asc, nil
	case "desc":
		return queryir.Desc, nil
	default:
		return "", fmt.Errorf("invalid sort direction %q", s)
	}
}

// SortList is an ordered list of sort keys. It decodes from a YAML (or
// JSON) mapping, keeping the mapping's order:
//
//	sort:
//	  name: asc
//	  xp: desc
type SortList []SortKey

// UnmarshalYAML decodes a mapping node in document order.
func (s *SortList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: sort must be a mapping of attribute to direction", node.Line)
	}
	keys := make(SortList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		dir, err := ParseDirection(node.Content[i+1].Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Content[i+1].Line, err)
		}
		keys = append(keys, SortKey{Attribute: node.Content[i].Value, Direction: dir})
	}
	*s = keys
	return nil
}

// SortMap converts an attribute → direction map to sort keys. Go maps carry
// no order, so keys come back sorted by attribute; use SortList or explicit
// SortKeys when order matters.
func SortMap(m map[string]string) ([]SortKey, error) {
	attrs := make([]string, 0, len(m))
	for k := range m {
		attrs = append(attrs, k)
	}
	sort.Strings(attrs)

	keys := make([]SortKey, 0, len(attrs))
	for _, a := range attrs {
		dir, err := ParseDirection(m[a])
		if err != nil {
			return nil, fmt.Errorf("sort %q: %w", a, err)
		}
		keys = append(keys, SortKey{Attribute: a, Direction: dir})
	}
	return keys, nil
}

// mergeSort appends keys to existing. A key for an attribute already
// present replaces its direction in place.
func mergeSort(existing []SortKey, keys []SortKey) []SortKey {
	for _, k := range keys {
		replaced := false
		for i := range existing {
			if existing[i].Attribute == k.Attribute {
				existing[i].Direction = k.Direction
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, k)
		}
	}
	return existing
}
