package validation

import (
	"maps"
	"sort"
)

// RuleSet maps an attribute to its rule expression.
type RuleSet map[string]string

// IsEmpty reports whether the set holds no rules.
func (r RuleSet) IsEmpty() bool {
	return len(r) == 0
}

// Only returns the rules for the given attributes.
func (r RuleSet) Only(attrs []string) RuleSet {
	out := make(RuleSet, len(attrs))
	for _, a := range attrs {
		if rule, ok := r[a]; ok {
			out[a] = rule
		}
	}
	return out
}

// Attributes returns the ruled attributes in sorted order.
func (r RuleSet) Attributes() []string {
	attrs := make([]string, 0, len(r))
	for a := range r {
		attrs = append(attrs, a)
	}
	sort.Strings(attrs)
	return attrs
}

// RuleProvider supplies the rule sets for one entity type.
type RuleProvider interface {
	DefaultRules() RuleSet
	CreateRules() RuleSet
	UpdateRules() RuleSet
}

// StaticRules is a RuleProvider declared alongside an entity definition.
// Create and Update fall back to Default when unset.
type StaticRules struct {
	Default RuleSet `json:"default,omitempty"`
	Create  RuleSet `json:"create,omitempty"`
	Update  RuleSet `json:"update,omitempty"`
}

var _ RuleProvider = StaticRules{}

// DefaultRules returns a copy of the default rules.
func (s StaticRules) DefaultRules() RuleSet {
	return maps.Clone(s.Default)
}

// CreateRules returns the rules for new records.
func (s StaticRules) CreateRules() RuleSet {
	if s.Create != nil {
		return maps.Clone(s.Create)
	}
	return s.DefaultRules()
}

// UpdateRules returns the rules for persisted records.
func (s StaticRules) UpdateRules() RuleSet {
	if s.Update != nil {
		return maps.Clone(s.Update)
	}
	return s.DefaultRules()
}

// IsEmpty reports whether no rule set holds any rules.
func (s StaticRules) IsEmpty() bool {
	return s.Default.IsEmpty() && s.Create.IsEmpty() && s.Update.IsEmpty()
}
