package query

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Params is the request-level description of a read, as decoded from a
// YAML or JSON document:
//
//	relations:
//	  target: {attributes: [name]}
//	attributes: [id, name, xp]
//	filters:
//	  xp: {">": 100}
//	sort:
//	  name: asc
//	page: 2
//	per_page: 10
type Params struct {
	Relations  any            `yaml:"relations"`
	Attributes []string       `yaml:"attributes"`
	Filters    map[string]any `yaml:"filters"`
	Sort       SortList       `yaml:"sort"`
	Page       int            `yaml:"page"`
	PerPage    int            `yaml:"per_page"`
}

// ParseParams decodes params from YAML. JSON input is accepted as well.
func ParseParams(data []byte) (Params, error) {
	var p Params
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Params{}, fmt.Errorf("parse query params: %w", err)
	}
	return p, nil
}

// Paging returns the page window the params ask for, with defaults.
func (p Params) Paging() PageLimitOffset {
	return NewPageLimitOffset(p.PerPage, p.Page)
}

// Apply loads params into the Spec: relations, default projection,
// filters, sort and the page window.
func (s *Spec) Apply(p Params) *Spec {
	rels, err := ParseRelations(p.Relations)
	if err != nil {
		s.errs = append(s.errs, err)
	} else {
		s.With(rels...)
	}
	return s.Attributes(p.Attributes...).
		Filters(p.Filters).
		Sort(p.Sort...).
		Page(p.Paging())
}
