package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/repokit/internal/record"
	"github.com/roach88/repokit/internal/validation"
)

// CompileEntity parses a CUE value into an Entity and its rules.
//
// The CUE value should be the entity struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`entity: Spy: { table: "spies" }`)
//	e, rules, err := CompileEntity(v.LookupPath(cue.ParsePath("entity.Spy")))
func CompileEntity(v cue.Value) (*record.Entity, validation.StaticRules, error) {
	var rules validation.StaticRules
	if err := v.Err(); err != nil {
		return nil, rules, formatCUEError(err)
	}

	e := &record.Entity{}

	// Entity name from struct label
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		e.Name = labels[len(labels)-1].String()
	}

	var err error
	if e.Table, err = optionalString(v, "table"); err != nil {
		return nil, rules, err
	}
	if e.Key, err = optionalString(v, "key"); err != nil {
		return nil, rules, err
	}
	keyType, err := optionalString(v, "key_type")
	if err != nil {
		return nil, rules, err
	}
	e.KeyType = record.KeyType(keyType)
	if e.Columns, err = optionalStrings(v, "columns"); err != nil {
		return nil, rules, err
	}
	if e.Fillable, err = optionalStrings(v, "fillable"); err != nil {
		return nil, rules, err
	}

	tsVal := v.LookupPath(cue.ParsePath("timestamps"))
	if tsVal.Exists() {
		if e.Timestamps, err = tsVal.Bool(); err != nil {
			return nil, rules, formatCUEError(err)
		}
	}

	if e.Associations, err = parseAssociations(v); err != nil {
		return nil, rules, err
	}

	rules, err = parseRules(v)
	if err != nil {
		return nil, rules, err
	}
	return e, rules, nil
}

// parseAssociations extracts associations in declaration order.
func parseAssociations(v cue.Value) ([]record.Association, error) {
	assocVal := v.LookupPath(cue.ParsePath("associations"))
	if !assocVal.Exists() {
		return nil, nil // associations are optional
	}

	iter, err := assocVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var assocs []record.Association
	for iter.Next() {
		av := iter.Value()
		a := record.Association{Name: iter.Label()}

		kind, err := optionalString(av, "kind")
		if err != nil {
			return nil, err
		}
		if kind == "" {
			return nil, &CompileError{
				Field:   fmt.Sprintf("associations.%s.kind", a.Name),
				Message: "association kind is required",
				Pos:     av.Pos(),
			}
		}
		a.Kind = record.Kind(kind)

		if a.Entity, err = optionalString(av, "entity"); err != nil {
			return nil, err
		}
		if a.Entity == "" {
			return nil, &CompileError{
				Field:   fmt.Sprintf("associations.%s.entity", a.Name),
				Message: "association entity is required",
				Pos:     av.Pos(),
			}
		}
		if a.ForeignKey, err = optionalString(av, "foreign_key"); err != nil {
			return nil, err
		}
		if a.OwnerKey, err = optionalString(av, "owner_key"); err != nil {
			return nil, err
		}
		assocs = append(assocs, a)
	}
	return assocs, nil
}

// parseRules extracts the default, create and update rule sets.
func parseRules(v cue.Value) (validation.StaticRules, error) {
	var rules validation.StaticRules
	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return rules, nil
	}

	var err error
	if rules.Default, err = parseRuleSet(rulesVal, "default"); err != nil {
		return rules, err
	}
	if rules.Create, err = parseRuleSet(rulesVal, "create"); err != nil {
		return rules, err
	}
	if rules.Update, err = parseRuleSet(rulesVal, "update"); err != nil {
		return rules, err
	}
	return rules, nil
}

func parseRuleSet(v cue.Value, name string) (validation.RuleSet, error) {
	setVal := v.LookupPath(cue.ParsePath(name))
	if !setVal.Exists() {
		return nil, nil
	}
	iter, err := setVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	set := validation.RuleSet{}
	for iter.Next() {
		rule, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("rules.%s.%s", name, iter.Label()),
				Message: "rule must be a string",
				Pos:     iter.Value().Pos(),
			}
		}
		set[iter.Label()] = rule
	}
	return set, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{Field: field, Message: "must be a string", Pos: fv.Pos()}
	}
	return s, nil
}

func optionalStrings(v cue.Value, field string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "must be a list of strings", Pos: fv.Pos()}
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: field, Message: "must be a list of strings", Pos: iter.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
