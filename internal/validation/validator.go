package validation

import (
	"context"
	"fmt"
	"net/mail"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/repokit/internal/queryir"
	"github.com/roach88/repokit/internal/record"
)

// Counter answers the store lookups behind the unique and exists rules.
type Counter interface {
	Count(ctx context.Context, q queryir.Count) (int64, error)
}

// RuleValidator is the built-in Validator. It understands:
//
//	required nullable string numeric integer alpha alpha_num alpha_dash
//	email min max between in not_in confirmed regex unique exists
//
// unique and exists need a Counter; without one they are reported as
// errors.
//
// Rules other than required and confirmed are skipped for attributes that
// are absent, nil or an empty string.
type RuleValidator struct {
	counter Counter
}

var _ Validator = (*RuleValidator)(nil)

// NewRuleValidator creates a validator. counter may be nil when no rule
// needs the store.
func NewRuleValidator(counter Counter) *RuleValidator {
	return &RuleValidator{counter: counter}
}

type rule struct {
	name   string
	params []string
}

func parseRules(expr string) []rule {
	var out []rule
	for _, part := range strings.Split(expr, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, params, hasParams := strings.Cut(part, ":")
		r := rule{name: strings.ToLower(name)}
		if hasParams {
			if r.name == "regex" {
				r.params = []string{params}
			} else {
				r.params = strings.Split(params, ",")
				for i := range r.params {
					r.params[i] = strings.TrimSpace(r.params[i])
				}
			}
		}
		out = append(out, r)
	}
	return out
}

// Validate checks every attribute in rules and returns all messages, in
// attribute order.
func (v *RuleValidator) Validate(ctx context.Context, attrs map[string]any, rules RuleSet) ([]string, error) {
	var messages []string
	for _, attr := range rules.Attributes() {
		msgs, err := v.validateAttribute(ctx, attr, attrs, parseRules(rules[attr]))
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", attr, err)
		}
		messages = append(messages, msgs...)
	}
	return messages, nil
}

func (v *RuleValidator) validateAttribute(ctx context.Context, attr string, attrs map[string]any, rules []rule) ([]string, error) {
	value, present := attrs[attr]
	label := strings.ReplaceAll(attr, "_", " ")
	numeric := hasRule(rules, "numeric") || hasRule(rules, "integer")

	var messages []string
	for _, r := range rules {
		switch r.name {
		case "required":
			if !present || isEmptyValue(value) {
				messages = append(messages, fmt.Sprintf("The %s field is required.", label))
			}
			continue
		case "confirmed":
			if present && !record.Equal(value, attrs[attr+"_confirmation"]) {
				messages = append(messages, fmt.Sprintf("The %s confirmation does not match.", label))
			}
			continue
		case "nullable":
			continue
		}

		if !present || isEmptyValue(value) {
			continue
		}

		msg, err := v.check(ctx, r, attr, label, value, numeric)
		if err != nil {
			return nil, err
		}
		if msg != "" {
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

func (v *RuleValidator) check(ctx context.Context, r rule, attr, label string, value any, numeric bool) (string, error) {
	switch r.name {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Sprintf("The %s must be a string.", label), nil
		}
	case "numeric":
		if _, ok := toFloat(value); !ok {
			return fmt.Sprintf("The %s must be a number.", label), nil
		}
	case "integer":
		if !isInteger(value) {
			return fmt.Sprintf("The %s must be an integer.", label), nil
		}
	case "alpha":
		if !allRunes(value, unicode.IsLetter) {
			return fmt.Sprintf("The %s may only contain letters.", label), nil
		}
	case "alpha_num":
		if !allRunes(value, func(c rune) bool { return unicode.IsLetter(c) || unicode.IsDigit(c) }) {
			return fmt.Sprintf("The %s may only contain letters and numbers.", label), nil
		}
	case "alpha_dash":
		if !allRunes(value, func(c rune) bool { return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '-' || c == '_' }) {
			return fmt.Sprintf("The %s may only contain letters, numbers, dashes and underscores.", label), nil
		}
	case "email":
		s, _ := value.(string)
		addr, err := mail.ParseAddress(s)
		if err != nil || addr.Address != s {
			return fmt.Sprintf("The %s must be a valid email address.", label), nil
		}
	case "min", "max":
		if len(r.params) != 1 {
			return "", fmt.Errorf("rule %s needs one parameter", r.name)
		}
		limit, err := strconv.ParseFloat(r.params[0], 64)
		if err != nil {
			return "", fmt.Errorf("rule %s: %w", r.name, err)
		}
		size, unit := sizeOf(value, numeric)
		if r.name == "min" && size < limit {
			return fmt.Sprintf("The %s must be at least %s%s.", label, r.params[0], unit), nil
		}
		if r.name == "max" && size > limit {
			return fmt.Sprintf("The %s may not be greater than %s%s.", label, r.params[0], unit), nil
		}
	case "between":
		if len(r.params) != 2 {
			return "", fmt.Errorf("rule between needs two parameters")
		}
		lo, err1 := strconv.ParseFloat(r.params[0], 64)
		hi, err2 := strconv.ParseFloat(r.params[1], 64)
		if err1 != nil || err2 != nil {
			return "", fmt.Errorf("rule between: invalid bounds %v", r.params)
		}
		size, unit := sizeOf(value, numeric)
		if size < lo || size > hi {
			return fmt.Sprintf("The %s must be between %s and %s%s.", label, r.params[0], r.params[1], unit), nil
		}
	case "in", "not_in":
		found := false
		s := fmt.Sprint(record.Normalize(value))
		for _, p := range r.params {
			if p == s {
				found = true
				break
			}
		}
		if found != (r.name == "in") {
			return fmt.Sprintf("The selected %s is invalid.", label), nil
		}
	case "regex":
		if len(r.params) != 1 {
			return "", fmt.Errorf("rule regex needs a pattern")
		}
		re, err := regexp.Compile(stripDelimiters(r.params[0]))
		if err != nil {
			return "", fmt.Errorf("rule regex: %w", err)
		}
		if !re.MatchString(fmt.Sprint(value)) {
			return fmt.Sprintf("The %s format is invalid.", label), nil
		}
	case "unique":
		n, err := v.count(ctx, r, attr, value, true)
		if err != nil {
			return "", err
		}
		if n > 0 {
			return fmt.Sprintf("The %s has already been taken.", label), nil
		}
	case "exists":
		n, err := v.count(ctx, r, attr, value, false)
		if err != nil {
			return "", err
		}
		if n == 0 {
			return fmt.Sprintf("The selected %s is invalid.", label), nil
		}
	default:
		return "", fmt.Errorf("unknown validation rule %q", r.name)
	}
	return "", nil
}

// count runs the lookup behind unique and exists.
//
//	unique:table[,column[,except[,idColumn[,col,val]...]]]
//	exists:table[,column[,col,val]...]
//
// An except of NULL (or empty) excludes nothing. Extra val NULL and
// NOT_NULL constrain nullity.
func (v *RuleValidator) count(ctx context.Context, r rule, attr string, value any, unique bool) (int64, error) {
	if v.counter == nil {
		return 0, fmt.Errorf("rule %s needs a store", r.name)
	}
	if len(r.params) == 0 || r.params[0] == "" {
		return 0, fmt.Errorf("rule %s needs a table", r.name)
	}

	table := r.params[0]
	column := attr
	if len(r.params) > 1 && r.params[1] != "" {
		column = r.params[1]
	}
	preds := []queryir.Predicate{queryir.In{Field: column, Values: []any{value}}}

	extra := r.params[min(2, len(r.params)):]
	if unique {
		var except, idColumn string
		if len(r.params) > 2 {
			except = r.params[2]
		}
		idColumn = record.DefaultKey
		if len(r.params) > 3 && r.params[3] != "" {
			idColumn = r.params[3]
		}
		if except != "" && !strings.EqualFold(except, NullToken) {
			preds = append(preds, queryir.NotIn{Field: idColumn, Values: []any{except}})
		}
		extra = r.params[min(4, len(r.params)):]
	}

	if len(extra)%2 != 0 {
		return 0, fmt.Errorf("rule %s: extra conditions must be column,value pairs", r.name)
	}
	for i := 0; i < len(extra); i += 2 {
		col, val := extra[i], extra[i+1]
		switch strings.ToUpper(val) {
		case NullToken:
			preds = append(preds, queryir.IsNull{Field: col})
		case "NOT_NULL":
			preds = append(preds, queryir.NotNull{Field: col})
		default:
			preds = append(preds, queryir.In{Field: col, Values: []any{val}})
		}
	}

	n, err := v.counter.Count(ctx, queryir.Count{From: table, Filter: queryir.And{Predicates: preds}})
	if err != nil {
		return 0, fmt.Errorf("rule %s: %w", r.name, err)
	}
	return n, nil
}

func hasRule(rules []rule, name string) bool {
	for _, r := range rules {
		if r.name == name {
			return true
		}
	}
	return false
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := record.Normalize(v).(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func isInteger(v any) bool {
	switch n := record.Normalize(v).(type) {
	case int64:
		return true
	case string:
		_, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return err == nil
	default:
		return false
	}
}

// sizeOf measures a value the way min, max and between compare it: numbers
// by value, strings by character count, lists by length.
func sizeOf(v any, numeric bool) (float64, string) {
	if numeric {
		if f, ok := toFloat(v); ok {
			return f, ""
		}
	}
	switch val := record.Normalize(v).(type) {
	case int64:
		return float64(val), ""
	case float64:
		return val, ""
	case string:
		return float64(utf8.RuneCountInString(val)), " characters"
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array || rv.Kind() == reflect.Map {
		return float64(rv.Len()), " items"
	}
	return 0, ""
}

func allRunes(v any, ok func(rune) bool) bool {
	s, isString := v.(string)
	if !isString {
		s = fmt.Sprint(record.Normalize(v))
	}
	for _, c := range s {
		if !ok(c) {
			return false
		}
	}
	return true
}

func stripDelimiters(pattern string) string {
	if len(pattern) >= 2 && pattern[0] == '/' {
		if end := strings.LastIndex(pattern, "/"); end > 0 {
			return pattern[1:end]
		}
	}
	return pattern
}
