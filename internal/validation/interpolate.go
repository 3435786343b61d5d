package validation

import (
	"fmt"
	"regexp"

	"github.com/roach88/repokit/internal/record"
)

// NullToken replaces a key placeholder while the record has no key.
const NullToken = "NULL"

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Placeholders returns the attribute names referenced by a rule, in order
// of appearance.
func Placeholders(rule string) []string {
	matches := placeholderRe.FindAllStringSubmatch(rule, -1)
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m[1]
	}
	return names
}

// Interpolate substitutes {name} placeholders in every rule with the value
// of that attribute in attrs. A placeholder naming keyName resolves to
// NullToken when the key is absent or blank. Any other absent or nil
// attribute resolves to an empty string.
func Interpolate(rules RuleSet, attrs map[string]any, keyName string) RuleSet {
	out := make(RuleSet, len(rules))
	for attr, rule := range rules {
		out[attr] = placeholderRe.ReplaceAllStringFunc(rule, func(token string) string {
			name := token[1 : len(token)-1]
			v, ok := attrs[name]
			if name == keyName && (!ok || record.IsBlank(v)) {
				return NullToken
			}
			if !ok || v == nil {
				return ""
			}
			return fmt.Sprint(record.Normalize(v))
		})
	}
	return out
}
