package query

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/repokit/internal/queryir"
)

// SearchPattern turns input into a LIKE pattern with a wildcard around
// every character, so "rn" becomes "%r%n%" and matches any value holding
// r followed anywhere later by n. Input is NFC-normalized first so composed
// and decomposed forms of the same text produce the same pattern. LIKE
// metacharacters in input are not escaped.
func SearchPattern(input string) string {
	runes := []rune(norm.NFC.String(input))
	var b strings.Builder
	b.WriteByte('%')
	for _, r := range runes {
		b.WriteRune(r)
		b.WriteByte('%')
	}
	if len(runes) == 0 {
		b.WriteByte('%')
	}
	return b.String()
}

// SearchPredicate matches rows where any of columns fuzzily contains input.
func SearchPredicate(columns []string, input string) queryir.Predicate {
	return queryir.Fuzzy{Fields: columns, Pattern: SearchPattern(input)}
}
