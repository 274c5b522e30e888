package retriever

import (
	"regexp"
	"strings"
)

const maxQueryRunes = 500

var disallowedQueryChars = regexp.MustCompile(`[^\p{L}\p{N}_\s.,;:¿?¡!]`)

// CleanQuery drops symbols and control characters, collapses whitespace and
// caps the query length.
func CleanQuery(q string) string {
	q = disallowedQueryChars.ReplaceAllString(q, " ")
	q = strings.Join(strings.Fields(q), " ")
	if r := []rune(q); len(r) > maxQueryRunes {
		q = strings.TrimSpace(string(r[:maxQueryRunes]))
	}
	return q
}
