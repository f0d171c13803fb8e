package search

import (
	"strings"
	"unicode"
)

// Words ignored when checking whether a page contains the query verbatim.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "do": true, "for": true, "from": true,
	"have": true, "in": true, "is": true, "it": true, "not": true, "of": true,
	"on": true, "or": true, "that": true, "the": true, "this": true, "to": true,
	"was": true, "what": true, "which": true, "with": true, "you": true,
}

// terms splits text on anything that is not a letter or digit, lowercases
// and drops stop words.
func terms(text string) []string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := words[:0]
	for _, w := range words {
		w = strings.ToLower(w)
		if !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

// containsAllQueryWords reports whether every significant query word occurs in
// the text. A query made only of stop words never matches.
func containsAllQueryWords(text, query string) bool {
	queryTerms := terms(query)
	if len(queryTerms) == 0 {
		return false
	}

	present := make(map[string]struct{})
	for _, t := range terms(text) {
		present[t] = struct{}{}
	}
	for _, t := range queryTerms {
		if _, ok := present[t]; !ok {
			return false
		}
	}
	return true
}
