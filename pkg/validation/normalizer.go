package validation

import (
	"strings"
	"unicode"
)

// CollapseSpace trims s and replaces every internal run of whitespace with
// a single space
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NameKey is the case-insensitive identity of a category or ingredient
// name. Two names with equal keys refer to the same row.
func NameKey(s string) string {
	return strings.ToLower(CollapseSpace(s))
}

// SplitTerms splits free text on commas, semicolons, newlines and the
// standalone word "and", returning lower-cased, de-duplicated terms in
// first-seen order
func SplitTerms(text string) []string {
	pieces := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})

	seen := make(map[string]bool)
	var terms []string
	for _, piece := range pieces {
		for _, part := range splitOnAnd(piece) {
			term := NameKey(part)
			if term == "" || seen[term] {
				continue
			}
			seen[term] = true
			terms = append(terms, term)
		}
	}
	return terms
}

// splitOnAnd splits on the whole word "and" in any case
func splitOnAnd(s string) []string {
	words := strings.FieldsFunc(s, unicode.IsSpace)
	var (
		parts   []string
		current []string
	)
	for _, w := range words {
		if strings.EqualFold(w, "and") {
			parts = append(parts, strings.Join(current, " "))
			current = current[:0]
			continue
		}
		current = append(current, w)
	}
	return append(parts, strings.Join(current, " "))
}
