package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldLabel lower-cases a label and strips diacritics so "Alimentación"
// and "alimentacion" compare equal.
func FoldLabel(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// LabelMatches reports whether the folded label contains any folded keyword.
func LabelMatches(label string, keywords []string) bool {
	l := FoldLabel(label)
	if l == "" {
		return false
	}
	for _, k := range keywords {
		k = FoldLabel(k)
		if k != "" && strings.Contains(l, k) {
			return true
		}
	}
	return false
}
