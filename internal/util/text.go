package util

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Fold returns s in NFC form and lowercased, so that lexical matching treats
// "Mäklare" typed with a combining diaeresis the same as the composed form.
// A Caser is stateful, so one is built per call.
func Fold(s string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}

// ContainsFold reports whether needle occurs in haystack after folding both.
func ContainsFold(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}

// ContainsAnyFold returns the first needle found in haystack after folding,
// or "" when none match.
func ContainsAnyFold(haystack string, needles []string) string {
	folded := Fold(haystack)
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(folded, Fold(n)) {
			return n
		}
	}
	return ""
}
