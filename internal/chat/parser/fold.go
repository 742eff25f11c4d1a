// Package parser holds the pure text functions of the reservation chat:
// the date parser, the intent classifiers and the field extractors.
// Nothing here does I/O; every function is safe for concurrent use.
package parser

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s, trims it and strips diacritics, so "Mañana" and
// "manana" compare equal. Transformers keep state, so one is built per call.
func Fold(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, lower)
	if err != nil {
		return lower
	}
	return out
}

// containsAny reports whether folded text contains any of the folded phrases.
func containsAny(folded string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(folded, p) {
			return true
		}
	}
	return false
}

// hasWord reports whether word appears in folded as a whole token.
func hasWord(folded, word string) bool {
	for _, tok := range strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if tok == word {
			return true
		}
	}
	return false
}

func foldAll(words []string) []string {
	out := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		f := Fold(w)
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Mentions reports whether text contains any of words, ignoring case and
// accents. Words are matched as substrings.
func Mentions(text string, words ...string) bool {
	return containsAny(Fold(text), foldAll(words))
}
