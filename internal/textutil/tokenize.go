// Package textutil provides the tokenization shared by the scoring and
// validation engines, so keyword and gazetteer rules match on normalized
// tokens instead of ad hoc substring idioms.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonTokenChars = regexp.MustCompile(`[^\pL\pN\s]+`)

// Tokenize splits free-form text into lower-case tokens with unicode
// normalization and diacritic folding, so "Köln" and "Koln" match the same
// gazetteer entry.
func Tokenize(text string) []string {
	// the transform chain carries state and must not be shared across calls
	normFunc := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	bare := strings.ToLower(nonTokenChars.ReplaceAllString(text, " "))
	folded, _, err := transform.String(normFunc, bare)
	if err != nil {
		folded = bare
	}
	return strings.Fields(folded)
}

// Fold lower-cases and de-accents a phrase without splitting it, for
// case-insensitive substring matching of multi-word gazetteer entries.
func Fold(text string) string {
	normFunc := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(normFunc, strings.ToLower(text))
	if err != nil {
		return strings.ToLower(text)
	}
	return folded
}

// Sentences splits text into non-empty sentence fragments on terminal
// punctuation.
func Sentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return out
}
