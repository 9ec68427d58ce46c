package matching

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName prepares a name for comparison.
// Accents are folded, letters lowercased and everything other than letters
// and digits dropped, spaces included, so "Al B" and "AlB" compare equal.
func NormalizeName(name string) string {
	folded, _, err := transform.String(accentFolder(), name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// accentFolder strips combining marks after canonical decomposition.
// A transformer carries state so each call gets its own.
func accentFolder() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// LevenshteinDistance returns the edit distance between two strings, counted in runes
func LevenshteinDistance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// CalculateSimilarity scores two names in [0, 1] where 1 means identical after
// normalization. Two empty names are identical.
func CalculateSimilarity(name1, name2 string) float64 {
	a := NormalizeName(name1)
	b := NormalizeName(name2)

	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1.0
	}

	dist := LevenshteinDistance(a, b)
	return float64(maxLen-dist) / float64(maxLen)
}
