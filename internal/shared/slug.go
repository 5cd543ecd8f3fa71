package shared

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeSlug canonicalises a slug so that Devanagari and Latin input typed with
// different normalisation forms or letter case compare equal.
func NormalizeSlug(raw string) string {
	s := norm.NFC.String(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	// Casers carry state; build one per call.
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), "-")
}

// NormalizeSlugs normalises and deduplicates a slug list, dropping blanks.
// Input order is preserved for the first occurrence of each slug.
func NormalizeSlugs(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		s := NormalizeSlug(r)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// NormalizeTitle collapses whitespace and applies NFC to a display title.
func NormalizeTitle(raw string) string {
	return norm.NFC.String(strings.Join(strings.Fields(raw), " "))
}
