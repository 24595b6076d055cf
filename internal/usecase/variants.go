package usecase

import (
	"strings"

	"github.com/comparador-uy/backend/internal/domain"
)

// minSingleTokenLength is the shortest signal token tried on its own
const minSingleTokenLength = 4

// BuildVariants returns the search strings to try for a query, from most to
// least specific, without duplicates:
//  1. the full token sequence
//  2. the noise-filtered sequence
//  3. the first two filtered tokens, and the same two reversed
//  4. the first brand token
//  5. every filtered token of at least four characters
func BuildVariants(q NormalizedQuery, brands domain.BrandVocabulary) []string {
	variants := make([]string, 0, 8)
	seen := make(map[string]bool)
	add := func(tokens ...string) {
		s := strings.TrimSpace(strings.Join(tokens, " "))
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		variants = append(variants, s)
	}

	signal := q.SignalTokens()

	add(q.Tokens...)
	add(signal...)

	if len(signal) >= 2 {
		add(signal[0], signal[1])
		// "brand product" vs "product brand" phrasing
		add(signal[1], signal[0])
	}

	for _, tok := range signal {
		if brands.Contains(tok) {
			add(tok)
			break
		}
	}

	for _, tok := range signal {
		if len([]rune(tok)) >= minSingleTokenLength {
			add(tok)
		}
	}

	return variants
}
