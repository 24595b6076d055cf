package usecase

import (
	"strings"

	"github.com/comparador-uy/backend/internal/domain"
)

// Scoring bonuses
const (
	brandMatchBonus = 2
	sizeCloseBonus  = 2 // relative size difference within sizeCloseRatio
	sizeNearBonus   = 1 // relative size difference within sizeNearRatio
	sizeCloseRatio  = 0.10
	sizeNearRatio   = 0.20
)

// Score rates how well a candidate fits a query. It is a non-negative integer:
//   - +1 per query token found in the normalized candidate name and slug
//   - +2 when the query names a brand and the candidate name mentions any brand
//   - up to +2 each for mass and volume proximity
//
// Adding a matching token, brand or compatible size never lowers the score.
func Score(c domain.Candidate, q NormalizedQuery, brands domain.BrandVocabulary) int {
	name := Normalize(c.ProductName + " " + c.LinkText)

	score := 0
	for _, tok := range q.Tokens {
		if tok != "" && strings.Contains(name, tok) {
			score++
		}
	}

	if q.HasBrand && brands.MentionedIn(name) {
		score += brandMatchBonus
	}

	candidateMass, candidateVolume := ExtractSizes(name)
	score += sizeBonus(q.Mass, candidateMass)
	score += sizeBonus(q.Volume, candidateVolume)

	return score
}

// sizeBonus compares the closest pair of sizes relative to the smallest query size
func sizeBonus(query, candidate SizeSet) int {
	if len(query) == 0 || len(candidate) == 0 {
		return 0
	}
	smallest := query.Min()
	if smallest <= 0 {
		return 0
	}

	diff := -1
	for _, a := range query {
		for _, b := range candidate {
			d := a - b
			if d < 0 {
				d = -d
			}
			if diff < 0 || d < diff {
				diff = d
			}
		}
	}

	ratio := float64(diff) / float64(smallest)
	switch {
	case ratio <= sizeCloseRatio:
		return sizeCloseBonus
	case ratio <= sizeNearRatio:
		return sizeNearBonus
	default:
		return 0
	}
}
