package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/comparador-uy/backend/internal/domain"
)

func candidate(name, slug string) domain.Candidate {
	return domain.Candidate{ProductName: name, LinkText: slug}
}

func TestScore(t *testing.T) {
	testCases := []struct {
		name      string
		query     string
		candidate domain.Candidate
		want      int
	}{
		{
			name:      "tokens and exact size",
			query:     "harina 0000 1kg pity",
			candidate: candidate("Harina 0000 Pity 1kg", "harina-0000-pity-1kg"),
			want:      6, // 4 tokens + size
		},
		{
			name:      "brand bonus",
			query:     "cololo",
			candidate: candidate("Yerba Cololo 500g", ""),
			want:      3,
		},
		{
			name:      "no brand bonus without a brand in the query",
			query:     "arroz",
			candidate: candidate("Arroz Cololo", ""),
			want:      1,
		},
		{
			name:      "tokens match inside the slug",
			query:     "fideos tirabuzon",
			candidate: candidate("Fideos", "fideos-tirabuzon-500g"),
			want:      2,
		},
		{
			name:      "nothing in common",
			query:     "aceite",
			candidate: candidate("Arroz blanco", "arroz-blanco"),
			want:      0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := NewNormalizedQuery(tc.query, domain.DefaultBrands)
			assert.Equal(t, tc.want, Score(tc.candidate, q, domain.DefaultBrands))
		})
	}
}

func TestScore_Monotonic(t *testing.T) {
	q := NewNormalizedQuery("yerba cololo 1kg", domain.DefaultBrands)

	without := Score(candidate("Yerba 1kg", ""), q, domain.DefaultBrands)
	with := Score(candidate("Yerba Cololo 1kg", ""), q, domain.DefaultBrands)

	assert.GreaterOrEqual(t, with, without)
	assert.Equal(t, 7, with)
}

func TestScore_SizeProximity(t *testing.T) {
	q := NewNormalizedQuery("harina 1kg", domain.DefaultBrands)

	testCases := []struct {
		name      string
		candidate string
		want      int
	}{
		{"5 percent off", "Harina 950g", 3},
		{"15 percent off", "Harina 1150g", 2},
		{"30 percent off", "Harina 1300g", 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Score(candidate(tc.candidate, ""), q, domain.DefaultBrands))
		})
	}
}

func TestSizeBonus(t *testing.T) {
	testCases := []struct {
		name      string
		query     SizeSet
		candidate SizeSet
		want      int
	}{
		{"5 percent", SizeSet{1000}, SizeSet{950}, 2},
		{"10 percent", SizeSet{1000}, SizeSet{1100}, 2},
		{"15 percent", SizeSet{1000}, SizeSet{1150}, 1},
		{"30 percent", SizeSet{1000}, SizeSet{1300}, 0},
		{"closest pair wins", SizeSet{500, 1000}, SizeSet{2000, 1020}, 2},
		{"empty query", SizeSet{}, SizeSet{1000}, 0},
		{"empty candidate", SizeSet{1000}, SizeSet{}, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sizeBonus(tc.query, tc.candidate))
		})
	}
}

func TestScore_VolumeIndependentOfMass(t *testing.T) {
	q := NewNormalizedQuery("aceite 1l", domain.DefaultBrands)

	assert.Equal(t, 1, Score(candidate("Aceite 1kg", ""), q, domain.DefaultBrands))
	assert.Equal(t, 3, Score(candidate("Aceite 1000 ml", ""), q, domain.DefaultBrands))
}
