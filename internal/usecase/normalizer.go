package usecase

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/comparador-uy/backend/internal/domain"
)

// Compiled regex patterns for size and noise detection
var (
	massPattern   = regexp.MustCompile(`(\d+)\s*(kg|gr|g)s?\b`)
	volumePattern = regexp.MustCompile(`(\d+)\s*(ml|lts|lt|litros|litro|l)\b`)

	// Matches a size glued to its unit, e.g. "1kg", "500grs", "2lt"
	sizeTokenPattern = regexp.MustCompile(`^\d+(kgs?|grs?|g|ml|lts?|l)$`)

	// Matches pack counts like "x6", "x12"
	packCountTokenPattern = regexp.MustCompile(`^x\d+$`)
)

// stopWords are Spanish articles and prepositions that carry no product signal
var stopWords = map[string]bool{
	"de": true, "la": true, "el": true, "los": true, "las": true,
	"un": true, "una": true, "con": true, "en": true, "a": true,
	"y": true, "x": true, "sin": true, "al": true, "por": true,
	"para": true, "del": true,
}

// packagingWords are packaging nouns that never identify a product
var packagingWords = map[string]bool{
	"pack": true, "pct": true, "bolsa": true, "frasco": true,
	"bot": true, "pet": true, "unidad": true, "un": true,
}

// "0000" is a flour grade only when the query talks about flour
const (
	flourGradeToken = "0000"
	flourToken      = "harina"
)

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// Normalize lowercases text, removes diacritics, replaces punctuation with
// spaces and collapses whitespace. Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	if decomposed, _, err := transform.String(stripMarks, s); err == nil {
		s = decomposed
	}
	// Compatibility decomposition can surface uppercase letters (e.g. "ℌ").
	s = strings.ToLower(s)

	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, s)

	return strings.Join(strings.Fields(s), " ")
}

// SizeSet is a sorted set of sizes in a single base unit (grams or milliliters)
type SizeSet []int

func newSizeSet(values map[int]bool) SizeSet {
	set := make(SizeSet, 0, len(values))
	for v := range values {
		set = append(set, v)
	}
	sort.Ints(set)
	return set
}

// Min returns the smallest size, or 0 for an empty set
func (s SizeSet) Min() int {
	if len(s) == 0 {
		return 0
	}
	return s[0]
}

// ExtractSizes finds embedded quantities. Masses are returned in grams and
// volumes in milliliters, so "1kg" and "1000g" yield the same set.
func ExtractSizes(text string) (mass SizeSet, volume SizeSet) {
	t := Normalize(text)

	masses := make(map[int]bool)
	for _, m := range massPattern.FindAllStringSubmatch(t, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if m[2] == "kg" {
			n *= 1000
		}
		masses[n] = true
	}

	volumes := make(map[int]bool)
	for _, m := range volumePattern.FindAllStringSubmatch(t, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if m[2] != "ml" {
			n *= 1000
		}
		volumes[n] = true
	}

	return newSizeSet(masses), newSizeSet(volumes)
}

// IsNoise reports whether a normalized token carries no product signal
func IsNoise(token string) bool {
	switch {
	case stopWords[token]:
		return true
	case packagingWords[token]:
		return true
	case sizeTokenPattern.MatchString(token):
		return true
	case packCountTokenPattern.MatchString(token):
		return true
	}
	return false
}

// NormalizedQuery is the derived, immutable view of a raw query
type NormalizedQuery struct {
	Raw      string
	Text     string   // Normalize(Raw), used for cache keys
	Tokens   []string // normalized tokens after the flour grade rule
	Mass     SizeSet  // grams
	Volume   SizeSet  // milliliters
	HasBrand bool
}

// NewNormalizedQuery derives the token stream, sizes and brand flag of a query
func NewNormalizedQuery(raw string, brands domain.BrandVocabulary) NormalizedQuery {
	text := Normalize(raw)
	tokens := applyFlourGradeRule(strings.Fields(text))
	mass, volume := ExtractSizes(raw)

	hasBrand := false
	for _, tok := range tokens {
		if brands.Contains(tok) {
			hasBrand = true
			break
		}
	}

	return NormalizedQuery{
		Raw:      raw,
		Text:     text,
		Tokens:   tokens,
		Mass:     mass,
		Volume:   volume,
		HasBrand: hasBrand,
	}
}

// SignalTokens returns the tokens that are not noise, in query order
func (q NormalizedQuery) SignalTokens() []string {
	signal := make([]string, 0, len(q.Tokens))
	for _, tok := range q.Tokens {
		if !IsNoise(tok) {
			signal = append(signal, tok)
		}
	}
	return signal
}

// applyFlourGradeRule drops "0000" unless "harina" is also present
func applyFlourGradeRule(tokens []string) []string {
	hasGrade, hasFlour := false, false
	for _, tok := range tokens {
		switch tok {
		case flourGradeToken:
			hasGrade = true
		case flourToken:
			hasFlour = true
		}
	}
	if !hasGrade || hasFlour {
		return tokens
	}

	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok != flourGradeToken {
			kept = append(kept, tok)
		}
	}
	return kept
}
