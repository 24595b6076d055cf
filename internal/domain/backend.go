package domain

import "strings"

// Default endpoint shapes shared by the storefronts we compare against
const (
	DefaultSearchPath     = "/api/catalog_system/pub/products/search"
	DefaultSearchPagePath = "/busca"
	DefaultPageSize       = 50
)

// DefaultBrands is the brand vocabulary used when a backend does not configure its own
var DefaultBrands = BrandVocabulary{
	"emigrante", "shiva", "maggi", "knorr", "costa", "cololo", "cocinero",
	"alco", "himalaya", "bella", "union", "bella union", "arcor", "nativa",
	"yerba", "delicias", "cimarron", "marolio", "adonis", "san remo",
}

// BrandVocabulary is a closed list of normalized brand terms
type BrandVocabulary []string

// Contains reports whether token is exactly one of the brand terms
func (b BrandVocabulary) Contains(token string) bool {
	for _, brand := range b {
		if brand == token {
			return true
		}
	}
	return false
}

// MentionedIn reports whether any brand term appears as a substring of text
func (b BrandVocabulary) MentionedIn(text string) bool {
	for _, brand := range b {
		if brand != "" && strings.Contains(text, brand) {
			return true
		}
	}
	return false
}

// Backend is one target storefront and the endpoint shapes used to query it
type Backend struct {
	Key            string
	BaseURL        string
	SearchPath     string
	SearchPagePath string
	PageSize       int
	Brands         BrandVocabulary
}

// Base returns the base URL without a trailing slash
func (b Backend) Base() string {
	return strings.TrimRight(b.BaseURL, "/")
}
