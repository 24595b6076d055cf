package usecase

import (
	"strings"

	"github.com/comparador-uy/backend/internal/domain"
)

// ExtractOffer walks the candidate's items and sellers; the first offer with a
// price wins. A missing or zero list price falls back to the price and a
// missing availability flag counts as available. Without any priced offer it
// returns an empty, unavailable Offer.
func ExtractOffer(c *domain.Candidate) domain.Offer {
	if c == nil {
		return domain.Offer{}
	}

	for _, item := range c.Items {
		for _, seller := range item.Sellers {
			offer := seller.CommertialOffer
			if offer == nil || offer.Price == nil {
				continue
			}

			price := *offer.Price
			listPrice := price
			if offer.ListPrice != nil && *offer.ListPrice != 0 {
				listPrice = *offer.ListPrice
			}
			available := true
			if offer.IsAvailable != nil {
				available = *offer.IsAvailable
			}

			return domain.Offer{
				Price:     &price,
				ListPrice: &listPrice,
				Available: available,
			}
		}
	}

	return domain.Offer{}
}

// BuildProductURL returns base + "/" + slug + "/p", or "" when the candidate has no slug
func BuildProductURL(base string, c *domain.Candidate) string {
	if c == nil {
		return ""
	}
	slug := strings.Trim(c.LinkText, "/")
	if slug == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + slug + "/p"
}

// CandidateName returns the display name, falling back to the readable slug
func CandidateName(c *domain.Candidate) string {
	if c == nil {
		return ""
	}
	if name := strings.TrimSpace(c.ProductName); name != "" {
		return name
	}
	return Normalize(c.LinkText)
}
