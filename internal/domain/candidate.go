package domain

import "time"

// Tier identifies the retrieval strategy a candidate came from
type Tier string

const (
	TierCatalog    Tier = "catalog"     // structured catalog search endpoint
	TierSearchPage Tier = "search_page" // server-rendered search results scrape
	TierBrowser    Tier = "browser"     // headless browser automation
)

// CommercialOffer is the priced part of a seller entry.
// Fields are pointers so a missing value can be told apart from zero.
type CommercialOffer struct {
	Price       *float64 `json:"Price"`
	ListPrice   *float64 `json:"ListPrice"`
	IsAvailable *bool    `json:"IsAvailable"`
}

// Seller is one seller of a catalog item
type Seller struct {
	// The storefront API spells the field this way.
	CommertialOffer *CommercialOffer `json:"commertialOffer"`
}

// Item is one SKU of a catalog product
type Item struct {
	Sellers []Seller `json:"sellers"`
}

// Candidate is a catalog product record returned by a retrieval tier.
// Candidates are read-only once produced.
type Candidate struct {
	ProductName string `json:"productName"`
	LinkText    string `json:"linkText"`
	Items       []Item `json:"items"`
	Tier        Tier   `json:"tier,omitempty"`
}

// NewSyntheticCandidate builds a candidate for tiers that scrape HTML instead of
// reading the catalog. It carries a single available offer whose list price
// equals its price.
func NewSyntheticCandidate(name, slug string, price *float64, tier Tier) Candidate {
	available := true
	return Candidate{
		ProductName: name,
		LinkText:    slug,
		Items: []Item{{
			Sellers: []Seller{{
				CommertialOffer: &CommercialOffer{
					Price:       price,
					ListPrice:   price,
					IsAvailable: &available,
				},
			}},
		}},
		Tier: tier,
	}
}

// Offer is the flattened price and availability of a candidate
type Offer struct {
	Price     *float64 `json:"price"`
	ListPrice *float64 `json:"listPrice"`
	Available bool     `json:"available"`
}

// CacheEntry is a cached resolution. A nil Candidate records an explicit "no match".
type CacheEntry struct {
	Candidate *Candidate `json:"candidate"`
	StoredAt  time.Time  `json:"storedAt"`
}

// Fresh reports whether the entry is younger than ttl at the given instant
func (e *CacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
	return e != nil && now.Sub(e.StoredAt) < ttl
}
