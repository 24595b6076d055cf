package storefront

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/comparador-uy/backend/internal/domain"
)

var (
	listingHrefPattern  = regexp.MustCompile(`href=["']([^"']+/p)["']`)
	listingPricePattern = regexp.MustCompile(`\$ ?([\d.,]+)`)
)

// listingPriceWindow is how far after a product link its price may appear
const listingPriceWindow = 500

// productLinkSelector matches anchors pointing at product detail pages
const productLinkSelector = `a[href$="/p"]`

// Listing is a product link found on a search results page
type Listing struct {
	Href  string
	Slug  string
	Price *float64
}

// SearchPageSource scrapes the human-facing search results page and
// optionally follows the first product links for an accurate name and price
type SearchPageSource struct {
	client      *Client
	followPages int
	logger      zerolog.Logger
}

// NewSearchPageSource creates the search page tier. followPages product pages
// are re-parsed per search; zero disables the follow-up.
func NewSearchPageSource(client *Client, followPages int, logger zerolog.Logger) *SearchPageSource {
	if followPages < 0 {
		followPages = 0
	}
	return &SearchPageSource{client: client, followPages: followPages, logger: logger}
}

// Tier implements domain.CandidateSource
func (s *SearchPageSource) Tier() domain.Tier { return domain.TierSearchPage }

// Fetch implements domain.CandidateSource
func (s *SearchPageSource) Fetch(ctx context.Context, backend domain.Backend, search, storeHint string) ([]domain.Candidate, error) {
	var lastErr error
	for _, reqURL := range searchPageURLs(backend, search) {
		body, err := s.client.Get(ctx, reqURL)
		if err != nil {
			lastErr = err
			continue
		}

		listings, err := ParseListings(body, backend.Base())
		if err != nil {
			lastErr = err
			continue
		}
		if len(listings) == 0 {
			continue
		}

		s.logger.Debug().Str("url", reqURL).Int("listings", len(listings)).Msg("search page parsed")
		return s.buildCandidates(ctx, backend, listings), nil
	}
	return nil, lastErr
}

func (s *SearchPageSource) buildCandidates(ctx context.Context, backend domain.Backend, listings []Listing) []domain.Candidate {
	candidates := make([]domain.Candidate, 0, len(listings))
	for i, l := range listings {
		name := NameFromSlug(l.Slug)
		price := l.Price

		if i < s.followPages && ctx.Err() == nil {
			if page, ok := s.productPage(ctx, backend, l); ok {
				if page.Name != "" {
					name = page.Name
				}
				if page.Price != nil {
					price = page.Price
				}
			}
		}

		candidates = append(candidates, domain.NewSyntheticCandidate(name, l.Slug, price, domain.TierSearchPage))
	}
	return candidates
}

func (s *SearchPageSource) productPage(ctx context.Context, backend domain.Backend, l Listing) (ProductPage, bool) {
	pageURL := ResolveHref(backend.Base(), l.Href)
	body, err := s.client.Get(ctx, pageURL)
	if err != nil {
		s.logger.Debug().Err(err).Str("url", pageURL).Msg("product page fetch failed")
		return ProductPage{}, false
	}
	page, err := ParseProductPage(body)
	if err != nil {
		s.logger.Debug().Err(err).Str("url", pageURL).Msg("product page parse failed")
		return ProductPage{}, false
	}
	return page, true
}

// ParseListings returns the product links of a search results page in
// document order, each with the nearby listing price when one was found.
// Links to other hosts are ignored.
func ParseListings(body []byte, base string) ([]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParseFailure, err)
	}

	prices := listingPrices(body)

	baseHost := hostOf(base)
	seen := make(map[string]bool)
	var listings []Listing
	doc.Find(productLinkSelector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		if host := hostOf(href); host != "" && baseHost != "" && host != baseHost {
			return
		}
		slug := SlugFromHref(href)
		if slug == "" || seen[slug] {
			return
		}
		seen[slug] = true
		listings = append(listings, Listing{Href: href, Slug: slug, Price: prices[slug]})
	})

	return listings, nil
}

// listingPrices maps each product slug to the first "$" amount that follows
// its link, looking no further than the next product link
func listingPrices(body []byte) map[string]*float64 {
	prices := make(map[string]*float64)
	links := listingHrefPattern.FindAllSubmatchIndex(body, -1)
	for i, m := range links {
		slug := SlugFromHref(html.UnescapeString(string(body[m[2]:m[3]])))
		if slug == "" || prices[slug] != nil {
			continue
		}
		end := m[1] + listingPriceWindow
		if i+1 < len(links) && links[i+1][0] < end {
			end = links[i+1][0]
		}
		if end > len(body) {
			end = len(body)
		}
		if pm := listingPricePattern.FindSubmatch(body[m[1]:end]); pm != nil {
			prices[slug] = ParsePrice(string(pm[1]))
		}
	}
	return prices
}

// searchPageURLs builds the search page URLs: relevance ordered first, then plain
func searchPageURLs(backend domain.Backend, search string) []string {
	path := backend.SearchPagePath
	if path == "" {
		path = domain.DefaultSearchPagePath
	}
	page := backend.Base() + path

	ordered := url.Values{}
	ordered.Set("ft", search)
	ordered.Set("O", "OrderByScoreDESC")

	plain := url.Values{}
	plain.Set("ft", search)

	return []string{
		page + "?" + ordered.Encode(),
		page + "?" + plain.Encode(),
	}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
