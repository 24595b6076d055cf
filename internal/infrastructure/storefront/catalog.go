package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/comparador-uy/backend/internal/domain"
)

// CatalogSource queries the storefront's structured product search endpoint
type CatalogSource struct {
	client *Client
	logger zerolog.Logger
}

// NewCatalogSource creates the structured catalog tier
func NewCatalogSource(client *Client, logger zerolog.Logger) *CatalogSource {
	return &CatalogSource{client: client, logger: logger}
}

// Tier implements domain.CandidateSource
func (s *CatalogSource) Tier() domain.Tier { return domain.TierCatalog }

// Fetch tries the query-parameter and path-parameter search shapes in turn and
// returns the first non-empty product list
func (s *CatalogSource) Fetch(ctx context.Context, backend domain.Backend, search, storeHint string) ([]domain.Candidate, error) {
	var lastErr error
	for _, reqURL := range catalogURLs(backend, search) {
		body, err := s.client.Get(ctx, reqURL)
		if err != nil {
			lastErr = err
			continue
		}

		var products []domain.Candidate
		if err := json.Unmarshal(body, &products); err != nil {
			lastErr = fmt.Errorf("%w: %v", domain.ErrParseFailure, err)
			continue
		}
		if len(products) == 0 {
			continue
		}

		for i := range products {
			products[i].Tier = domain.TierCatalog
		}
		s.logger.Debug().Str("url", reqURL).Int("products", len(products)).Msg("catalog search answered")
		return products, nil
	}
	return nil, lastErr
}

// catalogURLs builds the two known search URL shapes, ordered by relevance
func catalogURLs(backend domain.Backend, search string) []string {
	base := backend.Base()
	path := backend.SearchPath
	if path == "" {
		path = domain.DefaultSearchPath
	}
	pageSize := backend.PageSize
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}

	paging := url.Values{}
	paging.Set("_from", "0")
	paging.Set("_to", strconv.Itoa(pageSize-1))
	paging.Set("O", "OrderByScoreDESC")

	withFT := url.Values{}
	withFT.Set("ft", search)
	for k, v := range paging {
		withFT[k] = v
	}

	return []string{
		base + path + "?" + withFT.Encode(),
		base + path + "/" + url.PathEscape(search) + "?" + paging.Encode(),
	}
}
