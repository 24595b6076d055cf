package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/comparador-uy/backend/internal/domain"
	"github.com/comparador-uy/backend/internal/metrics"
)

// Cascade tries its sources in order and returns the first non-empty result.
// Source failures are logged and treated as "no candidates".
type Cascade struct {
	sources []domain.CandidateSource
	logger  zerolog.Logger
}

// NewCascade creates a cascade over sources, cheapest first
func NewCascade(logger zerolog.Logger, sources ...domain.CandidateSource) *Cascade {
	return &Cascade{
		sources: sources,
		logger:  logger,
	}
}

// FetchCandidates implements domain.CandidateFetcher
func (c *Cascade) FetchCandidates(ctx context.Context, backend domain.Backend, search, storeHint string) []domain.Candidate {
	for _, src := range c.sources {
		if ctx.Err() != nil {
			return nil
		}

		tier := src.Tier()
		candidates, err := src.Fetch(ctx, backend, search, storeHint)
		if err != nil {
			metrics.IncTierFetch(string(tier), "error")
			err = &domain.TierError{Tier: tier, Err: err}
			c.logger.Debug().Err(err).
				Str("backend", backend.Key).
				Str("search", search).
				Bool("parse_failure", errors.Is(err, domain.ErrParseFailure)).
				Msg("tier failed, trying next")
			continue
		}
		if len(candidates) == 0 {
			metrics.IncTierFetch(string(tier), "empty")
			continue
		}

		metrics.IncTierFetch(string(tier), "hit")
		for i := range candidates {
			if candidates[i].Tier == "" {
				candidates[i].Tier = tier
			}
		}
		c.logger.Debug().
			Str("backend", backend.Key).
			Str("search", search).
			Str("tier", string(tier)).
			Int("candidates", len(candidates)).
			Msg("tier returned candidates")
		return candidates
	}
	return nil
}
