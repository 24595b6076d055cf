package domain

import "context"

// ResolutionCache stores resolutions keyed by backend and normalized query.
// Implementations must be safe for concurrent use. Freshness is judged by the
// caller from CacheEntry.StoredAt.
type ResolutionCache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
}

// CandidateSource is one retrieval tier
type CandidateSource interface {
	Tier() Tier
	Fetch(ctx context.Context, backend Backend, search, storeHint string) ([]Candidate, error)
}

// CandidateFetcher returns candidates for a search string. Failures are
// absorbed, so an empty result only means nothing was found.
type CandidateFetcher interface {
	FetchCandidates(ctx context.Context, backend Backend, search, storeHint string) []Candidate
}
