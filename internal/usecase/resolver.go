package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/comparador-uy/backend/internal/domain"
	"github.com/comparador-uy/backend/internal/metrics"
)

// Resolution defaults
const (
	DefaultScoreThreshold = 3
	DefaultCacheTTL       = 6 * time.Hour
)

// ResolverConfig holds configuration for the resolver
type ResolverConfig struct {
	// ScoreThreshold stops variant iteration once the best score reaches it
	ScoreThreshold int
	// CacheTTL is the maximum age at which a cached resolution is trusted
	CacheTTL time.Duration
	// MaxVariants caps the variants tried per query; zero tries all of them
	MaxVariants int
}

// Resolver turns a free-text query into the best catalog candidate of a backend.
// Flow: check cache -> try variants through the cascade -> keep best score -> cache -> return
type Resolver struct {
	backends    map[string]domain.Backend
	fetcher     domain.CandidateFetcher
	cache       domain.ResolutionCache
	threshold   int
	cacheTTL    time.Duration
	maxVariants int
	now         func() time.Time
	logger      zerolog.Logger
}

// NewResolver creates a resolver over the given backends
func NewResolver(
	backends []domain.Backend,
	fetcher domain.CandidateFetcher,
	cache domain.ResolutionCache,
	config ResolverConfig,
	logger zerolog.Logger,
) *Resolver {
	threshold := config.ScoreThreshold
	if threshold <= 0 {
		threshold = DefaultScoreThreshold
	}

	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}

	byKey := make(map[string]domain.Backend, len(backends))
	for _, b := range backends {
		if b.Brands == nil {
			b.Brands = domain.DefaultBrands
		}
		byKey[backendKey(b.Key)] = b
	}

	return &Resolver{
		backends:    byKey,
		fetcher:     fetcher,
		cache:       cache,
		threshold:   threshold,
		cacheTTL:    cacheTTL,
		maxVariants: config.MaxVariants,
		now:         time.Now,
		logger:      logger,
	}
}

// Backend returns the configured backend for key
func (r *Resolver) Backend(key string) (domain.Backend, bool) {
	b, ok := r.backends[backendKey(key)]
	return b, ok
}

// Backends returns the configured backends keyed by normalized key
func (r *Resolver) Backends() map[string]domain.Backend {
	out := make(map[string]domain.Backend, len(r.backends))
	for k, v := range r.backends {
		out[k] = v
	}
	return out
}

// Resolve returns the best candidate for rawQuery on the backend named by key.
// It returns domain.ErrNoCandidate when nothing matched; that outcome is cached too.
func (r *Resolver) Resolve(ctx context.Context, rawQuery, storeHint, key string) (*domain.Candidate, error) {
	backend, ok := r.Backend(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrBackendNotConfigured, key)
	}

	started := r.now()
	q := NewNormalizedQuery(rawQuery, backend.Brands)
	cacheKey := r.cacheKey(backend, q)

	if entry, ok := r.lookup(ctx, cacheKey); ok {
		if entry.Candidate == nil {
			metrics.IncResolution(backend.Key, "cached_none")
			return nil, domain.ErrNoCandidate
		}
		metrics.IncResolution(backend.Key, "cached")
		return entry.Candidate, nil
	}

	best, bestScore, err := r.search(ctx, backend, q, storeHint)
	if err != nil {
		metrics.IncResolution(backend.Key, "aborted")
		return nil, err
	}

	entry := &domain.CacheEntry{Candidate: best, StoredAt: r.now()}
	if err := r.cache.Set(ctx, cacheKey, entry); err != nil {
		// A failed cache write only costs a recomputation later
		r.logger.Warn().Err(err).Str("key", cacheKey).Msg("cache write failed")
	}
	metrics.ObserveResolutionDuration(backend.Key, r.now().Sub(started))

	if best == nil {
		metrics.IncResolution(backend.Key, "none")
		r.logger.Info().Str("backend", backend.Key).Str("query", rawQuery).Msg("no candidate found")
		return nil, domain.ErrNoCandidate
	}

	metrics.IncResolution(backend.Key, "match")
	r.logger.Info().
		Str("backend", backend.Key).
		Str("query", rawQuery).
		Str("match", best.ProductName).
		Str("tier", string(best.Tier)).
		Int("score", bestScore).
		Msg("resolved")
	return best, nil
}

// search iterates the variants and keeps the best-scoring candidate seen
func (r *Resolver) search(ctx context.Context, backend domain.Backend, q NormalizedQuery, storeHint string) (*domain.Candidate, int, error) {
	variants := BuildVariants(q, backend.Brands)
	if r.maxVariants > 0 && len(variants) > r.maxVariants {
		variants = variants[:r.maxVariants]
	}

	var best *domain.Candidate
	bestScore := -1

	for _, variant := range variants {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		candidates := r.fetcher.FetchCandidates(ctx, backend, variant, storeHint)
		// an abandoned call is never cached
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		if len(candidates) == 0 {
			continue
		}

		top, topScore := topCandidate(candidates, q, backend.Brands)
		r.logger.Debug().
			Str("backend", backend.Key).
			Str("variant", variant).
			Str("top", top.ProductName).
			Int("score", topScore).
			Msg("variant scored")

		if topScore > bestScore {
			best, bestScore = &top, topScore
		}
		if bestScore >= r.threshold {
			break
		}
	}

	return best, bestScore, nil
}

// topCandidate sorts candidates by descending score, keeping source order on ties
func topCandidate(candidates []domain.Candidate, q NormalizedQuery, brands domain.BrandVocabulary) (domain.Candidate, int) {
	scored := make([]scoredCandidate, len(candidates))
	for i, c := range candidates {
		scored[i] = scoredCandidate{candidate: c, score: Score(c, q, brands)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	return scored[0].candidate, scored[0].score
}

type scoredCandidate struct {
	candidate domain.Candidate
	score     int
}

// lookup returns a fresh cache entry; stale entries are ignored and later overwritten
func (r *Resolver) lookup(ctx context.Context, key string) (*domain.CacheEntry, bool) {
	entry, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			r.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		metrics.IncCacheLookup("miss")
		return nil, false
	}
	if !entry.Fresh(r.now(), r.cacheTTL) {
		metrics.IncCacheLookup("stale")
		return nil, false
	}
	metrics.IncCacheLookup("hit")
	return entry, true
}

// cacheKey creates the cache key. Format: "{backend}:{normalized query}"
func (r *Resolver) cacheKey(backend domain.Backend, q NormalizedQuery) string {
	return backendKey(backend.Key) + ":" + q.Text
}

func backendKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
