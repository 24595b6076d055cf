package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comparador-uy/backend/internal/domain"
)

// MockResolutionCache is a mock implementation of domain.ResolutionCache
type MockResolutionCache struct {
	mu       sync.Mutex
	data     map[string]domain.CacheEntry
	getError error
	setError error
	sets     int
}

func NewMockResolutionCache() *MockResolutionCache {
	return &MockResolutionCache{data: make(map[string]domain.CacheEntry)}
}

func (m *MockResolutionCache) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	entry, ok := m.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return &entry, nil
}

func (m *MockResolutionCache) Set(ctx context.Context, key string, entry *domain.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = *entry
	return nil
}

// mockFetcher is a mock implementation of domain.CandidateFetcher.
// It answers per search string, falling back to fallback for unknown ones.
type mockFetcher struct {
	mu        sync.Mutex
	byVariant map[string][]domain.Candidate
	fallback  []domain.Candidate
	calls     []string
}

func (m *mockFetcher) FetchCandidates(ctx context.Context, backend domain.Backend, search, storeHint string) []domain.Candidate {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, search)
	if c, ok := m.byVariant[search]; ok {
		return c
	}
	return m.fallback
}

func (m *mockFetcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func pityCandidate() domain.Candidate {
	return domain.Candidate{
		ProductName: "Harina 0000 Pity 1kg",
		LinkText:    "harina-0000-pity-1kg",
		Items: []domain.Item{{Sellers: []domain.Seller{{CommertialOffer: &domain.CommercialOffer{
			Price:       floatPtr(45),
			ListPrice:   floatPtr(50),
			IsAvailable: boolPtr(true),
		}}}}},
		Tier: domain.TierCatalog,
	}
}

func newTestResolver(fetcher domain.CandidateFetcher, cache domain.ResolutionCache, cfg ResolverConfig) *Resolver {
	return NewResolver([]domain.Backend{testBackend}, fetcher, cache, cfg, zerolog.Nop())
}

func TestNewResolver_Defaults(t *testing.T) {
	r := newTestResolver(&mockFetcher{}, NewMockResolutionCache(), ResolverConfig{})

	assert.Equal(t, DefaultScoreThreshold, r.threshold)
	assert.Equal(t, DefaultCacheTTL, r.cacheTTL)

	backend, ok := r.Backend(" TATA ")
	require.True(t, ok)
	assert.Equal(t, domain.DefaultBrands, backend.Brands)
	assert.Len(t, r.Backends(), 1)
}

func TestResolve_UnknownBackend(t *testing.T) {
	fetcher := &mockFetcher{}
	r := newTestResolver(fetcher, NewMockResolutionCache(), ResolverConfig{})

	_, err := r.Resolve(context.Background(), "harina", "", "disco")

	assert.True(t, errors.Is(err, domain.ErrBackendNotConfigured))
	assert.Zero(t, fetcher.callCount())
}

func TestResolve_FirstVariantReachesThreshold(t *testing.T) {
	fetcher := &mockFetcher{fallback: []domain.Candidate{pityCandidate()}}
	cache := NewMockResolutionCache()
	r := newTestResolver(fetcher, cache, ResolverConfig{})

	got, err := r.Resolve(context.Background(), "harina 0000 1kg pity", "", "tata")

	require.NoError(t, err)
	assert.Equal(t, "harina-0000-pity-1kg", got.LinkText)
	assert.Equal(t, []string{"harina 0000 1kg pity"}, fetcher.calls)
	assert.Equal(t, 1, cache.sets)

	entry, err := cache.Get(context.Background(), "tata:harina 0000 1kg pity")
	require.NoError(t, err)
	require.NotNil(t, entry.Candidate)
	assert.Equal(t, "Harina 0000 Pity 1kg", entry.Candidate.ProductName)
}

func TestResolve_PicksTopScoredCandidate(t *testing.T) {
	fetcher := &mockFetcher{fallback: []domain.Candidate{
		candidate("Harina 000 Cañuelas 1kg", "harina-000-canuelas-1kg"),
		pityCandidate(),
		candidate("Harina 0000 Pity 500g", "harina-0000-pity-500g"),
	}}
	r := newTestResolver(fetcher, NewMockResolutionCache(), ResolverConfig{})

	got, err := r.Resolve(context.Background(), "harina 0000 1kg pity", "", "tata")

	require.NoError(t, err)
	assert.Equal(t, "harina-0000-pity-1kg", got.LinkText)
}

func TestResolve_KeepsFirstBestOnTies(t *testing.T) {
	// "yerba cololo" variants: "yerba cololo", "cololo yerba", "yerba", "cololo"
	fetcher := &mockFetcher{byVariant: map[string][]domain.Candidate{
		"yerba cololo": {candidate("Cololo 1kg", "first")},
		"cololo yerba": {candidate("Cololo 500g", "second")},
	}}
	r := newTestResolver(fetcher, NewMockResolutionCache(), ResolverConfig{ScoreThreshold: 100})

	got, err := r.Resolve(context.Background(), "yerba cololo", "", "tata")

	require.NoError(t, err)
	assert.Equal(t, "first", got.LinkText)
	assert.Equal(t, []string{"yerba cololo", "cololo yerba", "yerba", "cololo"}, fetcher.calls)
}

func TestResolve_LaterVariantImproves(t *testing.T) {
	fetcher := &mockFetcher{byVariant: map[string][]domain.Candidate{
		"harina 0000 1kg pity": {candidate("Harina", "weak")},
		"harina 0000 pity":     {candidate("Harina 0000 Pity", "strong")},
	}}
	r := newTestResolver(fetcher, NewMockResolutionCache(), ResolverConfig{ScoreThreshold: 3})

	got, err := r.Resolve(context.Background(), "harina 0000 1kg pity", "", "tata")

	require.NoError(t, err)
	assert.Equal(t, "strong", got.LinkText)
	// the second variant reached the threshold
	assert.Len(t, fetcher.calls, 2)
}

func TestResolve_MaxVariants(t *testing.T) {
	fetcher := &mockFetcher{}
	r := newTestResolver(fetcher, NewMockResolutionCache(), ResolverConfig{MaxVariants: 2})

	_, err := r.Resolve(context.Background(), "harina 0000 1kg pity", "", "tata")

	assert.True(t, errors.Is(err, domain.ErrNoCandidate))
	assert.Equal(t, 2, fetcher.callCount())
}

func TestResolve_NoMatchIsCached(t *testing.T) {
	fetcher := &mockFetcher{}
	cache := NewMockResolutionCache()
	r := newTestResolver(fetcher, cache, ResolverConfig{})

	_, err := r.Resolve(context.Background(), "producto inexistente", "", "tata")
	require.True(t, errors.Is(err, domain.ErrNoCandidate))
	calls := fetcher.callCount()
	assert.Positive(t, calls)

	_, err = r.Resolve(context.Background(), "Producto  Inexistente", "", "TATA")
	assert.True(t, errors.Is(err, domain.ErrNoCandidate))
	assert.Equal(t, calls, fetcher.callCount())

	entry, err := cache.Get(context.Background(), "tata:producto inexistente")
	require.NoError(t, err)
	assert.Nil(t, entry.Candidate)
}

func TestResolve_CacheTTL(t *testing.T) {
	fetcher := &mockFetcher{fallback: []domain.Candidate{pityCandidate()}}
	r := newTestResolver(fetcher, NewMockResolutionCache(), ResolverConfig{CacheTTL: 6 * time.Hour})

	current := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return current }

	_, err := r.Resolve(context.Background(), "harina 0000 1kg pity", "", "tata")
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.callCount())

	current = current.Add(5 * time.Hour)
	got, err := r.Resolve(context.Background(), "harina 0000 1kg pity", "", "tata")
	require.NoError(t, err)
	assert.Equal(t, "harina-0000-pity-1kg", got.LinkText)
	assert.Equal(t, 1, fetcher.callCount(), "fresh entry must not hit the cascade")

	current = current.Add(2 * time.Hour)
	_, err = r.Resolve(context.Background(), "harina 0000 1kg pity", "", "tata")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.callCount(), "stale entry must be recomputed")
}

func TestResolve_CacheFailuresDegradeGracefully(t *testing.T) {
	cache := NewMockResolutionCache()
	cache.getError = errors.New("redis down")
	cache.setError = errors.New("redis down")
	fetcher := &mockFetcher{fallback: []domain.Candidate{pityCandidate()}}
	r := newTestResolver(fetcher, cache, ResolverConfig{})

	got, err := r.Resolve(context.Background(), "harina 0000 1kg pity", "", "tata")

	require.NoError(t, err)
	assert.Equal(t, "harina-0000-pity-1kg", got.LinkText)
}

func TestResolve_CanceledContext(t *testing.T) {
	fetcher := &mockFetcher{}
	cache := NewMockResolutionCache()
	r := newTestResolver(fetcher, cache, ResolverConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, "harina", "", "tata")

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, fetcher.callCount())
	assert.Zero(t, cache.sets)
}

// cancelingFetcher cancels the caller's context during the given call,
// then answers like the tiers do once their requests are aborted.
type cancelingFetcher struct {
	mockFetcher
	cancel   context.CancelFunc
	cancelOn int
}

func (m *cancelingFetcher) FetchCandidates(ctx context.Context, backend domain.Backend, search, storeHint string) []domain.Candidate {
	got := m.mockFetcher.FetchCandidates(ctx, backend, search, storeHint)
	if m.callCount() == m.cancelOn {
		m.cancel()
		return nil
	}
	return got
}

func TestResolve_CanceledDuringLastVariant(t *testing.T) {
	fetcher := &cancelingFetcher{
		mockFetcher: mockFetcher{fallback: []domain.Candidate{pityCandidate()}},
		cancelOn:    1,
	}
	cache := NewMockResolutionCache()
	r := newTestResolver(fetcher, cache, ResolverConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fetcher.cancel = cancel

	_, err := r.Resolve(ctx, "harina", "", "tata")

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, cache.sets)

	got, err := r.Resolve(context.Background(), "harina", "", "tata")

	require.NoError(t, err)
	assert.Equal(t, "harina-0000-pity-1kg", got.LinkText)
	assert.Equal(t, 2, fetcher.callCount())
	assert.Equal(t, 1, cache.sets)
}

func TestResolve_CanceledAfterPartialBest(t *testing.T) {
	fetcher := &cancelingFetcher{
		mockFetcher: mockFetcher{fallback: []domain.Candidate{candidate("Arroz Blue Patna", "arroz-blue-patna")}},
		cancelOn:    2,
	}
	cache := NewMockResolutionCache()
	r := newTestResolver(fetcher, cache, ResolverConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fetcher.cancel = cancel

	got, err := r.Resolve(ctx, "harina 0000 1kg pity", "", "tata")

	assert.Nil(t, got)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 2, fetcher.callCount())
	assert.Zero(t, cache.sets)
}

func TestResolve_ConcurrentDifferentKeys(t *testing.T) {
	fetcher := &mockFetcher{fallback: []domain.Candidate{pityCandidate()}}
	r := newTestResolver(fetcher, NewMockResolutionCache(), ResolverConfig{})

	queries := []string{"harina", "harina pity", "harina 0000", "pity 1kg", "harina 1kg"}
	var wg sync.WaitGroup
	for _, q := range queries {
		wg.Add(1)
		go func(q string) {
			defer wg.Done()
			_, err := r.Resolve(context.Background(), q, "", "tata")
			assert.NoError(t, err)
		}(q)
	}
	wg.Wait()
}
