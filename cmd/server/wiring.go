package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/comparador-uy/backend/config"
	"github.com/comparador-uy/backend/internal/domain"
	"github.com/comparador-uy/backend/internal/infrastructure/browser"
	"github.com/comparador-uy/backend/internal/infrastructure/cache"
	"github.com/comparador-uy/backend/internal/infrastructure/storefront"
	"github.com/comparador-uy/backend/internal/observability"
	"github.com/comparador-uy/backend/internal/usecase"
)

// app is the wired resolution stack shared by every command
type app struct {
	resolver *usecase.Resolver
	compare  *usecase.CompareService
	sources  []domain.CandidateSource
	closers  []func() error
}

// buildApp wires cache, retrieval tiers, resolver and compare service from cfg
func buildApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{}

	store, err := a.buildCache(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	client := storefront.NewClient(storefront.ClientConfig{
		Timeout:        cfg.HTTP.Timeout,
		UserAgent:      cfg.HTTP.UserAgent,
		AcceptLanguage: cfg.HTTP.AcceptLanguage,
		RatePerSecond:  cfg.HTTP.RatePerSecond,
		Burst:          cfg.HTTP.Burst,
		MaxRetries:     cfg.HTTP.MaxRetries,
	}, observability.Component(logger, "storefront"))

	a.sources = []domain.CandidateSource{
		storefront.NewCatalogSource(client, observability.Component(logger, "catalog")),
		storefront.NewSearchPageSource(client, cfg.HTTP.FollowProductPages, observability.Component(logger, "search_page")),
	}
	if cfg.Browser.Enabled {
		a.sources = append(a.sources, browser.NewSource(browser.Config{
			NavigationTimeout: cfg.Browser.NavigationTimeout,
			MaxProductPages:   cfg.Browser.MaxProductPages,
			Locale:            cfg.Browser.Locale,
			InstallDriver:     cfg.Browser.InstallDriver,
		}, observability.Component(logger, "browser")))
	}

	cascade := usecase.NewCascade(observability.Component(logger, "cascade"), a.sources...)

	a.resolver = usecase.NewResolver(
		cfg.BackendProfiles(),
		cascade,
		store,
		usecase.ResolverConfig{
			ScoreThreshold: cfg.Resolver.ScoreThreshold,
			CacheTTL:       cfg.Cache.TTL,
			MaxVariants:    cfg.Resolver.MaxVariants,
		},
		observability.Component(logger, "resolver"),
	)
	a.compare = usecase.NewCompareService(a.resolver, observability.Component(logger, "compare"))

	return a, nil
}

func (a *app) buildCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (domain.ResolutionCache, error) {
	switch cfg.Cache.Type {
	case "redis":
		redisCache, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			URL:       cfg.Cache.RedisURL,
			Prefix:    cfg.Cache.Prefix,
			Retention: cfg.Cache.Retention,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis cache: %w", err)
		}
		a.closers = append(a.closers, redisCache.Close)
		logger.Info().Str("prefix", cfg.Cache.Prefix).Msg("using redis resolution cache")
		return redisCache, nil
	default:
		logger.Info().Msg("using in-memory resolution cache")
		return cache.NewMemoryCache(), nil
	}
}

// Close releases long-lived resources such as the redis connection
func (a *app) Close() {
	for _, closeFn := range a.closers {
		_ = closeFn()
	}
}
