// Package browser implements the slowest retrieval tier: a headless Chromium
// session driven through playwright, opened and torn down within each call.
package browser

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"

	"github.com/comparador-uy/backend/internal/domain"
	"github.com/comparador-uy/backend/internal/infrastructure/storefront"
)

const (
	defaultNavigationTimeout = 45 * time.Second
	defaultMaxProductPages   = 3
	storeClickTimeout        = 2 * time.Second

	// settle delays let client-side rendering catch up after navigation
	searchSettle  = 800 * time.Millisecond
	storeSettle   = 500 * time.Millisecond
	productSettle = 600 * time.Millisecond
)

var launchArgs = []string{
	"--no-sandbox",
	"--disable-dev-shm-usage",
	"--disable-gpu",
	"--disable-setuid-sandbox",
}

// Config holds browser tier configuration
type Config struct {
	NavigationTimeout time.Duration
	MaxProductPages   int
	Locale            string
	UserAgent         string
	// InstallDriver downloads the playwright driver and Chromium on first use
	InstallDriver bool
}

// Source drives a real browser through the search page and up to
// MaxProductPages product pages. A session is never shared between calls.
type Source struct {
	cfg    Config
	logger zerolog.Logger

	installOnce sync.Once
	installErr  error
}

// NewSource creates the browser tier
func NewSource(cfg Config, logger zerolog.Logger) *Source {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = defaultNavigationTimeout
	}
	if cfg.MaxProductPages <= 0 {
		cfg.MaxProductPages = defaultMaxProductPages
	}
	if cfg.Locale == "" {
		cfg.Locale = "es-UY"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0 Safari/537.36"
	}
	return &Source{cfg: cfg, logger: logger}
}

// Tier implements domain.CandidateSource
func (s *Source) Tier() domain.Tier { return domain.TierBrowser }

// Fetch implements domain.CandidateSource
func (s *Source) Fetch(ctx context.Context, backend domain.Backend, search, storeHint string) ([]domain.Candidate, error) {
	if err := s.ensureDriver(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBrowserUnavailable, err)
	}

	sess, err := s.openSession()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBrowserUnavailable, err)
	}
	defer sess.close(s.logger)

	searchURL := SearchURL(backend, search)
	if err := s.navigate(ctx, sess.page, searchURL, searchSettle); err != nil {
		return nil, fmt.Errorf("%w: search page: %v", domain.ErrUpstreamFailure, err)
	}

	if storeHint != "" {
		s.selectStore(sess.page, storeHint)
	}

	links, err := s.productLinks(sess.page, backend.Base())
	if err != nil {
		return nil, fmt.Errorf("%w: collecting product links: %v", domain.ErrParseFailure, err)
	}

	var candidates []domain.Candidate
	for _, link := range links {
		if ctx.Err() != nil {
			break
		}
		candidate, err := s.visitProduct(ctx, sess.page, link)
		if err != nil {
			s.logger.Debug().Err(err).Str("url", link).Msg("product page skipped")
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// selectStore clicks a visible element whose text is exactly the store hint.
// Failures are ignored: store selection only affects displayed stock.
func (s *Source) selectStore(page playwright.Page, storeHint string) {
	el := page.GetByText(storeHint, playwright.PageGetByTextOptions{Exact: playwright.Bool(true)}).First()
	visible, err := el.IsVisible()
	if err != nil || !visible {
		return
	}
	if err := el.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(millis(storeClickTimeout))}); err != nil {
		s.logger.Debug().Err(err).Str("store", storeHint).Msg("store selection failed")
		return
	}
	page.WaitForTimeout(millis(storeSettle))
}

// productLinks collects up to MaxProductPages unique absolute product URLs
func (s *Source) productLinks(page playwright.Page, base string) ([]string, error) {
	anchors, err := page.Locator(`a[href$="/p"]`).All()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	links := make([]string, 0, s.cfg.MaxProductPages)
	for _, a := range anchors {
		if len(links) >= s.cfg.MaxProductPages {
			break
		}
		href, err := a.GetAttribute("href")
		if err != nil || href == "" {
			continue
		}
		full := storefront.ResolveHref(base, href)
		if seen[full] {
			continue
		}
		seen[full] = true
		links = append(links, full)
	}
	return links, nil
}

func (s *Source) visitProduct(ctx context.Context, page playwright.Page, link string) (domain.Candidate, error) {
	if err := s.navigate(ctx, page, link, productSettle); err != nil {
		return domain.Candidate{}, err
	}

	html, err := page.Content()
	if err != nil {
		return domain.Candidate{}, err
	}
	parsed, err := storefront.ParseProductPage([]byte(html))
	if err != nil {
		return domain.Candidate{}, err
	}

	slug := storefront.SlugFromHref(link)
	name := parsed.Name
	if name == "" {
		name = storefront.NameFromSlug(slug)
	}
	return domain.NewSyntheticCandidate(name, slug, parsed.Price, domain.TierBrowser), nil
}

// navigate loads target bounded by the navigation timeout and the context deadline
func (s *Source) navigate(ctx context.Context, page playwright.Page, target string, settle time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := s.cfg.NavigationTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	if _, err := page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(millis(timeout)),
	}); err != nil {
		return err
	}
	page.WaitForTimeout(millis(settle))
	return nil
}

func (s *Source) ensureDriver() error {
	if !s.cfg.InstallDriver {
		return nil
	}
	s.installOnce.Do(func() {
		s.logger.Info().Msg("installing playwright driver and chromium (one-time setup)")
		s.installErr = playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}})
	})
	return s.installErr
}

// session is one isolated browser: driver, browser, context and page
type session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

func (s *Source) openSession() (sess *session, err error) {
	sess = &session{}
	defer func() {
		if err != nil {
			sess.close(s.logger)
			sess = nil
		}
	}()

	if sess.pw, err = playwright.Run(); err != nil {
		return sess, fmt.Errorf("playwright run: %w", err)
	}
	if sess.browser, err = sess.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args:     launchArgs,
	}); err != nil {
		return sess, fmt.Errorf("launch: %w", err)
	}
	if sess.context, err = sess.browser.NewContext(playwright.BrowserNewContextOptions{
		Locale:    playwright.String(s.cfg.Locale),
		UserAgent: playwright.String(s.cfg.UserAgent),
	}); err != nil {
		return sess, fmt.Errorf("new context: %w", err)
	}
	if sess.page, err = sess.context.NewPage(); err != nil {
		return sess, fmt.Errorf("new page: %w", err)
	}
	return sess, nil
}

// close releases page, context, browser and driver in that order, whatever
// was acquired
func (sess *session) close(logger zerolog.Logger) {
	if sess.page != nil {
		if err := sess.page.Close(); err != nil {
			logger.Debug().Err(err).Msg("closing page")
		}
	}
	if sess.context != nil {
		if err := sess.context.Close(); err != nil {
			logger.Debug().Err(err).Msg("closing browser context")
		}
	}
	if sess.browser != nil {
		if err := sess.browser.Close(); err != nil {
			logger.Debug().Err(err).Msg("closing browser")
		}
	}
	if sess.pw != nil {
		if err := sess.pw.Stop(); err != nil {
			logger.Debug().Err(err).Msg("stopping playwright")
		}
	}
}

// SearchURL is the relevance-ordered search results page for a query
func SearchURL(backend domain.Backend, search string) string {
	path := backend.SearchPagePath
	if path == "" {
		path = domain.DefaultSearchPagePath
	}
	q := url.Values{}
	q.Set("ft", search)
	q.Set("O", "OrderByScoreDESC")
	return backend.Base() + path + "?" + q.Encode()
}

func millis(d time.Duration) float64 {
	return float64(d / time.Millisecond)
}
