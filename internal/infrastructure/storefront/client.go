package storefront

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/comparador-uy/backend/internal/domain"
)

// maxBodyBytes bounds how much of a storefront response is read
const maxBodyBytes = 8 << 20

// ClientConfig holds outbound HTTP settings shared by the HTTP tiers
type ClientConfig struct {
	Timeout        time.Duration
	UserAgent      string
	AcceptLanguage string
	RatePerSecond  float64
	Burst          int
	// MaxRetries is how many times a transient failure (transport error,
	// 429 or 5xx) is retried; zero disables retries
	MaxRetries int
}

// Client performs rate limited GETs against storefronts. Every call gets its
// own deadline and always releases the response body.
type Client struct {
	httpClient     *http.Client
	rateLimiter    *rate.Limiter
	timeout        time.Duration
	userAgent      string
	acceptLanguage string
	maxRetries     int
	backoff        func(attempt int) time.Duration
	logger         zerolog.Logger
}

// NewClient creates a storefront HTTP client
func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "Mozilla/5.0"
	}
	acceptLanguage := cfg.AcceptLanguage
	if acceptLanguage == "" {
		acceptLanguage = "es-UY,es;q=0.9"
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		rateLimiter:    rate.NewLimiter(limit, burst),
		timeout:        timeout,
		userAgent:      userAgent,
		acceptLanguage: acceptLanguage,
		maxRetries:     max(cfg.MaxRetries, 0),
		backoff:        exponentialBackoff,
		logger:         logger,
	}
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// Get fetches reqURL and returns the body of a 2xx response.
// Non-2xx answers and transport errors wrap domain.ErrUpstreamFailure.
func (c *Client) Get(ctx context.Context, reqURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}

		body, retryable, err := c.get(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		c.logger.Debug().Err(err).Str("url", reqURL).Int("attempt", attempt+1).Msg("storefront request failed")
	}
	return nil, lastErr
}

// get performs a single request and reports whether a failure is worth retrying
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, bool, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, false, fmt.Errorf("rate limiter error: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", c.acceptLanguage)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, true, fmt.Errorf("%w: reading body: %v", domain.ErrUpstreamFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
		return nil, retryable, fmt.Errorf("%w: status %d", domain.ErrUpstreamFailure, resp.StatusCode)
	}

	return body, false, nil
}
