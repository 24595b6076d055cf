package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCandidate is returned when no variant on any tier produced a candidate
	ErrNoCandidate = errors.New("no matching product found")

	// ErrNoPrice is returned when a candidate was matched but carries no priced offer
	ErrNoPrice = errors.New("matched product has no price")

	// ErrBackendNotConfigured is returned for an unknown backend key
	ErrBackendNotConfigured = errors.New("backend not configured")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrUpstreamFailure is returned when a storefront request fails or answers non-2xx
	ErrUpstreamFailure = errors.New("storefront request failed")

	// ErrParseFailure is returned when a storefront answer cannot be parsed
	ErrParseFailure = errors.New("storefront response could not be parsed")

	// ErrBrowserUnavailable is returned when a browser session cannot be started
	ErrBrowserUnavailable = errors.New("browser automation unavailable")
)

// TierError records which retrieval tier failed
type TierError struct {
	Tier Tier
	Err  error
}

func (e *TierError) Error() string {
	return fmt.Sprintf("tier %s: %v", e.Tier, e.Err)
}

func (e *TierError) Unwrap() error {
	return e.Err
}
