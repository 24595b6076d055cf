package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/comparador-uy/backend/internal/domain"
)

const noMatchNote = "Sin coincidencias (JSON/HTML/Browser)"

// CandidateResolver resolves one query against one backend
type CandidateResolver interface {
	Backend(key string) (domain.Backend, bool)
	Resolve(ctx context.Context, rawQuery, storeHint, backendKey string) (*domain.Candidate, error)
}

// CompareService matches a batch of items against one competitor catalog
type CompareService struct {
	resolver CandidateResolver
	logger   zerolog.Logger
}

// NewCompareService creates a compare service
func NewCompareService(resolver CandidateResolver, logger zerolog.Logger) *CompareService {
	return &CompareService{
		resolver: resolver,
		logger:   logger,
	}
}

// Compare resolves the requested slice of items one at a time. Item failures
// never abort the batch: every item in the slice gets exactly one result.
func (s *CompareService) Compare(ctx context.Context, request *domain.CompareRequest) (*domain.CompareResponse, error) {
	if request == nil || strings.TrimSpace(request.Competitor) == "" {
		return nil, domain.ErrInvalidRequest
	}

	limit := request.Limit
	if limit == 0 {
		limit = domain.DefaultBatchLimit
	}

	response := &domain.CompareResponse{
		RequestID:  uuid.New().String(),
		Competitor: strings.ToUpper(strings.TrimSpace(request.Competitor)),
		Store:      request.Store,
		Offset:     request.Offset,
		Limit:      limit,
	}

	backend, ok := s.resolver.Backend(request.Competitor)
	if !ok {
		response.Competitor = request.Competitor
		response.Results = []domain.ItemResult{{
			Status: domain.StatusNotImplemented,
			Notes:  fmt.Sprintf("Competidor '%s' no configurado", strings.ToLower(strings.TrimSpace(request.Competitor))),
		}}
		return response, nil
	}

	items := SliceItems(request.Items, request.Offset, limit)
	log := s.logger.With().Str("request_id", response.RequestID).Str("backend", backend.Key).Logger()
	log.Info().Int("items", len(items)).Str("store", request.Store).Msg("compare started")

	results := make([]domain.ItemResult, 0, len(items))
	for _, item := range items {
		results = append(results, s.resolveItem(ctx, backend, item, request.Store, log))
	}

	response.Results = results
	response.Count = len(results)
	return response, nil
}

// SliceItems returns items[offset : offset+max(limit,1)], clamped to bounds
func SliceItems(items []string, offset, limit int) []string {
	if len(items) == 0 {
		return []string{}
	}
	start := offset
	if start < 0 {
		start = 0
	}
	if limit < 1 {
		limit = 1
	}
	if start >= len(items) {
		return []string{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// resolveItem maps one resolution to a user-facing status, containing panics
func (s *CompareService) resolveItem(ctx context.Context, backend domain.Backend, input, store string, log zerolog.Logger) (result domain.ItemResult) {
	result.Input = input

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("input", input).Msg("item resolution panicked")
			result = domain.ItemResult{
				Input:  input,
				Status: domain.StatusError,
				Notes:  fmt.Sprintf("panic: %v", r),
			}
		}
	}()

	candidate, err := s.resolver.Resolve(ctx, input, store, backend.Key)
	switch {
	case errors.Is(err, domain.ErrNoCandidate):
		result.Status = domain.StatusNotAvailable
		result.Notes = noMatchNote
		return result
	case err != nil:
		log.Warn().Err(err).Str("input", input).Msg("item resolution failed")
		result.Status = domain.StatusError
		result.Notes = err.Error()
		return result
	}

	offer := ExtractOffer(candidate)
	result.Name = CandidateName(candidate)
	result.URL = BuildProductURL(backend.Base(), candidate)
	result.Tier = candidate.Tier

	if offer.Price == nil {
		result.Status = domain.StatusNoPrice
		result.Notes = domain.ErrNoPrice.Error()
		return result
	}

	result.Price = offer.Price
	result.ListPrice = offer.ListPrice
	if offer.Available {
		result.Status = domain.StatusOK
	} else {
		result.Status = domain.StatusNoStock
	}
	return result
}
