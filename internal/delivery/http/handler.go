package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/comparador-uy/backend/internal/domain"
)

const serviceName = "comparador-backend"

// Comparer runs a batch comparison against one competitor
type Comparer interface {
	Compare(ctx context.Context, request *domain.CompareRequest) (*domain.CompareResponse, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	comparer Comparer
	bases    map[string]string
	logger   zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(comparer Comparer, backends []domain.Backend, logger zerolog.Logger) *Handler {
	bases := make(map[string]string, len(backends))
	for _, b := range backends {
		bases[b.Key] = b.Base()
	}
	return &Handler{
		comparer: comparer,
		bases:    bases,
		logger:   logger,
	}
}

// Root describes the service, its endpoints and the configured storefronts
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":   serviceName,
		"status":    "ok",
		"endpoints": []string{"GET /health", "GET /metrics", "POST /compare", "POST /api/v1/compare"},
		"bases":     h.bases,
		"ts":        time.Now().Unix(),
	})
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": "1.0.0",
		"bases":   h.bases,
		"ts":      time.Now().Unix(),
	})
}

// Compare handles batch comparison requests
func (h *Handler) Compare(c *gin.Context) {
	if h.comparer == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "compare service not configured",
		})
		return
	}

	var req domain.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.comparer.Compare(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "competitor is required"})
			return
		}
		h.logger.Error().Err(err).Str("competitor", req.Competitor).Msg("compare failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "comparison failed"})
		return
	}

	c.JSON(http.StatusOK, resp)
}
