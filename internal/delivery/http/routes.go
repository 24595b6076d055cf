package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/comparador-uy/backend/config"
)

// maxRequestBodyBytes bounds compare request bodies
const maxRequestBodyBytes = 1 << 20

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger zerolog.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RequestSizeLimitMiddleware(maxRequestBodyBytes))

	router.GET("/", handler.Root)
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Unversioned path kept for existing front ends
	router.POST("/compare", handler.Compare)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/compare", handler.Compare)
	}

	return router
}
