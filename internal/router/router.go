package router

import (
	"github.com/gin-gonic/gin"

	"doklado/internal/config"
	"doklado/internal/handler"
	"doklado/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	documentH *handler.DocumentHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	documents := v1.Group("/documents")
	documents.POST("", documentH.Upload)
	documents.GET("", documentH.List)
	documents.GET("/:id", documentH.GetByID)
	documents.POST("/:id/reprocess", documentH.Reprocess)

	return r
}
