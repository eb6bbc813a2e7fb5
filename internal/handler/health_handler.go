package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db *sqlx.DB
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sqlx.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "doklado"})
}

// Readiness handles GET /readyz
// Ready means the database answers; the queue backlog is reported so probes
// and dashboards can see processing pressure without a separate endpoint.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database not reachable"})
		return
	}

	var backlog int
	if err := h.db.GetContext(ctx, &backlog,
		`SELECT COUNT(*) FROM document_jobs WHERE status = 'queued'`); err != nil {
		// Backlog is informational; a failed count does not make us unready.
		backlog = -1
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "queued_jobs": backlog})
}
