package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fieldcatalog/catalog"
)

// HealthHandler serves liveness checks.
type HealthHandler struct {
	store   *catalog.Store
	started time.Time
	version string
}

// NewHealthHandler creates a health handler over the store.
func NewHealthHandler(store *catalog.Store, version string) *HealthHandler {
	return &HealthHandler{
		store:   store,
		started: time.Now(),
		version: version,
	}
}

// HandleHealth reports service and database status.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{} "Service status"
// @Failure 503 {object} map[string]interface{} "Database unreachable"
// @Router /api/health [get]
func (h *HealthHandler) HandleHealth(c *gin.Context) {
	fieldCount, err := h.store.Count()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "database unreachable",
		})
		return
	}

	SendJSONResponse(c, http.StatusOK, gin.H{
		"status":      "ok",
		"version":     h.version,
		"uptime":      time.Since(h.started).String(),
		"field_count": fieldCount,
	})
}
