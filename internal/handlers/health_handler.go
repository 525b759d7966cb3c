package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trustportal/trust-api/internal/services"
)

type HealthHandler struct {
	integrity *services.IntegrityService
}

func NewHealthHandler(integrity *services.IntegrityService) *HealthHandler {
	return &HealthHandler{integrity: integrity}
}

// @Summary Health Check
// @Description Checks if the API is running and reports the last known audit chain state without replaying it
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) Index(c *gin.Context) {
	last := h.integrity.Last()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "trust-api",
		"version":   "1.0.0",
		"integrity": last.State,
	})
}
