package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trustportal/trust-api/internal/middleware"
	"github.com/trustportal/trust-api/internal/services"
)

type ConsentHandler struct {
	consentService *services.ConsentService
}

func NewConsentHandler(consentService *services.ConsentService) *ConsentHandler {
	return &ConsentHandler{consentService: consentService}
}

// UpdateConsentRequest carries the new consent flags. Non-boolean or missing
// categories are granted.
type UpdateConsentRequest struct {
	Consent map[string]any `json:"consent" binding:"required"`
}

// @Summary Show Consent
// @Description Returns the customer's consent flags, creating a demo customer on first access. Recorded as CONSENT_VIEWED.
// @Tags Consent
// @Produce json
// @Param customer_id path string true "Customer ID"
// @Param X-Actor-Id header string false "Acting user when no bearer token is sent"
// @Success 200 {object} models.ConsentResponse
// @Failure 503 {object} map[string]string
// @Security BearerAuth
// @Router /consent/{customer_id} [get]
func (h *ConsentHandler) Show(c *gin.Context) {
	resp, err := h.consentService.Get(c.Request.Context(), middleware.GetActor(c), c.Param("customer_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Update Consent
// @Description Replaces the customer's consent flags. Recorded as CONSENT_UPDATED.
// @Tags Consent
// @Accept json
// @Produce json
// @Param customer_id path string true "Customer ID"
// @Param consent body UpdateConsentRequest true "Consent flags"
// @Success 200 {object} models.ConsentResponse
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /consent/{customer_id} [put]
func (h *ConsentHandler) Update(c *gin.Context) {
	var req UpdateConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customerId and consent payload are required"})
		return
	}

	resp, err := h.consentService.Update(c.Request.Context(), middleware.GetActor(c), c.Param("customer_id"), req.Consent)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
