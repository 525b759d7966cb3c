package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trustportal/trust-api/internal/middleware"
	"github.com/trustportal/trust-api/internal/services"
)

type LoanHandler struct {
	loanService *services.LoanService
}

func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// @Summary Score Loan Application
// @Description Scores an application with the loan model, explains the decision and records LOAN_SCORED. Accepts the fields flat or nested under "application".
// @Tags Loans
// @Accept json
// @Produce json
// @Param application body services.ScoreLoanInput true "Application"
// @Param X-Actor-Id header string false "Acting user when no bearer token is sent"
// @Success 200 {object} services.LoanDecision
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Security BearerAuth
// @Router /loans/score [post]
func (h *LoanHandler) Score(c *gin.Context) {
	var req services.ScoreLoanInput
	if err := BindNestedOrFlat(c, "application", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customerId and features are required"})
		return
	}

	decision, err := h.loanService.Score(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

// @Summary Show Loan Decision
// @Description Returns a previously scored application
// @Tags Loans
// @Produce json
// @Param application_id path string true "Application ID"
// @Success 200 {object} services.LoanDecision
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{application_id} [get]
func (h *LoanHandler) Show(c *gin.Context) {
	decision, err := h.loanService.Get(c.Request.Context(), c.Param("application_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}
