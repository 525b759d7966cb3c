package handlers

import (
	"github.com/trustportal/trust-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health  *HealthHandler
	Audit   *AuditHandler
	Loan    *LoanHandler
	Consent *ConsentHandler
	Job     *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(svcs.Integrity),
		Audit:   NewAuditHandler(svcs.Audit, svcs.Integrity, svcs.Export),
		Loan:    NewLoanHandler(svcs.Loan),
		Consent: NewConsentHandler(svcs.Consent),
		Job:     NewJobHandler(svcs.Job),
	}
}
