package services

import (
	"github.com/trustportal/trust-api/internal/broker"
	"github.com/trustportal/trust-api/internal/config"
	"github.com/trustportal/trust-api/internal/jobs"
	"github.com/trustportal/trust-api/internal/ledger"
	"github.com/trustportal/trust-api/internal/repository"
	"github.com/trustportal/trust-api/internal/scoring"
	"github.com/trustportal/trust-api/internal/storage"
)

// Services holds all service instances
type Services struct {
	Audit       *AuditService
	Integrity   *IntegrityService
	Export      *ExportService
	Loan        *LoanService
	Consent     *ConsentService
	Explanation *ExplanationService
	Email       *EmailService
	Job         *JobService
}

// NewServices creates all service instances. publisher may be nil.
func NewServices(l *ledger.Ledger, repos *repository.Repositories, worker *jobs.Worker, storage *storage.LocalStorage, cfg *config.Config, publisher broker.EntryPublisher) *Services {
	emailSvc := NewEmailService(cfg)
	integritySvc := NewIntegrityService(l, cfg.Audit.VerifyStrategy, NewComplianceAlerter(emailSvc, worker))
	auditSvc := NewAuditService(l, integritySvc, publisher, worker, cfg.Audit.AppendTimeout)
	explanationSvc := NewExplanationService(cfg.Scoring)

	return &Services{
		Audit:       auditSvc,
		Integrity:   integritySvc,
		Export:      NewExportService(l, storage),
		Loan:        NewLoanService(scoring.NewScorer(cfg.Scoring.ModelPath), explanationSvc, repos.LoanApplication, auditSvc),
		Consent:     NewConsentService(repos.Customer, auditSvc),
		Explanation: explanationSvc,
		Email:       emailSvc,
		Job:         NewJobService(worker, integritySvc),
	}
}
