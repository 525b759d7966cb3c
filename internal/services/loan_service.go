package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/trustportal/trust-api/internal/ledger"
	"github.com/trustportal/trust-api/internal/models"
	"github.com/trustportal/trust-api/internal/repository"
	"github.com/trustportal/trust-api/internal/scoring"
	"github.com/trustportal/trust-api/pkg/logger"
)

type auditRecorder interface {
	Record(ctx context.Context, p ledger.Payload) (*models.AuditEntry, error)
}

type loanScorer interface {
	Score(features map[string]any) (scoring.Result, error)
}

type explainer interface {
	Explain(ctx context.Context, req ExplanationRequest) string
}

// ScoreLoanInput is a loan application as submitted by the portal
type ScoreLoanInput struct {
	CustomerID    string         `json:"customerId" binding:"required"`
	ApplicationID string         `json:"applicationId,omitempty"`
	Features      map[string]any `json:"features" binding:"required"`
}

// LoanDecision is the scored and explained outcome
type LoanDecision struct {
	ApplicationID      string                 `json:"applicationId"`
	CustomerID         string                 `json:"customerId"`
	Score              float64                `json:"score"`
	Decision           string                 `json:"decision"`
	ExplanationSummary string                 `json:"explanationSummary"`
	FeatureImpacts     []models.FeatureImpact `json:"featureImpacts"`
	ModelVersion       string                 `json:"modelVersion"`
	CreatedAt          *time.Time             `json:"createdAt,omitempty"`
}

type LoanService struct {
	scorer    loanScorer
	explainer explainer
	repo      repository.LoanApplicationRepository
	audit     auditRecorder
}

func NewLoanService(scorer loanScorer, explainer explainer, repo repository.LoanApplicationRepository, audit auditRecorder) *LoanService {
	return &LoanService{scorer: scorer, explainer: explainer, repo: repo, audit: audit}
}

// Score evaluates an application, stores the outcome and records LOAN_SCORED.
// Rescoring an existing application ID replaces its stored outcome.
func (s *LoanService) Score(ctx context.Context, actor string, in ScoreLoanInput) (*LoanDecision, error) {
	customerID := strings.TrimSpace(in.CustomerID)
	if customerID == "" || in.Features == nil {
		return nil, fmt.Errorf("%w: customerId and features are required", ErrInvalidInput)
	}

	applicationID := strings.TrimSpace(in.ApplicationID)
	if applicationID == "" {
		applicationID = uuid.NewString()
	}

	result, err := s.scorer.Score(in.Features)
	if err != nil {
		logger.Error("Loan model unavailable", "error", err)
		return nil, fmt.Errorf("%w: loan model: %v", ErrUnavailable, err)
	}

	summary := s.explainer.Explain(ctx, ExplanationRequest{
		CustomerID:     customerID,
		Decision:       result.Decision,
		Score:          result.Score,
		FeatureImpacts: result.FeatureImpacts,
		ModelVersion:   result.ModelVersion,
	})

	raw, err := json.Marshal(in.Features)
	if err != nil {
		return nil, fmt.Errorf("%w: features: %v", ErrInvalidInput, err)
	}

	app := &models.LoanApplication{
		ApplicationID:      applicationID,
		CustomerID:         customerID,
		RawFeatures:        datatypes.JSON(raw),
		Score:              result.Score,
		Decision:           result.Decision,
		ExplanationSummary: summary,
		FeatureImpacts:     datatypes.JSONSlice[models.FeatureImpact](result.FeatureImpacts),
		ModelVersion:       result.ModelVersion,
	}
	if err := s.repo.Upsert(ctx, app); err != nil {
		return nil, fmt.Errorf("%w: failed to save loan application: %v", ErrUnavailable, err)
	}

	_, _ = s.audit.Record(ctx, ledger.Payload{
		EntityType:  models.EntityTypeLoanApplication,
		EntityID:    applicationID,
		Action:      models.ActionLoanScored,
		PerformedBy: actor,
		Details: ledger.Object(map[string]ledger.Value{
			"customerId":   ledger.String(customerID),
			"score":        ledger.Number(result.Score),
			"decision":     ledger.String(result.Decision),
			"modelVersion": ledger.String(result.ModelVersion),
		}),
	})

	return &LoanDecision{
		ApplicationID:      applicationID,
		CustomerID:         customerID,
		Score:              result.Score,
		Decision:           result.Decision,
		ExplanationSummary: summary,
		FeatureImpacts:     result.FeatureImpacts,
		ModelVersion:       result.ModelVersion,
	}, nil
}

// Get returns a stored decision
func (s *LoanService) Get(ctx context.Context, applicationID string) (*LoanDecision, error) {
	app, err := s.repo.FindByApplicationID(ctx, applicationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load loan application: %v", ErrUnavailable, err)
	}

	createdAt := app.CreatedAt
	return &LoanDecision{
		ApplicationID:      app.ApplicationID,
		CustomerID:         app.CustomerID,
		Score:              app.Score,
		Decision:           app.Decision,
		ExplanationSummary: app.ExplanationSummary,
		FeatureImpacts:     []models.FeatureImpact(app.FeatureImpacts),
		ModelVersion:       app.ModelVersion,
		CreatedAt:          &createdAt,
	}, nil
}
