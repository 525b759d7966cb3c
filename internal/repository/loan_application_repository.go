package repository

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trustportal/trust-api/internal/models"
)

// LoanApplicationRepository defines the interface for scored application data access
type LoanApplicationRepository interface {
	Upsert(ctx context.Context, app *models.LoanApplication) error
	FindByApplicationID(ctx context.Context, applicationID string) (*models.LoanApplication, error)
}

type loanApplicationRepository struct {
	db *gorm.DB
}

// NewLoanApplicationRepository creates a new loan application repository
func NewLoanApplicationRepository(db *gorm.DB) LoanApplicationRepository {
	return &loanApplicationRepository{db: db}
}

// Upsert stores the latest scoring of an application, replacing any previous one
func (r *loanApplicationRepository) Upsert(ctx context.Context, app *models.LoanApplication) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "application_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"customer_id", "raw_features", "score", "decision",
				"explanation_summary", "feature_impacts", "model_version", "updated_at",
			}),
		}).
		Create(app).Error
}

func (r *loanApplicationRepository) FindByApplicationID(ctx context.Context, applicationID string) (*models.LoanApplication, error) {
	var app models.LoanApplication
	err := r.db.WithContext(ctx).Where("application_id = ?", applicationID).First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// memoryLoanApplicationRepository backs AUDIT_STORE=memory
type memoryLoanApplicationRepository struct {
	mu   sync.Mutex
	apps map[string]models.LoanApplication
}

// NewMemoryLoanApplicationRepository creates an empty in-memory application store
func NewMemoryLoanApplicationRepository() LoanApplicationRepository {
	return &memoryLoanApplicationRepository{apps: map[string]models.LoanApplication{}}
}

func (r *memoryLoanApplicationRepository) Upsert(ctx context.Context, app *models.LoanApplication) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.apps[app.ApplicationID]; ok {
		app.ID = prev.ID
		app.CreatedAt = prev.CreatedAt
	} else {
		app.ID = uint(len(r.apps) + 1)
	}
	r.apps[app.ApplicationID] = *app
	return nil
}

func (r *memoryLoanApplicationRepository) FindByApplicationID(ctx context.Context, applicationID string) (*models.LoanApplication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[applicationID]
	if !ok {
		return nil, ErrNotFound
	}
	return &app, nil
}
