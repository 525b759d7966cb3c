package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/trustportal/trust-api/internal/ledger"
	"github.com/trustportal/trust-api/internal/models"
	"github.com/trustportal/trust-api/internal/repository"
)

type ConsentService struct {
	customers repository.CustomerRepository
	audit     auditRecorder
}

func NewConsentService(customers repository.CustomerRepository, audit auditRecorder) *ConsentService {
	return &ConsentService{customers: customers, audit: audit}
}

// demoCustomer is created the first time an unknown customer ID is seen
func demoCustomer(customerID string) *models.Customer {
	c := &models.Customer{
		CustomerID: customerID,
		FullName:   "Demo User",
		Email:      customerID + "@demo.local",
	}
	c.ApplyConsent(models.DefaultConsent())
	return c
}

// Get returns the customer's consent, creating a demo customer if needed,
// and records CONSENT_VIEWED
func (s *ConsentService) Get(ctx context.Context, actor, customerID string) (*models.ConsentResponse, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, fmt.Errorf("%w: customerId is required", ErrInvalidInput)
	}

	customer, err := s.customers.FindOrCreate(ctx, demoCustomer(customerID))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load customer: %v", ErrUnavailable, err)
	}

	_, _ = s.audit.Record(ctx, ledger.Payload{
		EntityType:  models.EntityTypeCustomer,
		EntityID:    customerID,
		Action:      models.ActionConsentViewed,
		PerformedBy: actor,
	})

	resp := customer.ToConsentResponse()
	return &resp, nil
}

// Update replaces all four consent flags and records CONSENT_UPDATED.
// A category that is missing or not a boolean is granted.
func (s *ConsentService) Update(ctx context.Context, actor, customerID string, consent map[string]any) (*models.ConsentResponse, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" || consent == nil {
		return nil, fmt.Errorf("%w: customerId and consent payload are required", ErrInvalidInput)
	}

	normalized := NormalizeConsent(consent)

	customer, err := s.customers.FindOrCreate(ctx, demoCustomer(customerID))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load customer: %v", ErrUnavailable, err)
	}
	customer.ApplyConsent(normalized)
	if err := s.customers.Save(ctx, customer); err != nil {
		return nil, fmt.Errorf("%w: failed to save consent: %v", ErrUnavailable, err)
	}

	fields := make(map[string]ledger.Value, len(normalized))
	for key, granted := range normalized {
		fields[key] = ledger.Bool(granted)
	}
	_, _ = s.audit.Record(ctx, ledger.Payload{
		EntityType:  models.EntityTypeCustomer,
		EntityID:    customerID,
		Action:      models.ActionConsentUpdated,
		PerformedBy: actor,
		Details: ledger.Object(map[string]ledger.Value{
			"consent": ledger.Object(fields),
		}),
	})

	resp := customer.ToConsentResponse()
	return &resp, nil
}

// NormalizeConsent keeps boolean values for known categories and grants the rest
func NormalizeConsent(payload map[string]any) models.ConsentMap {
	normalized := models.DefaultConsent()
	for _, key := range models.ConsentCategories {
		if v, ok := payload[key].(bool); ok {
			normalized[key] = v
		}
	}
	return normalized
}
