package models

import (
	"time"
)

// Consent categories a customer can grant or revoke
const (
	ConsentCreditHistory         = "credit_history"
	ConsentIncomeData            = "income_data"
	ConsentEmploymentData        = "employment_data"
	ConsentTransactionMonitoring = "transaction_monitoring"
)

// ConsentCategories lists every consent key in display order
var ConsentCategories = []string{
	ConsentCreditHistory,
	ConsentIncomeData,
	ConsentEmploymentData,
	ConsentTransactionMonitoring,
}

// Customer represents a portal customer and their data-use consent
type Customer struct {
	ID                    uint      `gorm:"primaryKey" json:"-"`
	CustomerID            string    `gorm:"size:64;uniqueIndex;not null" json:"customerId"`
	FullName              string    `gorm:"not null" json:"fullName"`
	Email                 string    `gorm:"not null" json:"email"`
	CreditHistory         bool      `gorm:"not null" json:"-"`
	IncomeData            bool      `gorm:"not null" json:"-"`
	EmploymentData        bool      `gorm:"not null" json:"-"`
	TransactionMonitoring bool      `gorm:"not null" json:"-"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// TableName specifies the table name for Customer
func (Customer) TableName() string {
	return "customers"
}

// ConsentMap is the wire representation of a customer's consent flags
type ConsentMap map[string]bool

// DefaultConsent grants every category
func DefaultConsent() ConsentMap {
	consent := make(ConsentMap, len(ConsentCategories))
	for _, key := range ConsentCategories {
		consent[key] = true
	}
	return consent
}

// Consent returns the customer's consent flags
func (c *Customer) Consent() ConsentMap {
	return ConsentMap{
		ConsentCreditHistory:         c.CreditHistory,
		ConsentIncomeData:            c.IncomeData,
		ConsentEmploymentData:        c.EmploymentData,
		ConsentTransactionMonitoring: c.TransactionMonitoring,
	}
}

// ApplyConsent copies consent flags onto the customer. Missing keys are left unchanged.
func (c *Customer) ApplyConsent(consent ConsentMap) {
	if v, ok := consent[ConsentCreditHistory]; ok {
		c.CreditHistory = v
	}
	if v, ok := consent[ConsentIncomeData]; ok {
		c.IncomeData = v
	}
	if v, ok := consent[ConsentEmploymentData]; ok {
		c.EmploymentData = v
	}
	if v, ok := consent[ConsentTransactionMonitoring]; ok {
		c.TransactionMonitoring = v
	}
}

// ConsentResponse is the JSON response format for consent endpoints
type ConsentResponse struct {
	CustomerID string     `json:"customerId"`
	Consent    ConsentMap `json:"consent"`
}

// ToConsentResponse converts Customer to ConsentResponse
func (c *Customer) ToConsentResponse() ConsentResponse {
	return ConsentResponse{
		CustomerID: c.CustomerID,
		Consent:    c.Consent(),
	}
}
