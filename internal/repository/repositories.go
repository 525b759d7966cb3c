package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Audit           AuditRepository
	Customer        CustomerRepository
	LoanApplication LoanApplicationRepository
}

// NewRepositories creates all Postgres-backed repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Audit:           NewAuditRepository(db),
		Customer:        NewCustomerRepository(db),
		LoanApplication: NewLoanApplicationRepository(db),
	}
}

// NewMemoryRepositories creates process-local repositories for demos and tests
func NewMemoryRepositories() *Repositories {
	return &Repositories{
		Audit:           NewMemoryAuditRepository(),
		Customer:        NewMemoryCustomerRepository(),
		LoanApplication: NewMemoryLoanApplicationRepository(),
	}
}
