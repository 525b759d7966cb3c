package repository

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trustportal/trust-api/internal/models"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// CustomerRepository defines the interface for customer data access
type CustomerRepository interface {
	FindByCustomerID(ctx context.Context, customerID string) (*models.Customer, error)
	FindOrCreate(ctx context.Context, customer *models.Customer) (*models.Customer, error)
	Save(ctx context.Context, customer *models.Customer) error
}

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) FindByCustomerID(ctx context.Context, customerID string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindOrCreate inserts customer unless a row with its customer_id exists, then
// returns the stored row. Concurrent callers converge on one row.
func (r *customerRepository) FindOrCreate(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "customer_id"}}, DoNothing: true}).
		Create(customer).Error
	if err != nil {
		return nil, err
	}
	return r.FindByCustomerID(ctx, customer.CustomerID)
}

func (r *customerRepository) Save(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

// memoryCustomerRepository backs AUDIT_STORE=memory
type memoryCustomerRepository struct {
	mu        sync.Mutex
	customers map[string]models.Customer
	nextID    uint
}

// NewMemoryCustomerRepository creates an empty in-memory customer store
func NewMemoryCustomerRepository() CustomerRepository {
	return &memoryCustomerRepository{customers: map[string]models.Customer{}}
}

func (r *memoryCustomerRepository) FindByCustomerID(ctx context.Context, customerID string) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.customers[customerID]
	if !ok {
		return nil, ErrNotFound
	}
	return &customer, nil
}

func (r *memoryCustomerRepository) FindOrCreate(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.customers[customer.CustomerID]
	if !ok {
		r.nextID++
		existing = *customer
		existing.ID = r.nextID
		r.customers[customer.CustomerID] = existing
	}
	return &existing, nil
}

func (r *memoryCustomerRepository) Save(ctx context.Context, customer *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if customer.ID == 0 {
		r.nextID++
		customer.ID = r.nextID
	}
	r.customers[customer.CustomerID] = *customer
	return nil
}
