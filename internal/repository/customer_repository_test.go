package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustportal/trust-api/internal/models"
)

func TestMemoryCustomerRepository(t *testing.T) {
	repo := NewMemoryCustomerRepository()
	ctx := context.Background()

	_, err := repo.FindByCustomerID(ctx, "CUST-001")
	assert.ErrorIs(t, err, ErrNotFound)

	created, err := repo.FindOrCreate(ctx, &models.Customer{CustomerID: "CUST-001", FullName: "Demo", CreditHistory: true})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	again, err := repo.FindOrCreate(ctx, &models.Customer{CustomerID: "CUST-001", FullName: "Other"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "Demo", again.FullName)

	again.CreditHistory = false
	require.NoError(t, repo.Save(ctx, again))
	stored, err := repo.FindByCustomerID(ctx, "CUST-001")
	require.NoError(t, err)
	assert.False(t, stored.CreditHistory)
}

func TestMemoryLoanApplicationRepository_Upsert(t *testing.T) {
	repo := NewMemoryLoanApplicationRepository()
	ctx := context.Background()

	app := &models.LoanApplication{ApplicationID: "APP-1", CustomerID: "CUST-001", Score: 0.4}
	require.NoError(t, repo.Upsert(ctx, app))

	rescored := &models.LoanApplication{ApplicationID: "APP-1", CustomerID: "CUST-001", Score: 0.9}
	require.NoError(t, repo.Upsert(ctx, rescored))
	assert.Equal(t, app.ID, rescored.ID)

	stored, err := repo.FindByApplicationID(ctx, "APP-1")
	require.NoError(t, err)
	assert.Equal(t, 0.9, stored.Score)

	_, err = repo.FindByApplicationID(ctx, "APP-2")
	assert.ErrorIs(t, err, ErrNotFound)
}
