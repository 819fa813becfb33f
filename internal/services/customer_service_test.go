package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cylinder-backend/internal/cache"
	"cylinder-backend/internal/ledger"
	"cylinder-backend/internal/models"
	"cylinder-backend/internal/store/memory"
)

func newCustomerEnv() (*memory.Store, *CustomerService) {
	st := memory.New()
	return st, NewCustomerService(st, nil, nil, nil, cache.Disabled())
}

func TestDeleteCustomer(t *testing.T) {
	st, svc := newCustomerEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Settled", Phone: "9800000040"})

	require.NoError(t, svc.Delete(context.Background(), custID))

	_, ok := st.Customer(custID)
	assert.False(t, ok)
}

func TestDeleteCustomerWithBalance(t *testing.T) {
	st, svc := newCustomerEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Debtor", Phone: "9800000041", OutstandingBalance: dec("1200")})

	err := svc.Delete(context.Background(), custID)
	assert.ErrorIs(t, err, ledger.ErrHasOutstandingBalance)

	_, ok := st.Customer(custID)
	assert.True(t, ok)
}

func TestDeleteCustomerWithCredit(t *testing.T) {
	st, svc := newCustomerEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Creditor", Phone: "9800000042", OutstandingBalance: dec("-300")})

	// A credit balance blocks deletion too: the business owes them money.
	err := svc.Delete(context.Background(), custID)
	assert.ErrorIs(t, err, ledger.ErrHasOutstandingBalance)
}

func TestDeleteCustomerWithCylinders(t *testing.T) {
	st, svc := newCustomerEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Holder", Phone: "9800000043", CylindersOutstanding: 2})

	err := svc.Delete(context.Background(), custID)
	assert.ErrorIs(t, err, ledger.ErrHasOutstandingCylinders)
}

func TestDeleteCustomerNotFound(t *testing.T) {
	_, svc := newCustomerEnv()
	err := svc.Delete(context.Background(), 999)
	assert.ErrorIs(t, err, ledger.ErrCustomerNotFound)
}

func TestDeleteCustomerAfterSettling(t *testing.T) {
	st := memory.New()
	sales := NewSaleService(st, nil, cache.Disabled())
	payments := NewPaymentService(st, nil, cache.Disabled())
	cylinders := NewCylinderService(st, nil, cache.Disabled())
	customers := NewCustomerService(st, nil, nil, nil, cache.Disabled())
	custID := st.SeedCustomer(models.Customer{Name: "Lifecycle", Phone: "9800000044"})
	ctx := context.Background()

	// Sell on credit, collect the money, take the cylinders back.
	_, err := sales.Create(ctx, cylinderSale(custID, 3, "900", models.PaymentCredit))
	require.NoError(t, err)

	assert.ErrorIs(t, customers.Delete(ctx, custID), ledger.ErrHasOutstandingBalance)

	_, err = payments.Create(ctx, &models.PaymentInput{CustomerID: custID, Amount: dec("2700")})
	require.NoError(t, err)

	assert.ErrorIs(t, customers.Delete(ctx, custID), ledger.ErrHasOutstandingCylinders)

	require.NoError(t, cylinders.RecordReturn(ctx, custID, &models.RecordReturnRequest{CylindersReturned: 3}))
	require.NoError(t, customers.Delete(ctx, custID))

	_, ok := st.Customer(custID)
	assert.False(t, ok)
	_, ok = st.Tracking(custID)
	assert.False(t, ok, "tracking goes with the customer")
}
