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

func newCylinderEnv() (*memory.Store, *SaleService, *CylinderService) {
	st := memory.New()
	return st, NewSaleService(st, nil, cache.Disabled()), NewCylinderService(st, nil, cache.Disabled())
}

func TestRecordReturn(t *testing.T) {
	st, sales, cylinders := newCylinderEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Gupta Hotel", Phone: "9800000030"})
	ctx := context.Background()

	_, err := sales.Create(ctx, cylinderSale(custID, 10, "850", models.PaymentCash))
	require.NoError(t, err)

	err = cylinders.RecordReturn(ctx, custID, &models.RecordReturnRequest{CylindersReturned: 4, Notes: "partial"})
	require.NoError(t, err)

	tracking, _ := st.Tracking(custID)
	assert.Equal(t, 10, tracking.CylindersDelivered)
	assert.Equal(t, 4, tracking.CylindersReturned)
	assert.Equal(t, 6, tracking.CylindersOutstanding)
	assertCylinderInvariants(t, st, custID)

	events := st.Events(custID)
	require.Len(t, events, 1)
	assert.Equal(t, models.ReturnCompleted, events[0].Status)
	assert.Equal(t, 4, events[0].CylindersReturned)
	assert.Equal(t, 6, events[0].CylindersOutstanding, "event snapshots the post-return count")
}

func TestRecordReturnExceedsOutstanding(t *testing.T) {
	st, sales, cylinders := newCylinderEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Test", Phone: "9800000031"})
	ctx := context.Background()

	_, err := sales.Create(ctx, cylinderSale(custID, 3, "850", models.PaymentCash))
	require.NoError(t, err)

	err = cylinders.RecordReturn(ctx, custID, &models.RecordReturnRequest{CylindersReturned: 5})
	assert.ErrorIs(t, err, ledger.ErrReturnExceedsOutstanding)

	// Rejected return leaves everything untouched.
	tracking, _ := st.Tracking(custID)
	assert.Equal(t, 3, tracking.CylindersOutstanding)
	assert.Empty(t, st.Events(custID))
	assertCylinderInvariants(t, st, custID)
}

func TestRecordReturnValidation(t *testing.T) {
	st, _, cylinders := newCylinderEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Test", Phone: "9800000032"})
	ctx := context.Background()

	err := cylinders.RecordReturn(ctx, custID, &models.RecordReturnRequest{CylindersReturned: 0})
	assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)

	err = cylinders.RecordReturn(ctx, 999, &models.RecordReturnRequest{CylindersReturned: 1})
	assert.ErrorIs(t, err, ledger.ErrCustomerNotFound)

	// Customer exists but never bought cylinders.
	err = cylinders.RecordReturn(ctx, custID, &models.RecordReturnRequest{CylindersReturned: 1})
	assert.ErrorIs(t, err, ledger.ErrNoTrackingFound)
}

func TestFullReturnCycle(t *testing.T) {
	st, sales, cylinders := newCylinderEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Test", Phone: "9800000033"})
	ctx := context.Background()

	_, err := sales.Create(ctx, cylinderSale(custID, 8, "850", models.PaymentCash))
	require.NoError(t, err)
	require.NoError(t, cylinders.RecordReturn(ctx, custID, &models.RecordReturnRequest{CylindersReturned: 5}))
	require.NoError(t, cylinders.RecordReturn(ctx, custID, &models.RecordReturnRequest{CylindersReturned: 3}))

	tracking, _ := st.Tracking(custID)
	assert.Equal(t, 0, tracking.CylindersOutstanding)
	assert.Equal(t, 8, tracking.CylindersReturned)
	assert.Equal(t, 0, mustCustomer(t, st, custID).CylindersOutstanding)
	assertCylinderInvariants(t, st, custID)
}

func TestResetRequiresZeroOutstanding(t *testing.T) {
	st, sales, cylinders := newCylinderEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Test", Phone: "9800000034"})
	ctx := context.Background()

	_, err := sales.Create(ctx, cylinderSale(custID, 4, "850", models.PaymentCash))
	require.NoError(t, err)

	err = cylinders.Reset(ctx, custID)
	assert.ErrorIs(t, err, ledger.ErrOutstandingNotZero)

	tracking, _ := st.Tracking(custID)
	assert.Equal(t, 4, tracking.CylindersDelivered, "failed reset changes nothing")
}

func TestReset(t *testing.T) {
	st, sales, cylinders := newCylinderEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Test", Phone: "9800000035"})
	ctx := context.Background()

	_, err := sales.Create(ctx, cylinderSale(custID, 6, "850", models.PaymentCash))
	require.NoError(t, err)
	require.NoError(t, cylinders.RecordReturn(ctx, custID, &models.RecordReturnRequest{CylindersReturned: 6}))

	require.NoError(t, cylinders.Reset(ctx, custID))

	tracking, _ := st.Tracking(custID)
	assert.Equal(t, 0, tracking.CylindersDelivered)
	assert.Equal(t, 0, tracking.CylindersReturned)
	assert.Equal(t, 0, tracking.CylindersOutstanding)

	events := st.Events(custID)
	require.Len(t, events, 2)
	assert.Equal(t, models.ReturnReset, events[1].Status)
}

func TestResetNoTracking(t *testing.T) {
	st, _, cylinders := newCylinderEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Test", Phone: "9800000036"})

	err := cylinders.Reset(context.Background(), custID)
	assert.ErrorIs(t, err, ledger.ErrNoTrackingFound)
}

func TestRecordReturnAtomicUnderFault(t *testing.T) {
	st, sales, cylinders := newCylinderEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Test", Phone: "9800000037"})
	ctx := context.Background()

	_, err := sales.Create(ctx, cylinderSale(custID, 10, "850", models.PaymentCash))
	require.NoError(t, err)

	// Writes: customer, tracking, event. Fail between customer and tracking,
	// which would desync the mirror if the store were not atomic.
	st.FailAfterWrites(1)
	err = cylinders.RecordReturn(ctx, custID, &models.RecordReturnRequest{CylindersReturned: 4})
	require.ErrorIs(t, err, memory.ErrInjectedFault)

	assert.Equal(t, 10, mustCustomer(t, st, custID).CylindersOutstanding)
	tracking, _ := st.Tracking(custID)
	assert.Equal(t, 10, tracking.CylindersOutstanding)
	assert.Empty(t, st.Events(custID))
	assertCylinderInvariants(t, st, custID)
}
