package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cylinder-backend/internal/models"
	"cylinder-backend/internal/store/memory"
)

// recordingCache captures invalidations so the tests can assert that ledger
// mutations drop the cached aggregates they change.
type recordingCache struct {
	dropped []int
	flushes int
}

func (c *recordingCache) GetCustomer(ctx context.Context, id int) (*models.Customer, bool) {
	return nil, false
}

func (c *recordingCache) SetCustomer(ctx context.Context, cust *models.Customer) {}

func (c *recordingCache) InvalidateCustomer(ctx context.Context, id int) {
	c.dropped = append(c.dropped, id)
}

func (c *recordingCache) InvalidateCustomers(ctx context.Context) {
	c.flushes++
}

func TestSaleLifecycleDropsCachedCustomer(t *testing.T) {
	st := memory.New()
	rc := &recordingCache{}
	svc := NewSaleService(st, nil, rc)
	custID := st.SeedCustomer(models.Customer{Name: "Sharma Dhaba", Phone: "9800000060"})
	ctx := context.Background()

	id, err := svc.Create(ctx, cylinderSale(custID, 4, "850", models.PaymentCredit))
	require.NoError(t, err)
	require.NoError(t, svc.Update(ctx, id, cylinderSale(custID, 6, "850", models.PaymentCredit)))
	require.NoError(t, svc.Delete(ctx, id))

	// Each mutation moved the customer's aggregates, so each must drop the
	// cached entry or reads would serve the pre-mutation balance until TTL.
	assert.Equal(t, []int{custID, custID, custID}, rc.dropped)
}

func TestPaymentLifecycleDropsCachedCustomer(t *testing.T) {
	st := memory.New()
	rc := &recordingCache{}
	svc := NewPaymentService(st, nil, rc)
	custID := st.SeedCustomer(models.Customer{Name: "Test", Phone: "9800000061", OutstandingBalance: dec("5000")})
	ctx := context.Background()

	id, err := svc.Create(ctx, &models.PaymentInput{CustomerID: custID, Amount: dec("2000")})
	require.NoError(t, err)
	require.NoError(t, svc.Update(ctx, id, &models.PaymentInput{CustomerID: custID, Amount: dec("2500")}))
	require.NoError(t, svc.Delete(ctx, id))

	assert.Equal(t, []int{custID, custID, custID}, rc.dropped)
}

func TestMovePaymentDropsBothCustomers(t *testing.T) {
	st := memory.New()
	rc := &recordingCache{}
	svc := NewPaymentService(st, nil, rc)
	custA := st.SeedCustomer(models.Customer{Name: "A", Phone: "9800000062", OutstandingBalance: dec("3000")})
	custB := st.SeedCustomer(models.Customer{Name: "B", Phone: "9800000063", OutstandingBalance: dec("3000")})
	ctx := context.Background()

	id, err := svc.Create(ctx, &models.PaymentInput{CustomerID: custA, Amount: dec("1000")})
	require.NoError(t, err)
	rc.dropped = nil

	require.NoError(t, svc.Update(ctx, id, &models.PaymentInput{CustomerID: custB, Amount: dec("1000")}))
	assert.ElementsMatch(t, []int{custA, custB}, rc.dropped)
}

func TestCylinderReturnAndResetDropCachedCustomer(t *testing.T) {
	st := memory.New()
	rc := &recordingCache{}
	sales := NewSaleService(st, nil, rc)
	cylinders := NewCylinderService(st, nil, rc)
	custID := st.SeedCustomer(models.Customer{Name: "Test", Phone: "9800000064"})
	ctx := context.Background()

	_, err := sales.Create(ctx, cylinderSale(custID, 3, "850", models.PaymentCash))
	require.NoError(t, err)
	rc.dropped = nil

	require.NoError(t, cylinders.RecordReturn(ctx, custID, &models.RecordReturnRequest{CylindersReturned: 3}))
	require.NoError(t, cylinders.Reset(ctx, custID))

	assert.Equal(t, []int{custID, custID}, rc.dropped)
}

func TestFailedMutationLeavesCacheAlone(t *testing.T) {
	st := memory.New()
	rc := &recordingCache{}
	sales := NewSaleService(st, nil, rc)
	payments := NewPaymentService(st, nil, rc)
	ctx := context.Background()

	_, err := sales.Create(ctx, cylinderSale(999, 2, "850", models.PaymentCash))
	require.Error(t, err)
	_, err = payments.Create(ctx, &models.PaymentInput{CustomerID: 1, Amount: dec("0")})
	require.Error(t, err)

	assert.Empty(t, rc.dropped)
	assert.Zero(t, rc.flushes)
}
