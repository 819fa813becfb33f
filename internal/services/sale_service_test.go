package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cylinder-backend/internal/cache"
	"cylinder-backend/internal/ledger"
	"cylinder-backend/internal/models"
	"cylinder-backend/internal/store/memory"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

// assertCylinderInvariants checks that the tracking arithmetic holds and
// that the customer mirror agrees with the tracking record.
func assertCylinderInvariants(t *testing.T, st *memory.Store, customerID int) {
	t.Helper()
	cust, ok := st.Customer(customerID)
	require.True(t, ok)
	tracking, ok := st.Tracking(customerID)
	if !ok {
		assert.Equal(t, 0, cust.CylindersOutstanding)
		return
	}
	assert.Equal(t, tracking.CylindersDelivered-tracking.CylindersReturned, tracking.CylindersOutstanding)
	assert.GreaterOrEqual(t, tracking.CylindersOutstanding, 0)
	assert.Equal(t, tracking.CylindersOutstanding, cust.CylindersOutstanding)
}

func newSaleEnv() (*memory.Store, *SaleService) {
	st := memory.New()
	return st, NewSaleService(st, nil, cache.Disabled())
}

func cylinderSale(customerID, qty int, rate string, pay models.PaymentType) *models.SaleInput {
	return &models.SaleInput{
		CustomerID:  customerID,
		Type:        models.SaleCylinder,
		Cylinders:   qty,
		Rate:        dec(rate),
		PaymentType: pay,
	}
}

func weightSale(customerID int, weight, rate string, vehicleID int, pay models.PaymentType) *models.SaleInput {
	return &models.SaleInput{
		CustomerID:  customerID,
		Type:        models.SaleWeight,
		Weight:      dec(weight),
		Rate:        dec(rate),
		VehicleID:   &vehicleID,
		PaymentType: pay,
	}
}

func TestCreateCylinderSaleCash(t *testing.T) {
	st, svc := newSaleEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Ramesh Traders", Phone: "9800000001"})

	id, err := svc.Create(context.Background(), cylinderSale(custID, 5, "850", models.PaymentCash))
	require.NoError(t, err)
	assert.Equal(t, "S1", id)

	sale, ok := st.Sale(id)
	require.True(t, ok)
	assert.Equal(t, models.SaleCompleted, sale.Status)
	assertDecimal(t, "4250", sale.Amount)

	// Cash sale leaves the balance alone but cylinders still go out.
	cust, _ := st.Customer(custID)
	assertDecimal(t, "0", cust.OutstandingBalance)
	assert.Equal(t, 5, cust.CylindersOutstanding)

	tracking, ok := st.Tracking(custID)
	require.True(t, ok, "first cylinder sale creates the tracking record")
	assert.Equal(t, 5, tracking.CylindersDelivered)
	assert.Equal(t, 0, tracking.CylindersReturned)
	assert.Equal(t, 5, tracking.CylindersOutstanding)
	assertCylinderInvariants(t, st, custID)
}

func TestCreateCylinderSaleCredit(t *testing.T) {
	st, svc := newSaleEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Gupta Hotel", Phone: "9800000002"})

	id, err := svc.Create(context.Background(), cylinderSale(custID, 3, "901", models.PaymentCredit))
	require.NoError(t, err)

	sale, _ := st.Sale(id)
	assert.Equal(t, models.SalePending, sale.Status)

	cust, _ := st.Customer(custID)
	assertDecimal(t, "2703", cust.OutstandingBalance)
	assert.Equal(t, 3, cust.CylindersOutstanding)
	assertCylinderInvariants(t, st, custID)
}

func TestCreateWeightSale(t *testing.T) {
	st, svc := newSaleEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Verma Transport", Phone: "9800000003"})
	vehID := st.SeedVehicle(models.Vehicle{CustomerID: custID, RegistrationNumber: "UP32 AB 1234"})

	id, err := svc.Create(context.Background(), weightSale(custID, "12.5", "85.5", vehID, models.PaymentCredit))
	require.NoError(t, err)

	sale, _ := st.Sale(id)
	assertDecimal(t, "1069", sale.Amount) // 1068.75 rounds up
	require.NotNil(t, sale.VehicleID)
	assert.Equal(t, vehID, *sale.VehicleID)

	// Weight sales never touch cylinder tracking.
	_, ok := st.Tracking(custID)
	assert.False(t, ok)

	cust, _ := st.Customer(custID)
	assertDecimal(t, "1069", cust.OutstandingBalance)
	assert.Equal(t, 0, cust.CylindersOutstanding)
}

func TestCreateSaleValidation(t *testing.T) {
	st, svc := newSaleEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Test", Phone: "9800000004"})
	ctx := context.Background()

	_, err := svc.Create(ctx, cylinderSale(custID, 0, "850", models.PaymentCash))
	assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)

	_, err = svc.Create(ctx, cylinderSale(custID, -2, "850", models.PaymentCash))
	assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)

	_, err = svc.Create(ctx, cylinderSale(custID, 2, "0", models.PaymentCash))
	assert.ErrorIs(t, err, ledger.ErrInvalidRate)

	in := cylinderSale(custID, 2, "850", models.PaymentType("upi"))
	_, err = svc.Create(ctx, in)
	assert.ErrorIs(t, err, ledger.ErrInvalidPayment)

	in = weightSale(custID, "10", "85", 1, models.PaymentCash)
	in.VehicleID = nil
	_, err = svc.Create(ctx, in)
	assert.ErrorIs(t, err, ledger.ErrMissingVehicle)

	in = cylinderSale(custID, 2, "850", models.PaymentCash)
	in.Type = models.SaleType("bulk")
	_, err = svc.Create(ctx, in)
	assert.ErrorIs(t, err, ledger.ErrInvalidSaleType)
}

func TestCreateSaleMissingReferences(t *testing.T) {
	st, svc := newSaleEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Test", Phone: "9800000005"})
	ctx := context.Background()

	_, err := svc.Create(ctx, cylinderSale(999, 2, "850", models.PaymentCash))
	assert.ErrorIs(t, err, ledger.ErrCustomerNotFound)

	_, err = svc.Create(ctx, weightSale(custID, "10", "85", 999, models.PaymentCash))
	assert.ErrorIs(t, err, ledger.ErrVehicleNotFound)
}

func TestSaleIDsAreSequential(t *testing.T) {
	st, svc := newSaleEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Test", Phone: "9800000006"})
	ctx := context.Background()

	id1, err := svc.Create(ctx, cylinderSale(custID, 1, "850", models.PaymentCash))
	require.NoError(t, err)
	id2, err := svc.Create(ctx, cylinderSale(custID, 1, "850", models.PaymentCash))
	require.NoError(t, err)
	assert.Equal(t, "S1", id1)
	assert.Equal(t, "S2", id2)
}

func TestCreateSaleCounterMissing(t *testing.T) {
	st, svc := newSaleEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Test", Phone: "9800000007"})

	st.SetCounterMissing(true)
	_, err := svc.Create(context.Background(), cylinderSale(custID, 2, "850", models.PaymentCredit))
	assert.ErrorIs(t, err, ledger.ErrCounterMissing)

	// Nothing may have been applied.
	cust, _ := st.Customer(custID)
	assertDecimal(t, "0", cust.OutstandingBalance)
	assert.Equal(t, 0, cust.CylindersOutstanding)
	_, ok := st.Tracking(custID)
	assert.False(t, ok)
}

func TestCreateSaleAtomicUnderFault(t *testing.T) {
	st, svc := newSaleEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Test", Phone: "9800000008"})

	// Writes in order: sequence, customer, tracking, sale. Failing after two
	// aborts between the balance update and the tracking update.
	st.FailAfterWrites(2)
	_, err := svc.Create(context.Background(), cylinderSale(custID, 4, "850", models.PaymentCredit))
	require.ErrorIs(t, err, memory.ErrInjectedFault)

	cust, _ := st.Customer(custID)
	assertDecimal(t, "0", cust.OutstandingBalance)
	assert.Equal(t, 0, cust.CylindersOutstanding)
	_, ok := st.Tracking(custID)
	assert.False(t, ok)

	// The aborted transaction must not have consumed a sale ID either.
	id, err := svc.Create(context.Background(), cylinderSale(custID, 4, "850", models.PaymentCredit))
	require.NoError(t, err)
	assert.Equal(t, "S1", id)
}

func TestUpdateSaleSamePaymentType(t *testing.T) {
	st, svc := newSaleEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Test", Phone: "9800000009"})
	ctx := context.Background()

	id, err := svc.Create(ctx, cylinderSale(custID, 3, "900", models.PaymentCredit))
	require.NoError(t, err)

	// credit -> credit: balance moves by the amount difference.
	err = svc.Update(ctx, id, cylinderSale(custID, 5, "900", models.PaymentCredit))
	require.NoError(t, err)

	cust, _ := st.Customer(custID)
	assertDecimal(t, "4500", cust.OutstandingBalance)
	assert.Equal(t, 5, cust.CylindersOutstanding)

	tracking, _ := st.Tracking(custID)
	assert.Equal(t, 5, tracking.CylindersDelivered)
	assertCylinderInvariants(t, st, custID)
}

func TestUpdateSalePaymentTypeCross(t *testing.T) {
	st, svc := newSaleEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Test", Phone: "9800000010"})
	ctx := context.Background()

	id, err := svc.Create(ctx, cylinderSale(custID, 2, "850", models.PaymentCredit))
	require.NoError(t, err)
	cust, _ := st.Customer(custID)
	assertDecimal(t, "1700", cust.OutstandingBalance)

	// credit -> cash: the old amount comes off the balance.
	err = svc.Update(ctx, id, cylinderSale(custID, 2, "850", models.PaymentCash))
	require.NoError(t, err)
	cust, _ = st.Customer(custID)
	assertDecimal(t, "0", cust.OutstandingBalance)

	// cash -> credit: the new amount goes on.
	err = svc.Update(ctx, id, cylinderSale(custID, 2, "900", models.PaymentCredit))
	require.NoError(t, err)
	cust, _ = st.Customer(custID)
	assertDecimal(t, "1800", cust.OutstandingBalance)

	// Status stays what creation decided; updates never recompute it.
	sale, _ := st.Sale(id)
	assert.Equal(t, models.SalePending, sale.Status)
}

func TestUpdateSaleTypeCross(t *testing.T) {
	st, svc := newSaleEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Test", Phone: "9800000011"})
	vehID := st.SeedVehicle(models.Vehicle{CustomerID: custID, RegistrationNumber: "UP32 CD 5678"})
	ctx := context.Background()

	id, err := svc.Create(ctx, cylinderSale(custID, 4, "850", models.PaymentCash))
	require.NoError(t, err)
	assert.Equal(t, 4, mustCustomer(t, st, custID).CylindersOutstanding)

	// cylinder -> weight: the delivered cylinders are backed out.
	err = svc.Update(ctx, id, weightSale(custID, "20", "85", vehID, models.PaymentCash))
	require.NoError(t, err)
	assert.Equal(t, 0, mustCustomer(t, st, custID).CylindersOutstanding)
	tracking, _ := st.Tracking(custID)
	assert.Equal(t, 0, tracking.CylindersDelivered)
	assertCylinderInvariants(t, st, custID)

	sale, _ := st.Sale(id)
	assert.Equal(t, models.SaleWeight, sale.Type)
	assert.Equal(t, 0, sale.Cylinders)
	require.NotNil(t, sale.VehicleID)

	// weight -> cylinder: the new quantity goes out.
	err = svc.Update(ctx, id, cylinderSale(custID, 6, "850", models.PaymentCash))
	require.NoError(t, err)
	assert.Equal(t, 6, mustCustomer(t, st, custID).CylindersOutstanding)
	assertCylinderInvariants(t, st, custID)

	sale, _ = st.Sale(id)
	assert.Equal(t, models.SaleCylinder, sale.Type)
	assert.Nil(t, sale.VehicleID)
	assert.True(t, sale.Weight.IsZero())
}

func TestUpdateSaleKeepsCustomer(t *testing.T) {
	st, svc := newSaleEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Owner", Phone: "9800000012"})
	otherID := st.SeedCustomer(models.Customer{Name: "Other", Phone: "9800000013"})
	ctx := context.Background()

	id, err := svc.Create(ctx, cylinderSale(custID, 2, "850", models.PaymentCredit))
	require.NoError(t, err)

	// The input names a different customer; the sale must stay put.
	err = svc.Update(ctx, id, cylinderSale(otherID, 2, "900", models.PaymentCredit))
	require.NoError(t, err)

	sale, _ := st.Sale(id)
	assert.Equal(t, custID, sale.CustomerID)
	assertDecimal(t, "1800", mustCustomer(t, st, custID).OutstandingBalance)
	assertDecimal(t, "0", mustCustomer(t, st, otherID).OutstandingBalance)
}

func TestDeleteSaleReversesCreate(t *testing.T) {
	st, svc := newSaleEnv()
	custID := st.SeedCustomer(models.Customer{Name: "Test", Phone: "9800000014"})
	ctx := context.Background()

	id, err := svc.Create(ctx, cylinderSale(custID, 5, "901", models.PaymentCredit))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, id))

	cust, _ := st.Customer(custID)
	assertDecimal(t, "0", cust.OutstandingBalance)
	assert.Equal(t, 0, cust.CylindersOutstanding)

	tracking, ok := st.Tracking(custID)
	require.True(t, ok, "tracking record survives with zeroed deltas")
	assert.Equal(t, 0, tracking.CylindersDelivered)
	assert.Equal(t, 0, tracking.CylindersOutstanding)

	_, ok = st.Sale(id)
	assert.False(t, ok)
}

func TestDeleteSaleNotFound(t *testing.T) {
	_, svc := newSaleEnv()
	err := svc.Delete(context.Background(), "S404")
	assert.ErrorIs(t, err, ledger.ErrSaleNotFound)
}

func mustCustomer(t *testing.T, st *memory.Store, id int) models.Customer {
	t.Helper()
	c, ok := st.Customer(id)
	require.True(t, ok)
	return c
}
