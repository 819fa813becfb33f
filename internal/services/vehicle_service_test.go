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

func TestDeleteVehicle(t *testing.T) {
	st := memory.New()
	svc := NewVehicleService(st, nil)
	custID := st.SeedCustomer(models.Customer{Name: "Test", Phone: "9800000050"})
	vehID := st.SeedVehicle(models.Vehicle{CustomerID: custID, RegistrationNumber: "UP32 EF 9012"})

	require.NoError(t, svc.Delete(context.Background(), vehID))
	_, ok := st.Vehicle(vehID)
	assert.False(t, ok)
}

func TestDeleteVehicleNotFound(t *testing.T) {
	st := memory.New()
	svc := NewVehicleService(st, nil)

	err := svc.Delete(context.Background(), 999)
	assert.ErrorIs(t, err, ledger.ErrVehicleNotFound)
}

func TestDeleteVehicleWithPendingSales(t *testing.T) {
	st := memory.New()
	vehicles := NewVehicleService(st, nil)
	sales := NewSaleService(st, nil, cache.Disabled())
	custID := st.SeedCustomer(models.Customer{Name: "Test", Phone: "9800000051"})
	vehID := st.SeedVehicle(models.Vehicle{CustomerID: custID, RegistrationNumber: "UP32 GH 3456"})
	ctx := context.Background()

	// A credit weight sale is pending and pins the vehicle.
	saleID, err := sales.Create(ctx, weightSale(custID, "15", "90", vehID, models.PaymentCredit))
	require.NoError(t, err)

	err = vehicles.Delete(ctx, vehID)
	assert.ErrorIs(t, err, ledger.ErrVehicleHasPendingSales)
	_, ok := st.Vehicle(vehID)
	assert.True(t, ok)

	// Once the sale is gone the vehicle can go too.
	require.NoError(t, sales.Delete(ctx, saleID))
	require.NoError(t, vehicles.Delete(ctx, vehID))
}

func TestDeleteVehicleWithCompletedSales(t *testing.T) {
	st := memory.New()
	vehicles := NewVehicleService(st, nil)
	sales := NewSaleService(st, nil, cache.Disabled())
	custID := st.SeedCustomer(models.Customer{Name: "Test", Phone: "9800000052"})
	vehID := st.SeedVehicle(models.Vehicle{CustomerID: custID, RegistrationNumber: "UP32 IJ 7890"})
	ctx := context.Background()

	// Cash weight sales complete immediately and do not pin the vehicle.
	_, err := sales.Create(ctx, weightSale(custID, "15", "90", vehID, models.PaymentCash))
	require.NoError(t, err)

	require.NoError(t, vehicles.Delete(ctx, vehID))
}
