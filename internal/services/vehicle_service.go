package services

import (
	"context"

	"cylinder-backend/internal/ledger"
	"cylinder-backend/internal/models"
	"cylinder-backend/internal/repositories"
)

type VehicleService struct {
	Store ledger.Store
	Repo  *repositories.VehicleRepository
}

func NewVehicleService(store ledger.Store, repo *repositories.VehicleRepository) *VehicleService {
	return &VehicleService{Store: store, Repo: repo}
}

func (s *VehicleService) Create(ctx context.Context, req *models.CreateVehicleRequest) (*models.Vehicle, error) {
	return s.Repo.Create(ctx, req)
}

func (s *VehicleService) Get(ctx context.Context, id int) (*models.Vehicle, error) {
	return s.Repo.Get(ctx, id)
}

func (s *VehicleService) List(ctx context.Context) ([]*models.Vehicle, error) {
	return s.Repo.List(ctx)
}

func (s *VehicleService) ListByCustomer(ctx context.Context, customerID int) ([]*models.Vehicle, error) {
	return s.Repo.ListByCustomer(ctx, customerID)
}

func (s *VehicleService) Update(ctx context.Context, id int, req *models.UpdateVehicleRequest) (*models.Vehicle, error) {
	return s.Repo.Update(ctx, id, req)
}

// Delete refuses to remove a vehicle that pending weight sales still
// reference.
func (s *VehicleService) Delete(ctx context.Context, id int) error {
	err := s.Store.RunAtomic(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if _, err := tx.GetVehicle(ctx, id); err != nil {
			return err
		}
		n, err := tx.CountPendingSalesByVehicle(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ledger.ErrVehicleHasPendingSales
		}
		return tx.DeleteVehicle(ctx, id)
	})
	observeLedger("vehicle_delete", err)
	return err
}
