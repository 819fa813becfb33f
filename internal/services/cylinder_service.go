package services

import (
	"context"
	"time"

	"cylinder-backend/internal/ledger"
	"cylinder-backend/internal/models"
	"cylinder-backend/internal/repositories"
)

// CylinderService handles the return side of cylinder tracking. Tracking
// records are created by cylinder sales; this service only moves counts from
// outstanding to returned and keeps the customer mirror in step.
type CylinderService struct {
	Store ledger.Store
	Repo  *repositories.CylinderRepository
	Cache CustomerCache
}

func NewCylinderService(store ledger.Store, repo *repositories.CylinderRepository, c CustomerCache) *CylinderService {
	return &CylinderService{Store: store, Repo: repo, Cache: c}
}

// RecordReturn books a cylinder return: returned goes up, outstanding goes
// down on both the tracking record and the customer, and a completed event
// with the post-return outstanding count is appended.
func (s *CylinderService) RecordReturn(ctx context.Context, customerID int, req *models.RecordReturnRequest) error {
	if req.CylindersReturned <= 0 {
		return ledger.ErrInvalidQuantity
	}

	err := s.Store.RunAtomic(ctx, func(ctx context.Context, tx ledger.Tx) error {
		cust, err := tx.GetCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		tracking, err := tx.GetTracking(ctx, customerID)
		if err != nil {
			return err
		}
		if tracking == nil {
			return ledger.ErrNoTrackingFound
		}
		if req.CylindersReturned > tracking.CylindersOutstanding {
			return ledger.ErrReturnExceedsOutstanding
		}

		now := time.Now()
		tracking.CylindersReturned += req.CylindersReturned
		tracking.CylindersOutstanding -= req.CylindersReturned
		tracking.LastUpdate = now
		cust.CylindersOutstanding -= req.CylindersReturned

		if err := tx.PutCustomer(ctx, cust); err != nil {
			return err
		}
		if err := tx.PutTracking(ctx, tracking); err != nil {
			return err
		}
		return tx.AppendReturnEvent(ctx, &models.CylinderReturnEvent{
			CustomerID:           customerID,
			CylindersReturned:    req.CylindersReturned,
			CylindersOutstanding: tracking.CylindersOutstanding,
			Status:               models.ReturnCompleted,
			Notes:                req.Notes,
			Date:                 now,
		})
	})
	observeLedger("cylinder_return", err)
	if err != nil {
		return err
	}
	s.Cache.InvalidateCustomer(ctx, customerID)
	return nil
}

// Reset zeroes a customer's tracking counters. Only legal once every
// cylinder is back; the outstanding count is re-checked inside the
// transaction so a concurrent sale cannot slip a delivery past the reset.
func (s *CylinderService) Reset(ctx context.Context, customerID int) error {
	err := s.Store.RunAtomic(ctx, func(ctx context.Context, tx ledger.Tx) error {
		cust, err := tx.GetCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		tracking, err := tx.GetTracking(ctx, customerID)
		if err != nil {
			return err
		}
		if tracking == nil {
			return ledger.ErrNoTrackingFound
		}
		if tracking.CylindersOutstanding != 0 {
			return ledger.ErrOutstandingNotZero
		}

		now := time.Now()
		tracking.CylindersDelivered = 0
		tracking.CylindersReturned = 0
		tracking.CylindersOutstanding = 0
		tracking.LastUpdate = now
		cust.CylindersOutstanding = 0

		if err := tx.PutCustomer(ctx, cust); err != nil {
			return err
		}
		if err := tx.PutTracking(ctx, tracking); err != nil {
			return err
		}
		return tx.AppendReturnEvent(ctx, &models.CylinderReturnEvent{
			CustomerID:           customerID,
			CylindersReturned:    0,
			CylindersOutstanding: 0,
			Status:               models.ReturnReset,
			Notes:                "tracking reset",
			Date:                 now,
		})
	})
	observeLedger("cylinder_reset", err)
	if err != nil {
		return err
	}
	s.Cache.InvalidateCustomer(ctx, customerID)
	return nil
}

func (s *CylinderService) GetTracking(ctx context.Context, customerID int) (*models.CylinderTracking, error) {
	return s.Repo.GetTracking(ctx, customerID)
}

func (s *CylinderService) ListTracking(ctx context.Context) ([]*models.CylinderTracking, error) {
	return s.Repo.ListTracking(ctx)
}

func (s *CylinderService) ReturnHistory(ctx context.Context, customerID int) ([]*models.CylinderReturnEvent, error) {
	return s.Repo.ListReturnEvents(ctx, customerID)
}
