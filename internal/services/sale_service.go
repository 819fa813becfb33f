package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"cylinder-backend/internal/ledger"
	"cylinder-backend/internal/models"
	"cylinder-backend/internal/repositories"
)

// SaleService owns the sale side of the ledger: every create/update/delete
// adjusts the customer aggregates and, for cylinder sales, the tracking
// record in the same atomic transaction as the sale record itself.
type SaleService struct {
	Store ledger.Store
	Repo  *repositories.SaleRepository
	Cache CustomerCache
}

func NewSaleService(store ledger.Store, repo *repositories.SaleRepository, c CustomerCache) *SaleService {
	return &SaleService{Store: store, Repo: repo, Cache: c}
}

func validateSaleInput(in *models.SaleInput) error {
	switch in.Type {
	case models.SaleCylinder:
		if in.Cylinders <= 0 {
			return ledger.ErrInvalidQuantity
		}
	case models.SaleWeight:
		if !in.Weight.IsPositive() {
			return ledger.ErrInvalidQuantity
		}
		if in.VehicleID == nil {
			return ledger.ErrMissingVehicle
		}
	default:
		return ledger.ErrInvalidSaleType
	}
	if !in.Rate.IsPositive() {
		return ledger.ErrInvalidRate
	}
	if in.PaymentType != models.PaymentCash && in.PaymentType != models.PaymentCredit {
		return ledger.ErrInvalidPayment
	}
	return nil
}

func saleQuantity(in *models.SaleInput) decimal.Decimal {
	if in.Type == models.SaleCylinder {
		return decimal.NewFromInt(int64(in.Cylinders))
	}
	return in.Weight
}

// Create records a sale and applies its effects: credit sales raise the
// customer's outstanding balance, cylinder sales raise the delivered and
// outstanding cylinder counts. Returns the allocated sale ID ("S<n>").
func (s *SaleService) Create(ctx context.Context, in *models.SaleInput) (string, error) {
	if err := validateSaleInput(in); err != nil {
		return "", err
	}
	amount := ledger.SaleAmount(saleQuantity(in), in.Rate)

	var saleID string
	err := s.Store.RunAtomic(ctx, func(ctx context.Context, tx ledger.Tx) error {
		cust, err := tx.GetCustomer(ctx, in.CustomerID)
		if err != nil {
			return err
		}
		var tracking *models.CylinderTracking
		if in.Type == models.SaleCylinder {
			if tracking, err = tx.GetTracking(ctx, cust.ID); err != nil {
				return err
			}
		}
		if in.Type == models.SaleWeight {
			if _, err := tx.GetVehicle(ctx, *in.VehicleID); err != nil {
				return err
			}
		}

		seq, err := tx.NextSequence(ctx, ledger.SequenceSale)
		if err != nil {
			return err
		}
		saleID = ledger.FormatID(ledger.SequenceSale, seq)

		now := time.Now()
		if in.PaymentType == models.PaymentCredit {
			cust.OutstandingBalance = cust.OutstandingBalance.Add(amount)
		}
		if in.Type == models.SaleCylinder {
			if tracking == nil {
				tracking = &models.CylinderTracking{CustomerID: cust.ID}
			}
			tracking.CylindersDelivered += in.Cylinders
			tracking.CylindersOutstanding += in.Cylinders
			tracking.LastUpdate = now
			cust.CylindersOutstanding += in.Cylinders
		}

		if err := tx.PutCustomer(ctx, cust); err != nil {
			return err
		}
		if tracking != nil {
			if err := tx.PutTracking(ctx, tracking); err != nil {
				return err
			}
		}

		status := models.SalePending
		if in.PaymentType == models.PaymentCash {
			status = models.SaleCompleted
		}
		sale := &models.Sale{
			ID:          saleID,
			CustomerID:  cust.ID,
			Type:        in.Type,
			Rate:        in.Rate,
			Amount:      amount,
			PaymentType: in.PaymentType,
			Status:      status,
			Notes:       in.Notes,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if in.Type == models.SaleCylinder {
			sale.Cylinders = in.Cylinders
		} else {
			sale.Weight = in.Weight
			sale.VehicleID = in.VehicleID
		}
		return tx.PutSale(ctx, sale)
	})
	observeLedger("sale_create", err)
	if err != nil {
		return "", err
	}
	s.Cache.InvalidateCustomer(ctx, in.CustomerID)
	return saleID, nil
}

// Update rewrites a sale and leaves the aggregates reflecting exactly one
// net application of the new state. Balance and cylinder adjustments follow
// the cross product of old/new payment type and old/new sale type. The sale
// stays with its original customer, and status is not recomputed on edit.
func (s *SaleService) Update(ctx context.Context, id string, in *models.SaleInput) error {
	if err := validateSaleInput(in); err != nil {
		return err
	}
	newAmount := ledger.SaleAmount(saleQuantity(in), in.Rate)

	var custID int
	err := s.Store.RunAtomic(ctx, func(ctx context.Context, tx ledger.Tx) error {
		old, err := tx.GetSale(ctx, id)
		if err != nil {
			return err
		}
		custID = old.CustomerID
		cust, err := tx.GetCustomer(ctx, old.CustomerID)
		if err != nil {
			return err
		}
		var tracking *models.CylinderTracking
		if old.Type == models.SaleCylinder || in.Type == models.SaleCylinder {
			if tracking, err = tx.GetTracking(ctx, cust.ID); err != nil {
				return err
			}
		}
		if in.Type == models.SaleWeight {
			if _, err := tx.GetVehicle(ctx, *in.VehicleID); err != nil {
				return err
			}
		}

		switch {
		case old.PaymentType == models.PaymentCredit && in.PaymentType == models.PaymentCredit:
			cust.OutstandingBalance = cust.OutstandingBalance.Add(newAmount.Sub(old.Amount))
		case old.PaymentType == models.PaymentCash && in.PaymentType == models.PaymentCredit:
			cust.OutstandingBalance = cust.OutstandingBalance.Add(newAmount)
		case old.PaymentType == models.PaymentCredit && in.PaymentType == models.PaymentCash:
			cust.OutstandingBalance = cust.OutstandingBalance.Sub(old.Amount)
		}

		var cylinderDelta int
		switch {
		case old.Type == models.SaleCylinder && in.Type == models.SaleCylinder:
			cylinderDelta = in.Cylinders - old.Cylinders
		case old.Type == models.SaleWeight && in.Type == models.SaleCylinder:
			cylinderDelta = in.Cylinders
		case old.Type == models.SaleCylinder && in.Type == models.SaleWeight:
			cylinderDelta = -old.Cylinders
		}
		now := time.Now()
		if cylinderDelta != 0 {
			if tracking == nil {
				tracking = &models.CylinderTracking{CustomerID: cust.ID}
			}
			tracking.CylindersDelivered += cylinderDelta
			tracking.CylindersOutstanding += cylinderDelta
			tracking.LastUpdate = now
			cust.CylindersOutstanding += cylinderDelta
		}

		if err := tx.PutCustomer(ctx, cust); err != nil {
			return err
		}
		if cylinderDelta != 0 {
			if err := tx.PutTracking(ctx, tracking); err != nil {
				return err
			}
		}

		updated := &models.Sale{
			ID:          old.ID,
			CustomerID:  old.CustomerID,
			Type:        in.Type,
			Rate:        in.Rate,
			Amount:      newAmount,
			PaymentType: in.PaymentType,
			Status:      old.Status,
			Notes:       in.Notes,
			CreatedAt:   old.CreatedAt,
			UpdatedAt:   now,
		}
		if in.Type == models.SaleCylinder {
			updated.Cylinders = in.Cylinders
		} else {
			updated.Weight = in.Weight
			updated.VehicleID = in.VehicleID
		}
		return tx.PutSale(ctx, updated)
	})
	observeLedger("sale_update", err)
	if err != nil {
		return err
	}
	s.Cache.InvalidateCustomer(ctx, custID)
	return nil
}

// Delete reverses exactly the effects the sale applied at creation, so a
// create followed by a delete leaves the customer and tracking record
// numerically unchanged.
func (s *SaleService) Delete(ctx context.Context, id string) error {
	var custID int
	err := s.Store.RunAtomic(ctx, func(ctx context.Context, tx ledger.Tx) error {
		sale, err := tx.GetSale(ctx, id)
		if err != nil {
			return err
		}
		custID = sale.CustomerID
		cust, err := tx.GetCustomer(ctx, sale.CustomerID)
		if err != nil {
			return err
		}
		var tracking *models.CylinderTracking
		if sale.Type == models.SaleCylinder {
			if tracking, err = tx.GetTracking(ctx, cust.ID); err != nil {
				return err
			}
		}

		if sale.PaymentType == models.PaymentCredit {
			cust.OutstandingBalance = cust.OutstandingBalance.Sub(sale.Amount)
		}
		if sale.Type == models.SaleCylinder && tracking != nil {
			tracking.CylindersDelivered -= sale.Cylinders
			tracking.CylindersOutstanding -= sale.Cylinders
			tracking.LastUpdate = time.Now()
			cust.CylindersOutstanding -= sale.Cylinders
		}

		if err := tx.PutCustomer(ctx, cust); err != nil {
			return err
		}
		if tracking != nil {
			if err := tx.PutTracking(ctx, tracking); err != nil {
				return err
			}
		}
		return tx.DeleteSale(ctx, id)
	})
	observeLedger("sale_delete", err)
	if err != nil {
		return err
	}
	s.Cache.InvalidateCustomer(ctx, custID)
	return nil
}

func (s *SaleService) Get(ctx context.Context, id string) (*models.Sale, error) {
	return s.Repo.Get(ctx, id)
}

func (s *SaleService) List(ctx context.Context, filter *models.SaleFilter) ([]*models.Sale, error) {
	return s.Repo.List(ctx, filter)
}
