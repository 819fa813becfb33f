package services

import (
	"context"
	"time"

	"cylinder-backend/internal/ledger"
	"cylinder-backend/internal/models"
	"cylinder-backend/internal/repositories"
)

// PaymentService records receipts against customer balances. Overpayment is
// allowed: a balance may go negative, which reads as customer credit.
type PaymentService struct {
	Store ledger.Store
	Repo  *repositories.PaymentRepository
	Cache CustomerCache
}

func NewPaymentService(store ledger.Store, repo *repositories.PaymentRepository, c CustomerCache) *PaymentService {
	return &PaymentService{Store: store, Repo: repo, Cache: c}
}

// Create records a payment, reduces the customer's outstanding balance by
// its amount, and returns the allocated receipt ID ("R<n>").
func (s *PaymentService) Create(ctx context.Context, in *models.PaymentInput) (string, error) {
	if !in.Amount.IsPositive() {
		return "", ledger.ErrInvalidAmount
	}

	var receiptID string
	err := s.Store.RunAtomic(ctx, func(ctx context.Context, tx ledger.Tx) error {
		cust, err := tx.GetCustomer(ctx, in.CustomerID)
		if err != nil {
			return err
		}
		if in.SaleID != "" {
			if _, err := tx.GetSale(ctx, in.SaleID); err != nil {
				return err
			}
		}

		seq, err := tx.NextSequence(ctx, ledger.SequenceReceipt)
		if err != nil {
			return err
		}
		receiptID = ledger.FormatID(ledger.SequenceReceipt, seq)

		cust.OutstandingBalance = cust.OutstandingBalance.Sub(in.Amount)
		if err := tx.PutCustomer(ctx, cust); err != nil {
			return err
		}

		now := time.Now()
		return tx.PutPayment(ctx, &models.Payment{
			ID:         receiptID,
			CustomerID: cust.ID,
			Amount:     in.Amount,
			SaleID:     in.SaleID,
			Notes:      in.Notes,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	})
	observeLedger("payment_create", err)
	if err != nil {
		return "", err
	}
	s.Cache.InvalidateCustomer(ctx, in.CustomerID)
	return receiptID, nil
}

// Update rewrites a payment. When the customer changes, the old customer's
// balance gets the old amount back and the new customer's balance is reduced
// by the new amount; otherwise the single balance shifts by the difference.
// A request that omits the customer keeps the payment where it is.
func (s *PaymentService) Update(ctx context.Context, id string, in *models.PaymentInput) error {
	if !in.Amount.IsPositive() {
		return ledger.ErrInvalidAmount
	}

	var oldCustID, newCustID int
	err := s.Store.RunAtomic(ctx, func(ctx context.Context, tx ledger.Tx) error {
		old, err := tx.GetPayment(ctx, id)
		if err != nil {
			return err
		}
		oldCustID = old.CustomerID
		newCustID = in.CustomerID
		if newCustID == 0 {
			newCustID = old.CustomerID
		}
		if in.SaleID != "" {
			if _, err := tx.GetSale(ctx, in.SaleID); err != nil {
				return err
			}
		}

		if newCustID == old.CustomerID {
			cust, err := tx.GetCustomer(ctx, old.CustomerID)
			if err != nil {
				return err
			}
			cust.OutstandingBalance = cust.OutstandingBalance.Sub(in.Amount.Sub(old.Amount))
			if err := tx.PutCustomer(ctx, cust); err != nil {
				return err
			}
		} else {
			oldCust, err := tx.GetCustomer(ctx, old.CustomerID)
			if err != nil {
				return err
			}
			newCust, err := tx.GetCustomer(ctx, newCustID)
			if err != nil {
				return err
			}
			oldCust.OutstandingBalance = oldCust.OutstandingBalance.Add(old.Amount)
			newCust.OutstandingBalance = newCust.OutstandingBalance.Sub(in.Amount)
			if err := tx.PutCustomer(ctx, oldCust); err != nil {
				return err
			}
			if err := tx.PutCustomer(ctx, newCust); err != nil {
				return err
			}
		}

		return tx.PutPayment(ctx, &models.Payment{
			ID:         old.ID,
			CustomerID: newCustID,
			Amount:     in.Amount,
			SaleID:     in.SaleID,
			Notes:      in.Notes,
			CreatedAt:  old.CreatedAt,
			UpdatedAt:  time.Now(),
		})
	})
	observeLedger("payment_update", err)
	if err != nil {
		return err
	}
	s.Cache.InvalidateCustomer(ctx, oldCustID)
	if newCustID != oldCustID {
		s.Cache.InvalidateCustomer(ctx, newCustID)
	}
	return nil
}

// Delete removes a payment and restores its amount to the customer's
// outstanding balance.
func (s *PaymentService) Delete(ctx context.Context, id string) error {
	var custID int
	err := s.Store.RunAtomic(ctx, func(ctx context.Context, tx ledger.Tx) error {
		p, err := tx.GetPayment(ctx, id)
		if err != nil {
			return err
		}
		custID = p.CustomerID
		cust, err := tx.GetCustomer(ctx, p.CustomerID)
		if err != nil {
			return err
		}
		cust.OutstandingBalance = cust.OutstandingBalance.Add(p.Amount)
		if err := tx.PutCustomer(ctx, cust); err != nil {
			return err
		}
		return tx.DeletePayment(ctx, id)
	})
	observeLedger("payment_delete", err)
	if err != nil {
		return err
	}
	s.Cache.InvalidateCustomer(ctx, custID)
	return nil
}

func (s *PaymentService) Get(ctx context.Context, id string) (*models.Payment, error) {
	return s.Repo.Get(ctx, id)
}

func (s *PaymentService) ListByCustomer(ctx context.Context, customerID int) ([]*models.Payment, error) {
	return s.Repo.ListByCustomer(ctx, customerID)
}

func (s *PaymentService) List(ctx context.Context) ([]*models.Payment, error) {
	return s.Repo.List(ctx)
}
