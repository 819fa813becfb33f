package services

import (
	"context"

	"cylinder-backend/internal/ledger"
	"cylinder-backend/internal/models"
	"cylinder-backend/internal/repositories"
)

type CustomerService struct {
	Store    ledger.Store
	Repo     *repositories.CustomerRepository
	Sales    *repositories.SaleRepository
	Payments *repositories.PaymentRepository
	Cache    CustomerCache
}

func NewCustomerService(store ledger.Store, repo *repositories.CustomerRepository,
	sales *repositories.SaleRepository, payments *repositories.PaymentRepository,
	c CustomerCache) *CustomerService {
	return &CustomerService{Store: store, Repo: repo, Sales: sales, Payments: payments, Cache: c}
}

func (s *CustomerService) Create(ctx context.Context, req *models.CreateCustomerRequest) (*models.Customer, error) {
	cust, err := s.Repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.Cache.InvalidateCustomers(ctx)
	return cust, nil
}

func (s *CustomerService) Get(ctx context.Context, id int) (*models.Customer, error) {
	if cached, ok := s.Cache.GetCustomer(ctx, id); ok {
		return cached, nil
	}
	cust, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Cache.SetCustomer(ctx, cust)
	return cust, nil
}

func (s *CustomerService) List(ctx context.Context, status models.CustomerStatus) ([]*models.Customer, error) {
	return s.Repo.List(ctx, status)
}

func (s *CustomerService) Update(ctx context.Context, id int, req *models.UpdateCustomerRequest) (*models.Customer, error) {
	cust, err := s.Repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.Cache.InvalidateCustomer(ctx, id)
	return cust, nil
}

// Ledger assembles the customer's full transaction history. Credit sales are
// what put money on the balance, so the totals count credit sales against
// payments received.
func (s *CustomerService) Ledger(ctx context.Context, id int) (*models.CustomerLedger, error) {
	cust, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sales, err := s.Sales.List(ctx, &models.SaleFilter{CustomerID: id})
	if err != nil {
		return nil, err
	}
	payments, err := s.Payments.ListByCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	ledgerView := &models.CustomerLedger{
		Customer: cust,
		Sales:    sales,
		Payments: payments,
	}
	for _, sale := range sales {
		if sale.PaymentType == models.PaymentCredit {
			ledgerView.TotalCredit = ledgerView.TotalCredit.Add(sale.Amount)
		}
	}
	for _, p := range payments {
		ledgerView.TotalReceived = ledgerView.TotalReceived.Add(p.Amount)
	}
	return ledgerView, nil
}

// Delete refuses to remove a customer who still owes money or cylinders.
// The guard runs inside the transaction so a concurrent sale cannot create
// debt between the check and the delete.
func (s *CustomerService) Delete(ctx context.Context, id int) error {
	err := s.Store.RunAtomic(ctx, func(ctx context.Context, tx ledger.Tx) error {
		cust, err := tx.GetCustomer(ctx, id)
		if err != nil {
			return err
		}
		if !cust.OutstandingBalance.IsZero() {
			return ledger.ErrHasOutstandingBalance
		}
		if cust.CylindersOutstanding != 0 {
			return ledger.ErrHasOutstandingCylinders
		}
		return tx.DeleteCustomer(ctx, id)
	})
	observeLedger("customer_delete", err)
	if err != nil {
		return err
	}
	s.Cache.InvalidateCustomer(ctx, id)
	return nil
}
