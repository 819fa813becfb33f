package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "active"
	CustomerInactive CustomerStatus = "inactive"
)

// Customer carries two denormalized aggregates, outstanding_balance and
// cylinders_outstanding. They are owned by the ledger operations in the
// services package and must never be written directly by a handler.
type Customer struct {
	ID                   int             `json:"id"`
	Name                 string          `json:"name"`
	Phone                string          `json:"phone"`
	Email                string          `json:"email"`
	Address              string          `json:"address"`
	Status               CustomerStatus  `json:"status"`
	OutstandingBalance   decimal.Decimal `json:"outstanding_balance"`
	CylindersOutstanding int             `json:"cylinders_outstanding"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// CustomerLedger is the full transaction view for one customer: every sale
// and payment plus the running totals behind the outstanding balance.
type CustomerLedger struct {
	Customer      *Customer       `json:"customer"`
	Sales         []*Sale         `json:"sales"`
	Payments      []*Payment      `json:"payments"`
	TotalCredit   decimal.Decimal `json:"total_credit"`
	TotalReceived decimal.Decimal `json:"total_received"`
}

// CreateCustomerRequest represents the request body for creating a customer
type CreateCustomerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// UpdateCustomerRequest represents the request body for updating a customer.
// Aggregates are deliberately absent: edits touch descriptive fields only.
type UpdateCustomerRequest struct {
	Name    string         `json:"name"`
	Phone   string         `json:"phone"`
	Email   string         `json:"email"`
	Address string         `json:"address"`
	Status  CustomerStatus `json:"status"`
}
