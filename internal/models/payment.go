package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Payment struct {
	ID         string          `json:"id"`
	CustomerID int             `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	SaleID     string          `json:"sale_id,omitempty"`
	Notes      string          `json:"notes"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// PaymentInput represents the request body for creating or updating a payment
type PaymentInput struct {
	CustomerID int             `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	SaleID     string          `json:"sale_id"`
	Notes      string          `json:"notes"`
}
