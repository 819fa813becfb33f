package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleType string

const (
	SaleCylinder SaleType = "cylinder"
	SaleWeight   SaleType = "weight"
)

type PaymentType string

const (
	PaymentCash   PaymentType = "cash"
	PaymentCredit PaymentType = "credit"
)

type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SalePending   SaleStatus = "pending"
)

// Sale is a tagged record: Type selects which variant fields are populated.
// Cylinder sales use Cylinders, weight sales use Weight and VehicleID. The
// shared fields (CustomerID, Rate, Amount, PaymentType, Status) are always set.
// Amount is integer-valued currency, computed as round(quantity × rate).
type Sale struct {
	ID          string          `json:"id"`
	CustomerID  int             `json:"customer_id"`
	Type        SaleType        `json:"type"`
	Cylinders   int             `json:"cylinders,omitempty"`
	Weight      decimal.Decimal `json:"weight,omitempty"`
	Rate        decimal.Decimal `json:"rate"`
	VehicleID   *int            `json:"vehicle_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentType PaymentType     `json:"payment_type"`
	Status      SaleStatus      `json:"status"`
	Notes       string          `json:"notes"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SaleInput represents the request body for creating or updating a sale.
// On update CustomerID is ignored: a sale stays with the customer it was
// recorded against.
type SaleInput struct {
	CustomerID  int             `json:"customer_id"`
	Type        SaleType        `json:"type"`
	Cylinders   int             `json:"cylinders"`
	Weight      decimal.Decimal `json:"weight"`
	Rate        decimal.Decimal `json:"rate"`
	VehicleID   *int            `json:"vehicle_id"`
	PaymentType PaymentType     `json:"payment_type"`
	Notes       string          `json:"notes"`
}

// SaleFilter narrows sale listings
type SaleFilter struct {
	CustomerID  int
	Type        SaleType
	Status      SaleStatus
	PaymentType PaymentType
	Limit       int
	Offset      int
}
