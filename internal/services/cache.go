package services

import (
	"context"

	"cylinder-backend/internal/models"
)

// CustomerCache is the slice of the redis cache the services need. Cached
// customers carry the denormalized aggregates, so every ledger mutation that
// moves a balance or a cylinder count must drop the affected customer's
// entry (which also drops the dashboard summary) or reads would serve
// pre-mutation aggregates until the TTL expires.
type CustomerCache interface {
	GetCustomer(ctx context.Context, id int) (*models.Customer, bool)
	SetCustomer(ctx context.Context, c *models.Customer)
	InvalidateCustomer(ctx context.Context, id int)
	InvalidateCustomers(ctx context.Context)
}
