// Package ledger defines the transactional contract the ledger operations
// run against, the typed failures they surface, and the money arithmetic
// they share.
//
// Every mutation that touches more than one record (a sale plus the customer
// aggregate plus the tracking record, say) goes through Store.RunAtomic and
// commits entirely or not at all. Implementations live under
// internal/store/postgres (production) and internal/store/memory (tests).
package ledger

import (
	"context"

	"cylinder-backend/internal/models"
)

// SequenceKind selects which counter field NextSequence increments.
type SequenceKind string

const (
	SequenceSale    SequenceKind = "sale"    // "S" prefix
	SequenceReceipt SequenceKind = "receipt" // "R" prefix
)

// Tx is the set of typed reads and writes available inside one atomic unit.
//
// Discipline: issue every read an operation needs before its first write.
// The postgres implementation tolerates interleaving, but the contract keeps
// operations portable to stores that do not.
type Tx interface {
	GetCustomer(ctx context.Context, id int) (*models.Customer, error)
	PutCustomer(ctx context.Context, c *models.Customer) error
	DeleteCustomer(ctx context.Context, id int) error

	GetVehicle(ctx context.Context, id int) (*models.Vehicle, error)
	DeleteVehicle(ctx context.Context, id int) error
	// CountPendingSalesByVehicle backs the vehicle deletion guard.
	CountPendingSalesByVehicle(ctx context.Context, vehicleID int) (int, error)

	GetSale(ctx context.Context, id string) (*models.Sale, error)
	PutSale(ctx context.Context, s *models.Sale) error
	DeleteSale(ctx context.Context, id string) error

	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	PutPayment(ctx context.Context, p *models.Payment) error
	DeletePayment(ctx context.Context, id string) error

	// GetTracking returns (nil, nil) when the customer has no tracking
	// record yet; PutTracking upserts.
	GetTracking(ctx context.Context, customerID int) (*models.CylinderTracking, error)
	PutTracking(ctx context.Context, t *models.CylinderTracking) error

	AppendReturnEvent(ctx context.Context, e *models.CylinderReturnEvent) error

	// NextSequence atomically increments and returns the counter for kind.
	// Two concurrent callers never observe the same value. Fails with
	// ErrCounterMissing when the counter row is absent.
	NextSequence(ctx context.Context, kind SequenceKind) (int64, error)
}

// Store executes ledger transactions.
type Store interface {
	// RunAtomic runs fn as one all-or-nothing unit. An error from fn
	// guarantees zero writes took effect. Serialization conflicts are
	// retried internally with a bounded budget; when the budget is
	// exhausted RunAtomic returns ErrTransactionConflict.
	RunAtomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
