// Package postgres implements ledger.Store on a pgx connection pool.
//
// Every RunAtomic call is one SERIALIZABLE transaction. Serialization
// failures (SQLSTATE 40001/40P01) are retried with a bounded budget, so two
// concurrent ledger operations against the same customer serialize instead
// of losing updates.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"cylinder-backend/internal/ledger"
	"cylinder-backend/internal/metrics"
	"cylinder-backend/internal/models"
)

const maxAttempts = 5

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) RunAtomic(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := s.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isSerializationFailure(err) {
			return err
		}
		lastErr = err
		metrics.LedgerTxRetries.Inc()
	}
	return fmt.Errorf("%w (after %d attempts): %v", ledger.ErrTransactionConflict, maxAttempts, lastErr)
}

func (s *Store) runOnce(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) GetCustomer(ctx context.Context, id int) (*models.Customer, error) {
	var c models.Customer
	err := t.tx.QueryRow(ctx,
		`SELECT id, name, phone, email, address, status, outstanding_balance, cylinders_outstanding, created_at, updated_at
         FROM customers WHERE id=$1`, id,
	).Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.Status,
		&c.OutstandingBalance, &c.CylindersOutstanding, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrCustomerNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (t *pgTx) PutCustomer(ctx context.Context, c *models.Customer) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE customers
         SET name=$1, phone=$2, email=$3, address=$4, status=$5,
             outstanding_balance=$6, cylinders_outstanding=$7, updated_at=CURRENT_TIMESTAMP
         WHERE id=$8`,
		c.Name, c.Phone, c.Email, c.Address, c.Status,
		c.OutstandingBalance, c.CylindersOutstanding, c.ID)
	return err
}

func (t *pgTx) DeleteCustomer(ctx context.Context, id int) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM customers WHERE id=$1`, id)
	return err
}

func (t *pgTx) GetVehicle(ctx context.Context, id int) (*models.Vehicle, error) {
	var v models.Vehicle
	err := t.tx.QueryRow(ctx,
		`SELECT id, customer_id, registration_number, description, created_at, updated_at
         FROM vehicles WHERE id=$1`, id,
	).Scan(&v.ID, &v.CustomerID, &v.RegistrationNumber, &v.Description, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrVehicleNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (t *pgTx) DeleteVehicle(ctx context.Context, id int) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM vehicles WHERE id=$1`, id)
	return err
}

func (t *pgTx) CountPendingSalesByVehicle(ctx context.Context, vehicleID int) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM sales WHERE vehicle_id=$1 AND status='pending'`, vehicleID,
	).Scan(&n)
	return n, err
}

func (t *pgTx) GetSale(ctx context.Context, id string) (*models.Sale, error) {
	var s models.Sale
	err := t.tx.QueryRow(ctx,
		`SELECT id, customer_id, type, cylinders, weight, rate, vehicle_id, amount,
                payment_type, status, COALESCE(notes, ''), created_at, updated_at
         FROM sales WHERE id=$1`, id,
	).Scan(&s.ID, &s.CustomerID, &s.Type, &s.Cylinders, &s.Weight, &s.Rate, &s.VehicleID,
		&s.Amount, &s.PaymentType, &s.Status, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrSaleNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (t *pgTx) PutSale(ctx context.Context, s *models.Sale) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO sales (id, customer_id, type, cylinders, weight, rate, vehicle_id, amount, payment_type, status, notes)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
         ON CONFLICT (id) DO UPDATE
         SET customer_id=EXCLUDED.customer_id, type=EXCLUDED.type, cylinders=EXCLUDED.cylinders,
             weight=EXCLUDED.weight, rate=EXCLUDED.rate, vehicle_id=EXCLUDED.vehicle_id,
             amount=EXCLUDED.amount, payment_type=EXCLUDED.payment_type, status=EXCLUDED.status,
             notes=EXCLUDED.notes, updated_at=CURRENT_TIMESTAMP`,
		s.ID, s.CustomerID, s.Type, s.Cylinders, s.Weight, s.Rate, s.VehicleID,
		s.Amount, s.PaymentType, s.Status, s.Notes)
	return err
}

func (t *pgTx) DeleteSale(ctx context.Context, id string) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM sales WHERE id=$1`, id)
	return err
}

func (t *pgTx) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	var p models.Payment
	err := t.tx.QueryRow(ctx,
		`SELECT id, customer_id, amount, COALESCE(sale_id, ''), COALESCE(notes, ''), created_at, updated_at
         FROM payments WHERE id=$1`, id,
	).Scan(&p.ID, &p.CustomerID, &p.Amount, &p.SaleID, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (t *pgTx) PutPayment(ctx context.Context, p *models.Payment) error {
	var saleID *string
	if p.SaleID != "" {
		saleID = &p.SaleID
	}
	_, err := t.tx.Exec(ctx,
		`INSERT INTO payments (id, customer_id, amount, sale_id, notes)
         VALUES ($1, $2, $3, $4, $5)
         ON CONFLICT (id) DO UPDATE
         SET customer_id=EXCLUDED.customer_id, amount=EXCLUDED.amount, sale_id=EXCLUDED.sale_id,
             notes=EXCLUDED.notes, updated_at=CURRENT_TIMESTAMP`,
		p.ID, p.CustomerID, p.Amount, saleID, p.Notes)
	return err
}

func (t *pgTx) DeletePayment(ctx context.Context, id string) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM payments WHERE id=$1`, id)
	return err
}

func (t *pgTx) GetTracking(ctx context.Context, customerID int) (*models.CylinderTracking, error) {
	var tr models.CylinderTracking
	err := t.tx.QueryRow(ctx,
		`SELECT customer_id, cylinders_delivered, cylinders_returned, cylinders_outstanding, last_update, COALESCE(notes, '')
         FROM cylinder_tracking WHERE customer_id=$1`, customerID,
	).Scan(&tr.CustomerID, &tr.CylindersDelivered, &tr.CylindersReturned,
		&tr.CylindersOutstanding, &tr.LastUpdate, &tr.Notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &tr, nil
}

func (t *pgTx) PutTracking(ctx context.Context, tr *models.CylinderTracking) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO cylinder_tracking (customer_id, cylinders_delivered, cylinders_returned, cylinders_outstanding, last_update, notes)
         VALUES ($1, $2, $3, $4, $5, $6)
         ON CONFLICT (customer_id) DO UPDATE
         SET cylinders_delivered=EXCLUDED.cylinders_delivered,
             cylinders_returned=EXCLUDED.cylinders_returned,
             cylinders_outstanding=EXCLUDED.cylinders_outstanding,
             last_update=EXCLUDED.last_update, notes=EXCLUDED.notes`,
		tr.CustomerID, tr.CylindersDelivered, tr.CylindersReturned,
		tr.CylindersOutstanding, tr.LastUpdate, tr.Notes)
	return err
}

func (t *pgTx) AppendReturnEvent(ctx context.Context, e *models.CylinderReturnEvent) error {
	return t.tx.QueryRow(ctx,
		`INSERT INTO cylinder_return_events (customer_id, cylinders_returned, cylinders_outstanding, status, notes, event_date)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING id`,
		e.CustomerID, e.CylindersReturned, e.CylindersOutstanding, e.Status, e.Notes, e.Date,
	).Scan(&e.ID)
}

func (t *pgTx) NextSequence(ctx context.Context, kind ledger.SequenceKind) (int64, error) {
	column := "sale_seq"
	if kind == ledger.SequenceReceipt {
		column = "receipt_seq"
	}
	// The row lock taken by UPDATE serializes concurrent allocations.
	var n int64
	err := t.tx.QueryRow(ctx,
		fmt.Sprintf(`UPDATE transaction_counters SET %s = %s + 1 WHERE id = 1 RETURNING %s`, column, column, column),
	).Scan(&n)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ledger.ErrCounterMissing
		}
		return 0, err
	}
	return n, nil
}
