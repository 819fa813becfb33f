package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cylinder-backend/internal/ledger"
	"cylinder-backend/internal/models"
)

type CylinderRepository struct {
	DB *pgxpool.Pool
}

func NewCylinderRepository(db *pgxpool.Pool) *CylinderRepository {
	return &CylinderRepository{DB: db}
}

const trackingColumns = `customer_id, cylinders_delivered, cylinders_returned, cylinders_outstanding, last_update, COALESCE(notes, '') as notes`

func scanTracking(row pgx.Row) (*models.CylinderTracking, error) {
	var t models.CylinderTracking
	err := row.Scan(&t.CustomerID, &t.CylindersDelivered, &t.CylindersReturned,
		&t.CylindersOutstanding, &t.LastUpdate, &t.Notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrNoTrackingFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *CylinderRepository) GetTracking(ctx context.Context, customerID int) (*models.CylinderTracking, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+trackingColumns+` FROM cylinder_tracking WHERE customer_id=$1`, customerID)
	return scanTracking(row)
}

func (r *CylinderRepository) ListTracking(ctx context.Context) ([]*models.CylinderTracking, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+trackingColumns+` FROM cylinder_tracking ORDER BY customer_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.CylinderTracking
	for rows.Next() {
		t, err := scanTracking(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, t)
	}
	return records, rows.Err()
}

func (r *CylinderRepository) ListReturnEvents(ctx context.Context, customerID int) ([]*models.CylinderReturnEvent, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, customer_id, cylinders_returned, cylinders_outstanding, status, COALESCE(notes, '') as notes, event_date
         FROM cylinder_return_events WHERE customer_id=$1 ORDER BY event_date DESC, id DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.CylinderReturnEvent
	for rows.Next() {
		var e models.CylinderReturnEvent
		if err := rows.Scan(&e.ID, &e.CustomerID, &e.CylindersReturned, &e.CylindersOutstanding,
			&e.Status, &e.Notes, &e.Date); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
