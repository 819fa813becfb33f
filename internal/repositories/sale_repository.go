package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cylinder-backend/internal/ledger"
	"cylinder-backend/internal/models"
)

// SaleRepository serves the read side of sales. All writes go through the
// ledger store so the customer aggregates stay consistent.
type SaleRepository struct {
	DB *pgxpool.Pool
}

func NewSaleRepository(db *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{DB: db}
}

const saleColumns = `id, customer_id, type, cylinders, weight, rate, vehicle_id, amount,
       payment_type, status, COALESCE(notes, '') as notes, created_at, updated_at`

func scanSale(row pgx.Row) (*models.Sale, error) {
	var s models.Sale
	err := row.Scan(&s.ID, &s.CustomerID, &s.Type, &s.Cylinders, &s.Weight, &s.Rate,
		&s.VehicleID, &s.Amount, &s.PaymentType, &s.Status, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrSaleNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *SaleRepository) Get(ctx context.Context, id string) (*models.Sale, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE id=$1`, id)
	return scanSale(row)
}

func (r *SaleRepository) List(ctx context.Context, filter *models.SaleFilter) ([]*models.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales`
	var conds []string
	var args []any
	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter != nil {
		if filter.CustomerID != 0 {
			add("customer_id=$%d", filter.CustomerID)
		}
		if filter.Type != "" {
			add("type=$%d", filter.Type)
		}
		if filter.Status != "" {
			add("status=$%d", filter.Status)
		}
		if filter.PaymentType != "" {
			add("payment_type=$%d", filter.PaymentType)
		}
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at DESC"
	if filter != nil && filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, filter.Offset)
	}

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []*models.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}
