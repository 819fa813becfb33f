package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cylinder-backend/internal/ledger"
	"cylinder-backend/internal/models"
)

type CustomerRepository struct {
	DB *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{DB: db}
}

const customerColumns = `id, name, phone, COALESCE(email, '') as email, COALESCE(address, '') as address,
       status, outstanding_balance, cylinders_outstanding, created_at, updated_at`

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.Status,
		&c.OutstandingBalance, &c.CylindersOutstanding, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrCustomerNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) Create(ctx context.Context, req *models.CreateCustomerRequest) (*models.Customer, error) {
	row := r.DB.QueryRow(ctx,
		`INSERT INTO customers(name, phone, email, address, status, outstanding_balance, cylinders_outstanding)
         VALUES($1, $2, $3, $4, 'active', 0, 0)
         RETURNING `+customerColumns,
		req.Name, req.Phone, req.Email, req.Address)
	return scanCustomer(row)
}

func (r *CustomerRepository) Get(ctx context.Context, id int) (*models.Customer, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id=$1`, id)
	return scanCustomer(row)
}

func (r *CustomerRepository) List(ctx context.Context, status models.CustomerStatus) ([]*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers`
	args := []any{}
	if status != "" {
		query += ` WHERE status=$1`
		args = append(args, status)
	}
	query += ` ORDER BY name`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// Update touches descriptive fields only. The aggregates belong to the
// ledger operations and never pass through here.
func (r *CustomerRepository) Update(ctx context.Context, id int, req *models.UpdateCustomerRequest) (*models.Customer, error) {
	row := r.DB.QueryRow(ctx,
		`UPDATE customers
         SET name=$1, phone=$2, email=$3, address=$4, status=$5, updated_at=CURRENT_TIMESTAMP
         WHERE id=$6
         RETURNING `+customerColumns,
		req.Name, req.Phone, req.Email, req.Address, req.Status, id)
	return scanCustomer(row)
}
