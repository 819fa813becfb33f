package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cylinder-backend/internal/ledger"
	"cylinder-backend/internal/models"
)

type VehicleRepository struct {
	DB *pgxpool.Pool
}

func NewVehicleRepository(db *pgxpool.Pool) *VehicleRepository {
	return &VehicleRepository{DB: db}
}

const vehicleColumns = `id, customer_id, registration_number, COALESCE(description, '') as description, created_at, updated_at`

func scanVehicle(row pgx.Row) (*models.Vehicle, error) {
	var v models.Vehicle
	err := row.Scan(&v.ID, &v.CustomerID, &v.RegistrationNumber, &v.Description, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrVehicleNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *VehicleRepository) Create(ctx context.Context, req *models.CreateVehicleRequest) (*models.Vehicle, error) {
	row := r.DB.QueryRow(ctx,
		`INSERT INTO vehicles(customer_id, registration_number, description)
         VALUES($1, $2, $3)
         RETURNING `+vehicleColumns,
		req.CustomerID, req.RegistrationNumber, req.Description)
	return scanVehicle(row)
}

func (r *VehicleRepository) Get(ctx context.Context, id int) (*models.Vehicle, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id=$1`, id)
	return scanVehicle(row)
}

func (r *VehicleRepository) List(ctx context.Context) ([]*models.Vehicle, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles ORDER BY registration_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*models.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func (r *VehicleRepository) ListByCustomer(ctx context.Context, customerID int) ([]*models.Vehicle, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE customer_id=$1 ORDER BY registration_number`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*models.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func (r *VehicleRepository) Update(ctx context.Context, id int, req *models.UpdateVehicleRequest) (*models.Vehicle, error) {
	row := r.DB.QueryRow(ctx,
		`UPDATE vehicles
         SET registration_number=$1, description=$2, updated_at=CURRENT_TIMESTAMP
         WHERE id=$3
         RETURNING `+vehicleColumns,
		req.RegistrationNumber, req.Description, id)
	return scanVehicle(row)
}
