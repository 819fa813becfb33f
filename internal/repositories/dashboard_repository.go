package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"cylinder-backend/internal/models"
)

type DashboardRepository struct {
	DB *pgxpool.Pool
}

func NewDashboardRepository(db *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{DB: db}
}

// Summary aggregates the dashboard numbers in one round trip per table.
func (r *DashboardRepository) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	var s models.DashboardSummary

	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*),
                COUNT(*) FILTER (WHERE status = 'active'),
                COALESCE(SUM(outstanding_balance), 0),
                COALESCE(SUM(cylinders_outstanding), 0)
         FROM customers`,
	).Scan(&s.TotalCustomers, &s.ActiveCustomers, &s.TotalOutstandingBalance, &s.TotalCylindersOutstanding)
	if err != nil {
		return nil, err
	}

	err = r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE created_at::date = CURRENT_DATE),
                COALESCE(SUM(amount) FILTER (WHERE created_at::date = CURRENT_DATE), 0),
                COALESCE(SUM(amount) FILTER (WHERE date_trunc('month', created_at) = date_trunc('month', CURRENT_DATE)), 0),
                COUNT(*) FILTER (WHERE status = 'pending')
         FROM sales`,
	).Scan(&s.SalesToday, &s.SalesTodayAmount, &s.SalesMonthAmount, &s.PendingSales)
	if err != nil {
		return nil, err
	}

	err = r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount) FILTER (WHERE created_at::date = CURRENT_DATE), 0)
         FROM payments`,
	).Scan(&s.PaymentsTodayAmount)
	if err != nil {
		return nil, err
	}

	return &s, nil
}
