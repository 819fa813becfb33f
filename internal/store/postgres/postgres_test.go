package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cylinder-backend/internal/ledger"
	"cylinder-backend/internal/models"
)

// Integration tests; they need a real database. Point TEST_DATABASE_URL at
// a scratch postgres and the suite will apply the schema itself.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping postgres integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile("../../../migrations/001_init.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)

	return pool
}

func seedCustomer(t *testing.T, pool *pgxpool.Pool, name string) int {
	t.Helper()
	var id int
	err := pool.QueryRow(context.Background(),
		`INSERT INTO customers (name, phone) VALUES ($1, '9800000000') RETURNING id`, name).Scan(&id)
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM customers WHERE id=$1`, id)
	})
	return id
}

func TestRunAtomicCommit(t *testing.T) {
	pool := testPool(t)
	store := New(pool)
	custID := seedCustomer(t, pool, "commit test")
	ctx := context.Background()

	err := store.RunAtomic(ctx, func(ctx context.Context, tx ledger.Tx) error {
		cust, err := tx.GetCustomer(ctx, custID)
		if err != nil {
			return err
		}
		cust.OutstandingBalance = cust.OutstandingBalance.Add(decimal.NewFromInt(500))
		return tx.PutCustomer(ctx, cust)
	})
	require.NoError(t, err)

	var balance decimal.Decimal
	err = pool.QueryRow(ctx, `SELECT outstanding_balance FROM customers WHERE id=$1`, custID).Scan(&balance)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(balance))
}

func TestRunAtomicRollback(t *testing.T) {
	pool := testPool(t)
	store := New(pool)
	custID := seedCustomer(t, pool, "rollback test")
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.RunAtomic(ctx, func(ctx context.Context, tx ledger.Tx) error {
		cust, err := tx.GetCustomer(ctx, custID)
		if err != nil {
			return err
		}
		cust.OutstandingBalance = decimal.NewFromInt(9999)
		if err := tx.PutCustomer(ctx, cust); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var balance decimal.Decimal
	require.NoError(t, pool.QueryRow(ctx, `SELECT outstanding_balance FROM customers WHERE id=$1`, custID).Scan(&balance))
	assert.True(t, balance.IsZero(), "aborted transaction must leave no trace, got %s", balance)
}

func TestRunAtomicMissingCustomer(t *testing.T) {
	pool := testPool(t)
	store := New(pool)

	err := store.RunAtomic(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		_, err := tx.GetCustomer(ctx, -1)
		return err
	})
	assert.ErrorIs(t, err, ledger.ErrCustomerNotFound)
}

func TestNextSequenceUnique(t *testing.T) {
	pool := testPool(t)
	store := New(pool)
	ctx := context.Background()

	const workers = 8
	var mu sync.Mutex
	seen := make(map[int64]bool)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.RunAtomic(ctx, func(ctx context.Context, tx ledger.Tx) error {
				n, err := tx.NextSequence(ctx, ledger.SequenceSale)
				if err != nil {
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				if seen[n] {
					return fmt.Errorf("duplicate sequence value %d", n)
				}
				seen[n] = true
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, workers)
}

func TestTrackingUpsert(t *testing.T) {
	pool := testPool(t)
	store := New(pool)
	custID := seedCustomer(t, pool, "tracking test")
	ctx := context.Background()

	err := store.RunAtomic(ctx, func(ctx context.Context, tx ledger.Tx) error {
		tr, err := tx.GetTracking(ctx, custID)
		if err != nil {
			return err
		}
		if tr != nil {
			return errors.New("expected no tracking record yet")
		}
		return tx.PutTracking(ctx, &models.CylinderTracking{
			CustomerID:           custID,
			CylindersDelivered:   5,
			CylindersOutstanding: 5,
			LastUpdate:           time.Now(),
		})
	})
	require.NoError(t, err)

	err = store.RunAtomic(ctx, func(ctx context.Context, tx ledger.Tx) error {
		tr, err := tx.GetTracking(ctx, custID)
		if err != nil {
			return err
		}
		if tr == nil {
			return errors.New("tracking record missing after upsert")
		}
		tr.CylindersReturned = 2
		tr.CylindersOutstanding = 3
		return tx.PutTracking(ctx, tr)
	})
	require.NoError(t, err)

	var outstanding int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT cylinders_outstanding FROM cylinder_tracking WHERE customer_id=$1`, custID).Scan(&outstanding))
	assert.Equal(t, 3, outstanding)
}
