package repository_test

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashrajoria/restaurant-backend/repository"
)

func TestReserve_IssuesConditionalDecrement(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	ledger := repository.NewGormStockLedger(gormDB)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "dishes" SET "stock_quantity"=stock_quantity - $1 WHERE id = $2 AND stock_quantity >= $3`)).
		WithArgs(3, id, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, ledger.Reserve(context.Background(), id, 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserve_NoRowsMeansInsufficientStock(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	ledger := repository.NewGormStockLedger(gormDB)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "dishes" SET`)).
		WithArgs(11, id, 11).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := ledger.Reserve(context.Background(), id, 11)
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)
}

func TestReserve_RejectsNonPositiveQuantity(t *testing.T) {
	gormDB, _ := setupMockDB(t)
	ledger := repository.NewGormStockLedger(gormDB)
	assert.ErrorIs(t, ledger.Reserve(context.Background(), uuid.New(), 0), repository.ErrInsufficientStock)
}

func TestReserve_SQLiteLeavesStockUntouchedOnShortfall(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()
	dish := seedDish(t, store, "Margherita", 8500, 10)

	err := store.Stock.Reserve(ctx, dish.ID, 11)
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)

	available, err := store.Stock.Available(ctx, dish.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, available)

	require.NoError(t, store.Stock.Reserve(ctx, dish.ID, 10))
	available, err = store.Stock.Available(ctx, dish.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, available)
}

func TestReserve_ConcurrentReservationsNeverOversell(t *testing.T) {
	store := setupSQLitePool(t)
	ctx := context.Background()
	dish := seedDish(t, store, "Quattro Formaggi", 9900, 10)

	const workers = 6
	start := make(chan struct{})
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results <- store.InTx(ctx, func(tx *repository.Store) error {
				if _, err := tx.Stock.Available(ctx, dish.ID); err != nil {
					return err
				}
				return tx.Stock.Reserve(ctx, dish.ID, 3)
			})
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var ok, short int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, repository.ErrInsufficientStock):
			short++
		}
	}
	assert.Equal(t, 3, ok)
	assert.Equal(t, workers-3, short)

	available, err := store.Stock.Available(ctx, dish.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, available)
}
