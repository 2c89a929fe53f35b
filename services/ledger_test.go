package services_test

import (
	"context"
	"testing"

	"inventory-service/database"
	"inventory-service/database/dbtest"
	"inventory-service/repository"
	"inventory-service/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerDebitNeverGoesNegative(t *testing.T) {
	db := dbtest.Open(t)
	ledger := services.NewLedger(repository.NewStore(db.Dialect()))
	widget := dbtest.SeedProduct(t, db, account, "Widget", "10.00", 3)
	ctx := context.Background()

	err := db.WithTx(ctx, func(q database.Querier) error {
		change, err := ledger.Debit(ctx, q, account, widget, 2)
		require.NoError(t, err)
		assert.Equal(t, services.StockChange{ProductID: widget, ProductName: "Widget", Delta: -2, Before: 3, After: 1}, change)

		_, err = ledger.Debit(ctx, q, account, widget, 2)
		var insufficient *services.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, 1, insufficient.Available)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, dbtest.ProductQuantity(t, db, widget))
}

func TestLedgerCreditAndCheck(t *testing.T) {
	db := dbtest.Open(t)
	ledger := services.NewLedger(repository.NewStore(db.Dialect()))
	widget := dbtest.SeedProduct(t, db, account, "Widget", "10.00", 0)
	ctx := context.Background()

	err := db.WithTx(ctx, func(q database.Querier) error {
		_, err := ledger.CheckAvailable(ctx, q, account, widget, 1)
		var insufficient *services.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)

		change, err := ledger.Credit(ctx, q, account, widget, 4)
		require.NoError(t, err)
		assert.Equal(t, 4, change.Delta)
		assert.Equal(t, 0, change.Before)
		assert.Equal(t, 4, change.After)

		p, err := ledger.CheckAvailable(ctx, q, account, widget, 4)
		require.NoError(t, err)
		assert.Equal(t, 4, p.Quantity)

		_, err = ledger.Credit(ctx, q, account, widget+1, 1)
		assert.ErrorIs(t, err, services.ErrProductNotFound)
		_, err = ledger.Debit(ctx, q, account, widget+1, 1)
		assert.ErrorIs(t, err, services.ErrProductNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestLedgerLock(t *testing.T) {
	db := dbtest.Open(t)
	ledger := services.NewLedger(repository.NewStore(db.Dialect()))
	a := dbtest.SeedProduct(t, db, account, "A", "1.00", 1)
	b := dbtest.SeedProduct(t, db, account, "B", "1.00", 1)
	foreign := dbtest.SeedProduct(t, db, 2, "C", "1.00", 1)
	ctx := context.Background()

	err := db.WithTx(ctx, func(q database.Querier) error {
		locked, err := ledger.Lock(ctx, q, account, []int64{b, a, b})
		require.NoError(t, err)
		assert.Len(t, locked, 2)
		assert.Equal(t, "B", locked[b].Name)

		_, err = ledger.Lock(ctx, q, account, []int64{a, foreign})
		assert.ErrorIs(t, err, services.ErrProductNotFound)
		return nil
	})
	require.NoError(t, err)
}

// Two callers that both passed CheckAvailable against the same quantity must
// not both be able to debit it.
func TestLedgerDebitRefusesAfterStaleCheck(t *testing.T) {
	db := dbtest.Open(t)
	ledger := services.NewLedger(repository.NewStore(db.Dialect()))
	widget := dbtest.SeedProduct(t, db, account, "Widget", "10.00", 5)
	ctx := context.Background()

	err := db.WithTx(ctx, func(q database.Querier) error {
		_, err := ledger.CheckAvailable(ctx, q, account, widget, 3)
		require.NoError(t, err)
		_, err = ledger.CheckAvailable(ctx, q, account, widget, 3)
		require.NoError(t, err)

		_, err = ledger.Debit(ctx, q, account, widget, 3)
		require.NoError(t, err)
		_, err = ledger.Debit(ctx, q, account, widget, 3)
		var insufficient *services.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, 2, insufficient.Available)
		assert.Equal(t, 3, insufficient.Requested)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, dbtest.ProductQuantity(t, db, widget))
}
