package services_test

import (
	"context"
	"encoding/json"
	"testing"

	"inventory-service/database/dbtest"
	"inventory-service/models"
	"inventory-service/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductLifecycleIsAudited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.products.Create(ctx, account, models.ProductRequest{
		Name: "  Widget ", Price: decimal.RequireFromString("9.99"), Quantity: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, "Widget", created.Name)
	assert.True(t, decimal.RequireFromString("9.99").Equal(created.Price))

	_, err = f.products.Update(ctx, account, created.ID, models.ProductRequest{
		Name: "Widget", Price: decimal.RequireFromString("11.00"), Quantity: 4,
	})
	require.NoError(t, err)

	history, err := f.products.History(ctx, account, created.ID, services.Page{})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.ChangeUpdated, history[0].ChangeType)
	assert.Equal(t, models.ChangeCreated, history[1].ChangeType)

	var changes map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(history[0].Details), &changes))
	assert.Contains(t, changes, "price")
	assert.NotContains(t, changes, "name")
	assert.NotContains(t, changes, "quantity")
}

func TestProductHistoryPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := dbtest.SeedCustomer(t, f.db, account, "C1")
	widget := dbtest.SeedProduct(t, f.db, account, "Widget", "1.00", 10)
	for range 3 {
		_, err := f.orders.Create(ctx, account, order(customer, item(widget, 1)))
		require.NoError(t, err)
	}

	page, err := f.products.History(ctx, account, widget, services.Page{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	rest, err := f.products.History(ctx, account, widget, services.Page{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Greater(t, page[0].ID, page[1].ID)
	assert.Greater(t, page[1].ID, rest[0].ID)

	var detail map[string]int
	require.NoError(t, json.Unmarshal([]byte(page[0].Details), &detail))
	assert.Equal(t, -1, detail["quantity_change"])
	assert.Equal(t, 8, detail["previous_quantity"])
	assert.Equal(t, 7, detail["new_quantity"])

	_, err = f.products.History(ctx, 2, widget, services.Page{})
	assert.ErrorIs(t, err, services.ErrProductNotFound)
	_, err = f.products.History(ctx, account, widget, services.Page{Limit: -1})
	assert.Equal(t, services.KindValidation, services.KindOf(err))
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := dbtest.SeedCustomer(t, f.db, account, "C1")
	vendor := dbtest.SeedVendor(t, f.db, account, "Acme", "orders@acme.test")
	sold := dbtest.SeedProduct(t, f.db, account, "Sold", "1.00", 10)
	spare := dbtest.SeedProduct(t, f.db, account, "Spare", "1.00", 10)

	_, err := f.orders.Create(ctx, account, order(customer, item(sold, 1)))
	require.NoError(t, err)
	err = f.products.Delete(ctx, account, sold)
	assert.ErrorIs(t, err, services.ErrProductInUse)
	assert.Equal(t, services.KindConflict, services.KindOf(err))

	alerts := services.NewAlertService(f.db, f.store, nil, 0, 0)
	_, err = alerts.Create(ctx, account, models.StockAlertRequest{ProductID: spare, VendorID: vendor, ThresholdQty: 2})
	require.NoError(t, err)
	_, err = f.products.Update(ctx, account, spare, models.ProductRequest{Name: "Spare", Price: decimal.NewFromInt(1), Quantity: 9})
	require.NoError(t, err)

	require.NoError(t, f.products.Delete(ctx, account, spare))
	_, err = f.products.Get(ctx, account, spare)
	assert.ErrorIs(t, err, services.ErrProductNotFound)
	assert.Zero(t, dbtest.Count(t, f.db, "product_history", "product_id = ?", spare))
	assert.Zero(t, dbtest.Count(t, f.db, "stock_alerts", "product_id = ?", spare))

	assert.ErrorIs(t, f.products.Delete(ctx, account, spare), services.ErrProductNotFound)
}

func TestProductValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name  string
		req   models.ProductRequest
		field string
	}{
		{name: "blank name", req: models.ProductRequest{Name: " "}, field: "name"},
		{name: "negative price", req: models.ProductRequest{Name: "x", Price: decimal.NewFromInt(-1)}, field: "price"},
		{name: "negative quantity", req: models.ProductRequest{Name: "x", Quantity: -1}, field: "quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.products.Create(context.Background(), account, tt.req)
			var validation *services.ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tt.field, validation.Field)
		})
	}
	assert.Zero(t, dbtest.Count(t, f.db, "products", ""))
}
