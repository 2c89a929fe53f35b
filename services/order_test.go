package services

import (
	"errors"
	"testing"
	"time"

	"inventory-service/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecomputeTotal(t *testing.T) {
	prices := map[int64]decimal.Decimal{
		1: decimal.RequireFromString("10.00"),
		2: decimal.RequireFromString("5.00"),
		3: decimal.RequireFromString("0.10"),
	}
	tests := []struct {
		name  string
		items []LineItem
		want  string
	}{
		{name: "empty", items: nil, want: "0"},
		{name: "widget and gadget", items: []LineItem{{1, 2}, {2, 1}}, want: "25"},
		{name: "duplicate lines", items: []LineItem{{1, 1}, {1, 2}}, want: "30"},
		{name: "no float drift", items: []LineItem{{3, 3}}, want: "0.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RecomputeTotal(tt.items, prices)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}

	_, err := RecomputeTotal([]LineItem{{9, 1}}, prices)
	assert.True(t, errors.Is(err, ErrProductNotFound))
}

func TestOrderInputTotals(t *testing.T) {
	in := OrderInput{CustomerID: 1, Items: []LineItem{{3, 1}, {1, 2}, {3, 4}}}
	assert.Equal(t, []int64{1, 3}, in.ProductIDs())
	assert.Equal(t, []LineItem{{1, 2}, {3, 5}}, in.Totals())
}

func TestNewOrderInput(t *testing.T) {
	date := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	req := models.OrderRequest{
		CustomerID: 7,
		OrderDate:  &date,
		Items:      []models.OrderItemRequest{{ProductID: 1, Quantity: 2}},
	}

	in := NewOrderInput(req)
	assert.Equal(t, int64(7), in.CustomerID)
	assert.Equal(t, []LineItem{{ProductID: 1, Quantity: 2}}, in.Items)
	got, ok := in.OrderDate.Get()
	require.True(t, ok)
	assert.Equal(t, date, got)

	req.OrderDate = nil
	assert.True(t, NewOrderInput(req).OrderDate.IsAbsent())
}

func TestPageNormalize(t *testing.T) {
	p, err := Page{}.normalize()
	require.NoError(t, err)
	assert.Equal(t, Page{Limit: defaultHistoryLimit}, p)

	p, err = Page{Limit: 1000, Offset: 5}.normalize()
	require.NoError(t, err)
	assert.Equal(t, Page{Limit: maxHistoryLimit, Offset: 5}, p)

	_, err = Page{Offset: -1}.normalize()
	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{invalid("name", "is required"), KindValidation},
		{&InsufficientStockError{ProductName: "Widget", Available: 3, Requested: 5}, KindInsufficientStock},
		{ErrOrderNotFound, KindNotFound},
		{errors.Join(errors.New("ctx"), ErrVendorNotFound), KindNotFound},
		{ErrProductInUse, KindConflict},
		{storage("insert order", errors.New("connection reset")), KindStorage},
		{errors.New("boom"), KindStorage},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err), tt.err.Error())
	}
	assert.Equal(t, "Insufficient stock for Widget. Available: 3, requested: 5.",
		(&InsufficientStockError{ProductName: "Widget", Available: 3, Requested: 5}).Error())
}
