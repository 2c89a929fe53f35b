package services

import (
	"fmt"
	"slices"
	"time"

	"inventory-service/models"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/shopspring/decimal"
)

// LineItem is one requested (product, quantity) pair. The same product may
// appear on several lines of one order.
type LineItem struct {
	ProductID int64
	Quantity  int
}

// OrderInput is a validated-on-demand order body. An absent OrderDate means
// "now" on create and "keep" on update.
type OrderInput struct {
	CustomerID int64
	OrderDate  mo.Option[time.Time]
	Items      []LineItem
}

func NewOrderInput(req models.OrderRequest) OrderInput {
	return OrderInput{
		CustomerID: req.CustomerID,
		OrderDate:  mo.PointerToOption(req.OrderDate),
		Items: lo.Map(req.Items, func(it models.OrderItemRequest, _ int) LineItem {
			return LineItem{ProductID: it.ProductID, Quantity: it.Quantity}
		}),
	}
}

func (in OrderInput) Validate() error {
	if in.CustomerID <= 0 {
		return invalid("customer_id", "is required")
	}
	if len(in.Items) == 0 {
		return invalid("items", "at least one item is required")
	}
	for i, it := range in.Items {
		if it.ProductID <= 0 {
			return invalid(fmt.Sprintf("items[%d].product_id", i), "is required")
		}
		if it.Quantity <= 0 {
			return invalid(fmt.Sprintf("items[%d].quantity", i), "must be greater than zero")
		}
	}
	return nil
}

// ProductIDs returns the distinct products of the order in ascending order.
func (in OrderInput) ProductIDs() []int64 {
	return productIDs(in.Items)
}

// Totals sums the quantity requested per product, in ascending product order.
func (in OrderInput) Totals() []LineItem {
	sums := make(map[int64]int, len(in.Items))
	for _, it := range in.Items {
		sums[it.ProductID] += it.Quantity
	}
	return lo.Map(productIDs(in.Items), func(id int64, _ int) LineItem {
		return LineItem{ProductID: id, Quantity: sums[id]}
	})
}

func productIDs(items []LineItem) []int64 {
	ids := lo.Uniq(lo.Map(items, func(it LineItem, _ int) int64 { return it.ProductID }))
	slices.Sort(ids)
	return ids
}

// RecomputeTotal is the sum of quantity times current unit price over items.
// Every product must have a price.
func RecomputeTotal(items []LineItem, prices map[int64]decimal.Decimal) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, it := range items {
		price, ok := prices[it.ProductID]
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: id %d", ErrProductNotFound, it.ProductID)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total, nil
}

func lineItems(items []models.OrderItem) []LineItem {
	return lo.Map(items, func(it models.OrderItem, _ int) LineItem {
		return LineItem{ProductID: it.ProductID, Quantity: it.Quantity}
	})
}
