package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID           int64           `json:"id"`
	AccountID    int64           `json:"-"`
	CustomerID   int64           `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	OrderDate    time.Time       `json:"order_date"`
	Total        decimal.Decimal `json:"total"`
	Items        []OrderItem     `json:"items"`
}

// OrderItem is one line of an order. Name and Price are read from the product
// at query time; the order only stores product id and quantity.
type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"-"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type OrderItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type OrderRequest struct {
	CustomerID int64              `json:"customer_id"`
	OrderDate  *time.Time         `json:"order_date"`
	Items      []OrderItemRequest `json:"items"`
}

type OrderDeleted struct {
	OrderID        int64 `json:"order_id"`
	RestockedItems int   `json:"restocked_items"`
}
