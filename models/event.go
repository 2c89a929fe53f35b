package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderEventType string

const (
	EventOrderCreated OrderEventType = "order_created"
	EventOrderUpdated OrderEventType = "order_updated"
	EventOrderDeleted OrderEventType = "order_deleted"
)

// OrderEvent is published after an order transaction commits.
type OrderEvent struct {
	EventID    string          `json:"event_id"`
	Type       OrderEventType  `json:"type"`
	OrderID    int64           `json:"order_id"`
	AccountID  int64           `json:"account_id"`
	ProductIDs []int64         `json:"product_ids"`
	Total      decimal.Decimal `json:"total"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// LowStockNotification asks the mailer to contact a vendor about a product at or
// below its reorder threshold.
type LowStockNotification struct {
	AlertID     int64     `json:"alert_id"`
	AccountID   int64     `json:"account_id"`
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Threshold   int       `json:"threshold"`
	VendorName  string    `json:"vendor_name"`
	VendorEmail string    `json:"vendor_email"`
	NotifiedAt  time.Time `json:"notified_at"`
}
