package models

import (
	"github.com/shopspring/decimal"
)

type Product struct {
	ID           int64           `json:"id"`
	AccountID    int64           `json:"-"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	CategoryID   *int64          `json:"category_id"`
	CategoryName *string         `json:"category_name,omitempty"`
}

type ProductRequest struct {
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	CategoryID *int64          `json:"category_id"`
}
