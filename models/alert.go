package models

import "time"

type StockAlert struct {
	ID           int64      `json:"id"`
	AccountID    int64      `json:"-"`
	ProductID    int64      `json:"product_id"`
	ProductName  string     `json:"product_name"`
	Quantity     int        `json:"quantity"`
	VendorID     int64      `json:"vendor_id"`
	VendorName   string     `json:"vendor_name"`
	VendorEmail  string     `json:"vendor_email"`
	ThresholdQty int        `json:"threshold_qty"`
	LastNotified *time.Time `json:"last_notified"`
}

type StockAlertRequest struct {
	ProductID    int64 `json:"product_id"`
	VendorID     int64 `json:"vendor_id"`
	ThresholdQty int   `json:"threshold_qty"`
}
