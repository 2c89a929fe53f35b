package models

import "time"

type ChangeType string

const (
	ChangeCreated             ChangeType = "created"
	ChangeUpdated             ChangeType = "updated"
	ChangeDeleted             ChangeType = "deleted"
	ChangeOrderCreated        ChangeType = "order_created"
	ChangeOrderEditedRefunded ChangeType = "order_edited_refunded"
	ChangeOrderEditedDeducted ChangeType = "order_edited_deducted"
	ChangeOrderDeletedRefund  ChangeType = "order_deleted_refunded"
)

var changeTypes = map[ChangeType]struct{}{
	ChangeCreated:             {},
	ChangeUpdated:             {},
	ChangeDeleted:             {},
	ChangeOrderCreated:        {},
	ChangeOrderEditedRefunded: {},
	ChangeOrderEditedDeducted: {},
	ChangeOrderDeletedRefund:  {},
}

func (c ChangeType) Valid() bool {
	_, ok := changeTypes[c]
	return ok
}

// ProductHistory is an immutable audit row for one stock-affecting change.
type ProductHistory struct {
	ID          int64      `json:"id"`
	ProductID   int64      `json:"product_id"`
	ProductName string     `json:"product_name"`
	ChangeType  ChangeType `json:"change_type"`
	Details     string     `json:"change_details"`
	ChangedAt   time.Time  `json:"changed_at"`
	AccountID   int64      `json:"-"`
}
