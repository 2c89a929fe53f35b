// Package repository holds the typed SQL for each entity. Every method takes the
// Querier to run on, so callers decide whether a statement joins a transaction,
// and every statement is scoped by the owning account (user_id).
package repository

import (
	"errors"
	"strings"

	"inventory-service/database"

	"github.com/samber/lo"
)

// ErrNotFound is returned when a scoped lookup matches no row.
var ErrNotFound = errors.New("not found")

type Querier = database.Querier

// Store groups the per-entity repositories for one dialect.
type Store struct {
	Products   Products
	Orders     Orders
	OrderItems OrderItems
	History    History
	Customers  Customers
	Vendors    Vendors
	Alerts     Alerts
}

func NewStore(dialect database.Dialect) *Store {
	return &Store{
		Products:   Products{dialect: dialect},
		Orders:     Orders{dialect: dialect},
		OrderItems: OrderItems{},
		History:    History{},
		Customers:  Customers{},
		Vendors:    Vendors{},
		Alerts:     Alerts{},
	}
}

type scanner interface {
	Scan(dest ...any) error
}

// placeholders returns "?,?,?" for an IN clause of n values.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []int64) []any {
	return lo.Map(ids, func(id int64, _ int) any { return id })
}
