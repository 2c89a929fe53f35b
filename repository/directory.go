package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Customers and Vendors are owned by their own CRUD endpoints; orders and alerts
// only need to confirm a reference and read display fields.
type Customers struct{}

func (r Customers) Name(ctx context.Context, q Querier, accountID, id int64) (string, error) {
	var name string
	err := q.QueryRowContext(ctx, "SELECT name FROM customers WHERE id = ? AND user_id = ?", id, accountID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return name, err
}

type Vendors struct{}

type Vendor struct {
	ID    int64
	Name  string
	Email string
}

func (r Vendors) Get(ctx context.Context, q Querier, accountID, id int64) (*Vendor, error) {
	var v Vendor
	err := q.QueryRowContext(ctx, "SELECT id, name, email FROM vendors WHERE id = ? AND user_id = ?", id, accountID).
		Scan(&v.ID, &v.Name, &v.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}
