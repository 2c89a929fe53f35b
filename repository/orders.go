package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"inventory-service/database"
	"inventory-service/models"

	"github.com/shopspring/decimal"
)

type Orders struct {
	dialect database.Dialect
}

const orderSelect = `
	SELECT o.id, o.customer_id, o.order_date, o.order_value, o.user_id, c.name
	FROM orders o
	LEFT JOIN customers c ON c.id = o.customer_id AND c.user_id = o.user_id`

func scanOrder(row scanner) (*models.Order, error) {
	var (
		o            models.Order
		customerName sql.NullString
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &o.OrderDate, &o.Total, &o.AccountID, &customerName); err != nil {
		return nil, err
	}
	o.CustomerName = customerName.String
	return &o, nil
}

func (r Orders) Get(ctx context.Context, q Querier, accountID, id int64) (*models.Order, error) {
	row := q.QueryRowContext(ctx, orderSelect+" WHERE o.id = ? AND o.user_id = ?", id, accountID)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

// GetForUpdate locks the order row so concurrent edits of one order serialise.
func (r Orders) GetForUpdate(ctx context.Context, q Querier, accountID, id int64) (*models.Order, error) {
	var o models.Order
	err := q.QueryRowContext(ctx,
		"SELECT id, customer_id, order_date, order_value, user_id FROM orders WHERE id = ? AND user_id = ?"+r.dialect.ForUpdate(),
		id, accountID,
	).Scan(&o.ID, &o.CustomerID, &o.OrderDate, &o.Total, &o.AccountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// List returns the account's orders newest first, without items.
func (r Orders) List(ctx context.Context, q Querier, accountID int64) ([]models.Order, error) {
	rows, err := q.QueryContext(ctx, orderSelect+" WHERE o.user_id = ? ORDER BY o.order_date DESC, o.id DESC", accountID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orders := make([]models.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r Orders) Insert(ctx context.Context, q Querier, o *models.Order) (int64, error) {
	res, err := q.ExecContext(ctx,
		"INSERT INTO orders (customer_id, order_date, order_value, user_id) VALUES (?, ?, ?, ?)",
		o.CustomerID, o.OrderDate, o.Total, o.AccountID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Orders) UpdateHeader(ctx context.Context, q Querier, accountID, id, customerID int64, orderDate time.Time) error {
	_, err := q.ExecContext(ctx,
		"UPDATE orders SET customer_id = ?, order_date = ? WHERE id = ? AND user_id = ?",
		customerID, orderDate, id, accountID)
	return err
}

func (r Orders) SetTotal(ctx context.Context, q Querier, accountID, id int64, total decimal.Decimal) error {
	_, err := q.ExecContext(ctx, "UPDATE orders SET order_value = ? WHERE id = ? AND user_id = ?", total, id, accountID)
	return err
}

func (r Orders) Delete(ctx context.Context, q Querier, accountID, id int64) (int64, error) {
	res, err := q.ExecContext(ctx, "DELETE FROM orders WHERE id = ? AND user_id = ?", id, accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
