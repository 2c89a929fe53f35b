package repository

import (
	"context"
	"fmt"

	"inventory-service/models"

	"github.com/shopspring/decimal"
)

type OrderItems struct{}

const orderItemSelect = `
	SELECT oi.id, oi.order_id, oi.product_id, p.name, p.price, oi.quantity
	FROM order_items oi
	JOIN products p ON p.id = oi.product_id AND p.user_id = oi.user_id`

func (r OrderItems) query(ctx context.Context, q Querier, query string, args ...any) ([]models.OrderItem, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := make([]models.OrderItem, 0)
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return nil, err
		}
		item.Subtotal = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListByOrder returns the order's line items in insertion order, priced at the
// product's current price.
func (r OrderItems) ListByOrder(ctx context.Context, q Querier, accountID, orderID int64) ([]models.OrderItem, error) {
	return r.query(ctx, q, orderItemSelect+" WHERE oi.order_id = ? AND oi.user_id = ? ORDER BY oi.id", orderID, accountID)
}

func (r OrderItems) ListByOrders(ctx context.Context, q Querier, accountID int64, orderIDs []int64) (map[int64][]models.OrderItem, error) {
	byOrder := make(map[int64][]models.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return byOrder, nil
	}
	query := fmt.Sprintf("%s WHERE oi.user_id = ? AND oi.order_id IN (%s) ORDER BY oi.order_id, oi.id",
		orderItemSelect, placeholders(len(orderIDs)))
	items, err := r.query(ctx, q, query, append([]any{accountID}, idArgs(orderIDs)...)...)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	return byOrder, nil
}

func (r OrderItems) Insert(ctx context.Context, q Querier, accountID, orderID, productID int64, quantity int) (int64, error) {
	res, err := q.ExecContext(ctx,
		"INSERT INTO order_items (order_id, product_id, quantity, user_id) VALUES (?, ?, ?, ?)",
		orderID, productID, quantity, accountID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r OrderItems) DeleteByOrder(ctx context.Context, q Querier, accountID, orderID int64) (int64, error) {
	res, err := q.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = ? AND user_id = ?", orderID, accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r OrderItems) CountByProduct(ctx context.Context, q Querier, accountID, productID int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM order_items WHERE product_id = ? AND user_id = ?", productID, accountID).Scan(&n)
	return n, err
}
