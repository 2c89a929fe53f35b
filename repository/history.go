package repository

import (
	"context"

	"inventory-service/models"
)

type History struct{}

func (r History) Insert(ctx context.Context, q Querier, h *models.ProductHistory) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO product_history (product_id, product_name, change_type, change_details, changed_at, user_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		h.ProductID, h.ProductName, string(h.ChangeType), h.Details, h.ChangedAt, h.AccountID)
	return err
}

// ListByProduct pages through a product's history newest first.
func (r History) ListByProduct(ctx context.Context, q Querier, accountID, productID int64, limit, offset int) ([]models.ProductHistory, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, product_id, product_name, change_type, change_details, changed_at, user_id
		 FROM product_history
		 WHERE product_id = ? AND user_id = ?
		 ORDER BY changed_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		productID, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	records := make([]models.ProductHistory, 0)
	for rows.Next() {
		var (
			h          models.ProductHistory
			changeType string
		)
		if err := rows.Scan(&h.ID, &h.ProductID, &h.ProductName, &changeType, &h.Details, &h.ChangedAt, &h.AccountID); err != nil {
			return nil, err
		}
		h.ChangeType = models.ChangeType(changeType)
		records = append(records, h)
	}
	return records, rows.Err()
}

// DeleteByProduct is the cascade that runs when the product itself is deleted.
func (r History) DeleteByProduct(ctx context.Context, q Querier, accountID, productID int64) error {
	_, err := q.ExecContext(ctx, "DELETE FROM product_history WHERE product_id = ? AND user_id = ?", productID, accountID)
	return err
}
