package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"inventory-service/models"
)

type Alerts struct{}

// AlertFilter narrows Triggered. A zero AccountID scans every account.
type AlertFilter struct {
	AccountID  int64
	ProductIDs []int64
}

const alertSelect = `
	SELECT a.id, a.user_id, a.product_id, p.name, p.quantity, a.vendor_id, v.name, v.email, a.threshold_qty, a.last_notified
	FROM stock_alerts a
	JOIN products p ON p.id = a.product_id AND p.user_id = a.user_id
	JOIN vendors v ON v.id = a.vendor_id AND v.user_id = a.user_id`

func scanAlert(row scanner) (*models.StockAlert, error) {
	var (
		a            models.StockAlert
		lastNotified sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.AccountID, &a.ProductID, &a.ProductName, &a.Quantity,
		&a.VendorID, &a.VendorName, &a.VendorEmail, &a.ThresholdQty, &lastNotified); err != nil {
		return nil, err
	}
	if lastNotified.Valid {
		a.LastNotified = &lastNotified.Time
	}
	return &a, nil
}

func (r Alerts) query(ctx context.Context, q Querier, query string, args ...any) ([]models.StockAlert, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	alerts := make([]models.StockAlert, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

func (r Alerts) List(ctx context.Context, q Querier, accountID int64) ([]models.StockAlert, error) {
	return r.query(ctx, q, alertSelect+" WHERE a.user_id = ? ORDER BY a.id", accountID)
}

func (r Alerts) Get(ctx context.Context, q Querier, accountID, id int64) (*models.StockAlert, error) {
	a, err := scanAlert(q.QueryRowContext(ctx, alertSelect+" WHERE a.id = ? AND a.user_id = ?", id, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// Triggered returns alerts whose product quantity is at or below the threshold.
func (r Alerts) Triggered(ctx context.Context, q Querier, filter AlertFilter) ([]models.StockAlert, error) {
	conds := []string{"p.quantity <= a.threshold_qty"}
	var args []any
	if filter.AccountID != 0 {
		conds = append(conds, "a.user_id = ?")
		args = append(args, filter.AccountID)
	}
	if len(filter.ProductIDs) > 0 {
		conds = append(conds, fmt.Sprintf("a.product_id IN (%s)", placeholders(len(filter.ProductIDs))))
		args = append(args, idArgs(filter.ProductIDs)...)
	}
	return r.query(ctx, q, alertSelect+" WHERE "+strings.Join(conds, " AND ")+" ORDER BY a.id", args...)
}

func (r Alerts) Insert(ctx context.Context, q Querier, accountID int64, req models.StockAlertRequest) (int64, error) {
	res, err := q.ExecContext(ctx,
		"INSERT INTO stock_alerts (product_id, vendor_id, threshold_qty, user_id) VALUES (?, ?, ?, ?)",
		req.ProductID, req.VendorID, req.ThresholdQty, accountID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update changes the alert and clears last_notified so the new threshold is
// evaluated from scratch.
func (r Alerts) Update(ctx context.Context, q Querier, accountID, id int64, req models.StockAlertRequest) (int64, error) {
	res, err := q.ExecContext(ctx,
		"UPDATE stock_alerts SET product_id = ?, vendor_id = ?, threshold_qty = ?, last_notified = NULL WHERE id = ? AND user_id = ?",
		req.ProductID, req.VendorID, req.ThresholdQty, id, accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r Alerts) Delete(ctx context.Context, q Querier, accountID, id int64) (int64, error) {
	res, err := q.ExecContext(ctx, "DELETE FROM stock_alerts WHERE id = ? AND user_id = ?", id, accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Claim stamps last_notified with at, but only while the alert is outside its
// cooldown (never notified, or last notified at or before cutoff). It reports
// whether this caller won the claim.
func (r Alerts) Claim(ctx context.Context, q Querier, accountID, id int64, at, cutoff time.Time) (bool, error) {
	res, err := q.ExecContext(ctx,
		`UPDATE stock_alerts SET last_notified = ?
		 WHERE id = ? AND user_id = ? AND (last_notified IS NULL OR last_notified <= ?)`,
		at, id, accountID, cutoff)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// Release hands a claim back after a failed send, restoring the previous
// last_notified. It is a no-op if another claim has replaced ours.
func (r Alerts) Release(ctx context.Context, q Querier, accountID, id int64, claimedAt time.Time, previous *time.Time) error {
	_, err := q.ExecContext(ctx,
		"UPDATE stock_alerts SET last_notified = ? WHERE id = ? AND user_id = ? AND last_notified = ?",
		previous, id, accountID, claimedAt)
	return err
}

func (r Alerts) DeleteByProduct(ctx context.Context, q Querier, accountID, productID int64) error {
	_, err := q.ExecContext(ctx, "DELETE FROM stock_alerts WHERE product_id = ? AND user_id = ?", productID, accountID)
	return err
}
