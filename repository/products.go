package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inventory-service/database"
	"inventory-service/models"

	"github.com/shopspring/decimal"
)

type Products struct {
	dialect database.Dialect
}

const productSelect = `
	SELECT p.id, p.name, p.price, p.quantity, p.category_id, p.user_id, c.name
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id AND c.user_id = p.user_id`

func scanProduct(row scanner, withCategory bool) (*models.Product, error) {
	var (
		p            models.Product
		categoryID   sql.NullInt64
		categoryName sql.NullString
	)
	dest := []any{&p.ID, &p.Name, &p.Price, &p.Quantity, &categoryID, &p.AccountID}
	if withCategory {
		dest = append(dest, &categoryName)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if categoryID.Valid {
		p.CategoryID = &categoryID.Int64
	}
	if categoryName.Valid {
		p.CategoryName = &categoryName.String
	}
	return &p, nil
}

func (r Products) Get(ctx context.Context, q Querier, accountID, id int64) (*models.Product, error) {
	row := q.QueryRowContext(ctx, productSelect+" WHERE p.id = ? AND p.user_id = ?", id, accountID)
	p, err := scanProduct(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// GetForUpdate reads the committed row and, on MySQL, locks it until the
// surrounding transaction ends.
func (r Products) GetForUpdate(ctx context.Context, q Querier, accountID, id int64) (*models.Product, error) {
	row := q.QueryRowContext(ctx,
		"SELECT id, name, price, quantity, category_id, user_id FROM products WHERE id = ? AND user_id = ?"+r.dialect.ForUpdate(),
		id, accountID)
	p, err := scanProduct(row, false)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// LockByIDs locks every listed product in ascending id order. ids must already be
// sorted; concurrent transactions that lock overlapping sets in the same order
// cannot deadlock on them.
func (r Products) LockByIDs(ctx context.Context, q Querier, accountID int64, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(
		"SELECT id, name, price, quantity, category_id, user_id FROM products WHERE user_id = ? AND id IN (%s) ORDER BY id%s",
		placeholders(len(ids)), r.dialect.ForUpdate())
	rows, err := q.QueryContext(ctx, query, append([]any{accountID}, idArgs(ids)...)...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := make([]models.Product, 0, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows, false)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r Products) List(ctx context.Context, q Querier, accountID int64) ([]models.Product, error) {
	rows, err := q.QueryContext(ctx, productSelect+" WHERE p.user_id = ? ORDER BY p.id", accountID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := make([]models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows, true)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r Products) Prices(ctx context.Context, q Querier, accountID int64, ids []int64) (map[int64]decimal.Decimal, error) {
	prices := make(map[int64]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return prices, nil
	}
	query := fmt.Sprintf("SELECT id, price FROM products WHERE user_id = ? AND id IN (%s)", placeholders(len(ids)))
	rows, err := q.QueryContext(ctx, query, append([]any{accountID}, idArgs(ids)...)...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			id    int64
			price decimal.Decimal
		)
		if err := rows.Scan(&id, &price); err != nil {
			return nil, err
		}
		prices[id] = price
	}
	return prices, rows.Err()
}

func (r Products) Insert(ctx context.Context, q Querier, p *models.Product) (int64, error) {
	res, err := q.ExecContext(ctx,
		"INSERT INTO products (name, quantity, price, category_id, user_id) VALUES (?, ?, ?, ?, ?)",
		p.Name, p.Quantity, p.Price, p.CategoryID, p.AccountID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Products) Update(ctx context.Context, q Querier, p *models.Product) error {
	_, err := q.ExecContext(ctx,
		"UPDATE products SET name = ?, quantity = ?, price = ?, category_id = ? WHERE id = ? AND user_id = ?",
		p.Name, p.Quantity, p.Price, p.CategoryID, p.ID, p.AccountID)
	return err
}

func (r Products) Delete(ctx context.Context, q Querier, accountID, id int64) (int64, error) {
	res, err := q.ExecContext(ctx, "DELETE FROM products WHERE id = ? AND user_id = ?", id, accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Decrement subtracts qty only while the stored quantity covers it. It reports
// false when no row was changed, either because the product is missing or
// because stock is short.
func (r Products) Decrement(ctx context.Context, q Querier, accountID, id int64, qty int) (bool, error) {
	res, err := q.ExecContext(ctx,
		"UPDATE products SET quantity = quantity - ? WHERE id = ? AND user_id = ? AND quantity >= ?",
		qty, id, accountID, qty)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r Products) Increment(ctx context.Context, q Querier, accountID, id int64, qty int) (bool, error) {
	res, err := q.ExecContext(ctx,
		"UPDATE products SET quantity = quantity + ? WHERE id = ? AND user_id = ?",
		qty, id, accountID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
