// Package dbtest opens throwaway in-memory SQLite databases carrying the
// inventory schema, for tests in other packages.
package dbtest

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"inventory-service/database"

	"github.com/stretchr/testify/require"
)

//go:embed schema.sql
var schema string

var seq atomic.Int64

// Open returns a fresh database limited to a single connection, so concurrent
// callers queue on the pool exactly like they do against a small MySQL pool.
func Open(t testing.TB) *database.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:inventory_test_%d?mode=memory&cache=shared&_busy_timeout=5000", seq.Add(1))
	raw, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	raw.SetMaxOpenConns(1)
	raw.SetMaxIdleConns(1)
	raw.SetConnMaxLifetime(0)
	t.Cleanup(func() { _ = raw.Close() })

	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := raw.Exec(stmt)
		require.NoError(t, err, "apply schema: %s", stmt)
	}
	return database.New(raw, database.SQLite, sql.LevelDefault, nil)
}

func exec(t testing.TB, db *database.DB, query string, args ...any) int64 {
	t.Helper()
	res, err := db.Querier().ExecContext(context.Background(), query, args...)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func SeedProduct(t testing.TB, db *database.DB, accountID int64, name, price string, quantity int) int64 {
	t.Helper()
	return exec(t, db, "INSERT INTO products (name, quantity, price, user_id) VALUES (?, ?, ?, ?)",
		name, quantity, price, accountID)
}

func SeedCustomer(t testing.TB, db *database.DB, accountID int64, name string) int64 {
	t.Helper()
	return exec(t, db, "INSERT INTO customers (name, customer_number, user_id) VALUES (?, ?, ?)",
		name, strings.ToUpper(name), accountID)
}

func SeedVendor(t testing.TB, db *database.DB, accountID int64, name, email string) int64 {
	t.Helper()
	return exec(t, db, "INSERT INTO vendors (name, email, user_id) VALUES (?, ?, ?)", name, email, accountID)
}

func ProductQuantity(t testing.TB, db *database.DB, productID int64) int {
	t.Helper()
	var qty int
	err := db.Querier().QueryRowContext(context.Background(),
		"SELECT quantity FROM products WHERE id = ?", productID).Scan(&qty)
	require.NoError(t, err)
	return qty
}

// Count returns the number of rows in table matching the optional where clause.
func Count(t testing.TB, db *database.DB, table, where string, args ...any) int {
	t.Helper()
	query := "SELECT COUNT(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	var n int
	require.NoError(t, db.Querier().QueryRowContext(context.Background(), query, args...).Scan(&n))
	return n
}
