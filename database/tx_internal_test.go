package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type erroringQuerier struct {
	Querier
	err error
}

func (q erroringQuerier) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, q.err
}

func openMemory(t *testing.T) *DB {
	t.Helper()
	raw, err := sql.Open("sqlite3", "file:tx_internal?mode=memory&cache=shared")
	require.NoError(t, err)
	raw.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = raw.Close() })
	_, err = raw.Exec("CREATE TABLE IF NOT EXISTS notes (body TEXT)")
	require.NoError(t, err)
	_, err = raw.Exec("DELETE FROM notes")
	require.NoError(t, err)
	return New(raw, SQLite, sql.LevelDefault, nil)
}

func TestAbortsTransaction(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&mysql.MySQLError{Number: 1213, Message: "Deadlock found"}, true},
		{&mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}, true},
		{errors.Join(errors.New("insert history"), &mysql.MySQLError{Number: 1213}), true},
		{&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, false},
		{&mysql.MySQLError{Number: 1146, Message: "Table doesn't exist"}, false},
		{errors.New("boom"), false},
		{nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AbortsTransaction(tt.err), "%v", tt.err)
	}
}

func TestTxQuerierRemembersSwallowedDeadlock(t *testing.T) {
	deadlock := &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}
	tq := &txQuerier{inner: erroringQuerier{err: deadlock}}

	_, err := tq.ExecContext(context.Background(), "INSERT INTO product_history VALUES (?)", 1)
	require.Error(t, err)
	assert.ErrorIs(t, tq.abortedErr(), deadlock)

	ordinary := &txQuerier{inner: erroringQuerier{err: &mysql.MySQLError{Number: 1062}}}
	_, _ = ordinary.ExecContext(context.Background(), "INSERT INTO product_history VALUES (?)", 1)
	assert.NoError(t, ordinary.abortedErr())
}

func TestWithTxRollsBackAfterSwallowedAbort(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(q Querier) error {
		_, err := q.ExecContext(ctx, "INSERT INTO notes (body) VALUES ('partial')")
		require.NoError(t, err)
		q.(*txQuerier).observe(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"})
		return nil
	})
	var me *mysql.MySQLError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, uint16(1213), me.Number)

	var n int
	require.NoError(t, db.Querier().QueryRowContext(ctx, "SELECT COUNT(*) FROM notes").Scan(&n))
	assert.Zero(t, n)

	err = db.WithTx(ctx, func(q Querier) error {
		_, err := q.ExecContext(ctx, "INSERT INTO notes (body) VALUES ('kept')")
		return err
	})
	require.NoError(t, err)
	require.NoError(t, db.Querier().QueryRowContext(ctx, "SELECT COUNT(*) FROM notes").Scan(&n))
	assert.Equal(t, 1, n)
}
