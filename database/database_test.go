package database_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"inventory-service/config"
	"inventory-service/database"
	"inventory-service/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		want    []string
		wantErr bool
	}{
		{
			name: "mysql from parts",
			cfg:  config.Config{DBDriver: "mysql", DBUser: "root", DBPassword: "secret", DBHost: "localhost", DBPort: "3306", DBName: "inventory"},
			want: []string{"root:secret@tcp(localhost:3306)/inventory", "parseTime=true"},
		},
		{
			name: "mysql dsn gains parseTime",
			cfg:  config.Config{DBDriver: "mysql", DBDSN: "app:pw@tcp(db:3306)/inventory?charset=utf8mb4"},
			want: []string{"app:pw@tcp(db:3306)/inventory", "parseTime=true", "charset=utf8mb4"},
		},
		{
			name: "mysql dsn keeps explicit parseTime",
			cfg:  config.Config{DBDriver: "mysql", DBDSN: "app:pw@tcp(db:3306)/inventory?parseTime=true"},
			want: []string{"parseTime=true"},
		},
		{
			name:    "malformed mysql dsn",
			cfg:     config.Config{DBDriver: "mysql", DBDSN: "app:pw@tcp(db:3306"},
			wantErr: true,
		},
		{
			name: "explicit dsn wins",
			cfg:  config.Config{DBDriver: "sqlite3", DBDSN: "file::memory:?cache=shared"},
			want: []string{"file::memory:?cache=shared"},
		},
		{
			name:    "sqlite requires dsn",
			cfg:     config.Config{DBDriver: "sqlite3"},
			wantErr: true,
		},
		{
			name:    "mysql requires host",
			cfg:     config.Config{DBDriver: "mysql", DBUser: "root"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := database.BuildDSN(&tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, part := range tt.want {
				assert.Contains(t, got, part)
			}
		})
	}
}

func TestParseIsolation(t *testing.T) {
	level, err := database.ParseIsolation("read_committed")
	require.NoError(t, err)
	assert.Equal(t, sql.LevelReadCommitted, level)

	level, err = database.ParseIsolation("SERIALIZABLE")
	require.NoError(t, err)
	assert.Equal(t, sql.LevelSerializable, level)

	_, err = database.ParseIsolation("read_uncommitted")
	require.Error(t, err)
}

func TestDialect_ForUpdate(t *testing.T) {
	assert.Equal(t, " FOR UPDATE", database.MySQL.ForUpdate())
	assert.Equal(t, "", database.SQLite.ForUpdate())
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(q database.Querier) error {
		_, err := q.ExecContext(ctx, "INSERT INTO customers (name, user_id) VALUES (?, ?)", "Acme", 1)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, dbtest.Count(t, db, "customers", ""))
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTx(ctx, func(q database.Querier) error {
		if _, err := q.ExecContext(ctx, "INSERT INTO customers (name, user_id) VALUES (?, ?)", "Acme", 1); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, dbtest.Count(t, db, "customers", ""))
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = db.WithTx(ctx, func(q database.Querier) error {
			_, _ = q.ExecContext(ctx, "INSERT INTO customers (name, user_id) VALUES (?, ?)", "Acme", 1)
			panic("unexpected")
		})
	})
	assert.Equal(t, 0, dbtest.Count(t, db, "customers", ""))
}
