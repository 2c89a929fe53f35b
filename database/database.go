package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"inventory-service/config"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect names the driver behind a DB and the SQL differences that matter to the repositories.
type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite3"
)

// ForUpdate returns the row-locking suffix for SELECT statements. SQLite serialises
// writers per database and has no FOR UPDATE.
func (d Dialect) ForUpdate() string {
	if d == MySQL {
		return " FOR UPDATE"
	}
	return ""
}

// Querier is the subset of *sql.DB and *sql.Tx the repositories use.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is the transactional session resource handed to the services. Every
// multi-step operation runs inside WithTx and holds one pooled connection until
// commit or rollback.
type DB struct {
	raw       *sql.DB
	dialect   Dialect
	isolation sql.IsolationLevel
	logger    *log.Logger
}

func New(raw *sql.DB, dialect Dialect, isolation sql.IsolationLevel, logger *log.Logger) *DB {
	if dialect == SQLite {
		isolation = sql.LevelDefault
	}
	return &DB{raw: raw, dialect: dialect, isolation: isolation, logger: logger}
}

func InitDB(cfg *config.Config) (*DB, error) {
	dialect := Dialect(cfg.DBDriver)
	if dialect != MySQL && dialect != SQLite {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	isolation, err := ParseIsolation(cfg.DBIsolation)
	if err != nil {
		return nil, err
	}
	dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, err
	}

	raw, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	raw.SetMaxOpenConns(cfg.DBMaxOpenConns)
	raw.SetMaxIdleConns(cfg.DBMaxIdleConns)
	raw.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := raw.PingContext(ctx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	var logger *log.Logger
	if cfg.DBLogSQL {
		logger = log.New(os.Stdout, "[sql] ", log.LstdFlags)
	}
	return New(raw, dialect, isolation, logger), nil
}

// BuildDSN returns the DSN for cfg. MySQL DSNs, whether given in DB_DSN or
// assembled from parts, always get parseTime and a UTC location so DATETIME
// columns scan into time.Time.
func BuildDSN(cfg *config.Config) (string, error) {
	if Dialect(cfg.DBDriver) != MySQL {
		if cfg.DBDSN == "" {
			return "", fmt.Errorf("DB_DSN is required for driver %q", cfg.DBDriver)
		}
		return cfg.DBDSN, nil
	}

	var mc *mysql.Config
	if cfg.DBDSN != "" {
		parsed, err := mysql.ParseDSN(cfg.DBDSN)
		if err != nil {
			return "", fmt.Errorf("parse DB_DSN: %w", err)
		}
		mc = parsed
	} else {
		if cfg.DBHost == "" {
			return "", errors.New("dsn requires host")
		}
		mc = mysql.NewConfig()
		mc.User = cfg.DBUser
		mc.Passwd = cfg.DBPassword
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
		mc.DBName = cfg.DBName
	}
	mc.ParseTime = true
	mc.Loc = time.UTC
	return mc.FormatDSN(), nil
}

func ParseIsolation(name string) (sql.IsolationLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return sql.LevelDefault, nil
	case "read_committed":
		return sql.LevelReadCommitted, nil
	case "repeatable_read":
		return sql.LevelRepeatableRead, nil
	case "serializable":
		return sql.LevelSerializable, nil
	default:
		return sql.LevelDefault, fmt.Errorf("unsupported DB_ISOLATION %q", name)
	}
}

func (db *DB) Dialect() Dialect { return db.dialect }

// Querier returns the pool itself for single-statement reads.
func (db *DB) Querier() Querier { return db.wrap(db.raw) }

func (db *DB) PingContext(ctx context.Context) error { return db.raw.PingContext(ctx) }

func (db *DB) Close() error { return db.raw.Close() }

// WithTx runs fn inside one transaction. The transaction is committed only when fn
// returns nil and is rolled back on every other exit path, panics included.
func (db *DB) WithTx(ctx context.Context, fn func(q Querier) error) error {
	return db.withTx(ctx, &sql.TxOptions{Isolation: db.isolation}, fn)
}

// WithReadTx is WithTx for multi-statement reads that need one consistent view.
func (db *DB) WithReadTx(ctx context.Context, fn func(q Querier) error) error {
	return db.withTx(ctx, &sql.TxOptions{Isolation: db.isolation, ReadOnly: db.dialect == MySQL}, fn)
}

func (db *DB) withTx(ctx context.Context, opts *sql.TxOptions, fn func(q Querier) error) (err error) {
	tx, err := db.raw.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Printf("Failed to rollback transaction: %v", rbErr)
			}
		}
	}()

	tq := &txQuerier{inner: db.wrap(tx)}
	if err = fn(tq); err != nil {
		return err
	}
	if aborted := tq.abortedErr(); aborted != nil {
		return fmt.Errorf("transaction aborted by server: %w", aborted)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (db *DB) wrap(q Querier) Querier {
	if db.logger == nil {
		return q
	}
	return loggingQuerier{inner: q, logger: db.logger}
}

// AbortsTransaction reports whether err means the server already rolled back
// the surrounding transaction: an InnoDB deadlock or lock wait timeout.
// Statements after such an error would run outside the transaction.
func AbortsTransaction(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == erDeadlock || me.Number == erLockWaitTimeout
}

const (
	erLockWaitTimeout = 1205
	erDeadlock        = 1213
)

// txQuerier remembers the first transaction-aborting error it sees, even when
// the caller swallows it, so the transaction is rolled back instead of committed.
type txQuerier struct {
	inner   Querier
	mu      sync.Mutex
	aborted error
}

func (t *txQuerier) observe(err error) {
	if err == nil || !AbortsTransaction(err) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.aborted == nil {
		t.aborted = err
	}
}

func (t *txQuerier) abortedErr() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.aborted
}

func (t *txQuerier) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := t.inner.ExecContext(ctx, query, args...)
	t.observe(err)
	return res, err
}

func (t *txQuerier) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := t.inner.QueryContext(ctx, query, args...)
	t.observe(err)
	return rows, err
}

func (t *txQuerier) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	row := t.inner.QueryRowContext(ctx, query, args...)
	t.observe(row.Err())
	return row
}

// loggingQuerier logs every statement with its duration and error.
type loggingQuerier struct {
	inner  Querier
	logger *log.Logger
}

func (l loggingQuerier) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := l.inner.ExecContext(ctx, query, args...)
	l.logger.Printf("exec dur=%s err=%v sql=%q args=%v", time.Since(start), err, query, args)
	return res, err
}

func (l loggingQuerier) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := l.inner.QueryContext(ctx, query, args...)
	l.logger.Printf("query dur=%s err=%v sql=%q args=%v", time.Since(start), err, query, args)
	return rows, err
}

func (l loggingQuerier) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := l.inner.QueryRowContext(ctx, query, args...)
	l.logger.Printf("query row dur=%s sql=%q args=%v", time.Since(start), query, args)
	return row
}
