/*
Package sqlite provides a SQLite-backed implementation of the engine store.

PURPOSE:
  Implements engine.TxStore (shifts, ledger, expense requests, payroll records,
  and the read-only employee/pvz directory) using database/sql. The same SQL
  runs on PostgreSQL with only placeholder changes.

KEY TABLES:
  shifts:                 one row per (employee_id, date)
  financial_transactions: append-only ledger, de-duplicated on
                          (pvz_id, transaction_date, type, source, amount)
  expense_requests:       expense state machine
  payroll_records:        one row per (employee_id, month), upserted
  employees, pvzs:        directory mirrors used for joins

UNIQUENESS AS IDEMPOTENCE:
  Schedule generation and ledger appends use INSERT ... ON CONFLICT DO NOTHING
  and report the outcome through RowsAffected. A conflict is not an error.

APPEND-ONLY ENFORCEMENT:
  financial_transactions carries BEFORE UPDATE / BEFORE DELETE triggers that
  abort the statement.

CONCURRENCY:
  The pool is capped at one connection: SQLite has a single writer, and an
  in-memory database only exists on the connection that created it.

MIGRATION:
  Schema is versioned under migrations/ and applied with golang-migrate on New().

USAGE:
  store, err := sqlite.New("./data/pvz.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - engine/store.go: Interface definitions
  - where.go: Filter to SQL translation
  - migrate.go: Schema migrations
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pvzops/workforce-engine/engine"
	"go.uber.org/zap"
)

const timestampLayout = time.RFC3339Nano

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// repo implements engine.Store over a querier.
type repo struct {
	q   querier
	now func() time.Time
}

// Store implements engine.TxStore using SQLite.
type Store struct {
	*repo
	db *sql.DB
}

var _ engine.TxStore = (*Store)(nil)

// New opens the database at dbPath and migrates it to the latest schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return NewWithDB(db), nil
}

// NewWithDB wraps an already opened and migrated database.
func NewWithDB(db *sql.DB) *Store {
	return &Store{repo: &repo{q: db, now: time.Now}, db: db}
}

// DB exposes the underlying handle (migrations, health checks).
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetClock overrides the timestamp source. Tests only.
func (s *Store) SetClock(now func() time.Time) { s.repo.now = now }

// =============================================================================
// TRANSACTIONAL STORE (engine.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(engine.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return engine.NewStorageError("begin transaction", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&repo{q: sqlTx, now: s.repo.now}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return engine.NewStorageError("commit transaction", err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return engine.NewStorageError("ping", err)
	}
	return nil
}

// Reset drops and recreates the schema (demo scenarios only). The ledger
// triggers reject DELETE, so rows are cleared by rolling the migrations
// back rather than by truncating tables.
func (s *Store) Reset(logger *zap.Logger) error {
	m, err := NewMigrator(s.db, logger)
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil {
		return err
	}
	return m.Up()
}

// =============================================================================
// HELPERS
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func (r *repo) timestamp() string {
	return r.now().UTC().Format(timestampLayout)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timestampLayout), Valid: true}
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timestampLayout, s)
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func parseDate(s string) engine.Date {
	d, _ := engine.ParseDate(s)
	return d
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}

func rowsAffected(res sql.Result, op string) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, engine.NewStorageError(op, err)
	}
	return n, nil
}
