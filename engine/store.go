/*
store.go - Persistence interfaces

PURPOSE:
  Defines the boundary between the component logic and the relational store.
  The store owns the uniqueness constraints; components rely on them for
  idempotence instead of locking.

KEY INTERFACES:
  ShiftStore:     Shift rows, timesheet joins, bulk approval
  LedgerStore:    Append-only financial transactions with de-duplication
  ExpenseStore:   Expense requests with guarded status updates
  PayrollStore:   Payroll records keyed by (employee, month), upserted
  DirectoryStore: Read access to employees and pickup points
  TxStore:        Runs a multi-step operation inside one transaction

CONFLICT SEMANTICS:
  InsertShiftIfAbsent and AppendTransaction report a uniqueness hit as
  (false, nil). That is an expected outcome, never an error.

IMPLEMENTATIONS:
  - store/sqlite: SQLite via database/sql
*/
package engine

import (
	"context"

	"github.com/shopspring/decimal"
)

type ShiftStore interface {
	// InsertShiftIfAbsent inserts s unless a shift already exists for
	// (s.EmployeeID, s.Date). Returns whether a row was inserted.
	InsertShiftIfAbsent(ctx context.Context, s Shift) (bool, error)

	// CreateShift inserts s and fails with ConflictError on an existing (employee, date).
	CreateShift(ctx context.Context, s Shift) error

	// GetShift returns NotFoundError for an unknown id.
	GetShift(ctx context.Context, id ShiftID) (*Shift, error)

	// UpdateShiftStatus moves a shift from one of the given statuses to next and
	// optionally stamps actual hours. Returns false if the shift was not in any
	// of the from statuses.
	UpdateShiftStatus(ctx context.Context, id ShiftID, from []ShiftStatus, next ShiftStatus, actualHours *decimal.Decimal) (bool, error)

	ListShifts(ctx context.Context, filter ShiftFilter) ([]Shift, error)

	// Timesheet returns matching shifts joined with employee and pvz, ordered by date.
	Timesheet(ctx context.Context, filter ShiftFilter) ([]TimesheetRow, error)

	// SetShiftStatus moves every matching shift to status. Returns rows changed.
	SetShiftStatus(ctx context.Context, filter ShiftFilter, status ShiftStatus) (int64, error)
}

type LedgerStore interface {
	// AppendTransaction inserts tx unless an identical
	// (pvz, date, type, source, amount) tuple exists. Returns whether a row was inserted.
	AppendTransaction(ctx context.Context, tx FinancialTransaction) (bool, error)

	ListTransactions(ctx context.Context, filter TransactionFilter) ([]FinancialTransaction, error)

	CountTransactions(ctx context.Context, filter TransactionFilter) (int, error)
}

type ExpenseStore interface {
	CreateExpense(ctx context.Context, e ExpenseRequest) error

	// GetExpense returns NotFoundError for an unknown id.
	GetExpense(ctx context.Context, id ExpenseID) (*ExpenseRequest, error)

	// UpdateExpense persists e only if the stored status still equals from.
	// Returns false when the guard did not match.
	UpdateExpense(ctx context.Context, e ExpenseRequest, from ExpenseStatus) (bool, error)

	ListExpenses(ctx context.Context, filter ExpenseFilter) ([]ExpenseRequest, error)
}

type PayrollStore interface {
	// UpsertPayroll inserts or overwrites hours, rate and amount for
	// (employee, month). The stored status is never changed by an upsert.
	UpsertPayroll(ctx context.Context, r PayrollRecord) error

	ListPayroll(ctx context.Context, filter PayrollFilter) ([]PayrollRecord, error)

	// SetPayrollStatus moves the (employee, month) record from one status to another.
	SetPayrollStatus(ctx context.Context, employeeID EmployeeID, month Date, from, to PayrollStatus) (bool, error)
}

type DirectoryStore interface {
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)
	GetPVZ(ctx context.Context, id PVZID) (*PVZ, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	SaveEmployee(ctx context.Context, e Employee) error
	SavePVZ(ctx context.Context, p PVZ) error
}

// Store is the full set of collections. Inside WithTx the same interface is
// bound to the open transaction.
type Store interface {
	ShiftStore
	LedgerStore
	ExpenseStore
	PayrollStore
	DirectoryStore
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
