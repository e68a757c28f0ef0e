/*
Package engine provides the core types of the workforce scheduling and
financial ledger engine.

PURPOSE:
  This package holds everything the component packages share: the four
  persisted collections (Shift, FinancialTransaction, ExpenseRequest,
  PayrollRecord), the read-only directory entities (Employee, PVZ), the
  calendar Date/Period helpers, the error taxonomy, composable filters, and
  the Store interfaces implemented by store/sqlite.

KEY CONCEPTS IN THIS FILE (types.go):
  - Shift: one (employee, date) work unit at a pickup point
  - FinancialTransaction: an append-only, de-duplicated ledger row
  - ExpenseRequest: a state machine that feeds the ledger when paid
  - PayrollRecord: calculated pay for one employee for one calendar month

DATA FLOW:
  shifts -> timesheets -> payroll
  expenses -> ledger
  ledger + payroll -> P&L

INVARIANTS (enforced by the store):
  - at most one Shift per (employee_id, date)
  - at most one FinancialTransaction per (pvz_id, transaction_date, type, source, amount)
  - at most one PayrollRecord per (employee_id, month)

SEE ALSO:
  - errors.go: Error taxonomy
  - filter.go: Query filters
  - store.go: Persistence interfaces
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DIRECTORY - External, read-only entities
// =============================================================================

type EmployeeID string
type PVZID string

// Employee is owned by the HR side of the platform. The engine only reads it.
type Employee struct {
	ID        EmployeeID
	Name      string
	Role      string
	BaseRate  decimal.Decimal // currency per hour of actual work
	Status    string
	HomePVZID PVZID
}

// PVZ is a physical pickup point.
type PVZ struct {
	ID   PVZID
	Name string
}

// =============================================================================
// SHIFT
// =============================================================================

type ShiftID string

type ShiftType string

const (
	ShiftScheduled ShiftType = "scheduled"
	ShiftExtra     ShiftType = "extra"
	ShiftVacation  ShiftType = "vacation"
	ShiftSick      ShiftType = "sick"
)

func (t ShiftType) IsValid() bool {
	switch t {
	case ShiftScheduled, ShiftExtra, ShiftVacation, ShiftSick:
		return true
	}
	return false
}

type ShiftStatus string

const (
	ShiftPending  ShiftStatus = "pending"
	ShiftOpen     ShiftStatus = "open"
	ShiftClosed   ShiftStatus = "closed"
	ShiftApproved ShiftStatus = "approved"
	ShiftRejected ShiftStatus = "rejected"
)

func (s ShiftStatus) IsValid() bool {
	switch s {
	case ShiftPending, ShiftOpen, ShiftClosed, ShiftApproved, ShiftRejected:
		return true
	}
	return false
}

// PayableShiftStatuses are the statuses whose actual hours count toward payroll.
// Approval of a timesheet moves closed shifts to approved and must not remove
// them from the payroll input.
var PayableShiftStatuses = []ShiftStatus{ShiftClosed, ShiftApproved}

type Shift struct {
	ID           ShiftID
	EmployeeID   EmployeeID
	PVZID        PVZID
	Date         Date
	Type         ShiftType
	Status       ShiftStatus
	PlannedHours decimal.Decimal
	ActualHours  *decimal.Decimal // nil until the shift is closed
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TimesheetRow is a Shift joined with the employee and pickup point it belongs to.
type TimesheetRow struct {
	Shift
	EmployeeName string
	EmployeeRole string
	PVZName      string
}

// =============================================================================
// FINANCIAL TRANSACTION - Append-only ledger row
// =============================================================================

type TransactionID string

type TransactionType string

const (
	TxRevenue TransactionType = "revenue"
	TxExpense TransactionType = "expense"
)

func (t TransactionType) IsValid() bool {
	return t == TxRevenue || t == TxExpense
}

type TransactionSource string

const (
	SourceManual          TransactionSource = "manual"
	SourceAutomatedImport TransactionSource = "automated_import"
	SourceExpenseRequest  TransactionSource = "expense_request"
)

func (s TransactionSource) IsValid() bool {
	switch s {
	case SourceManual, SourceAutomatedImport, SourceExpenseRequest:
		return true
	}
	return false
}

// FinancialTransaction is never updated or deleted. Amount is signed:
// revenue >= 0, expense <= 0 (see SignedAmount).
type FinancialTransaction struct {
	ID              TransactionID
	PVZID           PVZID
	Type            TransactionType
	Amount          decimal.Decimal
	TransactionDate Date
	Source          TransactionSource
	Description     string
	CreatedAt       time.Time
}

// =============================================================================
// EXPENSE REQUEST - State machine feeding the ledger
// =============================================================================

type ExpenseID string

type ExpenseStatus string

const (
	ExpensePending  ExpenseStatus = "pending"
	ExpenseApproved ExpenseStatus = "approved"
	ExpenseRejected ExpenseStatus = "rejected"
	ExpensePaid     ExpenseStatus = "paid"
)

func (s ExpenseStatus) IsValid() bool {
	switch s {
	case ExpensePending, ExpenseApproved, ExpenseRejected, ExpensePaid:
		return true
	}
	return false
}

// IsTerminal reports statuses with no outgoing transitions.
func (s ExpenseStatus) IsTerminal() bool {
	return s == ExpenseRejected || s == ExpensePaid
}

type ExpenseRequest struct {
	ID              ExpenseID
	PVZID           PVZID
	RequesterID     EmployeeID
	Amount          decimal.Decimal // always positive
	Category        string
	Description     string
	Status          ExpenseStatus
	ApprovedByID    *EmployeeID
	ApprovedAt      *time.Time
	RejectionReason *string
	PaidAt          *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// =============================================================================
// PAYROLL RECORD
// =============================================================================

type PayrollStatus string

const (
	PayrollCalculated PayrollStatus = "calculated"
	PayrollPaid       PayrollStatus = "paid"
)

// PayrollRecord is keyed by (EmployeeID, Month). Month is always the first
// day of the calendar month.
type PayrollRecord struct {
	ID          string
	PVZID       PVZID
	EmployeeID  EmployeeID
	Month       Date
	TotalHours  decimal.Decimal
	Rate        decimal.Decimal
	TotalAmount decimal.Decimal // TotalHours * Rate, exact
	Status      PayrollStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
