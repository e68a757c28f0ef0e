/*
Package payroll turns worked shifts into monthly payroll records.

PURPOSE:
  Calculate aggregates the actual hours of payable shifts (closed or
  approved) per employee for one pvz and one calendar month, prices them at
  the employee's base rate and upserts one PayrollRecord per (employee, month).

CALCULATION:
  window       = [first of month, last of month]
  total_hours  = Σ actual_hours of payable shifts in window
  total_amount = total_hours × rate        (exact decimal, no rounding)

  Employees with no positive hours get no record.

RATE SEMANTICS:
  The rate is the employee's base rate at calculation time. Recalculating a
  past month after a rate change rewrites that month's amounts.

RECALCULATION:
  Upsert keyed by (employee, month). Figures are overwritten, status is not:
  a record already marked paid stays paid.

SEE ALSO:
  - workforce: produces closed shifts
  - report: reads payroll totals for the P&L
*/
package payroll

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/pvzops/workforce-engine/engine"
	"github.com/pvzops/workforce-engine/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Calculator struct {
	Store  engine.TxStore
	Logger *zap.Logger
	NewID  func() string
}

func NewCalculator(store engine.TxStore, log *zap.Logger) *Calculator {
	return &Calculator{
		Store:  store,
		Logger: logger.OrNop(log).Named("payroll"),
		NewID:  uuid.NewString,
	}
}

// Line is one employee's hours before pricing.
type Line struct {
	EmployeeID engine.EmployeeID
	Hours      decimal.Decimal
}

// SumHours groups shifts by employee and sums their actual hours. Shifts
// without actual hours contribute nothing. Lines are ordered by employee ID.
func SumHours(shifts []engine.Shift) []Line {
	totals := make(map[engine.EmployeeID]decimal.Decimal)
	for _, s := range shifts {
		if s.ActualHours == nil {
			continue
		}
		totals[s.EmployeeID] = totals[s.EmployeeID].Add(*s.ActualHours)
	}

	lines := make([]Line, 0, len(totals))
	for id, hours := range totals {
		lines = append(lines, Line{EmployeeID: id, Hours: hours})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].EmployeeID < lines[j].EmployeeID })
	return lines
}

// Calculate computes and upserts payroll for pvzID in the month containing
// month, returning the stored records.
func (c *Calculator) Calculate(ctx context.Context, pvzID engine.PVZID, month engine.Date) ([]engine.PayrollRecord, error) {
	if pvzID == "" {
		return nil, engine.NewValidationError("pvz_id", "is required")
	}
	if month.IsZero() {
		return nil, engine.NewValidationError("month", "is required")
	}
	month = month.StartOfMonth()

	filter := engine.NewShiftFilter().
		ForPVZ(pvzID).
		InWindow(engine.MonthOf(month)).
		WithStatus(engine.PayableShiftStatuses...).
		WithActualHours()

	var records []engine.PayrollRecord
	err := c.Store.WithTx(ctx, func(tx engine.Store) error {
		shifts, err := tx.ListShifts(ctx, filter)
		if err != nil {
			return err
		}

		for _, line := range SumHours(shifts) {
			if !line.Hours.IsPositive() {
				continue
			}
			employee, err := tx.GetEmployee(ctx, line.EmployeeID)
			if err != nil {
				return err
			}

			rec := engine.PayrollRecord{
				ID:          c.newID(),
				PVZID:       pvzID,
				EmployeeID:  line.EmployeeID,
				Month:       month,
				TotalHours:  line.Hours,
				Rate:        employee.BaseRate,
				TotalAmount: line.Hours.Mul(employee.BaseRate),
				Status:      engine.PayrollCalculated,
			}
			if err := tx.UpsertPayroll(ctx, rec); err != nil {
				return err
			}

			stored, err := tx.ListPayroll(ctx, engine.PayrollFilter{EmployeeID: rec.EmployeeID, Month: &month})
			if err != nil {
				return err
			}
			records = append(records, stored...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.OrNop(c.Logger).Info("payroll calculated",
		zap.String("pvz_id", string(pvzID)),
		zap.String("month", month.MonthString()),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// List returns payroll records for the month containing month, optionally
// scoped to one pvz.
func (c *Calculator) List(ctx context.Context, month engine.Date, pvzID engine.PVZID) ([]engine.PayrollRecord, error) {
	if month.IsZero() {
		return nil, engine.NewValidationError("month", "is required")
	}
	return c.Store.ListPayroll(ctx, engine.PayrollFilter{PVZID: pvzID, Month: &month})
}

// MarkPaid moves one record from calculated to paid.
func (c *Calculator) MarkPaid(ctx context.Context, employeeID engine.EmployeeID, month engine.Date) (*engine.PayrollRecord, error) {
	if employeeID == "" {
		return nil, engine.NewValidationError("employee_id", "is required")
	}
	if month.IsZero() {
		return nil, engine.NewValidationError("month", "is required")
	}
	month = month.StartOfMonth()
	filter := engine.PayrollFilter{EmployeeID: employeeID, Month: &month}
	id := string(employeeID) + "/" + month.MonthString()

	var paid *engine.PayrollRecord
	err := c.Store.WithTx(ctx, func(tx engine.Store) error {
		existing, err := tx.ListPayroll(ctx, filter)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			return &engine.NotFoundError{Kind: "payroll_record", ID: id}
		}

		ok, err := tx.SetPayrollStatus(ctx, employeeID, month, engine.PayrollCalculated, engine.PayrollPaid)
		if err != nil {
			return err
		}
		if !ok {
			return &engine.InvalidTransitionError{
				Kind: "payroll_record", ID: id,
				From: string(existing[0].Status), To: string(engine.PayrollPaid),
			}
		}

		updated, err := tx.ListPayroll(ctx, filter)
		if err != nil {
			return err
		}
		paid = &updated[0]
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.OrNop(c.Logger).Info("payroll paid",
		zap.String("employee_id", string(employeeID)),
		zap.String("month", month.MonthString()),
		zap.String("amount", engine.FormatMoney(paid.TotalAmount)),
	)
	return paid, nil
}

func (c *Calculator) newID() string {
	if c.NewID == nil {
		return uuid.NewString()
	}
	return c.NewID()
}
