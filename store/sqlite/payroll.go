package sqlite

import (
	"context"

	"github.com/pvzops/workforce-engine/engine"
)

// =============================================================================
// PAYROLL STORE (engine.PayrollStore interface)
// =============================================================================

const payrollColumns = `id, pvz_id, employee_id, month, total_hours, rate, total_amount, status, created_at, updated_at`

var payrollCols = columns{}

// UpsertPayroll writes one record per (employee, month). A recalculation
// replaces the figures and leaves status and created_at untouched. Figures
// are stored at full precision so total_amount stays exactly hours × rate.
func (r *repo) UpsertPayroll(ctx context.Context, p engine.PayrollRecord) error {
	status := p.Status
	if status == "" {
		status = engine.PayrollCalculated
	}

	query := `
		INSERT INTO payroll_records (` + payrollColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (employee_id, month) DO UPDATE SET
			pvz_id = excluded.pvz_id,
			total_hours = excluded.total_hours,
			rate = excluded.rate,
			total_amount = excluded.total_amount,
			updated_at = excluded.updated_at
	`
	now := r.timestamp()
	_, err := r.q.ExecContext(ctx, query,
		p.ID, string(p.PVZID), string(p.EmployeeID), p.Month.StartOfMonth().String(),
		p.TotalHours.String(), p.Rate.String(), p.TotalAmount.String(),
		string(status), now, now,
	)
	if err != nil {
		return engine.NewStorageError("upsert payroll record", err)
	}
	return nil
}

// ListPayroll returns matching payroll records ordered by month and employee.
func (r *repo) ListPayroll(ctx context.Context, filter engine.PayrollFilter) ([]engine.PayrollRecord, error) {
	clause, args := where(filter.Conditions(), payrollCols)
	query := `SELECT ` + payrollColumns + ` FROM payroll_records` + clause + ` ORDER BY month ASC, employee_id ASC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, engine.NewStorageError("list payroll records", err)
	}
	defer rows.Close()

	var records []engine.PayrollRecord
	for rows.Next() {
		var (
			p                           engine.PayrollRecord
			pvz, employee, month        string
			hours, rate, amount, status string
			createdAt, updatedAt        string
		)
		if err := rows.Scan(&p.ID, &pvz, &employee, &month, &hours, &rate, &amount, &status, &createdAt, &updatedAt); err != nil {
			return nil, engine.NewStorageError("scan payroll record", err)
		}
		p.PVZID = engine.PVZID(pvz)
		p.EmployeeID = engine.EmployeeID(employee)
		p.Month = parseDate(month)
		p.TotalHours = engine.MustParseDecimal(hours)
		p.Rate = engine.MustParseDecimal(rate)
		p.TotalAmount = engine.MustParseDecimal(amount)
		p.Status = engine.PayrollStatus(status)
		p.CreatedAt = parseTime(createdAt)
		p.UpdatedAt = parseTime(updatedAt)
		records = append(records, p)
	}
	if err := rows.Err(); err != nil {
		return nil, engine.NewStorageError("list payroll records", err)
	}
	return records, nil
}

// SetPayrollStatus moves one record from one status to another.
func (r *repo) SetPayrollStatus(ctx context.Context, employeeID engine.EmployeeID, month engine.Date, from, to engine.PayrollStatus) (bool, error) {
	query := `UPDATE payroll_records SET status = ?, updated_at = ? WHERE employee_id = ? AND month = ? AND status = ?`
	res, err := r.q.ExecContext(ctx, query,
		string(to), r.timestamp(), string(employeeID), month.StartOfMonth().String(), string(from))
	if err != nil {
		return false, engine.NewStorageError("set payroll status", err)
	}
	n, err := rowsAffected(res, "set payroll status")
	return n == 1, err
}
