package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pvzops/workforce-engine/engine"
	"github.com/shopspring/decimal"
)

// =============================================================================
// SHIFT STORE (engine.ShiftStore interface)
// =============================================================================

const shiftColumns = `id, employee_id, pvz_id, date, type, status, planned_hours, actual_hours, created_at, updated_at`

var shiftCols = columns{}

var timesheetCols = columns{
	engine.FieldPVZ:      "s.pvz_id",
	engine.FieldEmployee: "s.employee_id",
	engine.FieldDate:     "s.date",
	engine.FieldStatus:   "s.status",
	engine.FieldActual:   "s.actual_hours",
}

func (r *repo) shiftArgs(s engine.Shift) []any {
	now := r.timestamp()
	var actual sql.NullString
	if s.ActualHours != nil {
		actual = sql.NullString{String: engine.FormatHours(*s.ActualHours), Valid: true}
	}
	return []any{
		string(s.ID), string(s.EmployeeID), string(s.PVZID), s.Date.String(),
		string(s.Type), string(s.Status), engine.FormatHours(s.PlannedHours), actual,
		now, now,
	}
}

// InsertShiftIfAbsent inserts a shift, skipping silently on (employee_id, date) conflict.
func (r *repo) InsertShiftIfAbsent(ctx context.Context, s engine.Shift) (bool, error) {
	query := `
		INSERT INTO shifts (` + shiftColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (employee_id, date) DO NOTHING
	`
	res, err := r.q.ExecContext(ctx, query, r.shiftArgs(s)...)
	if err != nil {
		return false, engine.NewStorageError("insert shift", err)
	}
	n, err := rowsAffected(res, "insert shift")
	return n == 1, err
}

// CreateShift inserts a manually entered shift.
func (r *repo) CreateShift(ctx context.Context, s engine.Shift) error {
	query := `INSERT INTO shifts (` + shiftColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.q.ExecContext(ctx, query, r.shiftArgs(s)...); err != nil {
		if isUniqueConstraintError(err) {
			return &engine.ConflictError{
				Kind:    "shift",
				Message: "employee " + string(s.EmployeeID) + " already has a shift on " + s.Date.String(),
			}
		}
		return engine.NewStorageError("create shift", err)
	}
	return nil
}

// GetShift retrieves a shift by ID.
func (r *repo) GetShift(ctx context.Context, id engine.ShiftID) (*engine.Shift, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = ?`, string(id))
	s, err := scanShift(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &engine.NotFoundError{Kind: "shift", ID: string(id)}
	}
	if err != nil {
		return nil, engine.NewStorageError("get shift", err)
	}
	return &s, nil
}

// UpdateShiftStatus performs a guarded status change.
func (r *repo) UpdateShiftStatus(ctx context.Context, id engine.ShiftID, from []engine.ShiftStatus, next engine.ShiftStatus, actualHours *decimal.Decimal) (bool, error) {
	var actual sql.NullString
	if actualHours != nil {
		actual = sql.NullString{String: engine.FormatHours(*actualHours), Valid: true}
	}

	statusWhere, statusArgs := where([]engine.Condition{
		{Field: engine.FieldStatus, Op: engine.OpIn, Values: statusValues(from)},
	}, shiftCols)

	query := `
		UPDATE shifts
		SET status = ?, actual_hours = COALESCE(?, actual_hours), updated_at = ?` +
		statusWhere + ` AND id = ?`

	args := append([]any{string(next), actual, r.timestamp()}, statusArgs...)
	args = append(args, string(id))

	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, engine.NewStorageError("update shift status", err)
	}
	n, err := rowsAffected(res, "update shift status")
	return n == 1, err
}

// ListShifts returns shifts matching filter, ordered by date.
func (r *repo) ListShifts(ctx context.Context, filter engine.ShiftFilter) ([]engine.Shift, error) {
	clause, args := where(filter.Conditions(), shiftCols)
	query := `SELECT ` + shiftColumns + ` FROM shifts` + clause + ` ORDER BY date ASC, employee_id ASC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, engine.NewStorageError("list shifts", err)
	}
	defer rows.Close()

	var shifts []engine.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, engine.NewStorageError("scan shift", err)
		}
		shifts = append(shifts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, engine.NewStorageError("list shifts", err)
	}
	return shifts, nil
}

// Timesheet returns matching shifts joined with employee name/role and pvz name.
func (r *repo) Timesheet(ctx context.Context, filter engine.ShiftFilter) ([]engine.TimesheetRow, error) {
	clause, args := where(filter.Conditions(), timesheetCols)
	query := `
		SELECT s.id, s.employee_id, s.pvz_id, s.date, s.type, s.status,
		       s.planned_hours, s.actual_hours, s.created_at, s.updated_at,
		       COALESCE(e.name, ''), COALESCE(e.role, ''), COALESCE(p.name, '')
		FROM shifts s
		LEFT JOIN employees e ON e.id = s.employee_id
		LEFT JOIN pvzs p ON p.id = s.pvz_id` + clause + `
		ORDER BY s.date ASC, COALESCE(e.name, '') ASC, s.employee_id ASC
	`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, engine.NewStorageError("timesheet", err)
	}
	defer rows.Close()

	var result []engine.TimesheetRow
	for rows.Next() {
		var row engine.TimesheetRow
		s, err := scanShift(rows, &row.EmployeeName, &row.EmployeeRole, &row.PVZName)
		if err != nil {
			return nil, engine.NewStorageError("scan timesheet row", err)
		}
		row.Shift = s
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, engine.NewStorageError("timesheet", err)
	}
	return result, nil
}

// SetShiftStatus bulk-updates every matching shift.
func (r *repo) SetShiftStatus(ctx context.Context, filter engine.ShiftFilter, status engine.ShiftStatus) (int64, error) {
	clause, args := where(filter.Conditions(), shiftCols)
	query := `UPDATE shifts SET status = ?, updated_at = ?` + clause

	res, err := r.q.ExecContext(ctx, query, append([]any{string(status), r.timestamp()}, args...)...)
	if err != nil {
		return 0, engine.NewStorageError("set shift status", err)
	}
	return rowsAffected(res, "set shift status")
}

// scanShift reads the shift columns, followed by any extra destinations.
func scanShift(sc scanner, extra ...any) (engine.Shift, error) {
	var (
		s                    engine.Shift
		id, employeeID, pvz  string
		date, typ, status    string
		planned              string
		actual               sql.NullString
		createdAt, updatedAt string
	)

	dest := append([]any{&id, &employeeID, &pvz, &date, &typ, &status, &planned, &actual, &createdAt, &updatedAt}, extra...)
	if err := sc.Scan(dest...); err != nil {
		return s, err
	}

	s.ID = engine.ShiftID(id)
	s.EmployeeID = engine.EmployeeID(employeeID)
	s.PVZID = engine.PVZID(pvz)
	s.Date = parseDate(date)
	s.Type = engine.ShiftType(typ)
	s.Status = engine.ShiftStatus(status)
	s.PlannedHours = engine.MustParseDecimal(planned)
	if actual.Valid {
		hours := engine.MustParseDecimal(actual.String)
		s.ActualHours = &hours
	}
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return s, nil
}

func statusValues(statuses []engine.ShiftStatus) []any {
	values := make([]any, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return values
}
