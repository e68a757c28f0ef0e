package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pvzops/workforce-engine/engine"
)

// =============================================================================
// EXPENSE STORE (engine.ExpenseStore interface)
// =============================================================================

const expenseColumns = `id, pvz_id, requester_id, amount, category, description, status,
	approved_by_id, approved_at, rejection_reason, paid_at, created_at, updated_at`

var expenseCols = columns{}

// CreateExpense saves a new expense request.
func (r *repo) CreateExpense(ctx context.Context, e engine.ExpenseRequest) error {
	query := `INSERT INTO expense_requests (` + expenseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := r.timestamp()
	_, err := r.q.ExecContext(ctx, query,
		string(e.ID), string(e.PVZID), string(e.RequesterID),
		engine.FormatMoney(e.Amount), e.Category, nullString(e.Description), string(e.Status),
		nullEmployee(e.ApprovedByID), nullTime(e.ApprovedAt), nullStringPtr(e.RejectionReason), nullTime(e.PaidAt),
		now, now,
	)
	if err != nil {
		return engine.NewStorageError("create expense request", err)
	}
	return nil
}

// GetExpense retrieves an expense request by ID.
func (r *repo) GetExpense(ctx context.Context, id engine.ExpenseID) (*engine.ExpenseRequest, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expense_requests WHERE id = ?`, string(id))
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &engine.NotFoundError{Kind: "expense_request", ID: string(id)}
	}
	if err != nil {
		return nil, engine.NewStorageError("get expense request", err)
	}
	return &e, nil
}

// UpdateExpense persists the mutable fields of e if the stored status still equals from.
func (r *repo) UpdateExpense(ctx context.Context, e engine.ExpenseRequest, from engine.ExpenseStatus) (bool, error) {
	query := `
		UPDATE expense_requests
		SET status = ?, approved_by_id = ?, approved_at = ?, rejection_reason = ?, paid_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`
	res, err := r.q.ExecContext(ctx, query,
		string(e.Status), nullEmployee(e.ApprovedByID), nullTime(e.ApprovedAt),
		nullStringPtr(e.RejectionReason), nullTime(e.PaidAt), r.timestamp(),
		string(e.ID), string(from),
	)
	if err != nil {
		return false, engine.NewStorageError("update expense request", err)
	}
	n, err := rowsAffected(res, "update expense request")
	return n == 1, err
}

// ListExpenses returns matching expense requests, newest first.
func (r *repo) ListExpenses(ctx context.Context, filter engine.ExpenseFilter) ([]engine.ExpenseRequest, error) {
	clause, args := where(filter.Conditions(), expenseCols)
	query := `SELECT ` + expenseColumns + ` FROM expense_requests` + clause + ` ORDER BY created_at DESC, id ASC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, engine.NewStorageError("list expense requests", err)
	}
	defer rows.Close()

	var expenses []engine.ExpenseRequest
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, engine.NewStorageError("scan expense request", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, engine.NewStorageError("list expense requests", err)
	}
	return expenses, nil
}

func scanExpense(sc scanner) (engine.ExpenseRequest, error) {
	var (
		e                                   engine.ExpenseRequest
		id, pvz, requester, amount          string
		category, status                    string
		description, approvedBy, approvedAt sql.NullString
		rejection, paidAt                   sql.NullString
		createdAt, updatedAt                string
	)

	err := sc.Scan(&id, &pvz, &requester, &amount, &category, &description, &status,
		&approvedBy, &approvedAt, &rejection, &paidAt, &createdAt, &updatedAt)
	if err != nil {
		return e, err
	}

	e.ID = engine.ExpenseID(id)
	e.PVZID = engine.PVZID(pvz)
	e.RequesterID = engine.EmployeeID(requester)
	e.Amount = engine.MustParseDecimal(amount)
	e.Category = category
	e.Description = description.String
	e.Status = engine.ExpenseStatus(status)
	if approvedBy.Valid {
		approver := engine.EmployeeID(approvedBy.String)
		e.ApprovedByID = &approver
	}
	e.ApprovedAt = parseNullTime(approvedAt)
	if rejection.Valid {
		reason := rejection.String
		e.RejectionReason = &reason
	}
	e.PaidAt = parseNullTime(paidAt)
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	return e, nil
}

func nullEmployee(id *engine.EmployeeID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*id), Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
