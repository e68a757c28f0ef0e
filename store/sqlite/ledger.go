package sqlite

import (
	"context"
	"database/sql"

	"github.com/pvzops/workforce-engine/engine"
)

// =============================================================================
// LEDGER STORE (engine.LedgerStore interface)
// =============================================================================
//
// Append-only: there is no UPDATE or DELETE path here, and the table's
// triggers reject them. The amount column holds engine.FormatMoney text so
// the uniqueness key compares canonical values.

const transactionColumns = `id, pvz_id, type, amount, transaction_date, source, description, created_at`

var transactionCols = columns{}

// AppendTransaction inserts tx unless its business tuple is already recorded.
func (r *repo) AppendTransaction(ctx context.Context, tx engine.FinancialTransaction) (bool, error) {
	query := `
		INSERT INTO financial_transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (pvz_id, transaction_date, type, source, amount) DO NOTHING
	`
	res, err := r.q.ExecContext(ctx, query,
		string(tx.ID),
		string(tx.PVZID),
		string(tx.Type),
		engine.FormatMoney(tx.Amount),
		tx.TransactionDate.String(),
		string(tx.Source),
		nullString(tx.Description),
		r.timestamp(),
	)
	if err != nil {
		return false, engine.NewStorageError("append transaction", err)
	}
	n, err := rowsAffected(res, "append transaction")
	return n == 1, err
}

// ListTransactions returns matching ledger rows in date order.
func (r *repo) ListTransactions(ctx context.Context, filter engine.TransactionFilter) ([]engine.FinancialTransaction, error) {
	clause, args := where(filter.Conditions(), transactionCols)
	query := `SELECT ` + transactionColumns + ` FROM financial_transactions` + clause +
		` ORDER BY transaction_date ASC, created_at ASC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, engine.NewStorageError("list transactions", err)
	}
	defer rows.Close()

	var txs []engine.FinancialTransaction
	for rows.Next() {
		var (
			tx                      engine.FinancialTransaction
			id, pvz, typ, amount    string
			date, source, createdAt string
			description             sql.NullString
		)
		if err := rows.Scan(&id, &pvz, &typ, &amount, &date, &source, &description, &createdAt); err != nil {
			return nil, engine.NewStorageError("scan transaction", err)
		}
		tx.ID = engine.TransactionID(id)
		tx.PVZID = engine.PVZID(pvz)
		tx.Type = engine.TransactionType(typ)
		tx.Amount = engine.MustParseDecimal(amount)
		tx.TransactionDate = parseDate(date)
		tx.Source = engine.TransactionSource(source)
		tx.Description = description.String
		tx.CreatedAt = parseTime(createdAt)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, engine.NewStorageError("list transactions", err)
	}
	return txs, nil
}

// CountTransactions counts matching ledger rows.
func (r *repo) CountTransactions(ctx context.Context, filter engine.TransactionFilter) (int, error) {
	clause, args := where(filter.Conditions(), transactionCols)

	var count int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM financial_transactions`+clause, args...).Scan(&count); err != nil {
		return 0, engine.NewStorageError("count transactions", err)
	}
	return count, nil
}
