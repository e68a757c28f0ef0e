/*
Package finance holds the financial ledger and the expense workflow.

PURPOSE:
  The ledger is an append-only record of signed revenue and expense amounts
  per pvz and date. The expense workflow is the one internal producer of
  expense rows: paying an approved request appends exactly one row.

SIGN CONVENTION:
  Stored amounts carry the sign of their type: revenue >= 0, expense <= 0.
  Every producer goes through engine.SignedAmount, so callers may pass either
  sign. Readers never take absolute values except for presentation (opex).

DE-DUPLICATION:
  (pvz_id, transaction_date, type, source, amount) identifies a row. A second
  append of the same tuple is reported as not recorded and is not an error.
  Re-running an automated revenue import is therefore safe, at the cost of
  collapsing genuinely distinct same-day, same-amount events.

SEE ALSO:
  - expense.go: Expense request state machine
  - report: P&L over ledger sums
*/
package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/pvzops/workforce-engine/engine"
	"github.com/pvzops/workforce-engine/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// =============================================================================
// LEDGER
// =============================================================================

type Ledger struct {
	Store  engine.LedgerStore
	Logger *zap.Logger
	NewID  func() string
}

func NewLedger(store engine.LedgerStore, log *zap.Logger) *Ledger {
	return &Ledger{
		Store:  store,
		Logger: logger.OrNop(log).Named("ledger"),
		NewID:  uuid.NewString,
	}
}

type Entry struct {
	PVZID           engine.PVZID
	Type            engine.TransactionType
	Amount          decimal.Decimal
	TransactionDate engine.Date
	Source          engine.TransactionSource
	Description     string
}

// Validate checks an entry before it reaches the store.
func (e Entry) Validate() error {
	switch {
	case e.PVZID == "":
		return engine.NewValidationError("pvz_id", "is required")
	case !e.Type.IsValid():
		return engine.NewValidationError("type", "must be revenue or expense")
	case e.TransactionDate.IsZero():
		return engine.NewValidationError("transaction_date", "is required")
	case !e.Source.IsValid():
		return engine.NewValidationError("source", "must be manual, automated_import or expense_request")
	case !engine.HasMoneyPrecision(e.Amount):
		return engine.NewValidationError("amount", "must have at most two decimal places")
	}
	return nil
}

// Transaction builds the normalized ledger row for e.
func (e Entry) Transaction(id engine.TransactionID) engine.FinancialTransaction {
	return engine.FinancialTransaction{
		ID:              id,
		PVZID:           e.PVZID,
		Type:            e.Type,
		Amount:          engine.SignedAmount(e.Type, e.Amount),
		TransactionDate: e.TransactionDate,
		Source:          e.Source,
		Description:     e.Description,
	}
}

// Record appends e. The returned bool is false when an identical row was
// already recorded.
func (l *Ledger) Record(ctx context.Context, e Entry) (engine.FinancialTransaction, bool, error) {
	return record(ctx, l.Store, logger.OrNop(l.Logger), l.newID(), e)
}

func record(ctx context.Context, store engine.LedgerStore, log *zap.Logger, id string, e Entry) (engine.FinancialTransaction, bool, error) {
	if err := e.Validate(); err != nil {
		return engine.FinancialTransaction{}, false, err
	}

	tx := e.Transaction(engine.TransactionID(id))
	recorded, err := store.AppendTransaction(ctx, tx)
	if err != nil {
		return engine.FinancialTransaction{}, false, err
	}

	log.Debug("ledger append",
		zap.String("pvz_id", string(tx.PVZID)),
		zap.String("type", string(tx.Type)),
		zap.String("source", string(tx.Source)),
		zap.String("amount", engine.FormatMoney(tx.Amount)),
		zap.Bool("recorded", recorded),
	)
	return tx, recorded, nil
}

// SumByType sums the signed amounts of one type in window, optionally
// scoped to a pvz. Expense sums are therefore <= 0.
func (l *Ledger) SumByType(ctx context.Context, pvzID engine.PVZID, txType engine.TransactionType, window engine.Period) (decimal.Decimal, error) {
	txs, err := l.Store.ListTransactions(ctx, engine.NewTransactionFilter().ForPVZ(pvzID).OfType(txType).InWindow(window))
	if err != nil {
		return decimal.Zero, err
	}
	amounts := make([]decimal.Decimal, len(txs))
	for i, tx := range txs {
		amounts[i] = tx.Amount
	}
	return engine.Sum(amounts), nil
}

// HasSource reports whether any row from source exists in window.
func (l *Ledger) HasSource(ctx context.Context, pvzID engine.PVZID, source engine.TransactionSource, window engine.Period) (bool, error) {
	n, err := l.Store.CountTransactions(ctx, engine.NewTransactionFilter().ForPVZ(pvzID).FromSource(source).InWindow(window))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns ledger rows matching filter in date order.
func (l *Ledger) List(ctx context.Context, filter engine.TransactionFilter) ([]engine.FinancialTransaction, error) {
	return l.Store.ListTransactions(ctx, filter)
}

func (l *Ledger) newID() string {
	if l.NewID == nil {
		return uuid.NewString()
	}
	return l.NewID()
}
