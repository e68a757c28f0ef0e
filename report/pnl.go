/*
Package report assembles the monthly profit-and-loss statement.

PURPOSE:
  The P&L is the only reader that crosses both data streams: ledger sums
  (revenue, opex) and payroll totals.

FORMULA:
  revenue    = Σ ledger revenue in month
  opex       = |Σ ledger expense in month|
  payroll    = Σ PayrollRecord.total_amount for month
  net_profit = revenue - opex - payroll

INTERMEDIATE FLAG:
  IsIntermediate is true when the month has no automated_import row, i.e.
  revenue is manual-only and probably incomplete. It is a data-quality
  signal, not an error.

SEE ALSO:
  - finance/ledger.go: SumByType, HasSource
  - payroll: Calculate upserts the records summed here
*/
package report

import (
	"context"

	"github.com/pvzops/workforce-engine/engine"
	"github.com/pvzops/workforce-engine/finance"
	"github.com/pvzops/workforce-engine/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PnL struct {
	Month          engine.Date
	PVZID          engine.PVZID // empty for the whole network
	Revenue        decimal.Decimal
	Opex           decimal.Decimal
	Payroll        decimal.Decimal
	NetProfit      decimal.Decimal
	IsIntermediate bool
}

type Aggregator struct {
	Ledger  *finance.Ledger
	Payroll engine.PayrollStore
	Logger  *zap.Logger
}

func NewAggregator(store engine.Store, log *zap.Logger) *Aggregator {
	return &Aggregator{
		Ledger:  finance.NewLedger(store, log),
		Payroll: store,
		Logger:  logger.OrNop(log).Named("report"),
	}
}

// PnL computes the statement for the month containing month, optionally
// scoped to one pvz.
func (a *Aggregator) PnL(ctx context.Context, month engine.Date, pvzID engine.PVZID) (*PnL, error) {
	if month.IsZero() {
		return nil, engine.NewValidationError("month", "is required")
	}
	month = month.StartOfMonth()
	window := engine.MonthOf(month)

	revenue, err := a.Ledger.SumByType(ctx, pvzID, engine.TxRevenue, window)
	if err != nil {
		return nil, err
	}
	expenses, err := a.Ledger.SumByType(ctx, pvzID, engine.TxExpense, window)
	if err != nil {
		return nil, err
	}
	imported, err := a.Ledger.HasSource(ctx, pvzID, engine.SourceAutomatedImport, window)
	if err != nil {
		return nil, err
	}

	records, err := a.Payroll.ListPayroll(ctx, engine.PayrollFilter{PVZID: pvzID, Month: &month})
	if err != nil {
		return nil, err
	}
	payroll := decimal.Zero
	for _, r := range records {
		payroll = payroll.Add(r.TotalAmount)
	}

	opex := expenses.Abs()
	report := &PnL{
		Month:          month,
		PVZID:          pvzID,
		Revenue:        revenue,
		Opex:           opex,
		Payroll:        payroll,
		NetProfit:      revenue.Sub(opex).Sub(payroll),
		IsIntermediate: !imported,
	}

	logger.OrNop(a.Logger).Debug("pnl computed",
		zap.String("month", month.MonthString()),
		zap.String("pvz_id", string(pvzID)),
		zap.String("net_profit", engine.FormatMoney(report.NetProfit)),
		zap.Bool("intermediate", report.IsIntermediate),
	)
	return report, nil
}
