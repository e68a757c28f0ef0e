package finance

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pvzops/workforce-engine/engine"
	"github.com/pvzops/workforce-engine/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// =============================================================================
// EXPENSE WORKFLOW
// =============================================================================
//
//   pending ──▶ approved ──▶ paid
//      │
//      └──────▶ rejected
//
// rejected and paid are terminal. Paying updates the request and appends
// the ledger row in one transaction; a failed payment leaves the request
// approved and can be retried.

// expenseTransitions lists, for each target status, the only status it may be reached from.
var expenseTransitions = map[engine.ExpenseStatus]engine.ExpenseStatus{
	engine.ExpenseApproved: engine.ExpensePending,
	engine.ExpenseRejected: engine.ExpensePending,
	engine.ExpensePaid:     engine.ExpenseApproved,
}

type ExpenseWorkflow struct {
	Store  engine.TxStore
	Logger *zap.Logger
	Now    func() time.Time
	NewID  func() string
}

func NewExpenseWorkflow(store engine.TxStore, log *zap.Logger) *ExpenseWorkflow {
	return &ExpenseWorkflow{
		Store:  store,
		Logger: logger.OrNop(log).Named("expenses"),
		Now:    time.Now,
		NewID:  uuid.NewString,
	}
}

type CreateExpenseRequest struct {
	PVZID       engine.PVZID
	RequesterID engine.EmployeeID
	Amount      decimal.Decimal
	Category    string
	Description string
}

// TransitionMeta carries the data a target status needs.
type TransitionMeta struct {
	ApprovedByID    engine.EmployeeID // required for approved
	RejectionReason string            // optional for rejected
}

// Create files a new pending expense request.
func (w *ExpenseWorkflow) Create(ctx context.Context, req CreateExpenseRequest) (*engine.ExpenseRequest, error) {
	switch {
	case req.PVZID == "":
		return nil, engine.NewValidationError("pvz_id", "is required")
	case req.RequesterID == "":
		return nil, engine.NewValidationError("requester_id", "is required")
	case !req.Amount.IsPositive():
		return nil, engine.NewValidationError("amount", "must be positive")
	case !engine.HasMoneyPrecision(req.Amount):
		return nil, engine.NewValidationError("amount", "must have at most two decimal places")
	case strings.TrimSpace(req.Category) == "":
		return nil, engine.NewValidationError("category", "is required")
	}

	e := engine.ExpenseRequest{
		ID:          engine.ExpenseID(w.newID()),
		PVZID:       req.PVZID,
		RequesterID: req.RequesterID,
		Amount:      req.Amount,
		Category:    strings.TrimSpace(req.Category),
		Description: req.Description,
		Status:      engine.ExpensePending,
	}
	if err := w.Store.CreateExpense(ctx, e); err != nil {
		return nil, err
	}

	w.log().Info("expense request created",
		zap.String("expense_id", string(e.ID)),
		zap.String("pvz_id", string(e.PVZID)),
		zap.String("amount", engine.FormatMoney(e.Amount)),
	)
	return w.Store.GetExpense(ctx, e.ID)
}

// Get returns one expense request.
func (w *ExpenseWorkflow) Get(ctx context.Context, id engine.ExpenseID) (*engine.ExpenseRequest, error) {
	return w.Store.GetExpense(ctx, id)
}

// List returns expense requests, newest first.
func (w *ExpenseWorkflow) List(ctx context.Context, filter engine.ExpenseFilter) ([]engine.ExpenseRequest, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, engine.NewValidationError("status", "unknown expense status "+string(filter.Status))
	}
	return w.Store.ListExpenses(ctx, filter)
}

// Transition moves request id to target. Illegal moves fail with
// InvalidTransitionError and change nothing.
func (w *ExpenseWorkflow) Transition(ctx context.Context, id engine.ExpenseID, target engine.ExpenseStatus, meta TransitionMeta) (*engine.ExpenseRequest, error) {
	if !target.IsValid() {
		return nil, engine.NewValidationError("status", "unknown expense status "+string(target))
	}
	if target == engine.ExpenseApproved && meta.ApprovedByID == "" {
		return nil, engine.NewValidationError("approved_by_id", "is required to approve")
	}

	var result *engine.ExpenseRequest
	err := w.Store.WithTx(ctx, func(tx engine.Store) error {
		current, err := tx.GetExpense(ctx, id)
		if err != nil {
			return err
		}

		from, legal := expenseTransitions[target]
		if !legal || current.Status != from {
			return expenseTransitionError(current, target)
		}

		next := *current
		next.Status = target
		now := w.now()
		switch target {
		case engine.ExpenseApproved:
			approver := meta.ApprovedByID
			next.ApprovedByID = &approver
			next.ApprovedAt = &now
		case engine.ExpenseRejected:
			if reason := strings.TrimSpace(meta.RejectionReason); reason != "" {
				next.RejectionReason = &reason
			}
		case engine.ExpensePaid:
			next.PaidAt = &now
		}

		ok, err := tx.UpdateExpense(ctx, next, from)
		if err != nil {
			return err
		}
		if !ok {
			return expenseTransitionError(current, target)
		}

		if target == engine.ExpensePaid {
			if err := w.appendPayment(ctx, tx, next, engine.DateOf(now)); err != nil {
				return err
			}
		}

		result, err = tx.GetExpense(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	w.log().Info("expense request transitioned",
		zap.String("expense_id", string(id)),
		zap.String("to", string(target)),
	)
	return result, nil
}

// appendPayment records the ledger row for a paid request.
func (w *ExpenseWorkflow) appendPayment(ctx context.Context, tx engine.Store, e engine.ExpenseRequest, paidOn engine.Date) error {
	entry := Entry{
		PVZID:           e.PVZID,
		Type:            engine.TxExpense,
		Amount:          e.Amount,
		TransactionDate: paidOn,
		Source:          engine.SourceExpenseRequest,
		Description:     PaymentDescription(e),
	}

	row, recorded, err := record(ctx, tx, w.log(), w.newID(), entry)
	if err != nil {
		return err
	}
	if !recorded {
		w.log().Warn("expense payment absorbed by ledger de-duplication",
			zap.String("expense_id", string(e.ID)),
			zap.String("pvz_id", string(row.PVZID)),
			zap.String("date", row.TransactionDate.String()),
			zap.String("amount", engine.FormatMoney(row.Amount)),
		)
	}
	return nil
}

// PaymentDescription labels the ledger row of a paid expense request.
func PaymentDescription(e engine.ExpenseRequest) string {
	desc := "Expense request " + string(e.ID) + ": " + e.Category
	if d := strings.TrimSpace(e.Description); d != "" {
		desc += " - " + d
	}
	return desc
}

func expenseTransitionError(current *engine.ExpenseRequest, target engine.ExpenseStatus) error {
	return &engine.InvalidTransitionError{
		Kind: "expense_request",
		ID:   string(current.ID),
		From: string(current.Status),
		To:   string(target),
	}
}

func (w *ExpenseWorkflow) log() *zap.Logger { return logger.OrNop(w.Logger) }

func (w *ExpenseWorkflow) now() time.Time {
	if w.Now == nil {
		return time.Now().UTC()
	}
	return w.Now().UTC()
}

func (w *ExpenseWorkflow) newID() string {
	if w.NewID == nil {
		return uuid.NewString()
	}
	return w.NewID()
}
