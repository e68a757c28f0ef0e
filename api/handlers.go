/*
handlers.go - HTTP API handlers for the workforce and finance engine

PURPOSE:
  Exposes the scheduling, payroll, ledger and P&L services via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to the
  domain services.

ENDPOINTS:
  Schedules / Shifts / Timesheets:
    POST   /api/schedules/generate        Generate the 2-on/2-off rotation
    POST   /api/shifts                    Create one shift
    POST   /api/shifts/{id}/open          pending -> open
    POST   /api/shifts/{id}/close         pending|open -> closed (actual_hours)
    GET    /api/timesheets?month=&pvz_id= Monthly timesheet
    GET    /api/timesheets/export         Same rows as an XLSX workbook
    POST   /api/timesheets/approve        Bulk-approve a month

  Payroll:
    POST   /api/payroll/calculate         Upsert records for (pvz, month)
    GET    /api/payroll?month=&pvz_id=    List records
    POST   /api/payroll/pay               calculated -> paid

  Ledger / Expenses:
    POST   /api/ledger/transactions       Append (de-duplicated)
    GET    /api/ledger/transactions       Filter by pvz, month or from/to, type, source
    POST   /api/expenses                  File a request
    GET    /api/expenses                  List (pvz_id, status)
    GET    /api/expenses/{id}             Get one
    POST   /api/expenses/{id}/transition  approve / reject / pay

  Reports / Directory:
    GET    /api/reports/pnl?month=&pvz_id=
    GET    /api/employees, POST /api/employees, POST /api/pvzs

REQUEST FLOW:
  1. Parse and validate the request (decodeJSON, query helpers)
  2. Call the domain service
  3. Convert to DTOs and serialize

ERROR HANDLING:
  writeDomainError maps engine errors to HTTP status:
  - 400: ValidationError, malformed input
  - 404: NotFoundError
  - 409: InvalidTransitionError, ConflictError
  - 500: Storage and unexpected errors (logged, details hidden)

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/pvzops/workforce-engine/engine"
	"github.com/pvzops/workforce-engine/finance"
	"github.com/pvzops/workforce-engine/logger"
	"github.com/pvzops/workforce-engine/payroll"
	"github.com/pvzops/workforce-engine/report"
	"github.com/pvzops/workforce-engine/store/sqlite"
	"github.com/pvzops/workforce-engine/workforce"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Workforce *workforce.Service
	Payroll   *payroll.Calculator
	Ledger    *finance.Ledger
	Expenses  *finance.ExpenseWorkflow
	Reports   *report.Aggregator
	Logger    *zap.Logger

	validate *validator.Validate

	mu              sync.Mutex
	currentScenario string
}

// NewHandler wires the services over one store.
func NewHandler(store *sqlite.Store, log *zap.Logger) *Handler {
	log = logger.OrNop(log)
	return &Handler{
		Store:     store,
		Workforce: workforce.NewService(store, log),
		Payroll:   payroll.NewCalculator(store, log),
		Ledger:    finance.NewLedger(store, log),
		Expenses:  finance.NewExpenseWorkflow(store, log),
		Reports:   report.NewAggregator(store, log),
		Logger:    log.Named("api"),
		validate:  newValidator(),
	}
}

// Health pings the database.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// GenerateSchedule creates the rotation for a date range. Existing
// (employee, date) shifts are left untouched.
// POST /api/schedules/generate
func (h *Handler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	var req GenerateScheduleRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	start, _ := engine.ParseDate(req.StartDate)
	end, _ := engine.ParseDate(req.EndDate)

	result, err := h.Workforce.GenerateSchedule(r.Context(), workforce.GenerateRequest{
		PVZID:     engine.PVZID(req.PVZID),
		TeamA:     employeeIDs(req.TeamA),
		TeamB:     employeeIDs(req.TeamB),
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateScheduleResponse{
		Generated:      result.Generated,
		TotalAttempted: result.TotalAttempted,
	})
}

// CreateShift creates a single shift (extra, vacation, sick or scheduled).
// POST /api/shifts
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req CreateShiftRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	day, _ := engine.ParseDate(req.Date)

	shift, err := h.Workforce.CreateShift(r.Context(), workforce.CreateShiftRequest{
		PVZID:        engine.PVZID(req.PVZID),
		EmployeeID:   engine.EmployeeID(req.EmployeeID),
		Date:         day,
		Type:         engine.ShiftType(req.Type),
		PlannedHours: req.PlannedHours,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toShiftDTO(*shift))
}

// OpenShift marks a pending shift as started.
// POST /api/shifts/{id}/open
func (h *Handler) OpenShift(w http.ResponseWriter, r *http.Request) {
	shift, err := h.Workforce.OpenShift(r.Context(), engine.ShiftID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(*shift))
}

// CloseShift records the hours actually worked.
// POST /api/shifts/{id}/close
func (h *Handler) CloseShift(w http.ResponseWriter, r *http.Request) {
	var req CloseShiftRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	shift, err := h.Workforce.CloseShift(r.Context(), engine.ShiftID(chi.URLParam(r, "id")), *req.ActualHours)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(*shift))
}

// =============================================================================
// TIMESHEET HANDLERS
// =============================================================================

// GetTimesheet returns the month's shifts joined with employee and pvz names.
// GET /api/timesheets?month=2024-05&pvz_id=...
func (h *Handler) GetTimesheet(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	rows, err := h.Workforce.GetTimesheet(r.Context(), month, pvzParam(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetDTOs(rows))
}

// ExportTimesheet streams the timesheet as an XLSX workbook. The workbook is
// rendered into memory first so a failure still yields a JSON error.
// GET /api/timesheets/export?month=2024-05&pvz_id=...
func (h *Handler) ExportTimesheet(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	pvzID := pvzParam(r)

	var buf bytes.Buffer
	if err := h.Workforce.ExportTimesheet(r.Context(), month, pvzID, &buf); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	name := "timesheet-" + month.MonthString()
	if pvzID != "" {
		name += "-" + string(pvzID)
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// ApproveTimesheet approves every non-approved shift in scope.
// POST /api/timesheets/approve
func (h *Handler) ApproveTimesheet(w http.ResponseWriter, r *http.Request) {
	var req ApproveTimesheetRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	month, err := engine.ParseMonth(req.Month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}

	n, err := h.Workforce.ApproveTimesheet(r.Context(), month, engine.PVZID(req.PVZID))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ApproveTimesheetResponse{UpdatedCount: n})
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// CalculatePayroll recomputes payroll for a pvz and month.
// POST /api/payroll/calculate
func (h *Handler) CalculatePayroll(w http.ResponseWriter, r *http.Request) {
	var req CalculatePayrollRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	month, err := engine.ParseMonth(req.Month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}

	records, err := h.Payroll.Calculate(r.Context(), engine.PVZID(req.PVZID), month)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayrollDTOs(records))
}

// ListPayroll returns stored payroll records for a month.
// GET /api/payroll?month=2024-05&pvz_id=...
func (h *Handler) ListPayroll(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	records, err := h.Payroll.List(r.Context(), month, pvzParam(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayrollDTOs(records))
}

// PayPayroll marks one employee's month as paid.
// POST /api/payroll/pay
func (h *Handler) PayPayroll(w http.ResponseWriter, r *http.Request) {
	var req PayPayrollRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	month, err := engine.ParseMonth(req.Month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}

	record, err := h.Payroll.MarkPaid(r.Context(), engine.EmployeeID(req.EmployeeID), month)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayrollDTOs([]engine.PayrollRecord{*record})[0])
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// RecordTransaction appends a ledger row. A duplicate returns 200 with
// recorded=false instead of 201.
// POST /api/ledger/transactions
func (h *Handler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req RecordTransactionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	day, _ := engine.ParseDate(req.TransactionDate)
	source := engine.TransactionSource(req.Source)
	if source == "" {
		source = engine.SourceManual
	}

	tx, recorded, err := h.Ledger.Record(r.Context(), finance.Entry{
		PVZID:           engine.PVZID(req.PVZID),
		Type:            engine.TransactionType(req.Type),
		Amount:          req.Amount,
		TransactionDate: day,
		Source:          source,
		Description:     req.Description,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	status := http.StatusCreated
	if !recorded {
		status = http.StatusOK
	}
	writeJSON(w, status, RecordTransactionResponse{Transaction: toTransactionDTO(tx), Recorded: recorded})
}

// ListTransactions filters the ledger. month takes precedence over from/to.
// GET /api/ledger/transactions?pvz_id=&month=&from=&to=&type=&source=
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := engine.NewTransactionFilter().ForPVZ(pvzParam(r))

	switch {
	case q.Get("month") != "":
		month, err := engine.ParseMonth(q.Get("month"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid month", err)
			return
		}
		filter = filter.InWindow(engine.MonthOf(month))
	case q.Get("from") != "" || q.Get("to") != "":
		from, err := engine.ParseDate(q.Get("from"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date", err)
			return
		}
		to, err := engine.ParseDate(q.Get("to"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date", err)
			return
		}
		filter = filter.InWindow(engine.Period{Start: from, End: to})
	}

	if t := engine.TransactionType(q.Get("type")); t != "" {
		if !t.IsValid() {
			writeError(w, http.StatusBadRequest, "Invalid transaction type", nil)
			return
		}
		filter = filter.OfType(t)
	}
	if s := engine.TransactionSource(q.Get("source")); s != "" {
		if !s.IsValid() {
			writeError(w, http.StatusBadRequest, "Invalid transaction source", nil)
			return
		}
		filter = filter.FromSource(s)
	}

	txs, err := h.Ledger.List(r.Context(), filter)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// EXPENSE HANDLERS
// =============================================================================

// CreateExpense files a pending expense request.
// POST /api/expenses
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	e, err := h.Expenses.Create(r.Context(), finance.CreateExpenseRequest{
		PVZID:       engine.PVZID(req.PVZID),
		RequesterID: engine.EmployeeID(req.RequesterID),
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseDTO(*e))
}

// ListExpenses returns expense requests, newest first.
// GET /api/expenses?pvz_id=&status=
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.Expenses.List(r.Context(), engine.ExpenseFilter{
		PVZID:  pvzParam(r),
		Status: engine.ExpenseStatus(r.URL.Query().Get("status")),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	dtos := make([]ExpenseDTO, len(expenses))
	for i, e := range expenses {
		dtos[i] = toExpenseDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetExpense returns one expense request.
// GET /api/expenses/{id}
func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := h.Expenses.Get(r.Context(), engine.ExpenseID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTO(*e))
}

// TransitionExpense approves, rejects or pays an expense request.
// POST /api/expenses/{id}/transition
func (h *Handler) TransitionExpense(w http.ResponseWriter, r *http.Request) {
	var req ExpenseTransitionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	e, err := h.Expenses.Transition(r.Context(),
		engine.ExpenseID(chi.URLParam(r, "id")),
		engine.ExpenseStatus(req.Status),
		finance.TransitionMeta{
			ApprovedByID:    engine.EmployeeID(req.ApprovedByID),
			RejectionReason: req.RejectionReason,
		},
	)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTO(*e))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetPnL returns the monthly statement for one pvz or the whole network.
// GET /api/reports/pnl?month=2024-05&pvz_id=...
func (h *Handler) GetPnL(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}
	pnl, err := h.Reports.PnL(r.Context(), month, pvzParam(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPnLDTO(pnl))
}

// =============================================================================
// DIRECTORY HANDLERS
// =============================================================================

// ListEmployees returns the employee mirror.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveEmployee upserts an employee into the mirror.
// POST /api/employees
func (h *Handler) SaveEmployee(w http.ResponseWriter, r *http.Request) {
	var req SaveEmployeeRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.BaseRate.IsNegative() {
		writeError(w, http.StatusBadRequest, "Request validation failed",
			engine.NewValidationError("base_rate", "must not be negative"))
		return
	}

	e := engine.Employee{
		ID:        engine.EmployeeID(req.ID),
		Name:      req.Name,
		Role:      req.Role,
		BaseRate:  req.BaseRate,
		Status:    req.Status,
		HomePVZID: engine.PVZID(req.HomePVZID),
	}
	if err := h.Store.SaveEmployee(r.Context(), e); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	saved, err := h.Store.GetEmployee(r.Context(), e.ID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*saved))
}

// SavePVZ upserts a pickup point into the mirror.
// POST /api/pvzs
func (h *Handler) SavePVZ(w http.ResponseWriter, r *http.Request) {
	var req SavePVZRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	p := engine.PVZ{ID: engine.PVZID(req.ID), Name: req.Name}
	if err := h.Store.SavePVZ(r.Context(), p); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PVZDTO{ID: string(p.ID), Name: p.Name})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors to HTTP status. Server-side failures
// are logged with the request logger and their details are not exposed.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *engine.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Request validation failed",
			Details: []FieldErrorDTO{{Field: verr.Field, Message: verr.Message}},
		})
	case errors.Is(err, engine.ErrValidation):
		writeError(w, http.StatusBadRequest, "Request validation failed", err)
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, engine.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "Invalid state transition", err)
	case errors.Is(err, engine.ErrConflict):
		writeError(w, http.StatusConflict, "Conflict", err)
	default:
		logger.FromContext(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}

// monthParam reads the required ?month= query parameter. On failure the 400
// response is already written.
func monthParam(w http.ResponseWriter, r *http.Request) (engine.Date, bool) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Request validation failed",
			Details: []FieldErrorDTO{{Field: "month", Message: "is required"}},
		})
		return engine.Date{}, false
	}
	month, err := engine.ParseMonth(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return engine.Date{}, false
	}
	return month, true
}

func pvzParam(r *http.Request) engine.PVZID {
	return engine.PVZID(r.URL.Query().Get("pvz_id"))
}

func employeeIDs(ids []string) []engine.EmployeeID {
	out := make([]engine.EmployeeID, len(ids))
	for i, id := range ids {
		out[i] = engine.EmployeeID(id)
	}
	return out
}
