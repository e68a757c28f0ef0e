/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the engine
  types from the wire contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Small response wrappers

WIRE FORMATS:
  - Dates are "YYYY-MM-DD"; months accept "YYYY-MM" or any date in the month
  - Money and hours are decimal strings ("25000.00", "11.5")
  - Timestamps are RFC 3339

VALIDATION:
  Request bodies carry go-playground/validator tags checked by decodeJSON.
  Engine-level rules (sign convention, state machines) are enforced by the
  services and surface as 400/409 through writeDomainError.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/pvzops/workforce-engine/engine"
	"github.com/pvzops/workforce-engine/report"
	"github.com/shopspring/decimal"
)

// =============================================================================
// SCHEDULE / TIMESHEET
// =============================================================================

type GenerateScheduleRequest struct {
	PVZID     string   `json:"pvz_id" validate:"required"`
	TeamA     []string `json:"team_a" validate:"dive,required"`
	TeamB     []string `json:"team_b" validate:"dive,required"`
	StartDate string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string   `json:"end_date" validate:"required,datetime=2006-01-02"`
}

type GenerateScheduleResponse struct {
	Generated      int `json:"generated"`
	TotalAttempted int `json:"total_attempted"`
}

// ApproveTimesheetRequest scopes an approval to a month and optionally a pvz.
type ApproveTimesheetRequest struct {
	Month string `json:"month" validate:"required"`
	PVZID string `json:"pvz_id"`
}

type ApproveTimesheetResponse struct {
	UpdatedCount int64 `json:"updated_count"`
}

type ShiftDTO struct {
	ID           string           `json:"id"`
	EmployeeID   string           `json:"employee_id"`
	PVZID        string           `json:"pvz_id"`
	Date         string           `json:"date"`
	Type         string           `json:"type"`
	Status       string           `json:"status"`
	PlannedHours decimal.Decimal  `json:"planned_hours"`
	ActualHours  *decimal.Decimal `json:"actual_hours"`
	CreatedAt    string           `json:"created_at,omitempty"`
	UpdatedAt    string           `json:"updated_at,omitempty"`
}

type TimesheetRowDTO struct {
	ShiftDTO
	EmployeeName string `json:"employee_name"`
	EmployeeRole string `json:"employee_role"`
	PVZName      string `json:"pvz_name"`
}

type CreateShiftRequest struct {
	PVZID        string           `json:"pvz_id" validate:"required"`
	EmployeeID   string           `json:"employee_id" validate:"required"`
	Date         string           `json:"date" validate:"required,datetime=2006-01-02"`
	Type         string           `json:"type" validate:"omitempty,oneof=scheduled extra vacation sick"`
	PlannedHours *decimal.Decimal `json:"planned_hours"`
}

type CloseShiftRequest struct {
	ActualHours *decimal.Decimal `json:"actual_hours" validate:"required"`
}

// =============================================================================
// PAYROLL
// =============================================================================

type CalculatePayrollRequest struct {
	PVZID string `json:"pvz_id" validate:"required"`
	Month string `json:"month" validate:"required"`
}

type PayPayrollRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Month      string `json:"month" validate:"required"`
}

type PayrollRecordDTO struct {
	ID          string          `json:"id"`
	PVZID       string          `json:"pvz_id"`
	EmployeeID  string          `json:"employee_id"`
	Month       string          `json:"month"`
	TotalHours  decimal.Decimal `json:"total_hours"`
	Rate        decimal.Decimal `json:"rate"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	UpdatedAt   string          `json:"updated_at,omitempty"`
}

// =============================================================================
// LEDGER / EXPENSES
// =============================================================================

// RecordTransactionRequest appends a ledger row. The expense_request source
// is reserved for the expense workflow.
type RecordTransactionRequest struct {
	PVZID           string          `json:"pvz_id" validate:"required"`
	Type            string          `json:"type" validate:"required,oneof=revenue expense"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionDate string          `json:"transaction_date" validate:"required,datetime=2006-01-02"`
	Source          string          `json:"source" validate:"omitempty,oneof=manual automated_import"`
	Description     string          `json:"description" validate:"max=500"`
}

type RecordTransactionResponse struct {
	Transaction TransactionDTO `json:"transaction"`
	Recorded    bool           `json:"recorded"`
}

type TransactionDTO struct {
	ID              string          `json:"id"`
	PVZID           string          `json:"pvz_id"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionDate string          `json:"transaction_date"`
	Source          string          `json:"source"`
	Description     string          `json:"description,omitempty"`
	CreatedAt       string          `json:"created_at,omitempty"`
}

type CreateExpenseRequest struct {
	PVZID       string          `json:"pvz_id" validate:"required"`
	RequesterID string          `json:"requester_id" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=500"`
}

type ExpenseTransitionRequest struct {
	Status          string `json:"status" validate:"required,oneof=approved rejected paid"`
	ApprovedByID    string `json:"approved_by_id" validate:"required_if=Status approved"`
	RejectionReason string `json:"rejection_reason" validate:"max=500"`
}

type ExpenseDTO struct {
	ID              string          `json:"id"`
	PVZID           string          `json:"pvz_id"`
	RequesterID     string          `json:"requester_id"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category"`
	Description     string          `json:"description,omitempty"`
	Status          string          `json:"status"`
	ApprovedByID    *string         `json:"approved_by_id,omitempty"`
	ApprovedAt      *string         `json:"approved_at,omitempty"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	PaidAt          *string         `json:"paid_at,omitempty"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

// =============================================================================
// REPORTS / DIRECTORY / SCENARIOS
// =============================================================================

type PnLDTO struct {
	Month          string          `json:"month"`
	PVZID          string          `json:"pvz_id,omitempty"`
	Revenue        decimal.Decimal `json:"revenue"`
	Opex           decimal.Decimal `json:"opex"`
	Payroll        decimal.Decimal `json:"payroll"`
	NetProfit      decimal.Decimal `json:"net_profit"`
	IsIntermediate bool            `json:"is_intermediate"`
}

type EmployeeDTO struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Role      string          `json:"role,omitempty"`
	BaseRate  decimal.Decimal `json:"base_rate"`
	Status    string          `json:"status"`
	HomePVZID string          `json:"home_pvz_id,omitempty"`
}

type SaveEmployeeRequest struct {
	ID        string          `json:"id" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	Role      string          `json:"role"`
	BaseRate  decimal.Decimal `json:"base_rate"`
	Status    string          `json:"status" validate:"omitempty,oneof=active inactive"`
	HomePVZID string          `json:"home_pvz_id"`
}

type PVZDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SavePVZRequest struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimestampPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func toShiftDTO(s engine.Shift) ShiftDTO {
	return ShiftDTO{
		ID:           string(s.ID),
		EmployeeID:   string(s.EmployeeID),
		PVZID:        string(s.PVZID),
		Date:         s.Date.String(),
		Type:         string(s.Type),
		Status:       string(s.Status),
		PlannedHours: s.PlannedHours,
		ActualHours:  s.ActualHours,
		CreatedAt:    formatTimestamp(s.CreatedAt),
		UpdatedAt:    formatTimestamp(s.UpdatedAt),
	}
}

func toTimesheetDTOs(rows []engine.TimesheetRow) []TimesheetRowDTO {
	dtos := make([]TimesheetRowDTO, len(rows))
	for i, r := range rows {
		dtos[i] = TimesheetRowDTO{
			ShiftDTO:     toShiftDTO(r.Shift),
			EmployeeName: r.EmployeeName,
			EmployeeRole: r.EmployeeRole,
			PVZName:      r.PVZName,
		}
	}
	return dtos
}

func toPayrollDTOs(records []engine.PayrollRecord) []PayrollRecordDTO {
	dtos := make([]PayrollRecordDTO, len(records))
	for i, p := range records {
		dtos[i] = PayrollRecordDTO{
			ID:          p.ID,
			PVZID:       string(p.PVZID),
			EmployeeID:  string(p.EmployeeID),
			Month:       p.Month.String(),
			TotalHours:  p.TotalHours,
			Rate:        p.Rate,
			TotalAmount: p.TotalAmount,
			Status:      string(p.Status),
			UpdatedAt:   formatTimestamp(p.UpdatedAt),
		}
	}
	return dtos
}

func toTransactionDTO(tx engine.FinancialTransaction) TransactionDTO {
	return TransactionDTO{
		ID:              string(tx.ID),
		PVZID:           string(tx.PVZID),
		Type:            string(tx.Type),
		Amount:          tx.Amount,
		TransactionDate: tx.TransactionDate.String(),
		Source:          string(tx.Source),
		Description:     tx.Description,
		CreatedAt:       formatTimestamp(tx.CreatedAt),
	}
}

func toExpenseDTO(e engine.ExpenseRequest) ExpenseDTO {
	dto := ExpenseDTO{
		ID:              string(e.ID),
		PVZID:           string(e.PVZID),
		RequesterID:     string(e.RequesterID),
		Amount:          e.Amount,
		Category:        e.Category,
		Description:     e.Description,
		Status:          string(e.Status),
		ApprovedAt:      formatTimestampPtr(e.ApprovedAt),
		RejectionReason: e.RejectionReason,
		PaidAt:          formatTimestampPtr(e.PaidAt),
		CreatedAt:       formatTimestamp(e.CreatedAt),
		UpdatedAt:       formatTimestamp(e.UpdatedAt),
	}
	if e.ApprovedByID != nil {
		approver := string(*e.ApprovedByID)
		dto.ApprovedByID = &approver
	}
	return dto
}

func toPnLDTO(p *report.PnL) PnLDTO {
	return PnLDTO{
		Month:          p.Month.MonthString(),
		PVZID:          string(p.PVZID),
		Revenue:        p.Revenue,
		Opex:           p.Opex,
		Payroll:        p.Payroll,
		NetProfit:      p.NetProfit,
		IsIntermediate: p.IsIntermediate,
	}
}

func toEmployeeDTO(e engine.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:        string(e.ID),
		Name:      e.Name,
		Role:      e.Role,
		BaseRate:  e.BaseRate,
		Status:    e.Status,
		HomePVZID: string(e.HomePVZID),
	}
}
