/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the database with realistic
  data for demos. Each scenario goes through the same services the API
  uses, so the resulting rows obey every engine rule.

AVAILABLE SCENARIOS:
  rotation-week: Two teams on one pvz, eight generated days
  pnl-month:     A full month for one pvz: imported revenue, a paid expense
                 request, closed shifts and calculated payroll. The May 2024
                 P&L nets 100000 - 20000 - 30000 = 50000.

HOW SCENARIOS WORK:
 1. Reset database (schema rolled down and up)
 2. Seed the directory mirror (pvz, employees)
 3. Drive the services: generate, close shifts, record, pay, calculate

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "pnl-month"}

NOTE:
  Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler and services
  - store/sqlite/sqlite.go: Reset
*/
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/pvzops/workforce-engine/engine"
	"github.com/pvzops/workforce-engine/finance"
	"github.com/pvzops/workforce-engine/workforce"
	"go.uber.org/zap"
)

const (
	ScenarioRotationWeek = "rotation-week"
	ScenarioPnLMonth     = "pnl-month"

	demoPVZ = engine.PVZID("pvz-demo")
)

var scenarios = []ScenarioDTO{
	{
		ID:          ScenarioRotationWeek,
		Name:        "Rotation week",
		Description: "Team A (E1, E2) and team B (E3, E4) on a 2-on/2-off rotation for 1-8 May 2024",
	},
	{
		ID:          ScenarioPnLMonth,
		Name:        "P&L month",
		Description: "May 2024: revenue 100000, paid expense 20000, payroll 30000, net profit 50000",
	},
}

// ListScenarios returns available demo scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the last loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"scenario": current})
}

// LoadScenario resets the database and loads a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	var load func(context.Context) error
	switch req.ScenarioID {
	case ScenarioRotationWeek:
		load = h.loadRotationWeekScenario
	case ScenarioPnLMonth:
		load = h.loadPnLMonthScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(h.Logger); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.currentScenario = ""

	if err := load(r.Context()); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.currentScenario = req.ScenarioID

	h.Logger.Info("scenario loaded", zap.String("scenario", req.ScenarioID))
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase drops all data.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(h.Logger); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) seedDirectory(ctx context.Context, employees ...engine.Employee) error {
	if err := h.Store.SavePVZ(ctx, engine.PVZ{ID: demoPVZ, Name: "PVZ Demo, Lenina 1"}); err != nil {
		return err
	}
	for _, e := range employees {
		e.HomePVZID = demoPVZ
		if err := h.Store.SaveEmployee(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadRotationWeekScenario(ctx context.Context) error {
	err := h.seedDirectory(ctx,
		engine.Employee{ID: "E1", Name: "Anna Petrova", Role: "operator", BaseRate: engine.MustParseDecimal("250")},
		engine.Employee{ID: "E2", Name: "Ivan Sokolov", Role: "operator", BaseRate: engine.MustParseDecimal("250")},
		engine.Employee{ID: "E3", Name: "Maria Orlova", Role: "operator", BaseRate: engine.MustParseDecimal("250")},
		engine.Employee{ID: "E4", Name: "Pavel Volkov", Role: "senior operator", BaseRate: engine.MustParseDecimal("300")},
	)
	if err != nil {
		return err
	}

	_, err = h.Workforce.GenerateSchedule(ctx, workforce.GenerateRequest{
		PVZID:     demoPVZ,
		TeamA:     []engine.EmployeeID{"E1", "E2"},
		TeamB:     []engine.EmployeeID{"E3", "E4"},
		StartDate: engine.NewDate(2024, time.May, 1),
		EndDate:   engine.NewDate(2024, time.May, 8),
	})
	return err
}

// loadPnLMonthScenario builds May 2024 for pvz-demo:
//   - revenue 100000 imported on 31 May
//   - expense request 20000 approved and paid on 20 May
//   - E1 closes five 12h shifts at 250/h, E2 five 10h shifts at 300/h
//   - payroll calculated: 15000 + 15000
func (h *Handler) loadPnLMonthScenario(ctx context.Context) error {
	err := h.seedDirectory(ctx,
		engine.Employee{ID: "E1", Name: "Anna Petrova", Role: "operator", BaseRate: engine.MustParseDecimal("250")},
		engine.Employee{ID: "E2", Name: "Pavel Volkov", Role: "senior operator", BaseRate: engine.MustParseDecimal("300")},
		engine.Employee{ID: "M1", Name: "Olga Smirnova", Role: "manager", BaseRate: engine.MustParseDecimal("400")},
	)
	if err != nil {
		return err
	}

	month := engine.NewDate(2024, time.May, 1)
	if _, err := h.Workforce.GenerateSchedule(ctx, workforce.GenerateRequest{
		PVZID:     demoPVZ,
		TeamA:     []engine.EmployeeID{"E1"},
		TeamB:     []engine.EmployeeID{"E2"},
		StartDate: month,
		EndDate:   month.EndOfMonth(),
	}); err != nil {
		return err
	}
	if err := h.closeFirstShifts(ctx, month, "E1", 5, "12"); err != nil {
		return err
	}
	if err := h.closeFirstShifts(ctx, month, "E2", 5, "10"); err != nil {
		return err
	}

	if _, _, err := h.Ledger.Record(ctx, finance.Entry{
		PVZID:           demoPVZ,
		Type:            engine.TxRevenue,
		Amount:          engine.MustParseDecimal("100000"),
		TransactionDate: month.EndOfMonth(),
		Source:          engine.SourceAutomatedImport,
		Description:     "Marketplace payout, May 2024",
	}); err != nil {
		return err
	}

	// Payment date comes from the workflow clock; pin it inside the month.
	expenses := finance.NewExpenseWorkflow(h.Store, h.Logger)
	expenses.Now = func() time.Time { return time.Date(2024, time.May, 20, 12, 0, 0, 0, time.UTC) }
	e, err := expenses.Create(ctx, finance.CreateExpenseRequest{
		PVZID:       demoPVZ,
		RequesterID: "E1",
		Amount:      engine.MustParseDecimal("20000"),
		Category:    "rent",
		Description: "Storage room, May",
	})
	if err != nil {
		return err
	}
	if _, err := expenses.Transition(ctx, e.ID, engine.ExpenseApproved, finance.TransitionMeta{ApprovedByID: "M1"}); err != nil {
		return err
	}
	if _, err := expenses.Transition(ctx, e.ID, engine.ExpensePaid, finance.TransitionMeta{}); err != nil {
		return err
	}

	_, err = h.Payroll.Calculate(ctx, demoPVZ, month)
	return err
}

// closeFirstShifts closes the employee's first n shifts of the month with
// the given actual hours.
func (h *Handler) closeFirstShifts(ctx context.Context, month engine.Date, employeeID engine.EmployeeID, n int, hours string) error {
	shifts, err := h.Store.ListShifts(ctx, engine.NewShiftFilter().
		ForPVZ(demoPVZ).
		ForEmployee(employeeID).
		InWindow(engine.MonthOf(month)))
	if err != nil {
		return err
	}
	actual := engine.MustParseDecimal(hours)
	for i := 0; i < n && i < len(shifts); i++ {
		if _, err := h.Workforce.CloseShift(ctx, shifts[i].ID, actual); err != nil {
			return err
		}
	}
	return nil
}
