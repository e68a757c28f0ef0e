/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario sets up the expected state through the
	services, and that reloading starts from an empty database.
*/
package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/pvzops/workforce-engine/engine"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario_RotationWeek(t *testing.T) {
	// GIVEN: The rotation-week scenario
	h := setupTestHandler(t)
	ctx := context.Background()

	// WHEN: Loading it
	require.NoError(t, h.loadRotationWeekScenario(ctx))

	// THEN: Both members of each team work their four duty days
	employees, err := h.Store.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, employees, 4)

	shifts, err := h.Store.ListShifts(ctx, engine.NewShiftFilter().ForPVZ(demoPVZ))
	require.NoError(t, err)
	assert.Len(t, shifts, 16)

	days := map[engine.EmployeeID][]int{}
	for _, s := range shifts {
		days[s.EmployeeID] = append(days[s.EmployeeID], s.Date.Day())
	}
	assert.Equal(t, []int{1, 2, 5, 6}, days["E1"])
	assert.Equal(t, []int{3, 4, 7, 8}, days["E4"])
}

func TestScenario_PnLMonth(t *testing.T) {
	// GIVEN: The pnl-month scenario
	h := setupTestHandler(t)
	ctx := context.Background()

	// WHEN: Loading it
	require.NoError(t, h.loadPnLMonthScenario(ctx))

	// THEN: Payroll is 60h x 250 + 50h x 300
	month := engine.NewDate(2024, 5, 1)
	records, err := h.Payroll.List(ctx, month, demoPVZ)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].TotalAmount.Equal(decimal.NewFromInt(15000)), "E1 got %s", records[0].TotalAmount)
	assert.True(t, records[1].TotalAmount.Equal(decimal.NewFromInt(15000)), "E2 got %s", records[1].TotalAmount)

	// AND: The expense payment landed inside May
	paid, err := h.Expenses.List(ctx, engine.ExpenseFilter{Status: engine.ExpensePaid})
	require.NoError(t, err)
	assert.Len(t, paid, 1)

	// AND: The P&L nets 50000 and is complete
	pnl, err := h.Reports.PnL(ctx, month, demoPVZ)
	require.NoError(t, err)
	assert.True(t, pnl.Revenue.Equal(decimal.NewFromInt(100000)))
	assert.True(t, pnl.Opex.Equal(decimal.NewFromInt(20000)))
	assert.True(t, pnl.Payroll.Equal(decimal.NewFromInt(30000)))
	assert.True(t, pnl.NetProfit.Equal(decimal.NewFromInt(50000)), "got %s", pnl.NetProfit)
	assert.False(t, pnl.IsIntermediate)
}

func TestLoadScenario_ResetsBetweenLoads(t *testing.T) {
	// GIVEN: pnl-month loaded over HTTP
	h, srv := setupTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: ScenarioPnLMonth})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, srv, http.MethodGet, "/api/reports/pnl?month=2024-05&pvz_id=pvz-demo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pnl := decodeBody[PnLDTO](t, rec)
	assert.Equal(t, "2024-05", pnl.Month)
	assert.True(t, pnl.NetProfit.Equal(decimal.NewFromInt(50000)))

	// WHEN: Loading it a second time
	rec = doRequest(t, srv, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: ScenarioPnLMonth})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: The ledger holds one copy of each row, not two
	n, err := h.Store.CountTransactions(context.Background(), engine.NewTransactionFilter().ForPVZ(demoPVZ))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rec = doRequest(t, srv, http.MethodGet, "/api/scenarios/current", nil)
	assert.Equal(t, ScenarioPnLMonth, decodeBody[map[string]string](t, rec)["scenario"])

	// AND: Reset empties everything
	rec = doRequest(t, srv, http.MethodPost, "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	n, err = h.Store.CountTransactions(context.Background(), engine.NewTransactionFilter())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoadScenario_Unknown(t *testing.T) {
	_, srv := setupTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "year-end"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/scenarios", nil)
	assert.Len(t, decodeBody[[]ScenarioDTO](t, rec), 2)
}
