package payroll_test

import (
	"context"
	"testing"

	"github.com/pvzops/workforce-engine/engine"
	"github.com/pvzops/workforce-engine/payroll"
	"github.com/pvzops/workforce-engine/store/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type fixture struct {
	store *sqlite.Store
	calc  *payroll.Calculator
	seq   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.SavePVZ(ctx, engine.PVZ{ID: "pvz-1", Name: "Central"}))
	require.NoError(t, store.SaveEmployee(ctx, engine.Employee{ID: "E1", Name: "Anna", BaseRate: decimal.NewFromInt(300)}))
	require.NoError(t, store.SaveEmployee(ctx, engine.Employee{ID: "E2", Name: "Boris", BaseRate: decimal.RequireFromString("275.50")}))
	require.NoError(t, store.SaveEmployee(ctx, engine.Employee{ID: "E3", Name: "Vera", BaseRate: decimal.NewFromInt(280)}))

	return &fixture{store: store, calc: payroll.NewCalculator(store, nil)}
}

// addShift stores a shift; hours == "" leaves actual hours unset.
func (f *fixture) addShift(t *testing.T, employee engine.EmployeeID, date engine.Date, status engine.ShiftStatus, hours string) {
	t.Helper()
	f.seq++
	s := engine.Shift{
		ID:           engine.ShiftID("s" + string(rune('a'+f.seq))),
		EmployeeID:   employee,
		PVZID:        "pvz-1",
		Date:         date,
		Type:         engine.ShiftScheduled,
		Status:       status,
		PlannedHours: decimal.NewFromInt(12),
	}
	if hours != "" {
		h := decimal.RequireFromString(hours)
		s.ActualHours = &h
	}
	require.NoError(t, f.store.CreateShift(context.Background(), s))
}

func jan(d int) engine.Date { return engine.NewDate(2024, 1, d) }

func byEmployee(records []engine.PayrollRecord) map[engine.EmployeeID]engine.PayrollRecord {
	out := make(map[engine.EmployeeID]engine.PayrollRecord, len(records))
	for _, r := range records {
		out[r.EmployeeID] = r
	}
	return out
}

// =============================================================================
// CALCULATION
// =============================================================================

func TestSumHours_GroupsByEmployee(t *testing.T) {
	h := func(s string) *decimal.Decimal { d := decimal.RequireFromString(s); return &d }

	lines := payroll.SumHours([]engine.Shift{
		{EmployeeID: "E2", ActualHours: h("4")},
		{EmployeeID: "E1", ActualHours: h("10.5")},
		{EmployeeID: "E1", ActualHours: h("1.5")},
		{EmployeeID: "E3"},
	})

	require.Len(t, lines, 2)
	assert.Equal(t, engine.EmployeeID("E1"), lines[0].EmployeeID)
	assert.Equal(t, "12", lines[0].Hours.String())
	assert.Equal(t, "4", lines[1].Hours.String())
}

func TestCalculate_PayableShiftsOnly(t *testing.T) {
	// GIVEN: Closed, approved, pending and out-of-month shifts
	f := newFixture(t)
	f.addShift(t, "E1", jan(2), engine.ShiftClosed, "12")
	f.addShift(t, "E1", jan(3), engine.ShiftApproved, "10.5")
	f.addShift(t, "E1", jan(4), engine.ShiftPending, "")
	f.addShift(t, "E1", engine.NewDate(2024, 2, 1), engine.ShiftClosed, "12")
	f.addShift(t, "E2", jan(5), engine.ShiftClosed, "7.25")
	f.addShift(t, "E3", jan(6), engine.ShiftClosed, "0")
	f.addShift(t, "E3", jan(7), engine.ShiftRejected, "12")

	// WHEN: Calculating January from a mid-month date
	records, err := f.calc.Calculate(context.Background(), "pvz-1", jan(20))

	// THEN: One record per employee with positive payable hours
	require.NoError(t, err)
	require.Len(t, records, 2)
	got := byEmployee(records)

	e1 := got["E1"]
	assert.Equal(t, jan(1), e1.Month)
	assert.Equal(t, "22.5", e1.TotalHours.String())
	assert.True(t, e1.TotalAmount.Equal(decimal.NewFromInt(6750)))
	assert.Equal(t, engine.PayrollCalculated, e1.Status)

	e2 := got["E2"]
	assert.True(t, e2.TotalAmount.Equal(decimal.RequireFromString("1997.375")))

	// Every record satisfies total = hours x rate
	for _, r := range records {
		assert.True(t, r.TotalAmount.Equal(r.TotalHours.Mul(r.Rate)), "employee %s", r.EmployeeID)
	}
	_, hasZeroHours := got["E3"]
	assert.False(t, hasZeroHours)
}

func TestCalculate_RecalculationUpserts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addShift(t, "E1", jan(2), engine.ShiftClosed, "10")

	first, err := f.calc.Calculate(ctx, "pvz-1", jan(1))
	require.NoError(t, err)
	require.Len(t, first, 1)

	// More hours and a new rate arrive before recalculation
	f.addShift(t, "E1", jan(3), engine.ShiftClosed, "2")
	require.NoError(t, f.store.SaveEmployee(ctx, engine.Employee{ID: "E1", Name: "Anna", BaseRate: decimal.NewFromInt(310)}))

	second, err := f.calc.Calculate(ctx, "pvz-1", jan(31))
	require.NoError(t, err)
	require.Len(t, second, 1)

	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, "12", second[0].TotalHours.String())
	assert.True(t, second[0].Rate.Equal(decimal.NewFromInt(310)))
	assert.True(t, second[0].TotalAmount.Equal(decimal.NewFromInt(3720)))

	all, err := f.calc.List(ctx, jan(1), "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCalculate_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.calc.Calculate(context.Background(), "", jan(1))
	assert.ErrorIs(t, err, engine.ErrValidation)

	_, err = f.calc.Calculate(context.Background(), "pvz-1", engine.Date{})
	assert.ErrorIs(t, err, engine.ErrValidation)
}

func TestCalculate_NoShiftsNoRecords(t *testing.T) {
	f := newFixture(t)

	records, err := f.calc.Calculate(context.Background(), "pvz-1", jan(1))

	require.NoError(t, err)
	assert.Empty(t, records)
}

// =============================================================================
// PAYMENT
// =============================================================================

func TestMarkPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addShift(t, "E1", jan(2), engine.ShiftClosed, "10")
	_, err := f.calc.Calculate(ctx, "pvz-1", jan(1))
	require.NoError(t, err)

	paid, err := f.calc.MarkPaid(ctx, "E1", jan(15))
	require.NoError(t, err)
	assert.Equal(t, engine.PayrollPaid, paid.Status)

	// Paying twice is illegal
	_, err = f.calc.MarkPaid(ctx, "E1", jan(1))
	assert.ErrorIs(t, err, engine.ErrInvalidTransition)

	// Recalculation keeps the paid status
	records, err := f.calc.Calculate(ctx, "pvz-1", jan(1))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, engine.PayrollPaid, records[0].Status)

	_, err = f.calc.MarkPaid(ctx, "E2", jan(1))
	assert.ErrorIs(t, err, engine.ErrNotFound)
}
