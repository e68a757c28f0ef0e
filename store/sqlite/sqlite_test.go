package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pvzops/workforce-engine/engine"
	"github.com/pvzops/workforce-engine/store/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func date(s string) engine.Date {
	d, err := engine.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func dec(s string) decimal.Decimal {
	return engine.MustParseDecimal(s)
}

func shift(id, employee, day string, status engine.ShiftStatus) engine.Shift {
	return engine.Shift{
		ID:           engine.ShiftID(id),
		EmployeeID:   engine.EmployeeID(employee),
		PVZID:        "pvz-1",
		Date:         date(day),
		Type:         engine.ShiftScheduled,
		Status:       status,
		PlannedHours: dec("12"),
	}
}

// =============================================================================
// SHIFTS
// =============================================================================

func TestInsertShiftIfAbsent_SkipsDuplicateEmployeeDate(t *testing.T) {
	// GIVEN: A shift for e1 on 2024-01-01
	store := newTestStore(t)
	ctx := context.Background()

	inserted, err := store.InsertShiftIfAbsent(ctx, shift("s1", "e1", "2024-01-01", engine.ShiftPending))
	require.NoError(t, err)
	assert.True(t, inserted)

	// WHEN: Another shift for the same employee and date is inserted
	inserted, err = store.InsertShiftIfAbsent(ctx, shift("s2", "e1", "2024-01-01", engine.ShiftPending))

	// THEN: It is skipped without error and the original remains
	require.NoError(t, err)
	assert.False(t, inserted)

	shifts, err := store.ListShifts(ctx, engine.NewShiftFilter())
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, engine.ShiftID("s1"), shifts[0].ID)
}

func TestCreateShift_DuplicateIsConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateShift(ctx, shift("s1", "e1", "2024-01-01", engine.ShiftPending)))
	err := store.CreateShift(ctx, shift("s2", "e1", "2024-01-01", engine.ShiftPending))

	assert.ErrorIs(t, err, engine.ErrConflict)
}

func TestGetShift_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetShift(context.Background(), "missing")

	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestUpdateShiftStatus_GuardsOnCurrentStatus(t *testing.T) {
	// GIVEN: A pending shift
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateShift(ctx, shift("s1", "e1", "2024-01-01", engine.ShiftPending)))

	// WHEN: Closing from open only
	hours := dec("11.5")
	ok, err := store.UpdateShiftStatus(ctx, "s1", []engine.ShiftStatus{engine.ShiftOpen}, engine.ShiftClosed, &hours)

	// THEN: Nothing changes
	require.NoError(t, err)
	assert.False(t, ok)

	// WHEN: Closing from pending or open
	ok, err = store.UpdateShiftStatus(ctx, "s1", []engine.ShiftStatus{engine.ShiftPending, engine.ShiftOpen}, engine.ShiftClosed, &hours)

	// THEN: The shift is closed with its actual hours
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := store.GetShift(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, engine.ShiftClosed, got.Status)
	require.NotNil(t, got.ActualHours)
	assert.True(t, got.ActualHours.Equal(hours))
}

func TestListShifts_FilterByWindowStatusAndActualHours(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	closed := shift("s1", "e1", "2024-01-05", engine.ShiftClosed)
	h := dec("10")
	closed.ActualHours = &h
	require.NoError(t, store.CreateShift(ctx, closed))
	require.NoError(t, store.CreateShift(ctx, shift("s2", "e2", "2024-01-05", engine.ShiftClosed)))
	require.NoError(t, store.CreateShift(ctx, shift("s3", "e1", "2024-01-06", engine.ShiftPending)))
	require.NoError(t, store.CreateShift(ctx, shift("s4", "e1", "2024-02-01", engine.ShiftClosed)))

	january := engine.MonthOf(date("2024-01-15"))
	filter := engine.NewShiftFilter().
		ForPVZ("pvz-1").
		InWindow(january).
		WithStatus(engine.PayableShiftStatuses...).
		WithActualHours()

	shifts, err := store.ListShifts(ctx, filter)
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, engine.ShiftID("s1"), shifts[0].ID)
}

func TestTimesheet_JoinsDirectoryNames(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePVZ(ctx, engine.PVZ{ID: "pvz-1", Name: "Central"}))
	require.NoError(t, store.SaveEmployee(ctx, engine.Employee{ID: "e1", Name: "Anna", Role: "operator", BaseRate: dec("300")}))
	require.NoError(t, store.CreateShift(ctx, shift("s1", "e1", "2024-01-01", engine.ShiftPending)))
	require.NoError(t, store.CreateShift(ctx, shift("s2", "e-unknown", "2024-01-01", engine.ShiftPending)))

	rows, err := store.Timesheet(ctx, engine.NewShiftFilter().ForPVZ("pvz-1"))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Unknown employees sort first with an empty name
	assert.Equal(t, "", rows[0].EmployeeName)
	assert.Equal(t, "Anna", rows[1].EmployeeName)
	assert.Equal(t, "operator", rows[1].EmployeeRole)
	assert.Equal(t, "Central", rows[1].PVZName)
}

func TestSetShiftStatus_SkipsExcludedStatuses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateShift(ctx, shift("s1", "e1", "2024-01-01", engine.ShiftClosed)))
	require.NoError(t, store.CreateShift(ctx, shift("s2", "e2", "2024-01-01", engine.ShiftApproved)))

	n, err := store.SetShiftStatus(ctx,
		engine.NewShiftFilter().ForPVZ("pvz-1").WithoutStatus(engine.ShiftApproved),
		engine.ShiftApproved)

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

// =============================================================================
// LEDGER
// =============================================================================

func revenue(id string, day string, amount string) engine.FinancialTransaction {
	return engine.FinancialTransaction{
		ID:              engine.TransactionID(id),
		PVZID:           "pvz-1",
		Type:            engine.TxRevenue,
		Amount:          dec(amount),
		TransactionDate: date(day),
		Source:          engine.SourceManual,
	}
}

func TestAppendTransaction_DeduplicatesCanonicalAmount(t *testing.T) {
	// GIVEN: A recorded revenue of 100
	store := newTestStore(t)
	ctx := context.Background()

	ok, err := store.AppendTransaction(ctx, revenue("t1", "2024-01-10", "100"))
	require.NoError(t, err)
	assert.True(t, ok)

	// WHEN: The same tuple arrives with a different scale and a new ID
	ok, err = store.AppendTransaction(ctx, revenue("t2", "2024-01-10", "100.00"))

	// THEN: It is collapsed into the existing row
	require.NoError(t, err)
	assert.False(t, ok)

	count, err := store.CountTransactions(ctx, engine.NewTransactionFilter())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAppendTransaction_DifferentSourceIsDistinct(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AppendTransaction(ctx, revenue("t1", "2024-01-10", "100"))
	require.NoError(t, err)

	imported := revenue("t2", "2024-01-10", "100")
	imported.Source = engine.SourceAutomatedImport
	ok, err := store.AppendTransaction(ctx, imported)

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLedger_IsAppendOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AppendTransaction(ctx, revenue("t1", "2024-01-10", "100"))
	require.NoError(t, err)

	_, err = store.DB().ExecContext(ctx, `UPDATE financial_transactions SET amount = '1.00'`)
	assert.ErrorContains(t, err, "append-only")

	_, err = store.DB().ExecContext(ctx, `DELETE FROM financial_transactions`)
	assert.ErrorContains(t, err, "append-only")
}

func TestListTransactions_FiltersWindowTypeAndSource(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AppendTransaction(ctx, revenue("t1", "2024-01-10", "100"))
	require.NoError(t, err)
	_, err = store.AppendTransaction(ctx, revenue("t2", "2024-02-10", "200"))
	require.NoError(t, err)
	_, err = store.AppendTransaction(ctx, engine.FinancialTransaction{
		ID: "t3", PVZID: "pvz-1", Type: engine.TxExpense, Amount: dec("-50"),
		TransactionDate: date("2024-01-11"), Source: engine.SourceExpenseRequest,
	})
	require.NoError(t, err)

	january := engine.MonthOf(date("2024-01-01"))
	txs, err := store.ListTransactions(ctx, engine.NewTransactionFilter().ForPVZ("pvz-1").InWindow(january))
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, engine.TransactionID("t1"), txs[0].ID)
	assert.True(t, txs[1].Amount.Equal(dec("-50")))

	expenses, err := store.CountTransactions(ctx, engine.NewTransactionFilter().OfType(engine.TxExpense).FromSource(engine.SourceExpenseRequest))
	require.NoError(t, err)
	assert.Equal(t, 1, expenses)
}

// =============================================================================
// EXPENSES
// =============================================================================

func TestExpense_CreateGetUpdateGuarded(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	e := engine.ExpenseRequest{
		ID: "x1", PVZID: "pvz-1", RequesterID: "e1",
		Amount: dec("25000"), Category: "repair", Status: engine.ExpensePending,
	}
	require.NoError(t, store.CreateExpense(ctx, e))

	got, err := store.GetExpense(ctx, "x1")
	require.NoError(t, err)
	assert.Equal(t, engine.ExpensePending, got.Status)
	assert.Nil(t, got.ApprovedByID)

	approver := engine.EmployeeID("boss")
	at := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	got.Status = engine.ExpenseApproved
	got.ApprovedByID = &approver
	got.ApprovedAt = &at

	ok, err := store.UpdateExpense(ctx, *got, engine.ExpensePending)
	require.NoError(t, err)
	assert.True(t, ok)

	// A second update from pending loses the race
	ok, err = store.UpdateExpense(ctx, *got, engine.ExpensePending)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err = store.GetExpense(ctx, "x1")
	require.NoError(t, err)
	require.NotNil(t, got.ApprovedByID)
	assert.Equal(t, approver, *got.ApprovedByID)
	require.NotNil(t, got.ApprovedAt)
	assert.True(t, got.ApprovedAt.Equal(at))

	_, err = store.GetExpense(ctx, "missing")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestListExpenses_FilterByStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, status := range []engine.ExpenseStatus{engine.ExpensePending, engine.ExpenseApproved, engine.ExpensePending} {
		require.NoError(t, store.CreateExpense(ctx, engine.ExpenseRequest{
			ID: engine.ExpenseID(string(rune('a' + i))), PVZID: "pvz-1", RequesterID: "e1",
			Amount: dec("10"), Category: "supplies", Status: status,
		}))
	}

	pending, err := store.ListExpenses(ctx, engine.ExpenseFilter{Status: engine.ExpensePending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

// =============================================================================
// PAYROLL
// =============================================================================

func TestUpsertPayroll_RecalculationKeepsStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	month := date("2024-01-01")

	rec := engine.PayrollRecord{
		ID: "p1", PVZID: "pvz-1", EmployeeID: "e1", Month: month,
		TotalHours: dec("10"), Rate: dec("300"), TotalAmount: dec("3000"),
	}
	require.NoError(t, store.UpsertPayroll(ctx, rec))

	ok, err := store.SetPayrollStatus(ctx, "e1", month, engine.PayrollCalculated, engine.PayrollPaid)
	require.NoError(t, err)
	assert.True(t, ok)

	rec.ID = "p2"
	rec.TotalHours = dec("12")
	rec.TotalAmount = dec("3600")
	require.NoError(t, store.UpsertPayroll(ctx, rec))

	records, err := store.ListPayroll(ctx, engine.PayrollFilter{Month: &month})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "p1", records[0].ID)
	assert.Equal(t, engine.PayrollPaid, records[0].Status)
	assert.True(t, records[0].TotalAmount.Equal(dec("3600")))
}

// =============================================================================
// DIRECTORY
// =============================================================================

func TestDirectory_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, engine.Employee{ID: "e1", Name: "Anna", BaseRate: dec("250.5")}))
	require.NoError(t, store.SaveEmployee(ctx, engine.Employee{ID: "e1", Name: "Anna K", BaseRate: dec("300")}))

	e, err := store.GetEmployee(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Anna K", e.Name)
	assert.Equal(t, "active", e.Status)
	assert.True(t, e.BaseRate.Equal(dec("300")))

	_, err = store.GetPVZ(ctx, "nope")
	assert.ErrorIs(t, err, engine.ErrNotFound)

	employees, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, employees, 1)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestWithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A transaction that inserts a shift then fails
	store := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx engine.Store) error {
		if _, err := tx.InsertShiftIfAbsent(ctx, shift("s1", "e1", "2024-01-01", engine.ShiftPending)); err != nil {
			return err
		}
		return boom
	})

	// THEN: The error surfaces and nothing was written
	assert.ErrorIs(t, err, boom)
	shifts, err := store.ListShifts(ctx, engine.NewShiftFilter())
	require.NoError(t, err)
	assert.Empty(t, shifts)
}

func TestWithTx_StorageFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO shifts").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	store := sqlite.NewWithDB(db)
	err = store.WithTx(context.Background(), func(tx engine.Store) error {
		_, err := tx.InsertShiftIfAbsent(context.Background(), shift("s1", "e1", "2024-01-01", engine.ShiftPending))
		return err
	})

	assert.ErrorIs(t, err, engine.ErrStorage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrator_ReportsVersion(t *testing.T) {
	store := newTestStore(t)

	m, err := sqlite.NewMigrator(store.DB(), nil)
	require.NoError(t, err)

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
	assert.NoError(t, m.Up())
}

func TestReset_ClearsLedgerAndKeepsSchema(t *testing.T) {
	// GIVEN: A ledger row that triggers protect from DELETE
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.AppendTransaction(ctx, revenue("t1", "2024-01-10", "100"))
	require.NoError(t, err)

	// WHEN: Resetting
	require.NoError(t, store.Reset(nil))

	// THEN: The ledger is empty and still append-only
	n, err := store.CountTransactions(ctx, engine.NewTransactionFilter())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	ok, err := store.AppendTransaction(ctx, revenue("t1", "2024-01-10", "100"))
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = store.DB().ExecContext(ctx, "DELETE FROM financial_transactions")
	assert.Error(t, err)
}
