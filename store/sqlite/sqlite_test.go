package sqlite_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yazanabukhait2007-sudo/al-durra-management/engine"
	"github.com/yazanabukhait2007-sudo/al-durra-management/evaluation"
	"github.com/yazanabukhait2007-sudo/al-durra-management/payroll"
	"github.com/yazanabukhait2007-sudo/al-durra-management/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testDay(t *testing.T, s string) engine.Day {
	t.Helper()
	d, err := engine.ParseDay(s)
	require.NoError(t, err)
	return d
}

// =============================================================================
// WORKER CATALOG
// =============================================================================

func TestStore_WorkerRoundTrip_PreservesSalaryExactly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	salary, err := decimal.NewFromString("933.33")
	require.NoError(t, err)
	require.NoError(t, store.SaveWorker(ctx, engine.Worker{ID: "w1", Name: "Ahmad", Salary: &salary}))

	got, err := store.GetWorker(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Salary)
	assert.Equal(t, "933.33", got.Salary.String(), "salary is stored as text, no float drift")
}

func TestStore_WorkerWithoutSalary_StaysNull(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveWorker(ctx, engine.Worker{ID: "w1", Name: "Ahmad"}))

	got, err := store.GetWorker(ctx, "w1")
	require.NoError(t, err)
	assert.Nil(t, got.Salary)
	assert.True(t, got.SalaryOrZero().IsZero())
}

func TestStore_DuplicateWorkerName_Conflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveWorker(ctx, engine.Worker{ID: "w1", Name: "Ahmad"}))
	err := store.SaveWorker(ctx, engine.Worker{ID: "w2", Name: "Ahmad"})
	assert.True(t, engine.IsConflict(err), "expected conflict, got %v", err)
}

func TestStore_UpdateWorker_UnknownID_NotFound(t *testing.T) {
	store := newTestStore(t)
	err := store.UpdateWorker(context.Background(), engine.Worker{ID: "ghost", Name: "Nobody"})
	assert.True(t, engine.IsNotFound(err), "expected not found, got %v", err)
}

func TestStore_DeleteWorker_CascadesEverything(t *testing.T) {
	// GIVEN: A worker with an evaluation, an attendance day and a ledger entry
	// WHEN: Deleting the worker
	// THEN: All dependent rows go with it

	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveWorker(ctx, engine.Worker{ID: "w1", Name: "Ahmad"}))
	require.NoError(t, store.SaveTask(ctx, engine.Task{ID: "t1", Name: "Packing", TargetQuantity: 100}))

	svc := evaluation.NewService(store.Evaluations())
	evalID, _, err := svc.Create(ctx, "w1", testDay(t, "2025-03-10"), []evaluation.EntryInput{{TaskID: "t1", Quantity: 50}})
	require.NoError(t, err)

	pay := store.Payroll()
	require.NoError(t, pay.UpsertAttendance(ctx, payroll.AttendanceRecord{
		ID: "a1", WorkerID: "w1", Date: testDay(t, "2025-03-10"), Status: payroll.StatusPresent,
	}))
	require.NoError(t, pay.InsertTransaction(ctx, payroll.WorkerTransaction{
		ID: "tx1", WorkerID: "w1", Type: payroll.TxBonus,
		Amount: decimal.NewFromInt(10), Date: testDay(t, "2025-03-10"),
	}))

	require.NoError(t, store.DeleteWorker(ctx, "w1"))

	ev, err := store.Evaluations().GetEvaluation(ctx, evalID)
	require.NoError(t, err)
	assert.Nil(t, ev)

	rec, err := pay.GetAttendance(ctx, "w1", testDay(t, "2025-03-10"))
	require.NoError(t, err)
	assert.Nil(t, rec)

	tx, err := pay.GetTransaction(ctx, "tx1")
	require.NoError(t, err)
	assert.Nil(t, tx)
}

// =============================================================================
// TASK CATALOG
// =============================================================================

func TestStore_SaveTask_NonPositiveTarget_Rejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.SaveTask(ctx, engine.Task{ID: "t1", Name: "Packing", TargetQuantity: 0})
	assert.True(t, engine.IsInvalidInput(err), "expected invalid input, got %v", err)

	err = store.SaveTask(ctx, engine.Task{ID: "t1", Name: "Packing", TargetQuantity: -3})
	assert.True(t, engine.IsInvalidInput(err), "expected invalid input, got %v", err)
}

func TestStore_DuplicateTaskName_Conflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTask(ctx, engine.Task{ID: "t1", Name: "Packing", TargetQuantity: 100}))
	err := store.SaveTask(ctx, engine.Task{ID: "t2", Name: "Packing", TargetQuantity: 50})
	assert.True(t, engine.IsConflict(err), "expected conflict, got %v", err)
}

func TestStore_DeleteTask_RemovesItsEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveWorker(ctx, engine.Worker{ID: "w1", Name: "Ahmad"}))
	require.NoError(t, store.SaveTask(ctx, engine.Task{ID: "t1", Name: "Packing", TargetQuantity: 100}))

	svc := evaluation.NewService(store.Evaluations())
	evalID, _, err := svc.Create(ctx, "w1", testDay(t, "2025-03-10"), []evaluation.EntryInput{{TaskID: "t1", Quantity: 50}})
	require.NoError(t, err)

	require.NoError(t, store.DeleteTask(ctx, "t1"))

	entries, err := store.Evaluations().ListEntries(ctx, evalID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// =============================================================================
// CONSTRAINT BACKSTOPS
// =============================================================================

func TestStore_UniqueWorkerDayIndex_BacksConflictCheck(t *testing.T) {
	// Direct inserts bypassing the service still cannot produce two
	// evaluations for one (worker, date).
	store := newTestStore(t)
	es := store.Evaluations()
	ctx := context.Background()
	require.NoError(t, store.SaveWorker(ctx, engine.Worker{ID: "w1", Name: "Ahmad"}))

	require.NoError(t, es.InsertEvaluation(ctx, evaluation.DailyEvaluation{
		ID: "ev1", WorkerID: "w1", Date: testDay(t, "2025-03-10"), TotalScore: decimal.NewFromInt(50),
	}))
	err := es.InsertEvaluation(ctx, evaluation.DailyEvaluation{
		ID: "ev2", WorkerID: "w1", Date: testDay(t, "2025-03-10"), TotalScore: decimal.NewFromInt(60),
	})
	assert.True(t, engine.IsConflict(err), "expected conflict, got %v", err)
}

func TestStore_UniqueAbsenceDeductionIndex(t *testing.T) {
	// Two identical auto deductions for one (worker, key) cannot coexist,
	// while manual deductions with other descriptions are unaffected.
	store := newTestStore(t)
	pay := store.Payroll()
	ctx := context.Background()
	require.NoError(t, store.SaveWorker(ctx, engine.Worker{ID: "w1", Name: "Ahmad"}))

	key := payroll.DeductionKey(testDay(t, "2025-03-10"))
	first := payroll.WorkerTransaction{
		ID: "tx1", WorkerID: "w1", Type: payroll.TxDeduction,
		Amount: decimal.NewFromInt(30), Date: testDay(t, "2025-03-10"), Description: key,
	}
	require.NoError(t, pay.InsertTransaction(ctx, first))

	second := first
	second.ID = "tx2"
	err := pay.InsertTransaction(ctx, second)
	assert.True(t, engine.IsConflict(err), "expected conflict, got %v", err)

	manual := first
	manual.ID = "tx3"
	manual.Description = "broken crate"
	assert.NoError(t, pay.InsertTransaction(ctx, manual))
}

// =============================================================================
// ATTENDANCE QUERIES
// =============================================================================

func TestStore_AttendanceByDateAndMonth(t *testing.T) {
	store := newTestStore(t)
	pay := store.Payroll()
	ctx := context.Background()
	require.NoError(t, store.SaveWorker(ctx, engine.Worker{ID: "w1", Name: "Ahmad"}))
	require.NoError(t, store.SaveWorker(ctx, engine.Worker{ID: "w2", Name: "Basim"}))

	for i, rec := range []payroll.AttendanceRecord{
		{ID: "a1", WorkerID: "w1", Date: testDay(t, "2025-03-10"), Status: payroll.StatusPresent},
		{ID: "a2", WorkerID: "w2", Date: testDay(t, "2025-03-10"), Status: payroll.StatusAbsent},
		{ID: "a3", WorkerID: "w1", Date: testDay(t, "2025-03-11"), Status: payroll.StatusVacation},
		{ID: "a4", WorkerID: "w1", Date: testDay(t, "2025-04-01"), Status: payroll.StatusPresent},
	} {
		require.NoError(t, pay.UpsertAttendance(ctx, rec), "record %d", i)
	}

	byDate, err := pay.ListAttendanceByDate(ctx, testDay(t, "2025-03-10"))
	require.NoError(t, err)
	assert.Len(t, byDate, 2)

	m, err := engine.ParseMonth("2025-03")
	require.NoError(t, err)
	byMonth, err := pay.ListAttendanceByMonth(ctx, m)
	require.NoError(t, err)
	assert.Len(t, byMonth, 3)
}

func TestStore_UpsertAttendance_UpdatesInPlace(t *testing.T) {
	store := newTestStore(t)
	pay := store.Payroll()
	ctx := context.Background()
	require.NoError(t, store.SaveWorker(ctx, engine.Worker{ID: "w1", Name: "Ahmad"}))
	d := testDay(t, "2025-03-10")

	require.NoError(t, pay.UpsertAttendance(ctx, payroll.AttendanceRecord{
		ID: "a1", WorkerID: "w1", Date: d, Status: payroll.StatusPresent, CheckIn: "08:00",
	}))
	require.NoError(t, pay.UpsertAttendance(ctx, payroll.AttendanceRecord{
		ID: "a1", WorkerID: "w1", Date: d, Status: payroll.StatusSick, Notes: "flu",
	}))

	got, err := pay.GetAttendance(ctx, "w1", d)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, payroll.StatusSick, got.Status)
	assert.Equal(t, "flu", got.Notes)

	all, err := pay.ListAttendanceByDate(ctx, d)
	require.NoError(t, err)
	assert.Len(t, all, 1, "upsert must not create a second row")
}

// =============================================================================
// MIGRATIONS
// =============================================================================

func TestStore_ReopeningDatabase_IsANoOp(t *testing.T) {
	// Migrations are recorded; a second Open over the same file applies nothing.
	path := t.TempDir() + "/durra.db"

	store, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveWorker(context.Background(), engine.Worker{ID: "w1", Name: "Ahmad"}))
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	got, err := reopened.GetWorker(context.Background(), "w1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ahmad", got.Name)
}
