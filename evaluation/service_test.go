package evaluation_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yazanabukhait2007-sudo/al-durra-management/engine"
	"github.com/yazanabukhait2007-sudo/al-durra-management/evaluation"
	"github.com/yazanabukhait2007-sudo/al-durra-management/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T) (*evaluation.Service, *sqlite.Store) {
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return evaluation.NewService(store.Evaluations()), store
}

func seedWorker(t *testing.T, store *sqlite.Store, id, name string) {
	t.Helper()
	require.NoError(t, store.SaveWorker(context.Background(), engine.Worker{ID: id, Name: name}))
}

func seedTask(t *testing.T, store *sqlite.Store, id, name string, target int) {
	t.Helper()
	require.NoError(t, store.SaveTask(context.Background(), engine.Task{ID: id, Name: name, TargetQuantity: target}))
}

func day(t *testing.T, s string) engine.Day {
	t.Helper()
	d, err := engine.ParseDay(s)
	require.NoError(t, err)
	return d
}

func month(t *testing.T, s string) engine.Month {
	t.Helper()
	m, err := engine.ParseMonth(s)
	require.NoError(t, err)
	return m
}

// =============================================================================
// CREATE TESTS
// =============================================================================

func TestService_Create_ScoresAndSums(t *testing.T) {
	// GIVEN: A worker and two tasks (targets 100 and 50)
	// WHEN: Submitting quantities 80 and 100
	// THEN: Daily total is 80 + 200 = 280

	svc, store := newTestService(t)
	ctx := context.Background()
	seedWorker(t, store, "w1", "Ahmad")
	seedTask(t, store, "t1", "Packing", 100)
	seedTask(t, store, "t2", "Labeling", 50)

	id, total, err := svc.Create(ctx, "w1", day(t, "2025-03-10"), []evaluation.EntryInput{
		{TaskID: "t1", Quantity: 80},
		{TaskID: "t2", Quantity: 100},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.True(t, total.Equal(decimal.NewFromInt(280)), "got %s", total)

	detail, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, detail.Entries, 2)
	assert.True(t, detail.TotalScore.Equal(decimal.NewFromInt(280)))
}

func TestService_Create_SecondSameDay_Conflict(t *testing.T) {
	// GIVEN: Worker w1 already has an evaluation on 2025-03-10
	// WHEN: Creating another for the same (worker, date)
	// THEN: Conflict; the first evaluation is untouched

	svc, store := newTestService(t)
	ctx := context.Background()
	seedWorker(t, store, "w1", "Ahmad")
	seedTask(t, store, "t1", "Packing", 100)

	firstID, firstTotal, err := svc.Create(ctx, "w1", day(t, "2025-03-10"), []evaluation.EntryInput{
		{TaskID: "t1", Quantity: 60},
	})
	require.NoError(t, err)

	_, _, err = svc.Create(ctx, "w1", day(t, "2025-03-10"), []evaluation.EntryInput{
		{TaskID: "t1", Quantity: 90},
	})
	assert.True(t, engine.IsConflict(err), "expected conflict, got %v", err)

	var dupErr *engine.DuplicateEvaluationError
	assert.ErrorAs(t, err, &dupErr)
	assert.Equal(t, firstID, dupErr.ExistingID)

	detail, err := svc.Get(ctx, firstID)
	require.NoError(t, err)
	assert.True(t, detail.TotalScore.Equal(firstTotal), "first evaluation must be unmodified")
}

func TestService_Create_SameWorkerDifferentDays_Allowed(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedWorker(t, store, "w1", "Ahmad")
	seedTask(t, store, "t1", "Packing", 100)

	_, _, err := svc.Create(ctx, "w1", day(t, "2025-03-10"), []evaluation.EntryInput{{TaskID: "t1", Quantity: 50}})
	require.NoError(t, err)
	_, _, err = svc.Create(ctx, "w1", day(t, "2025-03-11"), []evaluation.EntryInput{{TaskID: "t1", Quantity: 50}})
	assert.NoError(t, err)
}

func TestService_Create_UnknownWorker_NotFound(t *testing.T) {
	svc, store := newTestService(t)
	seedTask(t, store, "t1", "Packing", 100)

	_, _, err := svc.Create(context.Background(), "ghost", day(t, "2025-03-10"),
		[]evaluation.EntryInput{{TaskID: "t1", Quantity: 50}})
	assert.True(t, engine.IsNotFound(err), "expected not found, got %v", err)
}

func TestService_Create_UnknownTask_NothingPersisted(t *testing.T) {
	// GIVEN: A submission where the second entry names a task that does not exist
	// WHEN: Creating the evaluation
	// THEN: Not found, and no partial evaluation survives

	svc, store := newTestService(t)
	ctx := context.Background()
	seedWorker(t, store, "w1", "Ahmad")
	seedTask(t, store, "t1", "Packing", 100)

	_, _, err := svc.Create(ctx, "w1", day(t, "2025-03-10"), []evaluation.EntryInput{
		{TaskID: "t1", Quantity: 50},
		{TaskID: "ghost", Quantity: 10},
	})
	assert.True(t, engine.IsNotFound(err), "expected not found, got %v", err)

	evals, err := svc.ListByMonth(ctx, month(t, "2025-03"), "")
	require.NoError(t, err)
	assert.Empty(t, evals, "rolled-back evaluation must not be visible")
}

func TestService_Create_NoEntries_Rejected(t *testing.T) {
	svc, store := newTestService(t)
	seedWorker(t, store, "w1", "Ahmad")

	_, _, err := svc.Create(context.Background(), "w1", day(t, "2025-03-10"), nil)
	assert.True(t, engine.IsInvalidInput(err), "expected invalid input, got %v", err)
}

// =============================================================================
// REPLACE TESTS
// =============================================================================

func TestService_Replace_SwapsEntriesWholesale(t *testing.T) {
	// GIVEN: An evaluation with one entry scoring 50
	// WHEN: Replacing its entries with two new ones
	// THEN: Old entries are gone and the total reflects only the new set

	svc, store := newTestService(t)
	ctx := context.Background()
	seedWorker(t, store, "w1", "Ahmad")
	seedTask(t, store, "t1", "Packing", 100)
	seedTask(t, store, "t2", "Labeling", 50)

	id, _, err := svc.Create(ctx, "w1", day(t, "2025-03-10"), []evaluation.EntryInput{
		{TaskID: "t1", Quantity: 50},
	})
	require.NoError(t, err)

	total, err := svc.Replace(ctx, id, []evaluation.EntryInput{
		{TaskID: "t1", Quantity: 100},
		{TaskID: "t2", Quantity: 25},
	})
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(150)), "got %s", total)

	detail, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, detail.Entries, 2)
	assert.True(t, detail.TotalScore.Equal(decimal.NewFromInt(150)))
}

func TestService_Replace_UnknownTask_OriginalSurvives(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedWorker(t, store, "w1", "Ahmad")
	seedTask(t, store, "t1", "Packing", 100)

	id, original, err := svc.Create(ctx, "w1", day(t, "2025-03-10"), []evaluation.EntryInput{
		{TaskID: "t1", Quantity: 70},
	})
	require.NoError(t, err)

	_, err = svc.Replace(ctx, id, []evaluation.EntryInput{{TaskID: "ghost", Quantity: 10}})
	assert.True(t, engine.IsNotFound(err), "expected not found, got %v", err)

	detail, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, detail.Entries, 1, "original entries must survive the failed replace")
	assert.True(t, detail.TotalScore.Equal(original))
}

func TestService_Replace_UnknownEvaluation_NotFound(t *testing.T) {
	svc, store := newTestService(t)
	seedTask(t, store, "t1", "Packing", 100)

	_, err := svc.Replace(context.Background(), "ghost", []evaluation.EntryInput{{TaskID: "t1", Quantity: 10}})
	assert.True(t, engine.IsNotFound(err), "expected not found, got %v", err)
}

// =============================================================================
// LIST / DELETE TESTS
// =============================================================================

func TestService_ListByMonth_FiltersAndOrders(t *testing.T) {
	// GIVEN: Evaluations in March and April for two workers
	// WHEN: Listing March
	// THEN: Only March rows, newest date first

	svc, store := newTestService(t)
	ctx := context.Background()
	seedWorker(t, store, "w1", "Ahmad")
	seedWorker(t, store, "w2", "Basim")
	seedTask(t, store, "t1", "Packing", 100)

	entries := []evaluation.EntryInput{{TaskID: "t1", Quantity: 50}}
	_, _, err := svc.Create(ctx, "w1", day(t, "2025-03-10"), entries)
	require.NoError(t, err)
	_, _, err = svc.Create(ctx, "w2", day(t, "2025-03-12"), entries)
	require.NoError(t, err)
	_, _, err = svc.Create(ctx, "w1", day(t, "2025-04-01"), entries)
	require.NoError(t, err)

	march, err := svc.ListByMonth(ctx, month(t, "2025-03"), "")
	require.NoError(t, err)
	require.Len(t, march, 2)
	assert.Equal(t, "2025-03-12", march[0].Date.String())
	assert.Equal(t, "2025-03-10", march[1].Date.String())

	onlyW1, err := svc.ListByMonth(ctx, month(t, "2025-03"), "w1")
	require.NoError(t, err)
	require.Len(t, onlyW1, 1)
	assert.Equal(t, "w1", onlyW1[0].WorkerID)
	assert.Equal(t, "Ahmad", onlyW1[0].WorkerName)
}

func TestService_Delete_RemovesEvaluationAndEntries(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedWorker(t, store, "w1", "Ahmad")
	seedTask(t, store, "t1", "Packing", 100)

	id, _, err := svc.Create(ctx, "w1", day(t, "2025-03-10"), []evaluation.EntryInput{{TaskID: "t1", Quantity: 50}})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, id))

	_, err = svc.Get(ctx, id)
	assert.True(t, engine.IsNotFound(err), "expected not found, got %v", err)

	// The day is free again
	_, _, err = svc.Create(ctx, "w1", day(t, "2025-03-10"), []evaluation.EntryInput{{TaskID: "t1", Quantity: 60}})
	assert.NoError(t, err, "deleting must release the (worker, date) slot")
}

func TestService_Delete_UnknownEvaluation_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.Delete(context.Background(), "ghost")
	assert.True(t, engine.IsNotFound(err), "expected not found, got %v", err)
}
