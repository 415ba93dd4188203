/*
evaluations.go - evaluation.Store implementation

All service-level mutations arrive through WithTx, so the individual
insert/update/delete methods here are plain statements; atomicity and
locking belong to the transaction entry point. The idx_unique_worker_day
index backs the service's conflict check against races.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yazanabukhait2007-sudo/al-durra-management/engine"
	"github.com/yazanabukhait2007-sudo/al-durra-management/evaluation"
)

// EvaluationStore is the evaluation.Store view over a Store. When q is a
// *sql.Tx the view is transaction-bound and skips the store mutex.
type EvaluationStore struct {
	s    *Store
	q    querier
	inTx bool
}

var _ evaluation.Store = (*EvaluationStore)(nil)

// WithTx runs fn inside one database transaction. Nested calls reuse the
// surrounding transaction.
func (es *EvaluationStore) WithTx(ctx context.Context, fn func(evaluation.Store) error) error {
	if es.inTx {
		return fn(es)
	}

	es.s.mu.Lock()
	defer es.s.mu.Unlock()

	tx, err := es.s.db.BeginTx(ctx, nil)
	if err != nil {
		return txFailed(err)
	}
	defer tx.Rollback()

	if err := fn(&EvaluationStore{s: es.s, q: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return txFailed(err)
	}
	return nil
}

func (es *EvaluationStore) rlock() func() {
	if es.inTx {
		return func() {}
	}
	es.s.mu.RLock()
	return es.s.mu.RUnlock
}

func (es *EvaluationStore) lock() func() {
	if es.inTx {
		return func() {}
	}
	es.s.mu.Lock()
	return es.s.mu.Unlock
}

// =============================================================================
// CATALOG LOOKUPS (collaborator contracts)
// =============================================================================

func (es *EvaluationStore) GetWorker(ctx context.Context, id string) (*engine.Worker, error) {
	defer es.rlock()()
	return getWorker(ctx, es.q, id)
}

func (es *EvaluationStore) ListWorkers(ctx context.Context) ([]engine.Worker, error) {
	defer es.rlock()()
	return listWorkers(ctx, es.q)
}

func (es *EvaluationStore) GetTask(ctx context.Context, id string) (*engine.Task, error) {
	defer es.rlock()()
	return getTask(ctx, es.q, id)
}

// =============================================================================
// EVALUATIONS
// =============================================================================

const evaluationColumns = `
	e.id, e.worker_id, w.name, e.date, e.total_score
	FROM daily_evaluations e
	JOIN workers w ON e.worker_id = w.id`

func (es *EvaluationStore) GetEvaluation(ctx context.Context, id string) (*evaluation.DailyEvaluation, error) {
	defer es.rlock()()

	row := es.q.QueryRowContext(ctx,
		"SELECT"+evaluationColumns+" WHERE e.id = ?", id)
	return scanEvaluation(row)
}

func (es *EvaluationStore) GetEvaluationByWorkerDate(ctx context.Context, workerID string, date engine.Day) (*evaluation.DailyEvaluation, error) {
	defer es.rlock()()

	row := es.q.QueryRowContext(ctx,
		"SELECT"+evaluationColumns+" WHERE e.worker_id = ? AND e.date = ?",
		workerID, date.String())
	return scanEvaluation(row)
}

func (es *EvaluationStore) ListEvaluationsByMonth(ctx context.Context, month engine.Month, workerID string) ([]evaluation.DailyEvaluation, error) {
	defer es.rlock()()

	query := "SELECT" + evaluationColumns + " WHERE e.date LIKE ?"
	args := []any{month.DatePrefix()}
	if workerID != "" {
		query += " AND e.worker_id = ?"
		args = append(args, workerID)
	}
	query += " ORDER BY e.date DESC, w.name ASC"

	return es.queryEvaluations(ctx, query, args...)
}

func (es *EvaluationStore) ListAllEvaluations(ctx context.Context) ([]evaluation.DailyEvaluation, error) {
	defer es.rlock()()
	return es.queryEvaluations(ctx, "SELECT"+evaluationColumns+" ORDER BY e.date ASC")
}

func (es *EvaluationStore) InsertEvaluation(ctx context.Context, ev evaluation.DailyEvaluation) error {
	defer es.lock()()

	_, err := es.q.ExecContext(ctx,
		`INSERT INTO daily_evaluations (id, worker_id, date, total_score, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		ev.ID, ev.WorkerID, ev.Date.String(), ev.TotalScore.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return mapConstraintError(err)
	}
	return nil
}

func (es *EvaluationStore) UpdateEvaluationTotal(ctx context.Context, id string, total decimal.Decimal) error {
	defer es.lock()()

	res, err := es.q.ExecContext(ctx,
		"UPDATE daily_evaluations SET total_score = ? WHERE id = ?",
		total.String(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &engine.NotFoundError{Kind: "evaluation", ID: id}
	}
	return nil
}

func (es *EvaluationStore) DeleteEvaluation(ctx context.Context, id string) error {
	defer es.lock()()

	_, err := es.q.ExecContext(ctx, "DELETE FROM daily_evaluations WHERE id = ?", id)
	return err
}

// =============================================================================
// ENTRIES
// =============================================================================

func (es *EvaluationStore) ListEntries(ctx context.Context, evaluationID string) ([]evaluation.TaskEntry, error) {
	defer es.rlock()()

	rows, err := es.q.QueryContext(ctx, `
		SELECT te.id, te.evaluation_id, te.task_id, t.name, t.target_quantity, te.quantity, te.score
		FROM task_entries te
		JOIN tasks t ON te.task_id = t.id
		WHERE te.evaluation_id = ?
		ORDER BY t.name ASC`,
		evaluationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []evaluation.TaskEntry
	for rows.Next() {
		var e evaluation.TaskEntry
		var score string
		if err := rows.Scan(&e.ID, &e.EvaluationID, &e.TaskID, &e.TaskName,
			&e.TargetQuantity, &e.Quantity, &score); err != nil {
			return nil, err
		}
		e.Score = mustDecimal(score)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (es *EvaluationStore) InsertEntry(ctx context.Context, entry evaluation.TaskEntry) error {
	defer es.lock()()

	_, err := es.q.ExecContext(ctx,
		`INSERT INTO task_entries (id, evaluation_id, task_id, quantity, score)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.EvaluationID, entry.TaskID, entry.Quantity, entry.Score.String(),
	)
	if err != nil {
		return mapConstraintError(err)
	}
	return nil
}

func (es *EvaluationStore) UpdateEntryScore(ctx context.Context, id string, score decimal.Decimal) error {
	defer es.lock()()

	res, err := es.q.ExecContext(ctx,
		"UPDATE task_entries SET score = ? WHERE id = ?", score.String(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &engine.NotFoundError{Kind: "entry", ID: id}
	}
	return nil
}

func (es *EvaluationStore) DeleteEntriesByEvaluation(ctx context.Context, evaluationID string) error {
	defer es.lock()()

	_, err := es.q.ExecContext(ctx,
		"DELETE FROM task_entries WHERE evaluation_id = ?", evaluationID)
	return err
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

func (es *EvaluationStore) queryEvaluations(ctx context.Context, query string, args ...any) ([]evaluation.DailyEvaluation, error) {
	rows, err := es.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evals []evaluation.DailyEvaluation
	for rows.Next() {
		var ev evaluation.DailyEvaluation
		var date, total string
		if err := rows.Scan(&ev.ID, &ev.WorkerID, &ev.WorkerName, &date, &total); err != nil {
			return nil, err
		}
		ev.Date, err = engine.ParseDay(date)
		if err != nil {
			return nil, fmt.Errorf("stored evaluation %s: %w", ev.ID, err)
		}
		ev.TotalScore = mustDecimal(total)
		evals = append(evals, ev)
	}
	return evals, rows.Err()
}

func scanEvaluation(row *sql.Row) (*evaluation.DailyEvaluation, error) {
	var ev evaluation.DailyEvaluation
	var date, total string
	err := row.Scan(&ev.ID, &ev.WorkerID, &ev.WorkerName, &date, &total)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ev.Date, err = engine.ParseDay(date)
	if err != nil {
		return nil, fmt.Errorf("stored evaluation %s: %w", ev.ID, err)
	}
	ev.TotalScore = mustDecimal(total)
	return &ev, nil
}
