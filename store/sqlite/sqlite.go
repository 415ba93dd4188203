/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements evaluation.Store and payroll.Store plus the worker/task
  catalogs, all over one database handle. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

INVARIANT ENFORCEMENT (unique indexes back every service-level check):
  idx_unique_worker_day:         one evaluation per (worker, date)
  idx_unique_attendance_day:     one attendance record per (worker, date)
  idx_unique_absence_deduction:  one auto deduction per reconciliation key
  workers.name, tasks.name:      unique catalog names

MIGRATIONS:
  Schema changes are explicit, numbered startup migrations recorded in
  schema_migrations and applied once inside Open - never inline in request
  paths. Adding a migration means appending to the migrations slice.

CONCURRENCY:
  A sync.RWMutex serializes writers; SQLite runs in WAL mode so readers
  don't block. Helpers that run inside a WithTx transaction never touch
  the mutex - the transaction entry point holds it for the whole unit.

USAGE:
  store, err := sqlite.Open("./data/durra.db")   // ":memory:" for tests
  evalStore := store.Evaluations()
  payStore  := store.Payroll()

SEE ALSO:
  - evaluations.go: evaluation.Store implementation
  - payroll.go: payroll.Store implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/yazanabukhait2007-sudo/al-durra-management/engine"
)

// Store owns the database handle. Domain-facing views are obtained via
// Evaluations() and Payroll().
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// querier is satisfied by both *sql.DB and *sql.Tx so the low-level
// helpers work inside and outside transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens (or creates) the database and applies pending migrations.
// Use ":memory:" for an in-memory database.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// In-memory databases exist per connection; a pool of one keeps every
	// caller on the same database. File databases just serialize, which the
	// write mutex does anyway.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Evaluations returns the evaluation.Store view.
func (s *Store) Evaluations() *EvaluationStore {
	return &EvaluationStore{s: s, q: s.db}
}

// Payroll returns the payroll.Store view.
func (s *Store) Payroll() *PayrollStore {
	return &PayrollStore{s: s, q: s.db}
}

// =============================================================================
// VERSIONED MIGRATIONS
// =============================================================================

// migrations are applied in order at Open. Never edit an entry that has
// shipped; append a new one.
var migrations = []string{
	// 1: core tables and uniqueness invariants
	`
	CREATE TABLE IF NOT EXISTS workers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		salary TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		target_quantity INTEGER NOT NULL CHECK (target_quantity > 0),
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS daily_evaluations (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL REFERENCES workers(id),
		date TEXT NOT NULL,
		total_score TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: at most one evaluation per worker per day
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_worker_day
		ON daily_evaluations(worker_id, date);
	CREATE INDEX IF NOT EXISTS idx_evaluations_date
		ON daily_evaluations(date);

	CREATE TABLE IF NOT EXISTS task_entries (
		id TEXT PRIMARY KEY,
		evaluation_id TEXT NOT NULL REFERENCES daily_evaluations(id),
		task_id TEXT NOT NULL REFERENCES tasks(id),
		quantity INTEGER NOT NULL,
		score TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_evaluation
		ON task_entries(evaluation_id);
	CREATE INDEX IF NOT EXISTS idx_entries_task
		ON task_entries(task_id);

	CREATE TABLE IF NOT EXISTS worker_transactions (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL REFERENCES workers(id),
		tx_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_worker_date
		ON worker_transactions(worker_id, date);

	CREATE TABLE IF NOT EXISTS attendance_records (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL REFERENCES workers(id),
		date TEXT NOT NULL,
		status TEXT NOT NULL,
		check_in TEXT NOT NULL DEFAULT '',
		check_out TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	);

	-- CRITICAL: one attendance record per worker per day (upsert target)
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_attendance_day
		ON attendance_records(worker_id, date);
	CREATE INDEX IF NOT EXISTS idx_attendance_date
		ON attendance_records(date);
	`,

	// 2: backstop for the reconciliation key - even racing attendance
	// submissions cannot produce two auto deductions for the same day
	`
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_absence_deduction
		ON worker_transactions(worker_id, description)
		WHERE tx_type = 'deduction' AND description LIKE 'absence deduction - %';
	`,
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`); err != nil {
		return err
	}

	var current int
	if err := s.db.QueryRow(
		"SELECT COALESCE(MAX(version), 0) FROM schema_migrations",
	).Scan(&current); err != nil {
		return err
	}

	for i := current; i < len(migrations); i++ {
		version := i + 1
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", version, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			version, time.Now().UTC().Format(time.RFC3339),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: %w", version, err)
		}
	}
	return nil
}

// =============================================================================
// WORKER CATALOG
// =============================================================================

// SaveWorker inserts a worker. Fails with Conflict on a duplicate name.
func (s *Store) SaveWorker(ctx context.Context, w engine.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO workers (id, name, salary, created_at) VALUES (?, ?, ?, ?)",
		w.ID, w.Name, nullDecimal(w.Salary), time.Now().UTC().Format(time.RFC3339),
	)
	return mapConstraintError(err)
}

// UpdateWorker updates name and salary.
func (s *Store) UpdateWorker(ctx context.Context, w engine.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE workers SET name = ?, salary = ? WHERE id = ?",
		w.Name, nullDecimal(w.Salary), w.ID,
	)
	if err != nil {
		return mapConstraintError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &engine.NotFoundError{Kind: "worker", ID: w.ID}
	}
	return nil
}

// GetWorker returns a worker or nil.
func (s *Store) GetWorker(ctx context.Context, id string) (*engine.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getWorker(ctx, s.db, id)
}

// ListWorkers returns all workers ordered by name.
func (s *Store) ListWorkers(ctx context.Context) ([]engine.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listWorkers(ctx, s.db)
}

// DeleteWorker removes a worker and everything derived from it: entries,
// evaluations, ledger entries and attendance, in one transaction.
func (s *Store) DeleteWorker(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return txFailed(err)
	}
	defer tx.Rollback()

	w, err := getWorker(ctx, tx, id)
	if err != nil {
		return err
	}
	if w == nil {
		return &engine.NotFoundError{Kind: "worker", ID: id}
	}

	steps := []string{
		`DELETE FROM task_entries WHERE evaluation_id IN
			(SELECT id FROM daily_evaluations WHERE worker_id = ?)`,
		"DELETE FROM daily_evaluations WHERE worker_id = ?",
		"DELETE FROM worker_transactions WHERE worker_id = ?",
		"DELETE FROM attendance_records WHERE worker_id = ?",
		"DELETE FROM workers WHERE id = ?",
	}
	for _, q := range steps {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return txFailed(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return txFailed(err)
	}
	return nil
}

// =============================================================================
// TASK CATALOG
// =============================================================================

// SaveTask inserts a task. Fails with Conflict on a duplicate name and
// InvalidInput on a non-positive target.
func (s *Store) SaveTask(ctx context.Context, t engine.Task) error {
	if t.TargetQuantity <= 0 {
		return &engine.InvalidInputError{Field: "target_quantity", Reason: "must be positive"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO tasks (id, name, target_quantity, created_at) VALUES (?, ?, ?, ?)",
		t.ID, t.Name, t.TargetQuantity, time.Now().UTC().Format(time.RFC3339),
	)
	return mapConstraintError(err)
}

// GetTask returns a task or nil.
func (s *Store) GetTask(ctx context.Context, id string) (*engine.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getTask(ctx, s.db, id)
}

// ListTasks returns all tasks ordered by name.
func (s *Store) ListTasks(ctx context.Context) ([]engine.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, target_quantity FROM tasks ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []engine.Task
	for rows.Next() {
		var t engine.Task
		if err := rows.Scan(&t.ID, &t.Name, &t.TargetQuantity); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// DeleteTask removes a task and its entries. Evaluation totals referencing
// the deleted entries are left as written.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return txFailed(err)
	}
	defer tx.Rollback()

	t, err := getTask(ctx, tx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return &engine.NotFoundError{Kind: "task", ID: id}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM task_entries WHERE task_id = ?", id); err != nil {
		return txFailed(err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id); err != nil {
		return txFailed(err)
	}
	if err := tx.Commit(); err != nil {
		return txFailed(err)
	}
	return nil
}

// =============================================================================
// SHARED LOW-LEVEL HELPERS (lock-free; callers manage the mutex)
// =============================================================================

func getWorker(ctx context.Context, q querier, id string) (*engine.Worker, error) {
	var w engine.Worker
	var salary sql.NullString
	err := q.QueryRowContext(ctx,
		"SELECT id, name, salary FROM workers WHERE id = ?", id,
	).Scan(&w.ID, &w.Name, &salary)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	w.Salary = parseNullDecimal(salary)
	return &w, nil
}

func listWorkers(ctx context.Context, q querier) ([]engine.Worker, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, name, salary FROM workers ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []engine.Worker
	for rows.Next() {
		var w engine.Worker
		var salary sql.NullString
		if err := rows.Scan(&w.ID, &w.Name, &salary); err != nil {
			return nil, err
		}
		w.Salary = parseNullDecimal(salary)
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

func getTask(ctx context.Context, q querier, id string) (*engine.Task, error) {
	var t engine.Task
	err := q.QueryRowContext(ctx,
		"SELECT id, name, target_quantity FROM tasks WHERE id = ?", id,
	).Scan(&t.ID, &t.Name, &t.TargetQuantity)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// =============================================================================
// ERROR MAPPING AND VALUE HELPERS
// =============================================================================

func mapConstraintError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", engine.ErrConflict, err)
	}
	if strings.Contains(err.Error(), "CHECK constraint failed") {
		return fmt.Errorf("%w: %v", engine.ErrInvalidInput, err)
	}
	return err
}

func txFailed(err error) error {
	return fmt.Errorf("%w: %v", engine.ErrTransactionFailed, err)
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDecimal(s sql.NullString) *decimal.Decimal {
	if !s.Valid {
		return nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil
	}
	return &d
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
