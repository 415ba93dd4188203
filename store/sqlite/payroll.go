/*
payroll.go - payroll.Store implementation

The reconciler's attendance upsert and ledger insert/delete arrive through
WithTx as one unit. The idx_unique_absence_deduction index backs the
reconciliation key at the database level.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/yazanabukhait2007-sudo/al-durra-management/engine"
	"github.com/yazanabukhait2007-sudo/al-durra-management/payroll"
)

// PayrollStore is the payroll.Store view over a Store.
type PayrollStore struct {
	s    *Store
	q    querier
	inTx bool
}

var _ payroll.Store = (*PayrollStore)(nil)

// WithTx runs fn inside one database transaction. Nested calls reuse the
// surrounding transaction.
func (ps *PayrollStore) WithTx(ctx context.Context, fn func(payroll.Store) error) error {
	if ps.inTx {
		return fn(ps)
	}

	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	tx, err := ps.s.db.BeginTx(ctx, nil)
	if err != nil {
		return txFailed(err)
	}
	defer tx.Rollback()

	if err := fn(&PayrollStore{s: ps.s, q: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return txFailed(err)
	}
	return nil
}

func (ps *PayrollStore) rlock() func() {
	if ps.inTx {
		return func() {}
	}
	ps.s.mu.RLock()
	return ps.s.mu.RUnlock
}

func (ps *PayrollStore) lock() func() {
	if ps.inTx {
		return func() {}
	}
	ps.s.mu.Lock()
	return ps.s.mu.Unlock
}

func (ps *PayrollStore) GetWorker(ctx context.Context, id string) (*engine.Worker, error) {
	defer ps.rlock()()
	return getWorker(ctx, ps.q, id)
}

// =============================================================================
// ATTENDANCE
// =============================================================================

const attendanceColumns = "id, worker_id, date, status, check_in, check_out, notes"

// UpsertAttendance inserts or replaces the record for (worker, date).
func (ps *PayrollStore) UpsertAttendance(ctx context.Context, rec payroll.AttendanceRecord) error {
	defer ps.lock()()

	_, err := ps.q.ExecContext(ctx, `
		INSERT INTO attendance_records (id, worker_id, date, status, check_in, check_out, notes, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(worker_id, date) DO UPDATE SET
			status = excluded.status,
			check_in = excluded.check_in,
			check_out = excluded.check_out,
			notes = excluded.notes,
			updated_at = excluded.updated_at`,
		rec.ID, rec.WorkerID, rec.Date.String(), rec.Status,
		rec.CheckIn, rec.CheckOut, rec.Notes,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return mapConstraintError(err)
	}
	return nil
}

func (ps *PayrollStore) GetAttendance(ctx context.Context, workerID string, date engine.Day) (*payroll.AttendanceRecord, error) {
	defer ps.rlock()()

	row := ps.q.QueryRowContext(ctx,
		"SELECT "+attendanceColumns+" FROM attendance_records WHERE worker_id = ? AND date = ?",
		workerID, date.String())
	return scanAttendance(row)
}

func (ps *PayrollStore) ListAttendanceByDate(ctx context.Context, date engine.Day) ([]payroll.AttendanceRecord, error) {
	defer ps.rlock()()
	return ps.queryAttendance(ctx,
		"SELECT "+attendanceColumns+" FROM attendance_records WHERE date = ? ORDER BY worker_id",
		date.String())
}

func (ps *PayrollStore) ListAttendanceByMonth(ctx context.Context, month engine.Month) ([]payroll.AttendanceRecord, error) {
	defer ps.rlock()()
	return ps.queryAttendance(ctx,
		"SELECT "+attendanceColumns+" FROM attendance_records WHERE date LIKE ? ORDER BY date ASC, worker_id",
		month.DatePrefix())
}

// =============================================================================
// LEDGER ENTRIES
// =============================================================================

const transactionColumns = "id, worker_id, tx_type, amount, date, description"

func (ps *PayrollStore) InsertTransaction(ctx context.Context, tx payroll.WorkerTransaction) error {
	defer ps.lock()()

	_, err := ps.q.ExecContext(ctx,
		`INSERT INTO worker_transactions (id, worker_id, tx_type, amount, date, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.WorkerID, tx.Type, tx.Amount.String(), tx.Date.String(),
		tx.Description, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return mapConstraintError(err)
	}
	return nil
}

func (ps *PayrollStore) GetTransaction(ctx context.Context, id string) (*payroll.WorkerTransaction, error) {
	defer ps.rlock()()

	row := ps.q.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM worker_transactions WHERE id = ?", id)
	return scanTransaction(row)
}

func (ps *PayrollStore) DeleteTransaction(ctx context.Context, id string) error {
	defer ps.lock()()

	_, err := ps.q.ExecContext(ctx, "DELETE FROM worker_transactions WHERE id = ?", id)
	return err
}

// FindDeductionByDescription locates an auto-generated deduction by its
// exact reconciliation key.
func (ps *PayrollStore) FindDeductionByDescription(ctx context.Context, workerID, description string) (*payroll.WorkerTransaction, error) {
	defer ps.rlock()()

	row := ps.q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM worker_transactions
		 WHERE worker_id = ? AND tx_type = 'deduction' AND description = ?`,
		workerID, description)
	return scanTransaction(row)
}

func (ps *PayrollStore) DeleteDeductionByDescription(ctx context.Context, workerID, description string) error {
	defer ps.lock()()

	_, err := ps.q.ExecContext(ctx,
		`DELETE FROM worker_transactions
		 WHERE worker_id = ? AND tx_type = 'deduction' AND description = ?`,
		workerID, description)
	return err
}

func (ps *PayrollStore) ListTransactionsByMonth(ctx context.Context, workerID string, month engine.Month) ([]payroll.WorkerTransaction, error) {
	defer ps.rlock()()

	rows, err := ps.q.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM worker_transactions
		 WHERE worker_id = ? AND date LIKE ?
		 ORDER BY date ASC, created_at ASC`,
		workerID, month.DatePrefix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []payroll.WorkerTransaction
	for rows.Next() {
		tx, err := scanTransactionRow(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

func (ps *PayrollStore) queryAttendance(ctx context.Context, query string, args ...any) ([]payroll.AttendanceRecord, error) {
	rows, err := ps.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []payroll.AttendanceRecord
	for rows.Next() {
		var rec payroll.AttendanceRecord
		var date string
		if err := rows.Scan(&rec.ID, &rec.WorkerID, &date, &rec.Status,
			&rec.CheckIn, &rec.CheckOut, &rec.Notes); err != nil {
			return nil, err
		}
		rec.Date, err = engine.ParseDay(date)
		if err != nil {
			return nil, fmt.Errorf("stored attendance %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanAttendance(row *sql.Row) (*payroll.AttendanceRecord, error) {
	var rec payroll.AttendanceRecord
	var date string
	err := row.Scan(&rec.ID, &rec.WorkerID, &date, &rec.Status,
		&rec.CheckIn, &rec.CheckOut, &rec.Notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.Date, err = engine.ParseDay(date)
	if err != nil {
		return nil, fmt.Errorf("stored attendance %s: %w", rec.ID, err)
	}
	return &rec, nil
}

func scanTransaction(row *sql.Row) (*payroll.WorkerTransaction, error) {
	var tx payroll.WorkerTransaction
	var amount, date string
	err := row.Scan(&tx.ID, &tx.WorkerID, &tx.Type, &amount, &date, &tx.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	tx.Amount = mustDecimal(amount)
	tx.Date, err = engine.ParseDay(date)
	if err != nil {
		return nil, fmt.Errorf("stored transaction %s: %w", tx.ID, err)
	}
	return &tx, nil
}

func scanTransactionRow(rows *sql.Rows) (payroll.WorkerTransaction, error) {
	var tx payroll.WorkerTransaction
	var amount, date string
	if err := rows.Scan(&tx.ID, &tx.WorkerID, &tx.Type, &amount, &date, &tx.Description); err != nil {
		return tx, err
	}
	tx.Amount = mustDecimal(amount)
	var err error
	tx.Date, err = engine.ParseDay(date)
	if err != nil {
		return tx, fmt.Errorf("stored transaction %s: %w", tx.ID, err)
	}
	return tx, nil
}
