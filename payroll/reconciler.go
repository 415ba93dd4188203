/*
reconciler.go - Attendance→ledger reconciliation

PURPOSE:
  Fires on every attendance write. Crossing into `absent` posts one
  salary-deduction ledger entry for that day; crossing out of `absent`
  removes it. Re-asserting the same status is a no-op for the ledger.

IDEMPOTENCY:
  The deduction for (worker, date) is located by a deterministic
  description string - the reconciliation key. The absent branch checks
  for an existing entry before inserting; the other branch deletes if
  present. Both tolerate redundant writes, and the store backs the key
  with a unique index so even racing submissions yield exactly one entry.

ATOMICITY:
  The attendance upsert and the ledger insert/delete are one store
  transaction. A failure in either half leaves both untouched.

DEDUCTION RULE:
  round(salary / 30, 2) per absence day. Unset salary means no entry.
*/
package payroll

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yazanabukhait2007-sudo/al-durra-management/engine"
)

var daysPerMonth = decimal.NewFromInt(30)

// DeductionKey is the reconciliation key for (worker, date): the exact
// description an auto-generated absence deduction carries. It is the SOLE
// link between a ledger entry and the attendance day it compensates.
func DeductionKey(date engine.Day) string {
	return fmt.Sprintf("absence deduction - %s", date)
}

// DeductionAmount is round(salary/30, 2).
func DeductionAmount(salary decimal.Decimal) decimal.Decimal {
	return salary.DivRound(daysPerMonth, 2)
}

// Reconciler applies attendance writes and keeps the ledger consistent.
type Reconciler struct {
	store Store
}

func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store}
}

// UpsertAttendance writes the attendance record for (workerID, date) and
// reconciles the ledger, all in one transaction. Returns the stored record.
func (r *Reconciler) UpsertAttendance(ctx context.Context, workerID string, date engine.Day, status AttendanceStatus, checkIn, checkOut, notes string) (*AttendanceRecord, error) {
	if !ValidStatus(status) {
		return nil, &engine.InvalidInputError{Field: "status", Reason: "must be present, absent, vacation or sick"}
	}

	var stored AttendanceRecord
	err := r.store.WithTx(ctx, func(tx Store) error {
		worker, err := tx.GetWorker(ctx, workerID)
		if err != nil {
			return err
		}
		if worker == nil {
			return &engine.NotFoundError{Kind: "worker", ID: workerID}
		}

		existing, err := tx.GetAttendance(ctx, workerID, date)
		if err != nil {
			return err
		}
		stored = AttendanceRecord{
			ID:       uuid.NewString(),
			WorkerID: workerID,
			Date:     date,
			Status:   status,
			CheckIn:  checkIn,
			CheckOut: checkOut,
			Notes:    notes,
		}
		if existing != nil {
			stored.ID = existing.ID
		}
		if err := tx.UpsertAttendance(ctx, stored); err != nil {
			return err
		}

		return r.reconcile(ctx, tx, *worker, date, status)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// reconcile fires on the edges of the {absent} ⇄ {present,vacation,sick}
// state machine. It only ever touches the entry matching the exact key.
func (r *Reconciler) reconcile(ctx context.Context, tx Store, worker engine.Worker, date engine.Day, status AttendanceStatus) error {
	key := DeductionKey(date)

	if status != StatusAbsent {
		// Covers the correction case: day was absent, deduction posted,
		// then fixed to present/vacation/sick.
		return tx.DeleteDeductionByDescription(ctx, worker.ID, key)
	}

	salary := worker.SalaryOrZero()
	if !salary.IsPositive() {
		// No salary, nothing to deduct.
		return nil
	}

	existing, err := tx.FindDeductionByDescription(ctx, worker.ID, key)
	if err != nil {
		return err
	}
	if existing != nil {
		// Repeated submission for the same day. Exactly one entry stays.
		return nil
	}

	err = tx.InsertTransaction(ctx, WorkerTransaction{
		ID:          uuid.NewString(),
		WorkerID:    worker.ID,
		Type:        TxDeduction,
		Amount:      DeductionAmount(salary),
		Date:        date,
		Description: key,
	})
	if engine.IsConflict(err) {
		// The unique index caught a racing submission; the entry exists.
		return nil
	}
	return err
}
