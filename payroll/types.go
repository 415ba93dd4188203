/*
Package payroll keeps the financial transaction ledger synchronized with
attendance state.

PURPOSE:
  Owns ledger entries (worker transactions) and attendance records. The
  reconciler derives and removes salary-deduction entries from attendance
  status transitions without ever producing a duplicate or an orphan.

KEY CONCEPTS:
  - WorkerTransaction: an append/remove-only ledger entry. Amount is always
    non-negative; the type decides the sign at read time (salary/bonus add,
    deduction/payment subtract). Never mutated in place by the reconciler.
  - AttendanceRecord: one (worker, date) status with optional check-in/out.
    Posting for an existing pair updates it (upsert).
  - Reconciliation key: auto-generated deductions are located purely by a
    deterministic description string embedding the date. There is no
    foreign key from ledger entries to attendance rows.

SEE ALSO:
  - reconciler.go: the attendance→ledger state machine
  - statement.go: manual entries and net balance
*/
package payroll

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/yazanabukhait2007-sudo/al-durra-management/engine"
)

// =============================================================================
// LEDGER ENTRIES
// =============================================================================

type TransactionType string

const (
	TxSalary    TransactionType = "salary"
	TxBonus     TransactionType = "bonus"
	TxDeduction TransactionType = "deduction"
	TxPayment   TransactionType = "payment"
)

// ValidTransactionType reports whether t is one of the four ledger types.
func ValidTransactionType(t TransactionType) bool {
	switch t {
	case TxSalary, TxBonus, TxDeduction, TxPayment:
		return true
	}
	return false
}

// Credits reports whether this type adds to the worker's balance.
func (t TransactionType) Credits() bool { return t == TxSalary || t == TxBonus }

// WorkerTransaction is one ledger entry.
type WorkerTransaction struct {
	ID          string
	WorkerID    string
	Type        TransactionType
	Amount      decimal.Decimal // non-negative; sign determined by Type
	Date        engine.Day
	Description string
}

// =============================================================================
// ATTENDANCE
// =============================================================================

type AttendanceStatus string

const (
	StatusPresent  AttendanceStatus = "present"
	StatusAbsent   AttendanceStatus = "absent"
	StatusVacation AttendanceStatus = "vacation"
	StatusSick     AttendanceStatus = "sick"
)

func ValidStatus(s AttendanceStatus) bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusVacation, StatusSick:
		return true
	}
	return false
}

// AttendanceRecord is one worker-day. CheckIn/CheckOut are "HH:MM" or empty.
type AttendanceRecord struct {
	ID       string
	WorkerID string
	Date     engine.Day
	Status   AttendanceStatus
	CheckIn  string
	CheckOut string
	Notes    string
}

// =============================================================================
// STORE - Persistence surface this package needs
// =============================================================================

// Store is implemented by store/sqlite. The attendance upsert and the
// ledger insert/delete run inside one WithTx, so a failure in either half
// leaves both unchanged.
type Store interface {
	WithTx(ctx context.Context, fn func(Store) error) error

	GetWorker(ctx context.Context, id string) (*engine.Worker, error)

	UpsertAttendance(ctx context.Context, rec AttendanceRecord) error
	GetAttendance(ctx context.Context, workerID string, date engine.Day) (*AttendanceRecord, error)
	ListAttendanceByDate(ctx context.Context, date engine.Day) ([]AttendanceRecord, error)
	ListAttendanceByMonth(ctx context.Context, month engine.Month) ([]AttendanceRecord, error)

	InsertTransaction(ctx context.Context, tx WorkerTransaction) error
	GetTransaction(ctx context.Context, id string) (*WorkerTransaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	// FindDeductionByDescription locates an auto-generated deduction by its
	// exact reconciliation key. Returns nil when absent.
	FindDeductionByDescription(ctx context.Context, workerID, description string) (*WorkerTransaction, error)
	DeleteDeductionByDescription(ctx context.Context, workerID, description string) error
	ListTransactionsByMonth(ctx context.Context, workerID string, month engine.Month) ([]WorkerTransaction, error)
}
