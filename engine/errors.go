/*
errors.go - Centralized error taxonomy for the scoring/ledger engine

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  Domain packages wrap these sentinels with additional context.

ERROR CATEGORIES:
  1. Validation errors - rejected before any write (NotFound, Conflict,
     InvalidInput, InvalidTarget)
  2. Store errors - the underlying transaction aborted (TransactionFailure,
     surfaced as retryable)

USAGE:
  Callers classify with errors.Is or the helpers below:

    if engine.IsConflict(err) {
        // evaluation already exists for this worker+date
    }

SEE ALSO:
  - evaluation/service.go: returns Conflict/NotFound/InvalidInput
  - payroll/reconciler.go: returns NotFound/InvalidInput
  - store/sqlite: maps constraint violations onto these sentinels
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced worker, task, evaluation or
	// ledger entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an evaluation already exists for the same
	// (worker, date) pair. Safe to treat as success-equivalent only after
	// confirming the existing state.
	ErrConflict = errors.New("already exists")

	// ErrInvalidInput is returned for malformed input: empty entry list,
	// negative quantity, bad date or month format, unknown status.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTarget guards the score division. Task invariants make a
	// non-positive target unreachable, but it must never crash the process.
	ErrInvalidTarget = errors.New("invalid target quantity")

	// ErrTransactionFailed is returned when the store aborts a multi-row
	// write. The whole transaction is rolled back; callers may retry
	// idempotent operations.
	ErrTransactionFailed = errors.New("transaction failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError identifies which record was missing.
type NotFoundError struct {
	Kind string // "worker", "task", "evaluation", "transaction"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.ID, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DuplicateEvaluationError reports a (worker, date) uniqueness violation.
// The existing evaluation is left unmodified.
type DuplicateEvaluationError struct {
	WorkerID   string
	Date       string
	ExistingID string
}

func (e *DuplicateEvaluationError) Error() string {
	return fmt.Sprintf("evaluation for worker %s on %s %v (existing: %s)",
		e.WorkerID, e.Date, ErrConflict, e.ExistingID)
}

func (e *DuplicateEvaluationError) Unwrap() error { return ErrConflict }

// InvalidInputError reports which field failed validation.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Field, e.Reason, ErrInvalidInput)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict returns true if the error is a uniqueness violation.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsInvalidInput returns true if the error is due to invalid client input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInvalidTarget)
}

// IsRetryable returns true if the operation might succeed on retry.
// Only store-level aborts qualify; validation errors never do.
func IsRetryable(err error) bool { return errors.Is(err, ErrTransactionFailed) }
