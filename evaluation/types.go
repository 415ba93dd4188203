/*
Package evaluation turns raw daily task-completion records into performance
scores and monthly aggregates.

PURPOSE:
  Owns the daily-evaluation and per-task-entry records. Enforces one
  evaluation per (worker, date), computes every derived score through the
  calculator in scoring.go, and produces the per-worker monthly report.

KEY CONCEPTS:
  - DailyEvaluation: one worker's complete set of task records for one day.
    TotalScore is derived (sum of entry scores), never hand-entered.
  - TaskEntry: one task's quantity/score pair inside an evaluation. Entries
    have no life outside their evaluation; edits replace them wholesale.
  - MonthlyReportRow: days worked and average daily total for one worker.

INVARIANTS:
  1. At most one DailyEvaluation per (worker, date).
  2. TotalScore == sum of entry scores, always.
  3. Entry scores are computed at write time from the task's CURRENT target,
     never re-derived from history after the task changes.

SEE ALSO:
  - scoring.go: the pure calculator
  - service.go: create/replace/get/list/delete
  - report.go: monthly aggregation
  - migrate.go: one-shot historical rewrite
*/
package evaluation

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/yazanabukhait2007-sudo/al-durra-management/engine"
)

// =============================================================================
// RECORDS
// =============================================================================

// DailyEvaluation is one worker's scored day.
type DailyEvaluation struct {
	ID         string
	WorkerID   string
	WorkerName string // joined for display, not stored
	Date       engine.Day
	TotalScore decimal.Decimal
}

// TaskEntry is one task's contribution to an evaluation.
// TaskName and TargetQuantity are joined from the task catalog for display.
type TaskEntry struct {
	ID             string
	EvaluationID   string
	TaskID         string
	TaskName       string
	TargetQuantity int
	Quantity       int
	Score          decimal.Decimal
}

// EntryInput is what callers submit: which task, how many.
type EntryInput struct {
	TaskID   string
	Quantity int
}

// EvaluationDetail is an evaluation joined with its entries.
type EvaluationDetail struct {
	DailyEvaluation
	Entries []TaskEntry
}

// MonthlyReportRow is one worker's line in the monthly report.
// AverageScore is nil for workers with no evaluations in the month.
type MonthlyReportRow struct {
	WorkerID     string
	WorkerName   string
	DaysWorked   int
	AverageScore *decimal.Decimal
}

// =============================================================================
// STORE - Persistence surface this package needs
// =============================================================================

// Store is implemented by store/sqlite. All mutating service operations run
// inside WithTx so evaluation+entries are written or discarded as one unit.
type Store interface {
	// WithTx executes fn within a storage transaction. If fn returns an
	// error the transaction is rolled back and nothing is observable.
	WithTx(ctx context.Context, fn func(Store) error) error

	GetWorker(ctx context.Context, id string) (*engine.Worker, error)
	ListWorkers(ctx context.Context) ([]engine.Worker, error)
	GetTask(ctx context.Context, id string) (*engine.Task, error)

	GetEvaluation(ctx context.Context, id string) (*DailyEvaluation, error)
	GetEvaluationByWorkerDate(ctx context.Context, workerID string, date engine.Day) (*DailyEvaluation, error)
	ListEvaluationsByMonth(ctx context.Context, month engine.Month, workerID string) ([]DailyEvaluation, error)
	ListAllEvaluations(ctx context.Context) ([]DailyEvaluation, error)
	InsertEvaluation(ctx context.Context, ev DailyEvaluation) error
	UpdateEvaluationTotal(ctx context.Context, id string, total decimal.Decimal) error
	DeleteEvaluation(ctx context.Context, id string) error

	ListEntries(ctx context.Context, evaluationID string) ([]TaskEntry, error)
	InsertEntry(ctx context.Context, entry TaskEntry) error
	UpdateEntryScore(ctx context.Context, id string, score decimal.Decimal) error
	DeleteEntriesByEvaluation(ctx context.Context, evaluationID string) error
}
