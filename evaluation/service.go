/*
service.go - Evaluation write and read path

PURPOSE:
  The only code path that creates, replaces, or deletes evaluations.
  Every mutation is a single atomic store transaction: an evaluation
  without its entries (or the reverse) is never observable.

WRITE FLOW (Create):
  1. Validate input (non-empty entries, known worker) - before any write
  2. Resolve each entry's score against the task's CURRENT target
  3. Total = sum of entry scores
  4. Insert evaluation + entries in one transaction
  The (worker, date) uniqueness check runs inside the same transaction as
  the insert, and the store backs it with a unique index, so two racing
  submissions yield exactly one evaluation and one Conflict.

ERROR CONTRACT (in order of detection):
  InvalidInput  - empty entry list, bad quantity, malformed date
  NotFound      - unknown worker, task, or evaluation id
  Conflict      - evaluation already exists for (worker, date)
  All are detected before any row is written.

SEE ALSO:
  - types.go: Store interface
  - scoring.go: score math
*/
package evaluation

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yazanabukhait2007-sudo/al-durra-management/engine"
)

// Service exposes the evaluation operations to the application.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// =============================================================================
// CREATE
// =============================================================================

// Create scores and persists a new evaluation for (workerID, date).
// Returns the new evaluation id and its total score.
func (s *Service) Create(ctx context.Context, workerID string, date engine.Day, entries []EntryInput) (string, decimal.Decimal, error) {
	if len(entries) == 0 {
		return "", decimal.Zero, &engine.InvalidInputError{Field: "entries", Reason: "at least one entry is required"}
	}

	evalID := uuid.NewString()
	var total decimal.Decimal

	err := s.store.WithTx(ctx, func(tx Store) error {
		worker, err := tx.GetWorker(ctx, workerID)
		if err != nil {
			return err
		}
		if worker == nil {
			return &engine.NotFoundError{Kind: "worker", ID: workerID}
		}

		existing, err := tx.GetEvaluationByWorkerDate(ctx, workerID, date)
		if err != nil {
			return err
		}
		if existing != nil {
			return &engine.DuplicateEvaluationError{WorkerID: workerID, Date: date.String(), ExistingID: existing.ID}
		}

		scored, err := s.scoreEntries(ctx, tx, evalID, entries)
		if err != nil {
			return err
		}
		total = entryTotal(scored)

		if err := tx.InsertEvaluation(ctx, DailyEvaluation{
			ID:         evalID,
			WorkerID:   workerID,
			Date:       date,
			TotalScore: total,
		}); err != nil {
			return err
		}
		for _, entry := range scored {
			if err := tx.InsertEntry(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", decimal.Zero, err
	}
	return evalID, total, nil
}

// =============================================================================
// REPLACE
// =============================================================================

// Replace discards an evaluation's entries and total and recomputes both
// from the submitted entries, exactly as Create does. Worker and date are
// unchanged.
func (s *Service) Replace(ctx context.Context, evaluationID string, entries []EntryInput) (decimal.Decimal, error) {
	if len(entries) == 0 {
		return decimal.Zero, &engine.InvalidInputError{Field: "entries", Reason: "at least one entry is required"}
	}

	var total decimal.Decimal
	err := s.store.WithTx(ctx, func(tx Store) error {
		existing, err := tx.GetEvaluation(ctx, evaluationID)
		if err != nil {
			return err
		}
		if existing == nil {
			return &engine.NotFoundError{Kind: "evaluation", ID: evaluationID}
		}

		scored, err := s.scoreEntries(ctx, tx, evaluationID, entries)
		if err != nil {
			return err
		}
		total = entryTotal(scored)

		if err := tx.DeleteEntriesByEvaluation(ctx, evaluationID); err != nil {
			return err
		}
		if err := tx.UpdateEvaluationTotal(ctx, evaluationID, total); err != nil {
			return err
		}
		for _, entry := range scored {
			if err := tx.InsertEntry(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// =============================================================================
// READ / DELETE
// =============================================================================

// Get returns an evaluation with its entries joined with task name/target.
func (s *Service) Get(ctx context.Context, evaluationID string) (*EvaluationDetail, error) {
	ev, err := s.store.GetEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, &engine.NotFoundError{Kind: "evaluation", ID: evaluationID}
	}
	entries, err := s.store.ListEntries(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	return &EvaluationDetail{DailyEvaluation: *ev, Entries: entries}, nil
}

// ListByMonth returns evaluations in a month, newest date first,
// optionally scoped to one worker (empty workerID = all workers).
func (s *Service) ListByMonth(ctx context.Context, month engine.Month, workerID string) ([]DailyEvaluation, error) {
	return s.store.ListEvaluationsByMonth(ctx, month, workerID)
}

// Delete removes an evaluation and its entries atomically.
func (s *Service) Delete(ctx context.Context, evaluationID string) error {
	return s.store.WithTx(ctx, func(tx Store) error {
		existing, err := tx.GetEvaluation(ctx, evaluationID)
		if err != nil {
			return err
		}
		if existing == nil {
			return &engine.NotFoundError{Kind: "evaluation", ID: evaluationID}
		}
		if err := tx.DeleteEntriesByEvaluation(ctx, evaluationID); err != nil {
			return err
		}
		return tx.DeleteEvaluation(ctx, evaluationID)
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// scoreEntries resolves each input against the task catalog and scores it.
// Fails with NotFound on the first unknown task, before anything is written.
func (s *Service) scoreEntries(ctx context.Context, tx Store, evalID string, entries []EntryInput) ([]TaskEntry, error) {
	scored := make([]TaskEntry, 0, len(entries))
	for _, in := range entries {
		task, err := tx.GetTask(ctx, in.TaskID)
		if err != nil {
			return nil, err
		}
		if task == nil {
			return nil, &engine.NotFoundError{Kind: "task", ID: in.TaskID}
		}
		score, err := Score(in.Quantity, task.TargetQuantity)
		if err != nil {
			return nil, err
		}
		scored = append(scored, TaskEntry{
			ID:           uuid.NewString(),
			EvaluationID: evalID,
			TaskID:       task.ID,
			Quantity:     in.Quantity,
			Score:        score,
		})
	}
	return scored, nil
}

func entryTotal(entries []TaskEntry) decimal.Decimal {
	scores := make([]decimal.Decimal, len(entries))
	for i, e := range entries {
		scores[i] = e.Score
	}
	return DailyTotal(scores)
}
