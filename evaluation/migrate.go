/*
migrate.go - One-shot historical score rewrite

PURPOSE:
  The daily formula changed once, from averaging entry scores to summing
  them. Totals written under the old formula are wrong under the new one.
  This migrator rewrites every historical evaluation: each entry's score is
  recomputed against its task's CURRENT target, and each total becomes the
  sum of its entry scores.

GUARANTEES:
  - All-or-nothing: the full rewrite runs in one store transaction.
    A failure anywhere aborts everything and leaves prior values untouched.
  - Idempotent by construction: recomputing a sum from entries always
    yields the same sum, so re-running after a successful run is a no-op.

DEPLOYMENT PRECONDITION:
  Holds one long transaction for the entire rewrite. Run it offline or at
  startup, not concurrently with live evaluation writes. Re-entrancy is
  safe; concurrency is simply not what it is built for.
*/
package evaluation

import (
	"context"
)

// MigrationResult counts rows actually rewritten. A re-run over already
// migrated data reports zeros.
type MigrationResult struct {
	Evaluations int
	Entries     int
}

// Migrator performs the sum-semantics rewrite.
type Migrator struct {
	store Store
}

func NewMigrator(store Store) *Migrator {
	return &Migrator{store: store}
}

// RecomputeTotals rewrites every entry score and every evaluation total
// under the sum semantics, in a single transaction.
func (m *Migrator) RecomputeTotals(ctx context.Context) (MigrationResult, error) {
	var result MigrationResult

	err := m.store.WithTx(ctx, func(tx Store) error {
		evals, err := tx.ListAllEvaluations(ctx)
		if err != nil {
			return err
		}
		for _, ev := range evals {
			entries, err := tx.ListEntries(ctx, ev.ID)
			if err != nil {
				return err
			}
			for i, entry := range entries {
				score, err := Score(entry.Quantity, entry.TargetQuantity)
				if err != nil {
					return err
				}
				if !score.Equal(entry.Score) {
					if err := tx.UpdateEntryScore(ctx, entry.ID, score); err != nil {
						return err
					}
					result.Entries++
				}
				entries[i].Score = score
			}
			total := entryTotal(entries)
			if !total.Equal(ev.TotalScore) {
				if err := tx.UpdateEvaluationTotal(ctx, ev.ID, total); err != nil {
					return err
				}
				result.Evaluations++
			}
		}
		return nil
	})
	if err != nil {
		return MigrationResult{}, err
	}
	return result, nil
}
