/*
scoring.go - The scoring calculator

PURPOSE:
  Pure, stateless score math. Everything else in this package derives its
  numbers from these two functions; no other code path computes a score.

SEMANTICS:
  Score(quantity, target) = 100 × quantity / target. No clamping: doubling
  the target quantity yields 200.

  DailyTotal is the SUM of entry scores, not the mean. The system once
  averaged per-day scores; that semantic is retired and survives only as
  the historical data the migrator rewrites (see migrate.go). Summing
  rewards completing more tasks per day; the monthly report then averages
  the daily totals to normalize for attendance (see report.go).

SEE ALSO:
  - service.go: applies these at evaluation write time
  - migrate.go: reapplies them to historical rows
*/
package evaluation

import (
	"github.com/shopspring/decimal"

	"github.com/yazanabukhait2007-sudo/al-durra-management/engine"
)

var hundred = decimal.NewFromInt(100)

// Score computes the percentage score for one task entry.
// Guarded against non-positive targets: task invariants make that
// unreachable, but a bad row must never crash the process.
func Score(quantity, target int) (decimal.Decimal, error) {
	if target <= 0 {
		return decimal.Zero, engine.ErrInvalidTarget
	}
	if quantity < 0 {
		return decimal.Zero, &engine.InvalidInputError{Field: "quantity", Reason: "must be non-negative"}
	}
	q := decimal.NewFromInt(int64(quantity))
	t := decimal.NewFromInt(int64(target))
	return q.Mul(hundred).Div(t), nil
}

// DailyTotal is the arithmetic sum of entry scores for one day.
func DailyTotal(scores []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, s := range scores {
		total = total.Add(s)
	}
	return total
}
