/*
report.go - Monthly aggregation (read side)

PURPOSE:
  Produces the per-worker monthly report. Reads already-derived daily
  totals; never recomputes from entries.

DUAL SEMANTIC (intentional, do not "fix"):
  Within a day, scores SUM (scoring.go). Across the month, daily totals
  AVERAGE. Summing rewards completing more tasks per day; averaging over
  days worked normalizes for attendance frequency.

EDGE CASE:
  Every worker appears in the report. Zero evaluations in the month means
  DaysWorked=0, AverageScore=nil.
*/
package evaluation

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/yazanabukhait2007-sudo/al-durra-management/engine"
)

// Aggregator is the read-side component for monthly reports.
type Aggregator struct {
	store Store
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// MonthlyReport returns one row per worker: days worked and the arithmetic
// mean of that worker's daily totals in the month.
func (a *Aggregator) MonthlyReport(ctx context.Context, month engine.Month) ([]MonthlyReportRow, error) {
	workers, err := a.store.ListWorkers(ctx)
	if err != nil {
		return nil, err
	}
	evals, err := a.store.ListEvaluationsByMonth(ctx, month, "")
	if err != nil {
		return nil, err
	}

	type acc struct {
		days int
		sum  decimal.Decimal
	}
	byWorker := make(map[string]*acc, len(workers))
	for _, ev := range evals {
		c := byWorker[ev.WorkerID]
		if c == nil {
			c = &acc{}
			byWorker[ev.WorkerID] = c
		}
		c.days++
		c.sum = c.sum.Add(ev.TotalScore)
	}

	rows := make([]MonthlyReportRow, 0, len(workers))
	for _, w := range workers {
		row := MonthlyReportRow{WorkerID: w.ID, WorkerName: w.Name}
		if c := byWorker[w.ID]; c != nil && c.days > 0 {
			avg := c.sum.Div(decimal.NewFromInt(int64(c.days)))
			row.DaysWorked = c.days
			row.AverageScore = &avg
		}
		rows = append(rows, row)
	}
	return rows, nil
}
