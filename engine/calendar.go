/*
calendar.go - Day and month value types

PURPOSE:
  Evaluations, attendance records and ledger entries are all keyed by a
  calendar day; reports and balances are scoped to a calendar month. These
  two types carry the canonical string forms (YYYY-MM-DD, YYYY-MM) used as
  storage keys and as the month prefix filter on ledger dates.

SEE ALSO:
  - store/sqlite: persists Day/Month as TEXT and filters with LIKE prefix
  - payroll/reconciler.go: embeds Day in the deduction reconciliation key
*/
package engine

import (
	"time"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// =============================================================================
// DAY - One calendar day, the grain of evaluations and attendance
// =============================================================================

type Day struct {
	t time.Time
}

// ParseDay parses YYYY-MM-DD.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, &InvalidInputError{Field: "date", Reason: "expected YYYY-MM-DD"}
	}
	return Day{t: t}, nil
}

func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func Today() Day {
	now := time.Now().UTC()
	return NewDay(now.Year(), now.Month(), now.Day())
}

func (d Day) String() string { return d.t.Format(dayLayout) }

func (d Day) Month() Month { return Month{year: d.t.Year(), month: d.t.Month()} }

func (d Day) Time() time.Time { return d.t }

func (d Day) IsZero() bool { return d.t.IsZero() }

func (d Day) Before(o Day) bool { return d.t.Before(o.t) }

func (d Day) AddDays(n int) Day { return Day{t: d.t.AddDate(0, 0, n)} }

// =============================================================================
// MONTH - One calendar month, the grain of reports and statements
// =============================================================================

type Month struct {
	year  int
	month time.Month
}

// ParseMonth parses YYYY-MM.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return Month{}, &InvalidInputError{Field: "month", Reason: "expected YYYY-MM"}
	}
	return Month{year: t.Year(), month: t.Month()}, nil
}

func NewMonth(year int, month time.Month) Month {
	return Month{year: year, month: month}
}

func (m Month) String() string {
	return time.Date(m.year, m.month, 1, 0, 0, 0, 0, time.UTC).Format(monthLayout)
}

// DatePrefix is the SQL LIKE pattern matching every day in the month.
func (m Month) DatePrefix() string { return m.String() + "-%" }

func (m Month) Contains(d Day) bool {
	return d.t.Year() == m.year && d.t.Month() == m.month
}

func (m Month) IsZero() bool { return m.year == 0 }
