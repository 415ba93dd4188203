/*
Package engine is the shared kernel of the scoring and ledger engine.

PURPOSE:
  Holds what both domains (evaluation, payroll) and the store depend on:
  the error taxonomy, calendar value types, and the catalog records the
  engine consumes. Workers and tasks are catalogs - the engine reads them
  and derives state from them, it never derives state INTO them.

SEE ALSO:
  - errors.go: error taxonomy
  - calendar.go: Day/Month value types
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// Worker is a registry record. Salary is nullable; a worker without a salary
// accrues no automatic deductions.
type Worker struct {
	ID     string
	Name   string
	Salary *decimal.Decimal
}

// SalaryOrZero treats an unset salary as zero for balance math.
func (w Worker) SalaryOrZero() decimal.Decimal {
	if w.Salary == nil {
		return decimal.Zero
	}
	return *w.Salary
}

// Task is a catalog record: a named target with a required quantity.
// TargetQuantity is always positive; the store rejects anything else.
type Task struct {
	ID             string
	Name           string
	TargetQuantity int
}
