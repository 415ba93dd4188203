/*
statement.go - Manual ledger entries and on-demand balances

PURPOSE:
  The account-statement side of the ledger: administrators add manual
  salary/bonus/deduction/payment entries, remove mistaken ones, and read a
  worker's monthly statement. The net balance is computed on demand from
  the ledger, never stored.

NET BALANCE:
  salary + Σ(salary, bonus) − Σ(deduction, payment), scoped to a month by
  the date prefix of each ledger entry.
*/
package payroll

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yazanabukhait2007-sudo/al-durra-management/engine"
)

// Statement exposes manual ledger operations and balance reads.
type Statement struct {
	store Store
}

func NewStatement(store Store) *Statement {
	return &Statement{store: store}
}

// AddTransaction appends a manual ledger entry and returns it.
func (s *Statement) AddTransaction(ctx context.Context, workerID string, txType TransactionType, amount decimal.Decimal, date engine.Day, description string) (*WorkerTransaction, error) {
	if !ValidTransactionType(txType) {
		return nil, &engine.InvalidInputError{Field: "type", Reason: "must be salary, bonus, deduction or payment"}
	}
	if amount.IsNegative() {
		return nil, &engine.InvalidInputError{Field: "amount", Reason: "must be non-negative"}
	}

	entry := WorkerTransaction{
		ID:          uuid.NewString(),
		WorkerID:    workerID,
		Type:        txType,
		Amount:      amount,
		Date:        date,
		Description: description,
	}
	err := s.store.WithTx(ctx, func(tx Store) error {
		worker, err := tx.GetWorker(ctx, workerID)
		if err != nil {
			return err
		}
		if worker == nil {
			return &engine.NotFoundError{Kind: "worker", ID: workerID}
		}
		return tx.InsertTransaction(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// RemoveTransaction deletes a ledger entry by id.
func (s *Statement) RemoveTransaction(ctx context.Context, id string) error {
	return s.store.WithTx(ctx, func(tx Store) error {
		existing, err := tx.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return &engine.NotFoundError{Kind: "transaction", ID: id}
		}
		return tx.DeleteTransaction(ctx, id)
	})
}

// Transactions returns a worker's ledger entries for a month.
func (s *Statement) Transactions(ctx context.Context, workerID string, month engine.Month) ([]WorkerTransaction, error) {
	worker, err := s.store.GetWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if worker == nil {
		return nil, &engine.NotFoundError{Kind: "worker", ID: workerID}
	}
	return s.store.ListTransactionsByMonth(ctx, workerID, month)
}

// NetBalance computes the worker's balance for a month on demand.
func (s *Statement) NetBalance(ctx context.Context, workerID string, month engine.Month) (decimal.Decimal, error) {
	worker, err := s.store.GetWorker(ctx, workerID)
	if err != nil {
		return decimal.Zero, err
	}
	if worker == nil {
		return decimal.Zero, &engine.NotFoundError{Kind: "worker", ID: workerID}
	}

	txs, err := s.store.ListTransactionsByMonth(ctx, workerID, month)
	if err != nil {
		return decimal.Zero, err
	}

	balance := worker.SalaryOrZero()
	for _, t := range txs {
		if t.Type.Credits() {
			balance = balance.Add(t.Amount)
		} else {
			balance = balance.Sub(t.Amount)
		}
	}
	return balance, nil
}
