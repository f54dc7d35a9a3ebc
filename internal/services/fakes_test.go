package services

import (
	"context"
	"errors"
	"sync"

	"finbook/internal/core"
)

type fakePublisher struct {
	mu           sync.Mutex
	err          error
	transactions []core.Transaction
	expenses     []core.Expense
}

func (p *fakePublisher) PublishTransaction(_ context.Context, t core.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.transactions = append(p.transactions, t)
	return nil
}

func (p *fakePublisher) PublishExpense(_ context.Context, e core.Expense) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.expenses = append(p.expenses, e)
	return nil
}

var errStoreDown = errors.New("store down")

// failingStore fails every operation.
type failingStore struct{}

func (failingStore) LoadTransactions(context.Context) (*core.DayGroups, error) {
	return nil, errStoreDown
}
func (failingStore) AppendTransaction(context.Context, core.Transaction) error { return errStoreDown }
func (failingStore) LoadExpenses(context.Context) (*core.ExpenseBook, error) { return nil, errStoreDown }
func (failingStore) AppendExpense(context.Context, core.Expense) error { return errStoreDown }
