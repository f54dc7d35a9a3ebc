// Package memory keeps records in process memory. Nothing survives a
// restart; it backs local runs and tests.
package memory

import (
	"context"
	"sync"

	"finbook/internal/core"
	"finbook/internal/ports"
)

var (
	_ ports.TransactionStore = (*Store)(nil)
	_ ports.ExpenseStore     = (*Store)(nil)
)

type Store struct {
	mu           sync.Mutex
	transactions []core.Transaction
	expenses     []core.Expense
}

func New() *Store {
	return &Store{}
}

// LoadTransactions groups the stored transactions in insertion order.
func (s *Store) LoadTransactions(ctx context.Context) (*core.DayGroups, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	groups := core.NewDayGroups()
	for _, t := range s.transactions {
		groups.Add(t)
	}
	return groups, nil
}

func (s *Store) AppendTransaction(ctx context.Context, t core.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, t)
	return nil
}

// LoadExpenses replays every append, so a later entry for a date wins.
func (s *Store) LoadExpenses(ctx context.Context) (*core.ExpenseBook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	book := core.NewExpenseBook()
	for _, e := range s.expenses {
		book.Set(e.Date, e.AmountSpent)
	}
	return book, nil
}

func (s *Store) AppendExpense(ctx context.Context, e core.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, e)
	return nil
}
