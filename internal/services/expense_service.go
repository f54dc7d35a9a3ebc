package services

import (
	"context"
	"fmt"

	"finbook/internal/core"
	applog "finbook/internal/log"
	"finbook/internal/metrics"
	"finbook/internal/ports"
)

// ExpenseService reads and appends daily expense entries.
type ExpenseService struct {
	store     ports.ExpenseStore
	publisher ports.RecordPublisher
	metrics   *metrics.Collector
	logger    *applog.Logger
}

func NewExpenseService(store ports.ExpenseStore, publisher ports.RecordPublisher, m *metrics.Collector, logger *applog.Logger) *ExpenseService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		metrics:   m,
		logger:    logger.WithComponent(applog.ComponentExpense),
	}
}

// Load returns the date to amount mapping, later entries winning.
func (s *ExpenseService) Load(ctx context.Context) (*core.ExpenseBook, error) {
	book, err := s.store.LoadExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	return book, nil
}

// Append saves the expense locally and publishes a sync event. A publish
// failure is logged and counted but does not fail the call.
func (s *ExpenseService) Append(ctx context.Context, date string, amountSpent float64) (core.Expense, error) {
	e := core.Expense{Date: date, AmountSpent: amountSpent}
	if err := s.store.AppendExpense(ctx, e); err != nil {
		return e, fmt.Errorf("append expense: %w", err)
	}
	s.metrics.RecordAppended(string(core.RecordKindExpense))
	s.logger.InfoContext(ctx, "Expense recorded",
		applog.NewFields().WithExpense(e.Date, e.AmountSpent).WithOperation(applog.OpAppend).ToSlice()...)

	if s.publisher != nil {
		if err := s.publisher.PublishExpense(ctx, e); err != nil {
			s.metrics.PublishFailed(string(core.RecordKindExpense))
			applog.LogFailure(ctx, s.logger, "Failed to publish expense event", err, applog.OpPublish,
				applog.NewFields().WithExpense(e.Date, e.AmountSpent))
		}
	}
	return e, nil
}

// TotalSpent sums the loaded mapping.
func (s *ExpenseService) TotalSpent(ctx context.Context) (float64, error) {
	book, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	return book.Total(), nil
}
