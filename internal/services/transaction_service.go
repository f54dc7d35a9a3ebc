package services

import (
	"context"
	"fmt"

	"finbook/internal/core"
	applog "finbook/internal/log"
	"finbook/internal/metrics"
	"finbook/internal/ports"
)

// TransactionService reads and appends ledger entries. Appended records
// are announced on the publisher when one is configured.
type TransactionService struct {
	store     ports.TransactionStore
	publisher ports.RecordPublisher
	metrics   *metrics.Collector
	logger    *applog.Logger
}

func NewTransactionService(store ports.TransactionStore, publisher ports.RecordPublisher, m *metrics.Collector, logger *applog.Logger) *TransactionService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &TransactionService{
		store:     store,
		publisher: publisher,
		metrics:   m,
		logger:    logger.WithComponent(applog.ComponentTransaction),
	}
}

// Load returns all transactions grouped by day in file order.
func (s *TransactionService) Load(ctx context.Context) (*core.DayGroups, error) {
	groups, err := s.store.LoadTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return groups, nil
}

// Append stores one transaction as given. Kind and amount are not
// validated here.
func (s *TransactionService) Append(ctx context.Context, timestamp string, kind core.Kind, amount float64, remark string) (core.Transaction, error) {
	t := core.Transaction{Timestamp: timestamp, Kind: kind, Amount: amount, Remark: remark}
	if err := s.store.AppendTransaction(ctx, t); err != nil {
		return t, fmt.Errorf("append transaction: %w", err)
	}
	s.metrics.RecordAppended(string(core.RecordKindTransaction))
	s.logger.InfoContext(ctx, "Transaction recorded",
		applog.NewFields().
			WithTransaction(t.Timestamp, t.Kind.String(), t.Amount, t.Remark).
			WithOperation(applog.OpAppend).
			ToSlice()...)

	if s.publisher != nil {
		if err := s.publisher.PublishTransaction(ctx, t); err != nil {
			// Stored locally; the mirror catches up on the next event.
			s.metrics.PublishFailed(string(core.RecordKindTransaction))
			applog.LogFailure(ctx, s.logger, "Failed to publish transaction event", err, applog.OpPublish,
				applog.NewFields().WithTransaction(t.Timestamp, t.Kind.String(), t.Amount, t.Remark))
		}
	}
	return t, nil
}

// Balance loads every transaction and returns credits minus debits.
func (s *TransactionService) Balance(ctx context.Context) (float64, error) {
	groups, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	return core.Balance(groups), nil
}
