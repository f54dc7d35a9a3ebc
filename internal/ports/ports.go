package ports

import (
	"context"

	"finbook/internal/core"
)

// Ports for storage and outbound adapters.
type (
	// TransactionStore persists transactions in append order.
	TransactionStore interface {
		// LoadTransactions returns every stored transaction grouped by date.
		// An empty store yields empty groups, not an error.
		LoadTransactions(ctx context.Context) (*core.DayGroups, error)
		AppendTransaction(ctx context.Context, t core.Transaction) error
	}

	// ExpenseStore persists daily expense entries in append order.
	ExpenseStore interface {
		// LoadExpenses returns the date to amount mapping; later entries
		// for the same date replace earlier ones.
		LoadExpenses(ctx context.Context) (*core.ExpenseBook, error)
		AppendExpense(ctx context.Context, e core.Expense) error
	}

	// RecordPublisher announces appended records to downstream consumers.
	RecordPublisher interface {
		PublishTransaction(ctx context.Context, t core.Transaction) error
		PublishExpense(ctx context.Context, e core.Expense) error
	}

	// RecordMirror copies records to an external destination and returns a
	// reference to where they landed.
	RecordMirror interface {
		MirrorTransaction(ctx context.Context, t core.Transaction) (ref string, err error)
		MirrorExpense(ctx context.Context, e core.Expense) (ref string, err error)
	}
)
