package storage

import (
	"context"
	"path/filepath"
	"testing"

	"finbook/internal/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "finbook.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	groups, err := store.LoadTransactions(ctx)
	if err != nil {
		t.Fatalf("LoadTransactions: %v", err)
	}
	if groups.Len() != 0 || core.Balance(groups) != 0 {
		t.Fatalf("expected no transactions, got %d days", groups.Len())
	}

	book, err := store.LoadExpenses(ctx)
	if err != nil {
		t.Fatalf("LoadExpenses: %v", err)
	}
	if book.Len() != 0 {
		t.Fatalf("expected no expenses, got %d", book.Len())
	}
}

func TestSQLiteStoreTransactionsKeepOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := []core.Transaction{
		{Timestamp: "2024-01-02 08:00:00", Kind: core.KindDebit, Amount: 4.5, Remark: "bus"},
		{Timestamp: "2024-01-01 10:00:00", Kind: core.KindCredit, Amount: 100, Remark: "salary"},
		{Timestamp: "2024-01-01 12:00:00", Kind: core.KindDebit, Amount: 30, Remark: "coffee"},
	}
	for _, tx := range in {
		if err := store.AppendTransaction(ctx, tx); err != nil {
			t.Fatalf("AppendTransaction: %v", err)
		}
	}

	groups, err := store.LoadTransactions(ctx)
	if err != nil {
		t.Fatalf("LoadTransactions: %v", err)
	}
	days := groups.Days()
	if len(days) != 2 || days[0] != "2024-01-02" || days[1] != "2024-01-01" {
		t.Fatalf("days = %v", days)
	}
	recs := groups.Records("2024-01-01")
	if len(recs) != 2 || recs[0] != in[1] || recs[1] != in[2] {
		t.Fatalf("records = %+v", recs)
	}
	if got := core.Balance(groups); got != 65.5 {
		t.Fatalf("balance = %v, want 65.5", got)
	}
}

func TestSQLiteStoreExpensesLastWriteWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, e := range []core.Expense{
		{Date: "2024-02-01", AmountSpent: 15.5},
		{Date: "2024-02-02", AmountSpent: 3},
		{Date: "2024-02-01", AmountSpent: 20},
	} {
		if err := store.AppendExpense(ctx, e); err != nil {
			t.Fatalf("AppendExpense: %v", err)
		}
	}

	book, err := store.LoadExpenses(ctx)
	if err != nil {
		t.Fatalf("LoadExpenses: %v", err)
	}
	if v, _ := book.Get("2024-02-01"); v != 20 {
		t.Fatalf("2024-02-01 = %v, want 20", v)
	}
	dates := book.Dates()
	if len(dates) != 2 || dates[0] != "2024-02-01" {
		t.Fatalf("dates = %v", dates)
	}
	if book.Total() != 23 {
		t.Fatalf("total = %v, want 23", book.Total())
	}
}

func TestSQLiteStoreReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finbook.db")
	ctx := context.Background()

	first, err := NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.AppendExpense(ctx, core.Expense{Date: "2024-03-01", AmountSpent: 9}); err != nil {
		t.Fatalf("append: %v", err)
	}
	first.Close()

	second, err := NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if err := second.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	book, err := second.LoadExpenses(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if v, ok := book.Get("2024-03-01"); !ok || v != 9 {
		t.Fatalf("expected persisted expense, got %v %v", v, ok)
	}
}
