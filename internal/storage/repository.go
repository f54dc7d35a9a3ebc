// Package storage holds the SQLite backend for transactions and expenses.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"finbook/internal/core"
	applog "finbook/internal/log"
	"finbook/internal/ports"

	_ "modernc.org/sqlite"
)

var (
	_ ports.TransactionStore = (*SQLiteStore)(nil)
	_ ports.ExpenseStore     = (*SQLiteStore)(nil)
)

// SQLiteStore keeps both record kinds in one database. Rows are read back
// in insertion order so loads match the flat-file backend.
type SQLiteStore struct {
	db     *sql.DB
	logger *applog.Logger
}

func NewSQLiteStore(dbPath string, logger *applog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, logger: logger.WithComponent(applog.ComponentStorage)}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) LoadTransactions(ctx context.Context) (*core.DayGroups, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, kind, amount, remark FROM transactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	groups := core.NewDayGroups()
	for rows.Next() {
		var (
			t    core.Transaction
			kind string
		)
		if err := rows.Scan(&t.Timestamp, &kind, &t.Amount, &t.Remark); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Kind = core.Kind(kind)
		groups.Add(t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return groups, nil
}

func (s *SQLiteStore) AppendTransaction(ctx context.Context, t core.Transaction) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (timestamp, kind, amount, remark) VALUES (?, ?, ?, ?)`,
		t.Timestamp, t.Kind.String(), t.Amount, t.Remark)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	id, _ := res.LastInsertId()
	s.logger.DebugContext(ctx, "Transaction saved to SQLite",
		applog.FieldRecordID, id,
		applog.FieldKind, t.Kind.String(),
		applog.FieldAmount, t.Amount)
	return nil
}

func (s *SQLiteStore) LoadExpenses(ctx context.Context) (*core.ExpenseBook, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, amount_spent FROM expenses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	book := core.NewExpenseBook()
	for rows.Next() {
		var (
			date   string
			amount float64
		)
		if err := rows.Scan(&date, &amount); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		book.Set(date, amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return book, nil
}

func (s *SQLiteStore) AppendExpense(ctx context.Context, e core.Expense) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (date, amount_spent) VALUES (?, ?)`,
		e.Date, e.AmountSpent)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	id, _ := res.LastInsertId()
	s.logger.DebugContext(ctx, "Expense saved to SQLite",
		applog.FieldRecordID, id,
		applog.FieldDate, e.Date,
		applog.FieldAmount, e.AmountSpent)
	return nil
}
