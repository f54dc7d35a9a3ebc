// Package textfile stores records in flat, newline-delimited text files.
//
// Transactions are kept as "timestamp,kind,amount,remark" and expenses as
// "date,amount_spent". Fields are not escaped. Files are only ever
// appended to, one line per write, and re-read in full on every load.
package textfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"finbook/internal/core"
	"finbook/internal/ports"
)

const maxLineBytes = 1 << 20

var (
	_ ports.TransactionStore = (*TransactionFile)(nil)
	_ ports.ExpenseStore     = (*ExpenseFile)(nil)
)

// TransactionFile is a TransactionStore over a single text file.
type TransactionFile struct {
	path   string
	logger *slog.Logger
}

func NewTransactionFile(path string, logger *slog.Logger) *TransactionFile {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionFile{path: path, logger: logger}
}

func (f *TransactionFile) Path() string { return f.path }

// LoadTransactions parses the whole file. Lines that do not split into
// exactly four fields are logged and skipped. A four-field line whose
// amount is not a number fails the load.
func (f *TransactionFile) LoadTransactions(ctx context.Context) (*core.DayGroups, error) {
	groups := core.NewDayGroups()
	err := scanLines(ctx, f.path, func(lineNo int, line string) error {
		parts := strings.Split(line, ",")
		if len(parts) != 4 {
			f.logger.WarnContext(ctx, "Skipping malformed transaction line",
				"path", f.path,
				"line", lineNo,
				"fields", len(parts),
				"content", line)
			return nil
		}
		amount, err := core.ParseAmount(parts[2])
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		groups.Add(core.Transaction{
			Timestamp: parts[0],
			Kind:      core.Kind(parts[1]),
			Amount:    amount,
			Remark:    parts[3],
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load transactions from %s: %w", f.path, err)
	}
	return groups, nil
}

func (f *TransactionFile) AppendTransaction(ctx context.Context, t core.Transaction) error {
	line := strings.Join([]string{t.Timestamp, t.Kind.String(), core.FormatAmount(t.Amount), t.Remark}, ",")
	if err := appendLine(ctx, f.path, line); err != nil {
		return fmt.Errorf("append transaction to %s: %w", f.path, err)
	}
	return nil
}

// ExpenseFile is an ExpenseStore over a single text file.
type ExpenseFile struct {
	path string
}

func NewExpenseFile(path string) *ExpenseFile {
	return &ExpenseFile{path: path}
}

func (f *ExpenseFile) Path() string { return f.path }

// LoadExpenses parses the whole file. Unlike transactions there is no
// malformed-line guard: any line that is not exactly "date,amount"
// fails the load.
func (f *ExpenseFile) LoadExpenses(ctx context.Context) (*core.ExpenseBook, error) {
	book := core.NewExpenseBook()
	err := scanLines(ctx, f.path, func(lineNo int, line string) error {
		parts := strings.Split(line, ",")
		if len(parts) != 2 {
			return fmt.Errorf("line %d: %w: want 2 fields, got %d", lineNo, core.ErrMalformedExpense, len(parts))
		}
		amount, err := core.ParseAmount(parts[1])
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		book.Set(parts[0], amount)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load expenses from %s: %w", f.path, err)
	}
	return book, nil
}

func (f *ExpenseFile) AppendExpense(ctx context.Context, e core.Expense) error {
	line := e.Date + "," + core.FormatAmount(e.AmountSpent)
	if err := appendLine(ctx, f.path, line); err != nil {
		return fmt.Errorf("append expense to %s: %w", f.path, err)
	}
	return nil
}

// scanLines calls fn for every line of path with surrounding whitespace
// removed. A missing file is treated as empty.
func scanLines(ctx context.Context, path string, fn func(lineNo int, line string) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer file.Close()

	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if err := fn(lineNo, strings.TrimSpace(sc.Text())); err != nil {
			return err
		}
	}
	return sc.Err()
}

// appendLine writes line plus a newline in a single write call.
func appendLine(ctx context.Context, path, line string) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	_, err = file.WriteString(line + "\n")
	return err
}
