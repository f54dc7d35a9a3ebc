// Package google mirrors records into a Google Sheets spreadsheet, one
// tab per record kind, authenticated with a service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finbook/internal/core"
	applog "finbook/internal/log"
	"finbook/internal/ports"
)

const (
	breakerFailures = 3
	breakerTimeout  = 30 * time.Second
	callTimeout     = 20 * time.Second

	// RAW stores cells verbatim; user text is never parsed as a formula.
	valueInputOption = "RAW"
)

var _ ports.RecordMirror = (*Client)(nil)

var ErrMissingCredentials = errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")

type Config struct {
	SpreadsheetID      string
	TransactionsSheet  string
	ExpensesSheet      string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	transactionsSheet string
	expensesSheet     string
	breaker           *gobreaker.CircuitBreaker
	logger            *applog.Logger
}

// New builds a client from service account credentials. Extra options are
// appended after the credentials.
func New(ctx context.Context, cfg Config, logger *applog.Logger, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	credentialsJSON, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	opts = append([]goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, opts...)
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg, logger), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, cfg Config, logger *applog.Logger) *Client {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentSheets)

	transactions := strings.TrimSpace(cfg.TransactionsSheet)
	if transactions == "" {
		transactions = "Transactions"
	}
	expenses := strings.TrimSpace(cfg.ExpensesSheet)
	if expenses == "" {
		expenses = "Expenses"
	}

	return &Client{
		svc:               svc,
		spreadsheetID:     strings.TrimSpace(cfg.SpreadsheetID),
		transactionsSheet: transactions,
		expensesSheet:     expenses,
		logger:            logger,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "google-sheets",
			MaxRequests: 1,
			Timeout:     breakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

func loadCredentials(cfg Config) ([]byte, error) {
	if js := strings.TrimSpace(cfg.ServiceAccountJSON); js != "" {
		return []byte(js), nil
	}
	path := strings.TrimSpace(cfg.ServiceAccountFile)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, ErrMissingCredentials
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// MirrorTransaction appends t as a row of the transactions tab and returns
// the updated range.
func (c *Client) MirrorTransaction(ctx context.Context, t core.Transaction) (string, error) {
	return c.appendRow(ctx, c.transactionsSheet, "A:D", transactionRow(t))
}

// MirrorExpense appends e as a row of the expenses tab.
func (c *Client) MirrorExpense(ctx context.Context, e core.Expense) (string, error) {
	return c.appendRow(ctx, c.expensesSheet, "A:B", expenseRow(e))
}

func (c *Client) appendRow(ctx context.Context, sheet, cols string, row []interface{}) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialised")
	}
	rng := sheetRange(sheet, cols)
	vr := &gsheet.ValueRange{Values: [][]interface{}{row}}

	res, err := c.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()
		return c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
			ValueInputOption(valueInputOption).
			InsertDataOption("INSERT_ROWS").
			Context(callCtx).
			Do()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("append to %s: circuit breaker is open: %w", sheet, err)
		}
		return "", fmt.Errorf("append to %s: %w", sheet, err)
	}

	ref := rng
	if resp, ok := res.(*gsheet.AppendValuesResponse); ok && resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.InfoContext(ctx, "Row appended to spreadsheet", applog.FieldRecordRef, ref)
	return ref, nil
}
