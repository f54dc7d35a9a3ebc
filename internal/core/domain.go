package core

import (
	"errors"
	"strings"
)

const (
	KindCredit Kind = "credit"
	KindDebit  Kind = "debit"
)

// Record families, used to label events and metrics.
const (
	RecordKindTransaction RecordKind = "transaction"
	RecordKindExpense     RecordKind = "expense"
)

// Layouts used for record timestamps and expense dates.
const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
)

type (
	// Kind discriminates transactions. Values other than credit and debit
	// are stored as written and ignored by Balance.
	Kind string

	RecordKind string

	Transaction struct {
		Timestamp string
		Kind      Kind
		Amount    float64
		Remark    string
	}

	Expense struct {
		Date        string
		AmountSpent float64
	}

	// DayGroup is one date bucket of a DayGroups, in template-friendly form.
	DayGroup struct {
		Date         string
		Transactions []Transaction
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrMalformedExpense = errors.New("malformed expense line")
)

func (k Kind) String() string {
	return string(k)
}

// Day returns the date portion of the timestamp: its first
// whitespace-separated token, or "" for a blank timestamp.
func (t Transaction) Day() string {
	fields := strings.Fields(t.Timestamp)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Signed returns the amount as it contributes to the balance.
func (t Transaction) Signed() float64 {
	switch t.Kind {
	case KindCredit:
		return t.Amount
	case KindDebit:
		return -t.Amount
	default:
		return 0
	}
}
