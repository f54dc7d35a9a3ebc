package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"finbook/internal/core"
)

var ErrInvalidMessage = errors.New("invalid record message")

type TransactionPayload struct {
	Timestamp string  `json:"timestamp"`
	Kind      string  `json:"kind"`
	Amount    float64 `json:"amount"`
	Remark    string  `json:"remark"`
}

type ExpensePayload struct {
	Date        string  `json:"date"`
	AmountSpent float64 `json:"amount_spent"`
}

// RecordMessage announces one appended record. Exactly one of
// Transaction and Expense is set, matching Kind.
type RecordMessage struct {
	ID          string              `json:"id"`
	Kind        core.RecordKind     `json:"kind"`
	Transaction *TransactionPayload `json:"transaction,omitempty"`
	Expense     *ExpensePayload     `json:"expense,omitempty"`
	Timestamp   time.Time           `json:"timestamp"`
}

func NewTransactionMessage(t core.Transaction) *RecordMessage {
	return &RecordMessage{
		ID:   uuid.NewString(),
		Kind: core.RecordKindTransaction,
		Transaction: &TransactionPayload{
			Timestamp: t.Timestamp,
			Kind:      t.Kind.String(),
			Amount:    t.Amount,
			Remark:    t.Remark,
		},
		Timestamp: time.Now().UTC(),
	}
}

func NewExpenseMessage(e core.Expense) *RecordMessage {
	return &RecordMessage{
		ID:        uuid.NewString(),
		Kind:      core.RecordKindExpense,
		Expense:   &ExpensePayload{Date: e.Date, AmountSpent: e.AmountSpent},
		Timestamp: time.Now().UTC(),
	}
}

// TransactionRecord returns the carried transaction.
func (m *RecordMessage) TransactionRecord() core.Transaction {
	if m.Transaction == nil {
		return core.Transaction{}
	}
	return core.Transaction{
		Timestamp: m.Transaction.Timestamp,
		Kind:      core.Kind(m.Transaction.Kind),
		Amount:    m.Transaction.Amount,
		Remark:    m.Transaction.Remark,
	}
}

// ExpenseRecord returns the carried expense.
func (m *RecordMessage) ExpenseRecord() core.Expense {
	if m.Expense == nil {
		return core.Expense{}
	}
	return core.Expense{Date: m.Expense.Date, AmountSpent: m.Expense.AmountSpent}
}

// Validate checks that the kind and payload agree.
func (m *RecordMessage) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidMessage)
	}
	switch m.Kind {
	case core.RecordKindTransaction:
		if m.Transaction == nil || m.Expense != nil {
			return fmt.Errorf("%w: transaction message needs exactly a transaction payload", ErrInvalidMessage)
		}
	case core.RecordKindExpense:
		if m.Expense == nil || m.Transaction != nil {
			return fmt.Errorf("%w: expense message needs exactly an expense payload", ErrInvalidMessage)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidMessage, m.Kind)
	}
	return nil
}

func (m *RecordMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordMessageFromJSON decodes and validates a message body.
func RecordMessageFromJSON(data []byte) (*RecordMessage, error) {
	var msg RecordMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
