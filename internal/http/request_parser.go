// Package http serves the finbook pages.
//
// This file holds the form parsing shared by the POST handlers. Every
// value is sanitized before it reaches storage so that one submission
// always becomes exactly one line in the record files.

package http

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"

	"finbook/internal/core"
)

// maxFormBytes bounds POST bodies; the forms carry three short fields.
const maxFormBytes = 64 << 10

// errMissingField reports a form field that was not submitted at all.
var errMissingField = errors.New("missing form field")

// TransactionForm is the decoded body of POST /add_transaction.
type TransactionForm struct {
	Kind   core.Kind
	Amount float64
	Remark string
}

// ExpenseForm is the decoded body of POST /expenses.
type ExpenseForm struct {
	AmountSpent float64
}

// ParseTransactionForm reads type, amount and remark. An empty remark is
// accepted; an absent one is not.
func ParseTransactionForm(form url.Values) (TransactionForm, error) {
	kind, err := requiredField(form, "type")
	if err != nil {
		return TransactionForm{}, err
	}
	amount, err := amountField(form, "amount")
	if err != nil {
		return TransactionForm{}, err
	}
	remark, err := requiredField(form, "remark")
	if err != nil {
		return TransactionForm{}, err
	}
	return TransactionForm{Kind: core.Kind(kind), Amount: amount, Remark: remark}, nil
}

// ParseExpenseForm reads amount_spent.
func ParseExpenseForm(form url.Values) (ExpenseForm, error) {
	amount, err := amountField(form, "amount_spent")
	if err != nil {
		return ExpenseForm{}, err
	}
	return ExpenseForm{AmountSpent: amount}, nil
}

// parseForm limits and parses a POST body.
func parseForm(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	return r.PostForm, nil
}

func requiredField(form url.Values, key string) (string, error) {
	values, ok := form[key]
	if !ok || len(values) == 0 {
		return "", fmt.Errorf("%w: %s", errMissingField, key)
	}
	return sanitizeInput(values[0]), nil
}

func amountField(form url.Values, key string) (float64, error) {
	raw, err := requiredField(form, key)
	if err != nil {
		return 0, err
	}
	v, err := core.ParseAmount(raw)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", key, raw, err)
	}
	// Stored files may hold anything ParseAmount reads, but new entries
	// must be finite and non-negative.
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("%s %q: %w", key, raw, core.ErrInvalidAmount)
	}
	return v, nil
}

// sanitizeInput trims whitespace and removes every control character,
// line breaks included.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
