package http

import (
	"errors"
	"net/url"
	"testing"

	"finbook/internal/core"
)

func TestParseTransactionForm(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		want    TransactionForm
		wantErr error
	}{
		{
			name: "credit",
			form: url.Values{"type": {"credit"}, "amount": {"100"}, "remark": {"salary"}},
			want: TransactionForm{Kind: core.KindCredit, Amount: 100, Remark: "salary"},
		},
		{
			name: "empty remark is kept",
			form: url.Values{"type": {"debit"}, "amount": {" 30.5 "}, "remark": {""}},
			want: TransactionForm{Kind: core.KindDebit, Amount: 30.5},
		},
		{
			name: "unknown kind stored as written",
			form: url.Values{"type": {"refund"}, "amount": {"1"}, "remark": {"x"}},
			want: TransactionForm{Kind: core.Kind("refund"), Amount: 1, Remark: "x"},
		},
		{
			name: "line breaks stripped from remark",
			form: url.Values{"type": {"debit"}, "amount": {"2"}, "remark": {"milk\r\n2024-01-01,credit,1000,x"}},
			want: TransactionForm{Kind: core.KindDebit, Amount: 2, Remark: "milk2024-01-01,credit,1000,x"},
		},
		{
			name:    "missing type",
			form:    url.Values{"amount": {"1"}, "remark": {"x"}},
			wantErr: errMissingField,
		},
		{
			name:    "missing remark",
			form:    url.Values{"type": {"credit"}, "amount": {"1"}},
			wantErr: errMissingField,
		},
		{
			name:    "missing amount",
			form:    url.Values{"type": {"credit"}, "remark": {"x"}},
			wantErr: errMissingField,
		},
		{
			name:    "non-numeric amount",
			form:    url.Values{"type": {"credit"}, "amount": {"ten"}, "remark": {"x"}},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "nan amount",
			form:    url.Values{"type": {"credit"}, "amount": {"nan"}, "remark": {"x"}},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "infinite amount",
			form:    url.Values{"type": {"debit"}, "amount": {"-Inf"}, "remark": {"x"}},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			form:    url.Values{"type": {"debit"}, "amount": {"-5"}, "remark": {"x"}},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "blank amount",
			form:    url.Values{"type": {"credit"}, "amount": {"  "}, "remark": {"x"}},
			wantErr: core.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTransactionForm(tt.form)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseExpenseForm(t *testing.T) {
	got, err := ParseExpenseForm(url.Values{"amount_spent": {"12.25"}})
	if err != nil || got.AmountSpent != 12.25 {
		t.Fatalf("got %+v, %v", got, err)
	}

	if _, err := ParseExpenseForm(url.Values{}); !errors.Is(err, errMissingField) {
		t.Errorf("missing field: err = %v", err)
	}
	for _, bad := range []string{"1,5", "NaN", "inf", "-0.5"} {
		if _, err := ParseExpenseForm(url.Values{"amount_spent": {bad}}); !errors.Is(err, core.ErrInvalidAmount) {
			t.Errorf("%q: err = %v", bad, err)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := map[string]string{
		"  plain  ":       "plain",
		"tab\there":       "tabhere",
		"new\nline":       "newline",
		"bell\x07":        "bell",
		"del\x7f":         "del",
		"caffè, cornetto": "caffè, cornetto",
	}
	for in, want := range tests {
		if got := sanitizeInput(in); got != want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", in, got, want)
		}
	}
}
