package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"finbook/internal/core"
	applog "finbook/internal/log"
	"finbook/internal/metrics"
	"finbook/internal/storage/textfile"
)

func newTransactionService(t *testing.T, pub *fakePublisher) *TransactionService {
	t.Helper()
	store := textfile.NewTransactionFile(filepath.Join(t.TempDir(), "transactions.txt"), nil)
	if pub == nil {
		return NewTransactionService(store, nil, nil, nil)
	}
	return NewTransactionService(store, pub, nil, nil)
}

func TestTransactionService_BalanceScenario(t *testing.T) {
	ctx := context.Background()
	svc := newTransactionService(t, nil)

	if _, err := svc.Append(ctx, "2024-01-01 10:00:00", core.KindCredit, 100.0, "salary"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := svc.Append(ctx, "2024-01-01 12:00:00", core.KindDebit, 30.0, "coffee"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	balance, err := svc.Balance(ctx)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance != 70.0 {
		t.Errorf("balance = %v, want 70", balance)
	}

	groups, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	recs := groups.Records("2024-01-01")
	if len(recs) != 2 || recs[0].Remark != "salary" || recs[1].Remark != "coffee" {
		t.Errorf("records = %+v", recs)
	}
}

func TestTransactionService_EmptyBalance(t *testing.T) {
	balance, err := newTransactionService(t, nil).Balance(context.Background())
	if err != nil || balance != 0 {
		t.Fatalf("balance = %v, err = %v", balance, err)
	}
}

func TestTransactionService_UnknownKindIgnoredByBalance(t *testing.T) {
	ctx := context.Background()
	svc := newTransactionService(t, nil)
	for _, k := range []core.Kind{core.KindCredit, "refund"} {
		if _, err := svc.Append(ctx, "2024-01-01 10:00:00", k, 10, "x"); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if got, _ := svc.Balance(ctx); got != 10 {
		t.Errorf("balance = %v, want 10", got)
	}
}

func TestTransactionService_PublishesAppended(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTransactionService(t, pub)

	tx, err := svc.Append(context.Background(), "2024-01-01 10:00:00", core.KindDebit, 4.5, "bus")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(pub.transactions) != 1 || pub.transactions[0] != tx {
		t.Fatalf("published = %+v", pub.transactions)
	}
}

func TestTransactionService_PublishFailureDoesNotFailAppend(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Level: slog.LevelInfo, Output: &buf})
	m := metrics.New()
	store := textfile.NewTransactionFile(filepath.Join(t.TempDir(), "transactions.txt"), nil)
	svc := NewTransactionService(store, &fakePublisher{err: errors.New("broker down")}, m, logger)

	ctx := context.Background()
	if _, err := svc.Append(ctx, "2024-01-01 10:00:00", core.KindCredit, 1, "tip"); err != nil {
		t.Fatalf("Append should succeed locally: %v", err)
	}
	groups, err := svc.Load(ctx)
	if err != nil || groups.Count() != 1 {
		t.Fatalf("record not stored: %v", err)
	}
	if !strings.Contains(buf.String(), "Failed to publish transaction event") {
		t.Errorf("publish failure not logged: %s", buf.String())
	}
}

func TestTransactionService_StoreErrors(t *testing.T) {
	svc := NewTransactionService(failingStore{}, nil, nil, nil)
	ctx := context.Background()

	if _, err := svc.Append(ctx, "2024-01-01 10:00:00", core.KindCredit, 1, "x"); !errors.Is(err, errStoreDown) {
		t.Errorf("Append error = %v", err)
	}
	if _, err := svc.Balance(ctx); !errors.Is(err, errStoreDown) {
		t.Errorf("Balance error = %v", err)
	}
}
