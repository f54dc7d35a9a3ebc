package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"finbook/internal/amqp"
	"finbook/internal/cache"
	"finbook/internal/core"
	"finbook/internal/metrics"
)

type fakeMirror struct {
	err          error
	transactions []core.Transaction
	expenses     []core.Expense
}

func (m *fakeMirror) MirrorTransaction(_ context.Context, t core.Transaction) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.transactions = append(m.transactions, t)
	return "Transactions!A2:D2", nil
}

func (m *fakeMirror) MirrorExpense(_ context.Context, e core.Expense) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.expenses = append(m.expenses, e)
	return "Expenses!A2:B2", nil
}

type fakeConsumer struct {
	messages []*amqp.RecordMessage
	errs     []error
}

func (c *fakeConsumer) Consume(ctx context.Context, handler amqp.Handler) error {
	for _, msg := range c.messages {
		c.errs = append(c.errs, handler(ctx, msg))
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestSyncWorker_RoutesByKind(t *testing.T) {
	mirror := &fakeMirror{}
	w := NewSyncWorker(mirror, nil, nil)
	ctx := context.Background()

	tx := core.Transaction{Timestamp: "2024-01-01 10:00:00", Kind: core.KindCredit, Amount: 100, Remark: "salary"}
	if err := w.HandleMessage(ctx, amqp.NewTransactionMessage(tx)); err != nil {
		t.Fatalf("transaction: %v", err)
	}
	exp := core.Expense{Date: "2024-02-01", AmountSpent: 15.5}
	if err := w.HandleMessage(ctx, amqp.NewExpenseMessage(exp)); err != nil {
		t.Fatalf("expense: %v", err)
	}

	if len(mirror.transactions) != 1 || mirror.transactions[0] != tx {
		t.Errorf("transactions = %+v", mirror.transactions)
	}
	if len(mirror.expenses) != 1 || mirror.expenses[0] != exp {
		t.Errorf("expenses = %+v", mirror.expenses)
	}
}

func TestSyncWorker_SkipsRedelivery(t *testing.T) {
	mirror := &fakeMirror{}
	w := NewSyncWorker(mirror, nil, nil)
	msg := amqp.NewExpenseMessage(core.Expense{Date: "2024-02-01", AmountSpent: 1})

	for i := 0; i < 2; i++ {
		if err := w.HandleMessage(context.Background(), msg); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	if len(mirror.expenses) != 1 {
		t.Errorf("expected one append, got %d", len(mirror.expenses))
	}
}

func TestSyncWorker_FailureIsRetryable(t *testing.T) {
	mirror := &fakeMirror{err: errors.New("quota exceeded")}
	m := metrics.New()
	w := NewSyncWorker(mirror, m, nil)
	msg := amqp.NewExpenseMessage(core.Expense{Date: "2024-02-01", AmountSpent: 1})

	if err := w.HandleMessage(context.Background(), msg); err == nil {
		t.Fatal("expected error so the message is requeued")
	}

	// After the mirror recovers the same message must go through.
	mirror.err = nil
	if err := w.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(mirror.expenses) != 1 {
		t.Errorf("expected one append after retry, got %d", len(mirror.expenses))
	}

	got, err := testutil.GatherAndCount(m.Registry(), "finbook_mirror_sync_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if got != 2 {
		t.Errorf("mirror series = %d, want 2 (success and error)", got)
	}
}

func TestSyncWorker_RunStopsCleanly(t *testing.T) {
	mirror := &fakeMirror{}
	w := NewSyncWorker(mirror, nil, nil)
	consumer := &fakeConsumer{messages: []*amqp.RecordMessage{
		amqp.NewTransactionMessage(core.Transaction{Timestamp: "2024-01-01 10:00:00", Kind: core.KindDebit, Amount: 2, Remark: "tea"}),
	}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, consumer) }()
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(consumer.errs) != 1 || consumer.errs[0] != nil {
		t.Errorf("handler results = %v", consumer.errs)
	}
}

func TestSyncWorker_PrunesExpiredIDs(t *testing.T) {
	w := NewSyncWorker(&fakeMirror{}, nil, nil)
	w.seen = cache.NewSeenSet(10, time.Millisecond)
	msg := amqp.NewExpenseMessage(core.Expense{Date: "2024-02-01", AmountSpent: 1})
	if err := w.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if removed := w.pruneSeen(context.Background()); removed != 1 {
		t.Errorf("pruned %d, want 1", removed)
	}
	if w.seen.Len() != 0 {
		t.Errorf("seen len = %d after prune", w.seen.Len())
	}
}

func TestSyncWorker_PruneLoopRunsUntilCancelled(t *testing.T) {
	w := NewSyncWorker(&fakeMirror{}, nil, nil)
	w.seen = cache.NewSeenSet(10, time.Nanosecond)
	w.seen.Mark("stale")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.pruneLoop(ctx, time.Millisecond)
	}()

	deadline := time.Now().Add(time.Second)
	for w.seen.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done
	if w.seen.Len() != 0 {
		t.Error("stale ID was never pruned")
	}
}
