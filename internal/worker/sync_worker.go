// Package worker mirrors published record events into the spreadsheet.
package worker

import (
	"context"
	"fmt"
	"time"

	"finbook/internal/amqp"
	"finbook/internal/cache"
	"finbook/internal/core"
	applog "finbook/internal/log"
	"finbook/internal/metrics"
	"finbook/internal/ports"
)

const (
	seenCapacity = 10000
	seenTTL      = 24 * time.Hour
	pruneEvery   = 10 * time.Minute
)

// SyncWorker appends each record message to the mirror. Message IDs that
// were already mirrored are acknowledged without a second append.
type SyncWorker struct {
	mirror  ports.RecordMirror
	metrics *metrics.Collector
	logger  *applog.Logger
	seen    *cache.SeenSet
}

func NewSyncWorker(mirror ports.RecordMirror, m *metrics.Collector, logger *applog.Logger) *SyncWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &SyncWorker{
		mirror:  mirror,
		metrics: m,
		logger:  logger.WithComponent(applog.ComponentWorker),
		seen:    cache.NewSeenSet(seenCapacity, seenTTL),
	}
}

// HandleMessage mirrors msg. A returned error makes the consumer requeue
// the message.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.RecordMessage) error {
	if w.seen.Contains(msg.ID) {
		w.logger.InfoContext(ctx, "Skipping already mirrored record", applog.FieldRecordID, msg.ID)
		return nil
	}

	var (
		ref string
		err error
	)
	switch msg.Kind {
	case core.RecordKindTransaction:
		ref, err = w.mirror.MirrorTransaction(ctx, msg.TransactionRecord())
	case core.RecordKindExpense:
		ref, err = w.mirror.MirrorExpense(ctx, msg.ExpenseRecord())
	default:
		// Validated on decode; reaching here means a programming error.
		return fmt.Errorf("unsupported record kind %q", msg.Kind)
	}
	w.metrics.MirrorSynced(string(msg.Kind), err)
	if err != nil {
		return fmt.Errorf("mirror %s %s: %w", msg.Kind, msg.ID, err)
	}

	w.seen.Mark(msg.ID)
	w.logger.InfoContext(ctx, "Record mirrored",
		applog.FieldRecordID, msg.ID,
		applog.FieldKind, string(msg.Kind),
		applog.FieldRecordRef, ref)
	return nil
}

// Run consumes from the queue until ctx is cancelled. Expired message IDs
// are pruned in the background meanwhile.
func (w *SyncWorker) Run(ctx context.Context, consumer Consumer) error {
	w.logger.InfoContext(ctx, "Sync worker started", applog.FieldOperation, applog.OpStartup)

	pruneCtx, stopPrune := context.WithCancel(ctx)
	pruned := make(chan struct{})
	go func() {
		defer close(pruned)
		w.pruneLoop(pruneCtx, pruneEvery)
	}()
	defer func() {
		stopPrune()
		<-pruned
	}()

	err := consumer.Consume(ctx, w.HandleMessage)
	if ctx.Err() != nil {
		w.logger.InfoContext(ctx, "Sync worker stopped", applog.FieldOperation, applog.OpShutdown)
		return nil
	}
	return err
}

func (w *SyncWorker) pruneLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pruneSeen(ctx)
		}
	}
}

func (w *SyncWorker) pruneSeen(ctx context.Context) int {
	removed := w.seen.CleanExpired()
	if removed > 0 {
		w.logger.DebugContext(ctx, "Pruned mirrored record IDs", applog.FieldCount, removed)
	}
	return removed
}

// Consumer is satisfied by *amqp.Client.
type Consumer interface {
	Consume(ctx context.Context, handler amqp.Handler) error
}
