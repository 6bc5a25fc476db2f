package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// RowTarget is the offsite copy the worker keeps in step with the
// transaction store.
type RowTarget interface {
	Append(ctx context.Context, t core.Transaction) error
	Delete(ctx context.Context, id string) error
}

// SyncWorker applies transaction sync and delete messages to a RowTarget.
type SyncWorker struct {
	repo   storage.Repository
	target RowTarget
}

func NewSyncWorker(repo storage.Repository, target RowTarget) *SyncWorker {
	return &SyncWorker{repo: repo, target: target}
}

// HandleSyncMessage looks the transaction up by ID and appends it to the
// target. A transaction missing from the store is dropped, not retried:
// it was deleted after the message was published.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID)

	transactions, err := w.repo.Transactions(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}

	for _, t := range transactions {
		if t.ID == msg.ID {
			if err := w.target.Append(ctx, t); err != nil {
				return fmt.Errorf("append transaction %s: %w", t.ID, err)
			}
			return nil
		}
	}

	slog.WarnContext(ctx, "Transaction no longer in store, dropping sync message",
		"id", msg.ID,
		"published_at", msg.Timestamp)
	return nil
}

// HandleDeleteMessage removes the transaction's row from the target.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.DeleteMessage) error {
	slog.InfoContext(ctx, "Processing delete message", "id", msg.ID)

	if err := w.target.Delete(ctx, msg.ID); err != nil {
		return fmt.Errorf("delete transaction %s: %w", msg.ID, err)
	}
	return nil
}

// StartupSyncCheck logs the size of the store on worker startup so an
// operator can tell whether the worker is connected to the right data.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	transactions, err := w.repo.Transactions(ctx)
	if err != nil {
		return fmt.Errorf("load transactions for startup check: %w", err)
	}
	slog.InfoContext(ctx, "Sync worker ready", "transactions", len(transactions))
	return nil
}
