package rotation

import (
	"context"
	"log"
	"time"

	"github.com/teamops/curator-rotation/entity"
)

// Notifier is the outbound messaging collaborator.
type Notifier interface {
	Announce(ctx context.Context, task *entity.NotificationTask) error
}

// OutboxWorker drains the notification outbox on an interval. The
// ledger write only enqueues; delivery happens here, with failures
// recorded on the row and retried until the attempt cap, so nothing
// is silently swallowed.
type OutboxWorker struct {
	outbox   OutboxStore
	notifier Notifier

	interval    time.Duration
	maxAttempts int
	batchSize   int
}

func NewOutboxWorker(outbox OutboxStore, notifier Notifier) *OutboxWorker {
	return &OutboxWorker{
		outbox:      outbox,
		notifier:    notifier,
		interval:    30 * time.Second,
		maxAttempts: 5,
		batchSize:   10,
	}
}

// Run blocks until ctx is canceled.
func (w *OutboxWorker) Run(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.drain(ctx)
		}
	}
}

func (w *OutboxWorker) drain(ctx context.Context) {
	// Rows at the attempt cap are excluded by the store so they can
	// never crowd newer tasks out of the batch.
	tasks, err := w.outbox.Pending(ctx, w.batchSize, w.maxAttempts)
	if err != nil {
		log.Printf("List pending notifications: %v.", err)
		return
	}

	for _, task := range tasks {
		if err := w.notifier.Announce(ctx, task); err != nil {
			log.Printf("Announce assignment %d: %v.", task.AssignmentID, err)
			if err := w.outbox.MarkFailed(ctx, task.ID, err.Error()); err != nil {
				log.Printf("Mark notification failed: %v.", err)
			}
			continue
		}

		if err := w.outbox.MarkSent(ctx, task.ID); err != nil {
			log.Printf("Mark notification sent: %v.", err)
		}
	}
}
