package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/asdfsd44/whatsapp-auto-reply/internal/model"
)

// Resender performs one redelivery attempt without re-enqueueing on failure.
// The worker owns the item's lifecycle during a pass; duplicating it into the
// queue again would double entries.
type Resender interface {
	Resend(ctx context.Context, item model.RetryItem) bool
}

// Worker runs one retry pass per scheduler tick. Fixed-delay backoff: every
// due item is attempted at most once per interval regardless of its attempt
// count. Exhausted items are dropped for good.
type Worker struct {
	store      *Store
	sender     Resender
	interval   time.Duration
	maxRetries int

	now func() time.Time
}

func NewWorker(store *Store, sender Resender, interval time.Duration, maxRetries int) *Worker {
	return &Worker{
		store:      store,
		sender:     sender,
		interval:   interval,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

func (w *Worker) Tick(ctx context.Context) {
	items := w.store.Drain()
	if len(items) == 0 {
		return
	}

	now := w.now()
	var keep []model.RetryItem

	for _, item := range items {
		if item.Attempts >= w.maxRetries {
			slog.Info("retry exhausted, dropping",
				"id", item.ID,
				"destination", item.Destination,
				"attempts", item.Attempts,
			)
			continue
		}

		if now.Sub(item.LastAttemptAt) < w.interval {
			keep = append(keep, item)
			continue
		}

		if w.sender.Resend(ctx, item) {
			slog.Info("retry delivered",
				"id", item.ID,
				"destination", item.Destination,
				"attempts", item.Attempts,
			)
			continue
		}

		item.Attempts++
		item.LastAttemptAt = now
		keep = append(keep, item)
	}

	if err := w.store.Replace(keep); err != nil {
		slog.Error("retry store replace failed", "error", err)
	}
}
