package retry

import (
	"context"
	"testing"
	"time"

	"github.com/asdfsd44/whatsapp-auto-reply/internal/model"
)

type scriptedSender struct {
	succeed bool
	calls   []model.RetryItem
}

func (s *scriptedSender) Resend(ctx context.Context, item model.RetryItem) bool {
	s.calls = append(s.calls, item)
	return s.succeed
}

func newTestWorker(t *testing.T, sender *scriptedSender, maxRetries int) (*Worker, *Store) {
	t.Helper()
	store := testStore(t)
	w := NewWorker(store, sender, 60*time.Second, maxRetries)
	return w, store
}

func TestWorker_SkipsItemsNotYetDue(t *testing.T) {
	t.Parallel()

	sender := &scriptedSender{succeed: true}
	w, store := newTestWorker(t, sender, 5)

	t0 := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return t0.Add(30 * time.Second) }

	if err := store.Enqueue(item("a", 1, t0)); err != nil {
		t.Fatalf("Enqueue error: %v", err)
	}

	w.Tick(context.Background())

	if len(sender.calls) != 0 {
		t.Fatalf("expected no resend for a not-yet-due item, got %d", len(sender.calls))
	}

	got := store.Drain()
	if len(got) != 1 || got[0].Attempts != 1 || !got[0].LastAttemptAt.Equal(t0) {
		t.Fatalf("expected item kept unchanged, got %+v", got)
	}
}

func TestWorker_DropsOnSuccess(t *testing.T) {
	t.Parallel()

	sender := &scriptedSender{succeed: true}
	w, store := newTestWorker(t, sender, 5)

	t0 := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return t0.Add(61 * time.Second) }

	if err := store.Enqueue(item("a", 2, t0)); err != nil {
		t.Fatalf("Enqueue error: %v", err)
	}

	w.Tick(context.Background())

	if len(sender.calls) != 1 {
		t.Fatalf("expected 1 resend, got %d", len(sender.calls))
	}
	if got := store.Drain(); len(got) != 0 {
		t.Fatalf("expected empty queue after successful resend, got %+v", got)
	}
}

func TestWorker_AttemptsMonotonicUntilDropped(t *testing.T) {
	// Interval 60s, max 3 attempts. Fails at t=0 with
	// attempts=1, fails again at t=60 and t=120, and by t=180 the queue
	// is empty for good.
	t.Parallel()

	sender := &scriptedSender{succeed: false}
	w, store := newTestWorker(t, sender, 3)

	t0 := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	if err := store.Enqueue(item("a", 1, t0)); err != nil {
		t.Fatalf("Enqueue error: %v", err)
	}

	prev := 1
	for _, offset := range []time.Duration{60 * time.Second, 120 * time.Second} {
		now := t0.Add(offset)
		w.now = func() time.Time { return now }
		w.Tick(context.Background())

		got := store.Drain()
		if len(got) != 1 {
			t.Fatalf("at +%v: expected item still queued, got %d items", offset, len(got))
		}
		if got[0].Attempts <= prev {
			t.Fatalf("at +%v: attempts not increasing: %d -> %d", offset, prev, got[0].Attempts)
		}
		if !got[0].LastAttemptAt.Equal(now) {
			t.Fatalf("at +%v: lastAttemptAt not updated: %v", offset, got[0].LastAttemptAt)
		}
		prev = got[0].Attempts
	}

	if prev != 3 {
		t.Fatalf("expected attempts=3 after two failed retries, got %d", prev)
	}

	// Exhausted: dropped without another attempt.
	callsBefore := len(sender.calls)
	w.now = func() time.Time { return t0.Add(180 * time.Second) }
	w.Tick(context.Background())

	if len(sender.calls) != callsBefore {
		t.Fatalf("expected no resend for an exhausted item, got %d extra", len(sender.calls)-callsBefore)
	}
	if got := store.Drain(); len(got) != 0 {
		t.Fatalf("expected empty queue at t=180, got %+v", got)
	}
}

func TestWorker_MixedPass(t *testing.T) {
	t.Parallel()

	sender := &scriptedSender{succeed: false}
	w, store := newTestWorker(t, sender, 5)

	t0 := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return t0.Add(90 * time.Second) }

	seed := []model.RetryItem{
		item("due", 1, t0),                    // retried, fails, kept
		item("fresh", 1, t0.Add(time.Minute)), // not due, kept unchanged
		item("exhausted", 5, t0),              // dropped
	}
	for _, it := range seed {
		if err := store.Enqueue(it); err != nil {
			t.Fatalf("Enqueue error: %v", err)
		}
	}

	w.Tick(context.Background())

	if len(sender.calls) != 1 || sender.calls[0].ID != "due" {
		t.Fatalf("expected exactly the due item resent, got %+v", sender.calls)
	}

	got := store.Drain()
	if len(got) != 2 {
		t.Fatalf("expected 2 survivors, got %d", len(got))
	}

	byID := map[string]model.RetryItem{}
	for _, it := range got {
		byID[it.ID] = it
	}
	if it, ok := byID["due"]; !ok || it.Attempts != 2 {
		t.Fatalf("expected due item kept with attempts=2, got %+v", byID["due"])
	}
	if it, ok := byID["fresh"]; !ok || it.Attempts != 1 {
		t.Fatalf("expected fresh item kept unchanged, got %+v", byID["fresh"])
	}
	if _, ok := byID["exhausted"]; ok {
		t.Fatalf("expected exhausted item dropped")
	}
}
