package retry

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/asdfsd44/whatsapp-auto-reply/internal/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "retry_queue.json"))
}

func item(id string, attempts int, last time.Time) model.RetryItem {
	return model.RetryItem{
		ID:            id,
		Destination:   "5534988887777",
		PhoneNumberID: "1234567890",
		Content:       model.TextContent("hello"),
		Attempts:      attempts,
		LastAttemptAt: last,
	}
}

func TestStore_EnqueueDrain_Roundtrip(t *testing.T) {
	t.Parallel()

	s := testStore(t)

	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	a := item("a", 1, now)
	b := item("b", 2, now.Add(time.Minute))

	if err := s.Enqueue(a); err != nil {
		t.Fatalf("Enqueue(a) error: %v", err)
	}
	if err := s.Enqueue(b); err != nil {
		t.Fatalf("Enqueue(b) error: %v", err)
	}

	got := s.Drain()
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if !reflect.DeepEqual(got[0], a) || !reflect.DeepEqual(got[1], b) {
		t.Fatalf("drained items differ: %+v", got)
	}
}

func TestStore_Drain_MissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	s := testStore(t)
	if got := s.Drain(); len(got) != 0 {
		t.Fatalf("expected empty drain on missing file, got %d items", len(got))
	}
}

func TestStore_Drain_CorruptFileIsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "retry_queue.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	s := NewStore(path)
	if got := s.Drain(); len(got) != 0 {
		t.Fatalf("expected empty drain on corrupt file, got %d items", len(got))
	}

	// The queue must still accept new work afterwards.
	if err := s.Enqueue(item("a", 1, time.Now())); err != nil {
		t.Fatalf("Enqueue after corruption error: %v", err)
	}
	if got := s.Drain(); len(got) != 1 {
		t.Fatalf("expected 1 item after re-enqueue, got %d", len(got))
	}
}

func TestStore_DrainThenReplace_IsIdempotent(t *testing.T) {
	t.Parallel()

	s := testStore(t)

	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	for _, it := range []model.RetryItem{item("a", 1, now), item("b", 3, now)} {
		if err := s.Enqueue(it); err != nil {
			t.Fatalf("Enqueue error: %v", err)
		}
	}

	first := s.Drain()
	if err := s.Replace(first); err != nil {
		t.Fatalf("Replace error: %v", err)
	}

	second := s.Drain()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("drain/replace roundtrip changed the queue:\nfirst=%+v\nsecond=%+v", first, second)
	}
}

func TestStore_Replace_Empties(t *testing.T) {
	t.Parallel()

	s := testStore(t)
	if err := s.Enqueue(item("a", 1, time.Now())); err != nil {
		t.Fatalf("Enqueue error: %v", err)
	}

	if err := s.Replace(nil); err != nil {
		t.Fatalf("Replace(nil) error: %v", err)
	}
	if got := s.Drain(); len(got) != 0 {
		t.Fatalf("expected empty queue after Replace(nil), got %d items", len(got))
	}
}
