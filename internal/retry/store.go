package retry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/asdfsd44/whatsapp-auto-reply/internal/model"
)

// Store is the durable retry list: a flat JSON array on local disk, read and
// written whole-file. A single process owns the file; the mutex covers the
// enqueue/replace race between the webhook path and the worker.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Enqueue appends one item and persists immediately.
func (s *Store) Enqueue(item model.RetryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.loadLocked()
	items = append(items, item)
	return s.writeLocked(items)
}

// Drain loads the full persisted list for one processing pass. An unreadable
// or corrupt file degrades to an empty list; the condition is logged, never
// surfaced.
func (s *Store) Drain() []model.RetryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Replace overwrites the persisted list with the survivors of a pass.
func (s *Store) Replace(items []model.RetryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(items)
}

func (s *Store) loadLocked() []model.RetryItem {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("retry store unreadable, treating as empty", "path", s.path, "error", err)
		}
		return nil
	}

	var items []model.RetryItem
	if err := json.Unmarshal(data, &items); err != nil {
		slog.Warn("retry store corrupt, treating as empty", "path", s.path, "error", err)
		return nil
	}
	return items
}

// writeLocked goes through a temp file and rename so a crash mid-write
// leaves the previous list intact.
func (s *Store) writeLocked(items []model.RetryItem) error {
	if items == nil {
		items = []model.RetryItem{}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("retry store write: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("retry store write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("retry store write: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("retry store write: %w", err)
	}
	return nil
}
