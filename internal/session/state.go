package session

import (
	"sync"
	"time"
)

// State tracks when the operator last messaged the relay. One instance per
// process, shared between the webhook path and the watchdog. Not persisted:
// a restart forgives any in-progress inactivity window.
type State struct {
	mu             sync.Mutex
	lastActivityAt time.Time
	reminderSentAt *time.Time
}

func NewState() *State {
	return &State{lastActivityAt: time.Now()}
}

// Touch records fresh operator activity and re-arms the reminder.
func (s *State) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivityAt = time.Now()
	s.reminderSentAt = nil
}

// MarkReminded records that a reminder went out for the current window.
func (s *State) MarkReminded(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := at
	s.reminderSentAt = &t
}

func (s *State) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivityAt
}

// Snapshot returns the last activity time and whether a reminder has already
// fired for the current window.
func (s *State) Snapshot() (lastActivity time.Time, reminded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivityAt, s.reminderSentAt != nil
}
