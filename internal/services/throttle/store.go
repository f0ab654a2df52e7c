package throttle

import (
	"sync"
	"time"
)

// Store tracks the last emission time per alert key and suppresses
// repeats inside the cooldown window. Safe for concurrent use by the
// frame-processing worker and any auxiliary producers sharing it.
type Store struct {
	mu          sync.Mutex
	cooldown    time.Duration
	lastEmitted map[string]time.Time
}

// NewStore creates a throttle store with the given cooldown
func NewStore(cooldown time.Duration) *Store {
	return &Store{
		cooldown:    cooldown,
		lastEmitted: make(map[string]time.Time),
	}
}

// Admit reports whether an alert for key may be emitted at now. On
// accept the emission time is recorded before the lock is released, so
// two concurrent calls inside one cooldown window admit exactly one.
// A rejected call never refreshes the timestamp.
func (s *Store) Admit(key string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, exists := s.lastEmitted[key]
	if exists && now.Sub(last) < s.cooldown {
		return false
	}

	s.lastEmitted[key] = now
	return true
}

// LastEmitted returns the recorded emission time for key, if any
func (s *Store) LastEmitted(key string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.lastEmitted[key]
	return last, ok
}

// Len returns the number of distinct keys tracked
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lastEmitted)
}
