package repository

import (
	"context"
	"sync"

	"sentinel-safety-go/internal/models"
)

// MemoryStore keeps the alert log in process memory. Used when no
// DATABASE_URL is configured and as the test double for the pipeline.
type MemoryStore struct {
	mu     sync.RWMutex
	alerts []models.Alert
}

// NewMemoryStore creates an empty in-memory alert log
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append stores the alert, assigning identifier and timestamp when absent
func (s *MemoryStore) Append(ctx context.Context, alert models.Alert) (models.Alert, error) {
	alert = Finalize(alert)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alert)
	return alert, nil
}

// ListRecent returns up to limit alerts, newest first
func (s *MemoryStore) ListRecent(ctx context.Context, limit int) ([]models.Alert, error) {
	limit = ClampLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.alerts)
	if limit > n {
		limit = n
	}
	out := make([]models.Alert, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.alerts[i])
	}
	return out, nil
}

// Len returns the number of stored alerts
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts)
}

// Shutdown is a no-op for the in-memory store
func (s *MemoryStore) Shutdown(ctx context.Context) error { return nil }

var _ models.AlertStore = (*MemoryStore)(nil)
