package memory

import (
	"context"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

// ChangeStore implements ports.ChangeStore in memory.
type ChangeStore struct {
	logs map[string][]domain.PendingChange
	mu   sync.RWMutex
}

// NewChangeStore creates an empty change store.
func NewChangeStore() *ChangeStore {
	return &ChangeStore{logs: make(map[string][]domain.PendingChange)}
}

// Append adds a change to the end of the session's log.
func (s *ChangeStore) Append(ctx context.Context, sessionID string, change domain.PendingChange) error {
	change.Args = domain.CloneProps(change.Args)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[sessionID] = append(s.logs[sessionID], change)
	return nil
}

// List returns a copy of the session's log.
func (s *ChangeStore) List(ctx context.Context, sessionID string) ([]domain.PendingChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.logs[sessionID]
	out := make([]domain.PendingChange, len(log))
	for i, c := range log {
		c.Args = domain.CloneProps(c.Args)
		out[i] = c
	}
	return out, nil
}

// Len returns the number of changes in the session's log.
func (s *ChangeStore) Len(ctx context.Context, sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs[sessionID]), nil
}

// Clear empties the session's log.
func (s *ChangeStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, sessionID)
	return nil
}
