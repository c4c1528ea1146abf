package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/apc/pkg/domain"
)

// Store implements ports.ContextStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Context
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Context),
	}
}

// Save persists the context in memory.
func (s *Store) Save(ctx context.Context, sessionID string, c *domain.Context) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := c.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = copied
	return nil
}

// Load retrieves the context from memory.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	// Copy on read so callers can't mutate the stored context by pointer
	return c.Clone(), nil
}

// Delete removes the context.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns active sessions in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	sort.Strings(sessions)
	return sessions, nil
}
