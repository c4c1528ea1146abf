package ports

import (
	"context"

	"github.com/aretw0/apc/pkg/domain"
)

// ContextStore defines the interface for persisting conversation contexts.
// The coordinator never persists anything itself; hosts use a ContextStore to resume
// a conversation across turns and processes.
type ContextStore interface {
	// Save persists the context for a given session ID.
	Save(ctx context.Context, sessionID string, c *domain.Context) error

	// Load retrieves the context for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Context, error)

	// Delete removes the context for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns all active session IDs.
	List(ctx context.Context) ([]string, error)
}
