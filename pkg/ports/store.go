package ports

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// TreeStore persists the latest snapshot of each render session.
type TreeStore interface {
	// Save stores the snapshot under snap.SessionID, replacing any previous one.
	Save(ctx context.Context, snap *domain.Snapshot) error

	// Load retrieves the snapshot of a session.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Snapshot, error)

	// Delete removes the snapshot of a session.
	Delete(ctx context.Context, sessionID string) error

	// List returns the ids of all stored sessions.
	List(ctx context.Context) ([]string, error)
}

// ChangeStore holds the pending changes of each session in insertion order.
type ChangeStore interface {
	// Append adds a change at the end of the session's log.
	Append(ctx context.Context, sessionID string, change domain.PendingChange) error

	// List returns the session's changes, oldest first. Unknown sessions yield an empty list.
	List(ctx context.Context, sessionID string) ([]domain.PendingChange, error)

	// Len returns the number of changes recorded for the session.
	Len(ctx context.Context, sessionID string) (int, error)

	// Clear empties the session's log.
	Clear(ctx context.Context, sessionID string) error
}
