package ports

import (
	"context"

	"github.com/lablia/docflow/pkg/domain"
)

// StateStore persists session state. The in-memory adapter keeps sessions
// for the process lifetime; the redis adapter makes them durable.
type StateStore interface {
	// Save persists the session under its ID.
	Save(ctx context.Context, sessionID string, session *domain.Session) error

	// Load retrieves a session.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of known sessions.
	List(ctx context.Context) ([]string, error)
}

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error
