package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// SessionStore persists conversations and their turns.
// This is an optional store - when nil, history lives only in memory.
type SessionStore interface {
	// CreateSession stores a new session.
	CreateSession(ctx context.Context, session domain.Session) error

	// GetSession retrieves a session by ID.
	// Returns domain.ErrNotFound when it does not exist.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// ListSessions returns all sessions, most recently updated first.
	ListSessions(ctx context.Context) ([]domain.Session, error)

	// AppendTurn adds a turn to the end of a session's log.
	AppendTurn(ctx context.Context, sessionID string, turn domain.Turn) error

	// ListTurns returns a session's turns in commit order.
	ListTurns(ctx context.Context, sessionID string) ([]domain.Turn, error)

	// ClearTurns removes all turns of a session, keeping the session.
	ClearTurns(ctx context.Context, sessionID string) error

	// DeleteSession removes a session and its turns.
	DeleteSession(ctx context.Context, id string) error
}
