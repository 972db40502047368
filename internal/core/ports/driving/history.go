package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// HistoryService browses and manages persisted conversations.
type HistoryService interface {
	// List returns all sessions, most recently updated first.
	List(ctx context.Context) ([]domain.Session, error)

	// Get returns a session and its turns.
	Get(ctx context.Context, id string) (*domain.Session, []domain.Turn, error)

	// Clear removes a session's turns but keeps the session.
	Clear(ctx context.Context, id string) error

	// Delete removes a session entirely.
	Delete(ctx context.Context, id string) error
}
