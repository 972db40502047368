package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// HistoryService browses persisted conversations.
type HistoryService struct {
	store driven.SessionStore
}

// NewHistoryService creates a history service over store.
func NewHistoryService(store driven.SessionStore) *HistoryService {
	return &HistoryService{store: store}
}

// List returns all sessions, most recently updated first.
func (s *HistoryService) List(ctx context.Context) ([]domain.Session, error) {
	sessions, err := s.store.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Get returns a session and its turns.
func (s *HistoryService) Get(ctx context.Context, id string) (*domain.Session, []domain.Turn, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get session %s: %w", id, err)
	}
	turns, err := s.store.ListTurns(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list turns of %s: %w", id, err)
	}
	return session, turns, nil
}

// Clear removes a session's turns but keeps the session.
func (s *HistoryService) Clear(ctx context.Context, id string) error {
	if _, err := s.store.GetSession(ctx, id); err != nil {
		return fmt.Errorf("get session %s: %w", id, err)
	}
	if err := s.store.ClearTurns(ctx, id); err != nil {
		return fmt.Errorf("clear session %s: %w", id, err)
	}
	return nil
}

// Delete removes a session entirely.
func (s *HistoryService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
