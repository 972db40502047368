package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore is an in-memory implementation of driven.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	turns    map[string][]domain.Turn
	now      func() time.Time
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.Session),
		turns:    make(map[string][]domain.Turn),
		now:      time.Now,
	}
}

// CreateSession stores a new session.
func (s *SessionStore) CreateSession(_ context.Context, session domain.Session) error {
	if session.ID == "" {
		return fmt.Errorf("create session: %w: empty id", domain.ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; ok {
		return fmt.Errorf("create session %s: %w: already exists", session.ID, domain.ErrInvalidArgument)
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = s.now()
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = session.CreatedAt
	}
	s.sessions[session.ID] = session
	return nil
}

// GetSession retrieves a session by ID.
func (s *SessionStore) GetSession(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &session, nil
}

// ListSessions returns all sessions, most recently updated first.
func (s *SessionStore) ListSessions(_ context.Context) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// AppendTurn adds a turn to the end of a session's log.
func (s *SessionStore) AppendTurn(_ context.Context, sessionID string, turn domain.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	turn.SourceChunkIDs = slices.Clone(turn.SourceChunkIDs)
	s.turns[sessionID] = append(s.turns[sessionID], turn)
	session.UpdatedAt = s.now()
	s.sessions[sessionID] = session
	return nil
}

// ListTurns returns a session's turns in commit order.
func (s *SessionStore) ListTurns(_ context.Context, sessionID string) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return nil, domain.ErrNotFound
	}
	turns := s.turns[sessionID]
	out := make([]domain.Turn, len(turns))
	for i, t := range turns {
		t.SourceChunkIDs = slices.Clone(t.SourceChunkIDs)
		out[i] = t
	}
	return out, nil
}

// ClearTurns removes all turns of a session, keeping the session.
func (s *SessionStore) ClearTurns(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.turns, sessionID)
	session.UpdatedAt = s.now()
	s.sessions[sessionID] = session
	return nil
}

// DeleteSession removes a session and its turns.
func (s *SessionStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	delete(s.turns, id)
	return nil
}
