package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// sessionStore implements driven.SessionStore.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

// now is the clock used for session timestamps, in UTC so stored times sort as text.
var now = func() time.Time { return time.Now().UTC() }

// CreateSession stores a new session.
func (s *sessionStore) CreateSession(ctx context.Context, session domain.Session) error {
	if session.ID == "" {
		return fmt.Errorf("create session: %w: empty id", domain.ErrInvalidArgument)
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now()
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = session.CreatedAt
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sessions (id, document_uri, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, session.ID, session.DocumentURI, session.Title, session.CreatedAt.UTC(), session.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("create session %s: %w: already exists", session.ID, domain.ErrInvalidArgument)
	}
	return nil
}

// GetSession retrieves a session by ID.
func (s *sessionStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_uri, title, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id)

	var session domain.Session
	err := row.Scan(&session.ID, &session.DocumentURI, &session.Title, &session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return &session, nil
}

// ListSessions returns all sessions, most recently updated first.
func (s *sessionStore) ListSessions(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_uri, title, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session //nolint:prealloc // size unknown from query
	for rows.Next() {
		var session domain.Session
		if err := rows.Scan(&session.ID, &session.DocumentURI, &session.Title,
			&session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// AppendTurn adds a turn to the end of a session's log.
func (s *sessionStore) AppendTurn(ctx context.Context, sessionID string, turn domain.Turn) error {
	ids := turn.SourceChunkIDs
	if ids == nil {
		ids = []int{}
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshaling source chunk ids: %w", err)
	}
	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = now()
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`, now(), sessionID)
	if err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO turns (session_id, seq, question, answer, source_chunk_ids, created_at)
		SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ? FROM turns WHERE session_id = ?
	`, sessionID, turn.Question, turn.Answer, string(idsJSON), createdAt.UTC(), sessionID)
	if err != nil {
		return fmt.Errorf("saving turn: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing turn: %w", err)
	}
	return nil
}

// ListTurns returns a session's turns in commit order.
func (s *sessionStore) ListTurns(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT question, answer, source_chunk_ids, created_at
		FROM turns WHERE session_id = ? ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.Turn //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			turn    domain.Turn
			idsJSON string
		)
		if err := rows.Scan(&turn.Question, &turn.Answer, &idsJSON, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		if err := json.Unmarshal([]byte(idsJSON), &turn.SourceChunkIDs); err != nil {
			return nil, fmt.Errorf("unmarshaling source chunk ids: %w", err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}
	return turns, nil
}

// ClearTurns removes all turns of a session, keeping the session.
func (s *sessionStore) ClearTurns(ctx context.Context, sessionID string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`, now(), sessionID)
	if err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("deleting turns: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing clear: %w", err)
	}
	return nil
}

// DeleteSession removes a session and its turns.
func (s *sessionStore) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
