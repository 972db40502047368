package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// SessionService opens question-answering sessions over documents.
type SessionService interface {
	// Open ingests the document at path and returns a session ready for
	// questions. A non-empty opts.SessionID resumes a persisted conversation.
	Open(ctx context.Context, path string, opts OpenOptions) (*Session, error)

	// Reindex re-ingests the session's document and swaps the new index in.
	Reindex(ctx context.Context, session *Session) error
}

// OpenOptions controls how a session is opened.
type OpenOptions struct {
	// Ingest controls chunking and caching.
	Ingest domain.IngestOptions

	// SessionID resumes an existing session when set.
	SessionID string
}

// Session is an open conversation about one indexed document.
type Session struct {
	// Info describes the conversation.
	Info domain.Session

	// Document is the indexed document.
	Document *IndexedDocument

	// Answer answers questions within the conversation.
	Answer AnswerService

	// Options are the options the session was opened with.
	Options OpenOptions

	// Resumed is true when earlier turns were restored.
	Resumed bool
}
