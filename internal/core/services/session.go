package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// SessionService wires ingestion, retrieval and conversation into sessions.
type SessionService struct {
	ingest   driving.IngestService
	embedder driven.EmbeddingService
	llm      driven.LLMService
	prompts  driven.PromptStore
	store    driven.SessionStore
	settings domain.AppSettings
	now      func() time.Time
}

// NewSessionService creates a session service. The prompt and session
// stores are optional; without a session store conversations are not kept.
func NewSessionService(
	ingest driving.IngestService,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	store driven.SessionStore,
	settings domain.AppSettings,
) *SessionService {
	return &SessionService{
		ingest:   ingest,
		embedder: embedder,
		llm:      llm,
		prompts:  prompts,
		store:    store,
		settings: settings,
		now:      time.Now,
	}
}

// Open ingests the document and starts or resumes its conversation.
func (s *SessionService) Open(ctx context.Context, path string, opts driving.OpenOptions) (*driving.Session, error) {
	opts.Ingest = s.ingestOptions(opts.Ingest)

	indexed, err := s.ingest.Ingest(ctx, path, opts.Ingest)
	if err != nil {
		return nil, err
	}

	info, resumed, err := s.session(ctx, indexed.Document, opts.SessionID)
	if err != nil {
		return nil, err
	}

	generate := driven.GenerateOptions{
		MaxTokens:   s.settings.LLM.MaxTokens,
		Temperature: s.settings.LLM.Temperature,
	}
	conversation := NewConversationState(s.llm, s.prompts, generate, s.settings.Timeouts.Generate)
	if s.store != nil {
		conversation.SetSessionStore(s.store, info.ID)
		if resumed {
			if err := conversation.Restore(ctx); err != nil {
				return nil, err
			}
		}
	}

	retriever := NewRetriever(indexed.Index, s.embedder, s.settings.Timeouts.Embed)
	engine := NewAnswerEngine(conversation, retriever, s.llm, s.prompts, EngineConfig{
		SessionID:       info.ID,
		GenerateOptions: generate,
		GenerateTimeout: s.settings.Timeouts.Generate,
	})

	logger.Info("Opened session %s over %s (%d chunks, %d prior turns)",
		info.ID, indexed.Document.URI, len(indexed.Chunks), conversation.Len())

	return &driving.Session{
		Info:     info,
		Document: indexed,
		Answer:   engine,
		Options:  opts,
		Resumed:  resumed,
	}, nil
}

// Reindex re-ingests the document with the session's options and swaps the
// new index in. On failure the old index stays in place.
func (s *SessionService) Reindex(ctx context.Context, session *driving.Session) error {
	if session == nil || session.Document == nil || session.Answer == nil {
		return fmt.Errorf("reindex: %w: session is not open", domain.ErrInvalidArgument)
	}

	indexed, err := s.ingest.Ingest(ctx, session.Document.Document.URI, session.Options.Ingest)
	if err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	session.Answer.ReplaceIndex(indexed.Index)
	session.Document = indexed
	return nil
}

// session returns the persisted session to resume, or a new one.
func (s *SessionService) session(
	ctx context.Context, doc *domain.Document, id string,
) (domain.Session, bool, error) {
	if id != "" {
		if s.store == nil {
			return domain.Session{}, false, fmt.Errorf("resume session %s: %w: history is disabled",
				id, domain.ErrInvalidArgument)
		}
		existing, err := s.store.GetSession(ctx, id)
		if err != nil {
			return domain.Session{}, false, fmt.Errorf("resume session %s: %w", id, err)
		}
		if existing.DocumentURI != doc.URI {
			return domain.Session{}, false, fmt.Errorf("resume session %s: %w: it belongs to %s",
				id, domain.ErrInvalidArgument, existing.DocumentURI)
		}
		return *existing, true, nil
	}

	now := s.now().UTC()
	info := domain.Session{
		ID:          uuid.NewString(),
		DocumentURI: doc.URI,
		Title:       doc.Title,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if s.store != nil {
		if err := s.store.CreateSession(ctx, info); err != nil {
			return domain.Session{}, false, fmt.Errorf("create session: %w", err)
		}
	}
	return info, false, nil
}

// ingestOptions fills unset chunking options from settings. An explicit
// chunk size keeps its overlap, even zero.
func (s *SessionService) ingestOptions(opts domain.IngestOptions) domain.IngestOptions {
	if opts.ChunkSize == 0 {
		opts.ChunkSize = s.settings.Chunking.Size
		if opts.Overlap == 0 {
			opts.Overlap = s.settings.Chunking.Overlap
		}
	}
	if !s.settings.Cache.Enabled {
		opts.DisableCache = true
	}
	return opts
}
