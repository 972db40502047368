package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// ConversationState is the turn log of one session.
// It rewrites follow-up questions into standalone questions using the log.
//
// The log is guarded by its own lock so it can be read while a request is in
// flight; serialising requests is the AnswerEngine's job.
type ConversationState struct {
	mu    sync.RWMutex
	turns []domain.Turn

	llm     driven.LLMService
	prompts driven.PromptStore
	opts    driven.GenerateOptions
	timeout time.Duration

	store     driven.SessionStore
	sessionID string
}

// NewConversationState creates an empty conversation. The prompt store is
// optional; without it the built-in condense prompt is used.
func NewConversationState(
	llm driven.LLMService,
	prompts driven.PromptStore,
	opts driven.GenerateOptions,
	timeout time.Duration,
) *ConversationState {
	return &ConversationState{
		llm:     llm,
		prompts: prompts,
		opts:    opts,
		timeout: timeout,
	}
}

// SetSessionStore persists the conversation under sessionID.
// Appends write through to the store and Clear removes persisted turns.
func (c *ConversationState) SetSessionStore(store driven.SessionStore, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = store
	c.sessionID = sessionID
}

// Restore replaces the in-memory log with the session's persisted turns.
func (c *ConversationState) Restore(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	turns, err := c.store.ListTurns(ctx, c.sessionID)
	if err != nil {
		return fmt.Errorf("restore session %s: %w", c.sessionID, err)
	}
	c.turns = turns
	logger.Debug("Restored %d turns for session %s", len(turns), c.sessionID)
	return nil
}

// Condense rewrites followUp into a standalone question using the history.
// With no history the follow-up is returned unchanged and no generation
// happens. An empty rewrite also falls back to the follow-up.
func (c *ConversationState) Condense(ctx context.Context, followUp string) (string, error) {
	history := c.History()
	if len(history) == 0 {
		return followUp, nil
	}
	if c.llm == nil {
		return "", fmt.Errorf("condense question: %w: %w", domain.ErrGenerationFailure, domain.ErrLLMUnavailable)
	}

	prompt := fmt.Sprintf(c.template(), RenderHistory(history), followUp)

	gctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	done := logger.Elapsed("condense question")
	out, err := c.llm.Generate(gctx, prompt, c.opts)
	done()
	if err != nil {
		return "", externalFailure(gctx, "condense question", domain.ErrGenerationFailure, err)
	}

	standalone := strings.TrimSpace(out)
	if standalone == "" {
		logger.Warn("Condense returned empty text, using follow-up as is")
		return followUp, nil
	}
	logger.Debug("Standalone question: %q", standalone)
	return standalone, nil
}

// Append adds a turn to the end of the log, persisting it first when a
// session store is set. On a store error the log is unchanged.
func (c *ConversationState) Append(ctx context.Context, turn domain.Turn) error {
	turn.SourceChunkIDs = slices.Clone(turn.SourceChunkIDs)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store != nil {
		if err := c.store.AppendTurn(ctx, c.sessionID, turn); err != nil {
			return fmt.Errorf("persist turn: %w", err)
		}
	}
	c.turns = append(c.turns, turn)
	return nil
}

// Clear empties the log, including persisted turns.
func (c *ConversationState) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store != nil {
		if err := c.store.ClearTurns(ctx, c.sessionID); err != nil {
			return fmt.Errorf("clear session %s: %w", c.sessionID, err)
		}
	}
	c.turns = nil
	return nil
}

// History returns a snapshot of the log, oldest first.
func (c *ConversationState) History() []domain.Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Turn, len(c.turns))
	for i, t := range c.turns {
		t.SourceChunkIDs = slices.Clone(t.SourceChunkIDs)
		out[i] = t
	}
	return out
}

// Len returns the number of committed turns.
func (c *ConversationState) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// template returns the condense prompt, falling back to the built-in one
// when the store has none or it does not take two strings.
func (c *ConversationState) template() string {
	return loadTemplate(c.prompts, driven.PromptCondenseQuestion, domain.DefaultCondensePrompt)
}

// RenderHistory formats turns for the condense prompt, one exchange
// ("Human: ...\nAssistant: ...") per turn in order.
func RenderHistory(turns []domain.Turn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("Human: ")
		b.WriteString(t.Question)
		b.WriteString("\nAssistant: ")
		b.WriteString(t.Answer)
	}
	return b.String()
}

// loadTemplate loads a two-placeholder prompt template from store.
func loadTemplate(store driven.PromptStore, name, fallback string) string {
	if store == nil {
		return fallback
	}
	tmpl, err := store.Load(name)
	if err != nil {
		logger.Warn("Failed to load prompt %s: %v", name, err)
		return fallback
	}
	if strings.Count(tmpl, "%s") != 2 {
		logger.Warn("Prompt %s must contain exactly two %%s placeholders, using default", name)
		return fallback
	}
	return tmpl
}
