package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// AnswerService answers questions about one indexed document, keeping the
// conversation so follow-ups can refer back to earlier turns.
type AnswerService interface {
	// Ask answers a follow-up question using the k most relevant chunks.
	// On failure the returned error is a *domain.StageError naming the failing
	// stage, and the conversation is left unchanged.
	Ask(ctx context.Context, question string, k int) (*domain.Answer, error)

	// State returns the stage the current request is in.
	State() domain.EngineState

	// History returns a copy of the committed turns, oldest first.
	History() []domain.Turn

	// Reset clears the conversation.
	Reset(ctx context.Context) error

	// SessionID returns the identifier of the conversation.
	SessionID() string

	// Chunks returns the chunks of the indexed document.
	Chunks() []domain.Chunk

	// ReplaceIndex answers later questions from index. It waits for an
	// in-flight request.
	ReplaceIndex(index driven.VectorIndex)
}
