package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure AnswerEngine implements the interface.
var _ driving.AnswerService = (*AnswerEngine)(nil)

// StateObserver is notified of every engine state transition.
// It is called synchronously and must not call back into the engine's Ask.
type StateObserver func(from, to domain.EngineState)

// EngineConfig configures answer generation.
type EngineConfig struct {
	// SessionID identifies the conversation.
	SessionID string

	// GenerateOptions are passed to the LLM for the answer.
	GenerateOptions driven.GenerateOptions

	// GenerateTimeout bounds the answer generation call. Zero disables it.
	GenerateTimeout time.Duration
}

// AnswerEngine answers questions about one document within one conversation.
// Concurrent Ask calls are serialised so each condenses against the history
// the previous one committed.
type AnswerEngine struct {
	mu           sync.Mutex
	conversation *ConversationState
	retriever    *Retriever

	llm     driven.LLMService
	prompts driven.PromptStore
	cfg     EngineConfig

	// stateMu guards state, observer and publication of retriever.
	stateMu  sync.RWMutex
	state    domain.EngineState
	observer StateObserver

	now func() time.Time
}

// NewAnswerEngine creates an engine. The prompt store is optional.
func NewAnswerEngine(
	conversation *ConversationState,
	retriever *Retriever,
	llm driven.LLMService,
	prompts driven.PromptStore,
	cfg EngineConfig,
) *AnswerEngine {
	return &AnswerEngine{
		conversation: conversation,
		retriever:    retriever,
		llm:          llm,
		prompts:      prompts,
		cfg:          cfg,
		state:        domain.StateIdle,
		now:          time.Now,
	}
}

// SetObserver registers fn to receive state transitions.
func (e *AnswerEngine) SetObserver(fn StateObserver) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	e.observer = fn
}

// State returns the stage the current request is in.
func (e *AnswerEngine) State() domain.EngineState {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.state
}

// SessionID returns the identifier of the conversation.
func (e *AnswerEngine) SessionID() string {
	return e.cfg.SessionID
}

// History returns the committed turns, oldest first.
func (e *AnswerEngine) History() []domain.Turn {
	return e.conversation.History()
}

// Chunks returns the chunks of the indexed document.
func (e *AnswerEngine) Chunks() []domain.Chunk {
	e.stateMu.RLock()
	retriever := e.retriever
	e.stateMu.RUnlock()

	if retriever == nil || retriever.Index() == nil {
		return nil
	}
	return retriever.Index().Chunks()
}

// Reset clears the conversation. It waits for an in-flight request.
func (e *AnswerEngine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conversation.Clear(ctx)
}

// SwapIndex replaces the retriever, for example after the document changed.
// It waits for an in-flight request so no request sees two indexes.
func (e *AnswerEngine) SwapIndex(retriever *Retriever) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stateMu.Lock()
	e.retriever = retriever
	e.stateMu.Unlock()
	logger.Info("Swapped index: %d chunks", retriever.Index().Len())
}

// ReplaceIndex swaps in index, keeping the current embedder and timeout.
func (e *AnswerEngine) ReplaceIndex(index driven.VectorIndex) {
	e.stateMu.RLock()
	current := e.retriever
	e.stateMu.RUnlock()

	var embedder driven.EmbeddingService
	var timeout time.Duration
	if current != nil {
		embedder, timeout = current.embedder, current.timeout
	}
	e.SwapIndex(NewRetriever(index, embedder, timeout))
}

// Ask answers question using the k most relevant chunks.
//
// The request moves through Condensing, Retrieving and Generating and always
// ends Idle. On failure the error is a *domain.StageError naming the stage,
// and no turn is committed.
func (e *AnswerEngine) Ask(ctx context.Context, question string, k int) (*domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, &domain.StageError{
			Stage: domain.StateIdle,
			Err:   fmt.Errorf("%w: question is empty", domain.ErrInvalidArgument),
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	logger.Section("Ask")
	start := e.now()
	defer e.transition(domain.StateIdle)

	e.transition(domain.StateCondensing)
	standalone, err := e.conversation.Condense(ctx, question)
	if err != nil {
		return nil, &domain.StageError{Stage: domain.StateCondensing, Err: err}
	}

	e.transition(domain.StateRetrieving)
	if e.retriever == nil {
		return nil, &domain.StageError{Stage: domain.StateRetrieving, Err: domain.ErrEmptyInput}
	}
	result, err := e.retriever.Retrieve(ctx, standalone, k)
	if err != nil {
		return nil, &domain.StageError{Stage: domain.StateRetrieving, Err: err}
	}

	e.transition(domain.StateGenerating)
	text, err := e.generate(ctx, standalone, result)
	if err != nil {
		return nil, &domain.StageError{Stage: domain.StateGenerating, Err: err}
	}

	turn := domain.Turn{
		Question:       question,
		Answer:         text,
		SourceChunkIDs: result.ChunkIDs(),
		CreatedAt:      e.now(),
	}
	if err := e.conversation.Append(ctx, turn); err != nil {
		return nil, &domain.StageError{Stage: domain.StateGenerating, Err: err}
	}

	return &domain.Answer{
		Text:               text,
		Sources:            result,
		StandaloneQuestion: standalone,
		Elapsed:            e.now().Sub(start),
	}, nil
}

// generate produces the answer from the retrieved context.
func (e *AnswerEngine) generate(ctx context.Context, question string, result domain.RetrievalResult) (string, error) {
	if e.llm == nil {
		return "", fmt.Errorf("generate answer: %w: %w", domain.ErrGenerationFailure, domain.ErrLLMUnavailable)
	}

	tmpl := loadTemplate(e.prompts, driven.PromptAnswerQuestion, domain.DefaultAnswerPrompt)
	prompt := BuildAnswerPrompt(tmpl, result, question)

	gctx, cancel := withTimeout(ctx, e.cfg.GenerateTimeout)
	defer cancel()

	done := logger.Elapsed("generate answer")
	out, err := e.llm.Generate(gctx, prompt, e.cfg.GenerateOptions)
	done()
	if err != nil {
		return "", externalFailure(gctx, "generate answer", domain.ErrGenerationFailure, err)
	}
	return strings.TrimSpace(out), nil
}

// transition moves the engine to state and notifies the observer.
func (e *AnswerEngine) transition(to domain.EngineState) {
	e.stateMu.Lock()
	from := e.state
	e.state = to
	observer := e.observer
	e.stateMu.Unlock()

	if from == to {
		return
	}
	logger.Stage(from, to)
	if observer != nil {
		observer(from, to)
	}
}

// BuildAnswerPrompt fills tmpl with the chunk texts, in result order and
// separated by blank lines, and the question.
func BuildAnswerPrompt(tmpl string, result domain.RetrievalResult, question string) string {
	texts := make([]string, len(result))
	for i, sc := range result {
		texts[i] = sc.Text
	}
	return fmt.Sprintf(tmpl, strings.Join(texts, "\n\n"), question)
}
