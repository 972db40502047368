package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// engineFixture wires an engine over the corpus with stub collaborators.
type engineFixture struct {
	engine   *AnswerEngine
	embedder *keywordEmbedder
	llm      *scriptedLLM
	conv     *ConversationState
}

func newEngineFixture(t *testing.T, reply func(prompt string) (string, error)) *engineFixture {
	t.Helper()
	embedder := &keywordEmbedder{}
	llm := &scriptedLLM{reply: reply}
	conv := NewConversationState(llm, nil, driven.GenerateOptions{}, 0)
	retriever := NewRetriever(buildIndex(embedder, corpus), embedder, 0)
	engine := NewAnswerEngine(conv, retriever, llm, nil, EngineConfig{SessionID: "test"})
	return &engineFixture{engine: engine, embedder: embedder, llm: llm, conv: conv}
}

func TestAnswerEngine_Ask_FirstQuestion(t *testing.T) {
	f := newEngineFixture(t, func(string) (string, error) { return " The fish swim in the sea. ", nil })

	answer, err := f.engine.Ask(context.Background(), "where do fish swim?", 2)

	require.NoError(t, err)
	assert.Equal(t, "The fish swim in the sea.", answer.Text)
	assert.Equal(t, "where do fish swim?", answer.StandaloneQuestion)
	require.Len(t, answer.Sources, 2)
	assert.Equal(t, 2, answer.Sources[0].ID)

	prompts := f.llm.recorded()
	require.Len(t, prompts, 1, "first question is not condensed")
	assert.Contains(t, prompts[0], "fish swim in the sea")
	assert.Contains(t, prompts[0], "Question: where do fish swim?")
	assert.Equal(t, []string{"where do fish swim?"}, f.embedder.embedCalls())

	history := f.engine.History()
	require.Len(t, history, 1)
	assert.Equal(t, "where do fish swim?", history[0].Question)
	assert.Equal(t, "The fish swim in the sea.", history[0].Answer)
	assert.Equal(t, answer.Sources.ChunkIDs(), history[0].SourceChunkIDs)
	assert.Equal(t, domain.StateIdle, f.engine.State())
}

func TestAnswerEngine_Ask_FollowUpIsCondensedWithPriorTurn(t *testing.T) {
	f := newEngineFixture(t, func(prompt string) (string, error) {
		if isCondense(prompt) {
			return "What does the dog do?", nil
		}
		return "It runs.", nil
	})
	ctx := context.Background()

	_, err := f.engine.Ask(ctx, "Tell me about the dog", 1)
	require.NoError(t, err)

	answer, err := f.engine.Ask(ctx, "what does it do?", 1)
	require.NoError(t, err)

	prompts := f.llm.recorded()
	require.Len(t, prompts, 3)
	assert.True(t, isCondense(prompts[1]))
	assert.Contains(t, prompts[1], "Human: Tell me about the dog\nAssistant: It runs.")
	assert.Contains(t, prompts[1], "what does it do?")

	assert.Equal(t, "What does the dog do?", answer.StandaloneQuestion)
	assert.Equal(t, []string{"Tell me about the dog", "What does the dog do?"}, f.embedder.embedCalls(),
		"retrieval uses the standalone question")

	history := f.engine.History()
	require.Len(t, history, 2)
	assert.Equal(t, "what does it do?", history[1].Question, "history keeps the user's wording")
}

func TestAnswerEngine_Ask_BlankQuestion(t *testing.T) {
	f := newEngineFixture(t, nil)

	for _, q := range []string{"", "   \n"} {
		_, err := f.engine.Ask(context.Background(), q, 1)

		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		stage, ok := domain.FailedStage(err)
		require.True(t, ok)
		assert.Equal(t, domain.StateIdle, stage)
	}
	assert.Empty(t, f.llm.recorded())
	assert.Empty(t, f.embedder.embedCalls())
}

func TestAnswerEngine_Ask_StageFailures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		setup     func(f *engineFixture)
		k         int
		wantStage domain.EngineState
		wantErr   []error
	}{
		{
			name: "condense fails",
			setup: func(f *engineFixture) {
				f.llm.reply = func(prompt string) (string, error) {
					if isCondense(prompt) {
						return "", boom
					}
					return "ok", nil
				}
			},
			k:         1,
			wantStage: domain.StateCondensing,
			wantErr:   []error{domain.ErrGenerationFailure, boom},
		},
		{
			name:      "retrieve fails",
			setup:     func(f *engineFixture) { f.embedder.err = boom },
			k:         1,
			wantStage: domain.StateRetrieving,
			wantErr:   []error{domain.ErrEmbeddingFailure, boom},
		},
		{
			name:      "invalid k",
			k:         0,
			wantStage: domain.StateRetrieving,
			wantErr:   []error{domain.ErrInvalidArgument},
		},
		{
			name: "generate fails",
			setup: func(f *engineFixture) {
				f.llm.reply = func(prompt string) (string, error) {
					if isCondense(prompt) {
						return "standalone", nil
					}
					return "", boom
				}
			},
			k:         1,
			wantStage: domain.StateGenerating,
			wantErr:   []error{domain.ErrGenerationFailure, boom},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t, nil)
			ctx := context.Background()
			_, err := f.engine.Ask(ctx, "first question about the cat", 1)
			require.NoError(t, err)

			if tt.setup != nil {
				tt.setup(f)
			}
			_, err = f.engine.Ask(ctx, "second", tt.k)

			require.Error(t, err)
			var stageErr *domain.StageError
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, tt.wantStage, stageErr.Stage)
			for _, want := range tt.wantErr {
				assert.ErrorIs(t, err, want)
			}
			assert.Len(t, f.engine.History(), 1, "failed request commits nothing")
			assert.Equal(t, domain.StateIdle, f.engine.State())
		})
	}
}

func TestAnswerEngine_Ask_GenerateTimeout(t *testing.T) {
	embedder := &keywordEmbedder{}
	llm := &scriptedLLM{block: true}
	conv := NewConversationState(llm, nil, driven.GenerateOptions{}, 0)
	engine := NewAnswerEngine(conv, NewRetriever(buildIndex(embedder, corpus), embedder, 0), llm, nil,
		EngineConfig{GenerateTimeout: 10 * time.Millisecond})

	_, err := engine.Ask(context.Background(), "cat?", 1)

	stage, ok := domain.FailedStage(err)
	require.True(t, ok)
	assert.Equal(t, domain.StateGenerating, stage)
	assert.ErrorIs(t, err, domain.ErrGenerationFailure)
	assert.ErrorIs(t, err, domain.ErrTimeout)
	assert.Zero(t, conv.Len())
}

func TestAnswerEngine_Ask_NoLLM(t *testing.T) {
	embedder := &keywordEmbedder{}
	conv := NewConversationState(nil, nil, driven.GenerateOptions{}, 0)
	engine := NewAnswerEngine(conv, NewRetriever(buildIndex(embedder, corpus), embedder, 0), nil, nil, EngineConfig{})

	_, err := engine.Ask(context.Background(), "cat?", 1)

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.ErrorIs(t, err, domain.ErrGenerationFailure)
}

func TestAnswerEngine_Ask_NoRetriever(t *testing.T) {
	conv := NewConversationState(nil, nil, driven.GenerateOptions{}, 0)
	engine := NewAnswerEngine(conv, nil, &scriptedLLM{}, nil, EngineConfig{})

	_, err := engine.Ask(context.Background(), "cat?", 1)

	assert.ErrorIs(t, err, domain.ErrEmptyInput)
	stage, _ := domain.FailedStage(err)
	assert.Equal(t, domain.StateRetrieving, stage)
	assert.Nil(t, engine.Chunks())
}

func TestAnswerEngine_Ask_PersistFailure(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewSessionStore()
	require.NoError(t, inner.CreateSession(ctx, domain.Session{ID: "s1"}))
	store := &failingSessionStore{SessionStore: inner, appendErr: errStore}

	f := newEngineFixture(t, nil)
	f.conv.SetSessionStore(store, "s1")

	_, err := f.engine.Ask(ctx, "cat?", 1)

	assert.ErrorIs(t, err, errStore)
	assert.Empty(t, f.engine.History())
}

func TestAnswerEngine_ObserverSeesTransitions(t *testing.T) {
	f := newEngineFixture(t, nil)
	var mu sync.Mutex
	var seen []string
	f.engine.SetObserver(func(from, to domain.EngineState) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, from.String()+">"+to.String())
	})

	_, err := f.engine.Ask(context.Background(), "cat?", 1)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"idle>condensing",
		"condensing>retrieving",
		"retrieving>generating",
		"generating>idle",
	}, seen)
}

func TestAnswerEngine_ObserverOnFailure(t *testing.T) {
	f := newEngineFixture(t, nil)
	f.embedder.err = errors.New("down")
	var seen []domain.EngineState
	f.engine.SetObserver(func(_, to domain.EngineState) { seen = append(seen, to) })

	_, err := f.engine.Ask(context.Background(), "cat?", 1)
	require.Error(t, err)

	assert.Equal(t, []domain.EngineState{domain.StateCondensing, domain.StateRetrieving, domain.StateIdle}, seen)
}

func TestAnswerEngine_Ask_ConcurrentCallsAreSerialised(t *testing.T) {
	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0
	f := newEngineFixture(t, func(prompt string) (string, error) {
		mu.Lock()
		inFlight++
		maxInFlight = max(maxInFlight, inFlight)
		mu.Unlock()
		time.Sleep(time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
		if isCondense(prompt) {
			return "cat?", nil
		}
		return "answer", nil
	})

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Ask(context.Background(), "cat?", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInFlight)
	assert.Len(t, f.engine.History(), n)

	// Every condense after the first sees all previously committed turns.
	condensed := 0
	for _, p := range f.llm.recorded() {
		if isCondense(p) {
			condensed++
			assert.Equal(t, condensed, strings.Count(p, "Human: "))
		}
	}
	assert.Equal(t, n-1, condensed)
}

func TestAnswerEngine_Reset(t *testing.T) {
	f := newEngineFixture(t, nil)
	ctx := context.Background()
	_, err := f.engine.Ask(ctx, "cat?", 1)
	require.NoError(t, err)

	require.NoError(t, f.engine.Reset(ctx))

	assert.Empty(t, f.engine.History())
	_, err = f.engine.Ask(ctx, "dog?", 1)
	require.NoError(t, err)
	assert.Len(t, f.llm.recorded(), 2, "no condense after reset")
}

func TestAnswerEngine_SwapIndex(t *testing.T) {
	f := newEngineFixture(t, nil)
	assert.Len(t, f.engine.Chunks(), len(corpus))

	f.engine.SwapIndex(NewRetriever(buildIndex(f.embedder, []string{"only the sky"}), f.embedder, 0))

	chunks := f.engine.Chunks()
	require.Len(t, chunks, 1)
	assert.Equal(t, "only the sky", chunks[0].Text)

	answer, err := f.engine.Ask(context.Background(), "sky", 3)
	require.NoError(t, err)
	assert.Len(t, answer.Sources, 1)
}

func TestAnswerEngine_ReplaceIndex_KeepsEmbedder(t *testing.T) {
	f := newEngineFixture(t, nil)

	f.engine.ReplaceIndex(buildIndex(f.embedder, []string{"a tree by the sea"}))

	answer, err := f.engine.Ask(context.Background(), "sea", 1)
	require.NoError(t, err)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "a tree by the sea", answer.Sources[0].Text)
	assert.Contains(t, f.embedder.embedCalls(), "sea", "the new retriever embeds with the old embedder")
}

func TestAnswerEngine_SessionID(t *testing.T) {
	f := newEngineFixture(t, nil)
	assert.Equal(t, "test", f.engine.SessionID())
}

func TestBuildAnswerPrompt(t *testing.T) {
	result := domain.RetrievalResult{
		{Chunk: domain.Chunk{ID: 3, Text: "third"}, Score: 0.9},
		{Chunk: domain.Chunk{ID: 1, Text: "first"}, Score: 0.5},
	}

	got := BuildAnswerPrompt("C[%s] Q[%s]", result, "why?")

	assert.Equal(t, "C[third\n\nfirst] Q[why?]", got)
}
