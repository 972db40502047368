package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/adapters/driven/vector"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// vocabulary is the fixed basis of the keyword embedder.
var vocabulary = []string{"cat", "dog", "fish", "bird", "sky", "sea", "tree", "rock"}

// keywordEmbedder embeds text as keyword counts over vocabulary.
type keywordEmbedder struct {
	mu      sync.Mutex
	calls   []string
	batches [][]string
	err     error
	// dims overrides the vector length when non-zero.
	dims int
	// block waits for ctx to finish before returning.
	block bool
}

func (e *keywordEmbedder) vector(text string) []float64 {
	dims := len(vocabulary)
	if e.dims > 0 {
		dims = e.dims
	}
	v := make([]float64, dims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,?!")
		for i, w := range vocabulary {
			if w == word && i < dims {
				v[i]++
			}
		}
	}
	return v
}

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	e.mu.Lock()
	e.calls = append(e.calls, text)
	e.mu.Unlock()
	if e.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.vector(text), nil
}

func (e *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	e.mu.Lock()
	e.batches = append(e.batches, append([]string(nil), texts...))
	e.mu.Unlock()
	if e.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *keywordEmbedder) Dimensions() int            { return len(vocabulary) }
func (e *keywordEmbedder) ModelName() string          { return "keyword" }
func (e *keywordEmbedder) Ping(context.Context) error { return nil }
func (e *keywordEmbedder) Close() error               { return nil }

func (e *keywordEmbedder) embedCalls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

func (e *keywordEmbedder) batchCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.batches)
}

// scriptedLLM records prompts and answers from a reply function.
type scriptedLLM struct {
	mu      sync.Mutex
	prompts []string
	reply   func(prompt string) (string, error)
	block   bool
}

func (l *scriptedLLM) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	l.mu.Lock()
	l.prompts = append(l.prompts, prompt)
	reply := l.reply
	l.mu.Unlock()
	if l.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if reply == nil {
		return "answer", nil
	}
	return reply(prompt)
}

func (l *scriptedLLM) ModelName() string          { return "scripted" }
func (l *scriptedLLM) Ping(context.Context) error { return nil }
func (l *scriptedLLM) Close() error               { return nil }

func (l *scriptedLLM) recorded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.prompts...)
}

// isCondense reports whether prompt is a question-rewrite prompt.
func isCondense(prompt string) bool {
	return strings.Contains(prompt, "Standalone question:")
}

// mapPromptStore serves templates from a map.
type mapPromptStore map[string]string

func (m mapPromptStore) Load(name string) (string, error) {
	tmpl, ok := m[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return tmpl, nil
}

func (m mapPromptStore) Reload() {}

// failingSessionStore wraps a store and fails selected operations.
type failingSessionStore struct {
	driven.SessionStore
	appendErr error
	clearErr  error
}

func (s *failingSessionStore) AppendTurn(ctx context.Context, id string, turn domain.Turn) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	return s.SessionStore.AppendTurn(ctx, id, turn)
}

func (s *failingSessionStore) ClearTurns(ctx context.Context, id string) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	return s.SessionStore.ClearTurns(ctx, id)
}

// errStore is returned by failing stubs.
var errStore = errors.New("disk full")

// corpus is a small document whose chunks are easy to tell apart.
var corpus = []string{
	"the cat sat on the rock",
	"a dog ran under the tree",
	"fish swim in the sea",
	"a bird flew across the sky",
}

// buildIndex embeds texts with embedder and returns a flat index over them.
func buildIndex(embedder *keywordEmbedder, texts []string) driven.VectorIndex {
	chunks := make([]domain.EmbeddedChunk, len(texts))
	offset := 0
	for i, text := range texts {
		chunks[i] = domain.EmbeddedChunk{
			Chunk:  domain.Chunk{ID: i, Text: text, SourceOffset: offset, SourceLength: len([]rune(text))},
			Vector: embedder.vector(text),
		}
		offset += len([]rune(text))
	}
	index, err := vector.BuildFlat(chunks)
	if err != nil {
		panic(err)
	}
	return index
}
