package mcp

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer  *domain.Answer
	err     error
	history []domain.Turn
	chunks  []domain.Chunk

	askedQuestion string
	askedK        int
	resets        int
}

func (m *mockAnswerService) Ask(_ context.Context, question string, k int) (*domain.Answer, error) {
	m.askedQuestion = question
	m.askedK = k
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

func (m *mockAnswerService) Reset(_ context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.resets++
	m.history = nil
	return nil
}

func (m *mockAnswerService) State() domain.EngineState { return domain.StateIdle }
func (m *mockAnswerService) History() []domain.Turn    { return m.history }
func (m *mockAnswerService) SessionID() string         { return "session-1" }
func (m *mockAnswerService) Chunks() []domain.Chunk    { return m.chunks }

func (m *mockAnswerService) ReplaceIndex(_ driven.VectorIndex) {}
