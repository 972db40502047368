package cli

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// mockAnswerService implements driving.AnswerService for testing.
type mockAnswerService struct {
	mu sync.Mutex

	askErr  error
	history []domain.Turn
	chunks  []domain.Chunk
	askedK  []int
	resets  int
}

func (m *mockAnswerService) Ask(_ context.Context, question string, k int) (*domain.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.askedK = append(m.askedK, k)
	if m.askErr != nil {
		return nil, m.askErr
	}

	text := "answer to " + question
	m.history = append(m.history, domain.Turn{Question: question, Answer: text, SourceChunkIDs: []int{0}})
	return &domain.Answer{
		Text:               text,
		StandaloneQuestion: "standalone " + question,
		Sources: domain.RetrievalResult{
			{Chunk: domain.Chunk{ID: 0, Text: "the cat sat", SourceOffset: 0, SourceLength: 11}, Score: 0.9},
		},
	}, nil
}

func (m *mockAnswerService) State() domain.EngineState { return domain.StateIdle }

func (m *mockAnswerService) History() []domain.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Turn(nil), m.history...)
}

func (m *mockAnswerService) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = nil
	m.resets++
	return nil
}

func (m *mockAnswerService) SessionID() string      { return "session-1" }
func (m *mockAnswerService) Chunks() []domain.Chunk { return m.chunks }

func (m *mockAnswerService) ReplaceIndex(_ driven.VectorIndex) {}

// mockSessionService implements driving.SessionService for testing.
type mockSessionService struct {
	answer  *mockAnswerService
	openErr error
	opened  []driving.OpenOptions
}

func (m *mockSessionService) Open(_ context.Context, path string, opts driving.OpenOptions) (*driving.Session, error) {
	m.opened = append(m.opened, opts)
	if m.openErr != nil {
		return nil, m.openErr
	}
	return &driving.Session{
		Info:    domain.Session{ID: "session-1", DocumentURI: path},
		Answer:  m.answer,
		Options: opts,
		Resumed: opts.SessionID != "",
	}, nil
}

func (m *mockSessionService) Reindex(_ context.Context, _ *driving.Session) error { return nil }

// stubIndex implements driven.VectorIndex for testing.
type stubIndex struct {
	chunks []domain.Chunk
}

func (s *stubIndex) Query(_ []float64, _ int) (domain.RetrievalResult, error) { return nil, nil }
func (s *stubIndex) Len() int                                                 { return len(s.chunks) }
func (s *stubIndex) Dimensions() int                                          { return 3 }
func (s *stubIndex) Chunks() []domain.Chunk                                   { return s.chunks }
func (s *stubIndex) Strategy() string                                         { return "flat" }

// mockIngestService implements driving.IngestService for testing.
type mockIngestService struct {
	content string
	chunks  []domain.Chunk
	err     error
	opts    []domain.IngestOptions
}

func (m *mockIngestService) Ingest(_ context.Context, path string, opts domain.IngestOptions) (*driving.IndexedDocument, error) {
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return nil, m.err
	}
	return &driving.IndexedDocument{
		Document: &domain.Document{URI: path, Content: m.content},
		Chunks:   m.chunks,
		Index:    &stubIndex{chunks: m.chunks},
		Stats:    domain.IngestStats{ChunkCount: len(m.chunks), CacheHits: 1, Embedded: len(m.chunks) - 1},
	}, nil
}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings   domain.AppSettings
	values     map[string]string
	embedErr   error
	llmErr     error
	setErr     error
	savedKey   string
	savedValue string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		settings: domain.DefaultAppSettings(),
		values: map[string]string{
			"chunking.size":    "1000",
			"chunking.overlap": "200",
			"llm.provider":     "ollama",
			"llm.api_key":      "",
		},
	}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if _, ok := m.values[key]; !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidArgument, key)
	}
	m.savedKey, m.savedValue = key, value
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"chunking.size", "chunking.overlap", "llm.provider", "llm.api_key"}
}

func (m *mockSettingsService) Value(key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidArgument, key)
	}
	return v, nil
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error  { return m.embedErr }
func (m *mockSettingsService) ValidateLLMConfig() error        { return m.llmErr }

// mockHistoryService implements driving.HistoryService for testing.
type mockHistoryService struct {
	sessions []domain.Session
	turns    map[string][]domain.Turn
	cleared  []string
	deleted  []string
}

func (m *mockHistoryService) List(_ context.Context) ([]domain.Session, error) {
	return m.sessions, nil
}

func (m *mockHistoryService) Get(_ context.Context, id string) (*domain.Session, []domain.Turn, error) {
	for i := range m.sessions {
		if m.sessions[i].ID == id {
			return &m.sessions[i], m.turns[id], nil
		}
	}
	return nil, nil, fmt.Errorf("get session %s: %w", id, domain.ErrNotFound)
}

func (m *mockHistoryService) Clear(ctx context.Context, id string) error {
	if _, _, err := m.Get(ctx, id); err != nil {
		return err
	}
	m.cleared = append(m.cleared, id)
	return nil
}

func (m *mockHistoryService) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

// testEnv holds the services a test command runs against.
type testEnv struct {
	settings *mockSettingsService
	history  *mockHistoryService
	sessions *mockSessionService
	answer   *mockAnswerService
	ingest   *mockIngestService
}

// setupTestServices installs mock services and restores the previous ones
// when the test ends.
func setupTestServices(t *testing.T) *testEnv {
	t.Helper()

	prevSettings, prevHistory, prevCore := settingsService, historyService, coreFactory

	answer := &mockAnswerService{chunks: []domain.Chunk{{ID: 0, Text: "the cat sat"}}}
	env := &testEnv{
		settings: newMockSettingsService(),
		history:  &mockHistoryService{turns: map[string][]domain.Turn{}},
		sessions: &mockSessionService{answer: answer},
		answer:   answer,
		ingest:   &mockIngestService{},
	}
	SetServices(Services{
		Settings: env.settings,
		History:  env.history,
		Core: func() (*Core, error) {
			return &Core{Sessions: env.sessions, Ingest: env.ingest}, nil
		},
	})

	t.Cleanup(func() {
		settingsService, historyService, coreFactory = prevSettings, prevHistory, prevCore
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	resetFlags(rootCmd)
	return env
}

// resetFlags restores every flag of cmd and its subcommands to its default.
// Cobra keeps flag values between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
