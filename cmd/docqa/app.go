package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vector"
	"github.com/custodia-labs/docqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/docqa/internal/connectors/filesystem"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/normalisers"
	"github.com/custodia-labs/docqa/internal/normalisers/docx"
	"github.com/custodia-labs/docqa/internal/normalisers/html"
	"github.com/custodia-labs/docqa/internal/normalisers/markdown"
	"github.com/custodia-labs/docqa/internal/normalisers/pdf"
	"github.com/custodia-labs/docqa/internal/normalisers/plaintext"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
)

// app owns the long-lived resources behind the commands.
type app struct {
	homeDir  string
	settings *services.SettingsService
	history  *services.HistoryService

	// store is nil when the database could not be opened.
	store    *sqlite.Store
	sessions driven.SessionStore
	cache    driven.EmbeddingCache

	// notices are fallbacks the user should hear about. They are printed
	// before the command runs, whatever the verbosity.
	notices []string

	coreOnce sync.Once
	core     *cli.Core
	coreErr  error
	ai       *ai.InitResult
}

// newApp opens the configuration and storage under homeDir, ~/.docqa when
// empty. The AI providers are connected on first use.
//
// When the files cannot be opened the app keeps settings, conversations
// and embeddings in memory for this run only.
func newApp(homeDir string) (*app, error) {
	if homeDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		homeDir = filepath.Join(home, ".docqa")
	}

	a := &app{homeDir: homeDir}

	var configStore driven.ConfigStore
	fileConfig, err := file.NewConfigStore(homeDir)
	if err != nil {
		a.notices = append(a.notices, fmt.Sprintf("settings will not be saved: %v", err))
		configStore = memory.NewConfigStore()
	} else {
		configStore = fileConfig
	}
	a.settings = services.NewSettingsService(configStore, ai.NewConfigValidator())

	store, err := sqlite.NewStore(filepath.Join(homeDir, "data"))
	if err != nil {
		a.notices = append(a.notices, fmt.Sprintf("conversations will not be kept: %v", err))
		a.sessions = memory.NewSessionStore()
		a.cache = memory.NewEmbeddingCache()
	} else {
		a.store = store
		a.sessions = store.SessionStore()
		a.cache = store.EmbeddingCache()
	}
	a.history = services.NewHistoryService(a.sessions)

	return a, nil
}

// Notices returns the fallbacks taken while opening the app.
func (a *app) Notices() []string {
	return a.notices
}

// Services returns the services the commands use.
func (a *app) Services() cli.Services {
	return cli.Services{
		Settings: a.settings,
		History:  a.history,
		Core:     a.Core,
	}
}

// Core connects the AI providers and builds the question answering
// services. It runs once; later calls return the same result.
func (a *app) Core() (*cli.Core, error) {
	a.coreOnce.Do(func() {
		a.core, a.coreErr = a.buildCore()
	})
	return a.core, a.coreErr
}

func (a *app) buildCore() (*cli.Core, error) {
	settings, err := a.settings.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	ai.ApplyEnvironment(settings, os.LookupEnv)

	done := logger.Elapsed("connect AI providers")
	result, err := ai.Init(settings)
	done()
	if err != nil {
		return nil, err
	}
	a.ai = result

	builder, err := vector.NewBuilder(settings.Retrieval)
	if err != nil {
		return nil, fmt.Errorf("configure index: %w", err)
	}

	extractor := normalisers.NewRegistry(
		pdf.New(),
		docx.New(),
		markdown.New(),
		html.New(),
		plaintext.New(),
	)

	ingest := services.NewIngestService(
		filesystem.NewLoader(filesystem.DefaultMaxFileSize),
		extractor,
		chunker.New(),
		result.EmbeddingService,
		builder,
		services.IngestConfig{EmbedTimeout: settings.Timeouts.Embed},
	)
	if settings.Cache.Enabled {
		ingest.SetEmbeddingCache(a.cache)
	}

	prompts, err := file.NewPromptStore(filepath.Join(a.homeDir, "prompts"))
	if err != nil {
		return nil, fmt.Errorf("open prompts: %w", err)
	}

	sessions := services.NewSessionService(
		ingest,
		result.EmbeddingService,
		result.LLMService,
		prompts,
		a.sessions,
		*settings,
	)

	return &cli.Core{Sessions: sessions, Ingest: ingest}, nil
}

// Close releases the providers and the store.
func (a *app) Close() {
	if a.ai != nil {
		a.ai.Close()
	}
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		logger.Warn("Failed to close storage: %v", err)
	}
}
