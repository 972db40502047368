package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/ratelimit"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ollamaServer answers the Ollama ping endpoint.
func ollamaServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestInitResult_Close(t *testing.T) {
	result := &InitResult{}
	result.Close()

	embedder, err := CreateEmbeddingService(&domain.EmbeddingSettings{Provider: domain.AIProviderOllama}, 0)
	require.NoError(t, err)
	llm, err := CreateLLMService(&domain.LLMSettings{Provider: domain.AIProviderOllama}, 0)
	require.NoError(t, err)

	result = &InitResult{EmbeddingService: embedder, LLMService: llm}
	result.Close()
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantModel   string
		errContains string
	}{
		{
			name:        "nil settings",
			settings:    nil,
			errContains: "no embedding settings",
		},
		{
			name:      "ollama",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text"},
			wantModel: "nomic-embed-text",
		},
		{
			name:      "openai",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "sk", Model: "text-embedding-3-small"},
			wantModel: "text-embedding-3-small",
		},
		{
			name:        "openai without key",
			settings:    &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI},
			errContains: "API key is required",
		},
		{
			name:        "anthropic",
			settings:    &domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			errContains: "does not support embeddings",
		},
		{
			name:        "unknown",
			settings:    &domain.EmbeddingSettings{Provider: "cohere"},
			errContains: "unsupported embedding provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings, time.Second)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidArgument)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, svc.ModelName())
		})
	}
}

func TestCreateEmbeddingService_RateLimited(t *testing.T) {
	svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama, RateLimit: 2,
	}, 0)

	require.NoError(t, err)
	assert.IsType(t, &ratelimit.EmbeddingService{}, svc)
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.LLMSettings
		wantModel   string
		errContains string
	}{
		{name: "nil settings", errContains: "no LLM settings"},
		{
			name:      "ollama",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2"},
			wantModel: "llama3.2",
		},
		{
			name:      "openai",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "sk", Model: "gpt-4o-mini"},
			wantModel: "gpt-4o-mini",
		},
		{
			name:      "anthropic",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k", Model: "claude-3-5-sonnet-latest"},
			wantModel: "claude-3-5-sonnet-latest",
		},
		{
			name:        "anthropic without key",
			settings:    &domain.LLMSettings{Provider: domain.AIProviderAnthropic},
			errContains: "API key is required",
		},
		{
			name:        "unknown",
			settings:    &domain.LLMSettings{Provider: "gemini"},
			errContains: "unsupported LLM provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings, 0)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidArgument)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, svc.ModelName())
		})
	}
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	t.Run("unconfigured returns nil", func(t *testing.T) {
		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{}, 0)
		assert.NoError(t, err)
		assert.Nil(t, svc)
	})

	t.Run("reachable", func(t *testing.T) {
		server := ollamaServer(t, http.StatusOK)
		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama, BaseURL: server.URL,
		}, 0)
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("unreachable", func(t *testing.T) {
		server := ollamaServer(t, http.StatusInternalServerError)
		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama, BaseURL: server.URL,
		}, 0)
		assert.Nil(t, svc)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.Contains(t, err.Error(), "docqa settings set")
	})

	t.Run("invalid provider", func(t *testing.T) {
		_, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
			Provider: domain.AIProviderAnthropic, APIKey: "k",
		}, 0)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}

func TestCreateAndValidateLLMService(t *testing.T) {
	t.Run("unconfigured returns nil", func(t *testing.T) {
		svc, err := CreateAndValidateLLMService(&domain.LLMSettings{Provider: domain.AIProviderOpenAI}, 0)
		assert.NoError(t, err)
		assert.Nil(t, svc)
	})

	t.Run("reachable", func(t *testing.T) {
		server := ollamaServer(t, http.StatusOK)
		svc, err := CreateAndValidateLLMService(&domain.LLMSettings{
			Provider: domain.AIProviderOllama, BaseURL: server.URL,
		}, 0)
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("unreachable", func(t *testing.T) {
		server := ollamaServer(t, http.StatusServiceUnavailable)
		_, err := CreateAndValidateLLMService(&domain.LLMSettings{
			Provider: domain.AIProviderOllama, BaseURL: server.URL,
		}, 0)
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})
}

func TestInit(t *testing.T) {
	server := ollamaServer(t, http.StatusOK)
	settings := domain.DefaultAppSettings()
	settings.Embedding.BaseURL = server.URL
	settings.LLM.BaseURL = server.URL

	result, err := Init(&settings)

	require.NoError(t, err)
	defer result.Close()
	assert.Equal(t, "nomic-embed-text", result.EmbeddingService.ModelName())
	assert.Equal(t, "llama3.2", result.LLMService.ModelName())
}

func TestInit_LLMFailure(t *testing.T) {
	good := ollamaServer(t, http.StatusOK)
	bad := ollamaServer(t, http.StatusBadGateway)
	settings := domain.DefaultAppSettings()
	settings.Embedding.BaseURL = good.URL
	settings.LLM.BaseURL = bad.URL

	result, err := Init(&settings)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestValidateConfig(t *testing.T) {
	server := ollamaServer(t, http.StatusOK)

	assert.NoError(t, ValidateEmbeddingConfig(nil))
	assert.NoError(t, ValidateLLMConfig(&domain.LLMSettings{}))
	assert.NoError(t, ValidateEmbeddingConfig(&domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: server.URL}))
	assert.NoError(t, ValidateLLMConfig(&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: server.URL}))

	failing := ollamaServer(t, http.StatusNotFound)
	assert.Error(t, ValidateLLMConfig(&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: failing.URL}))
}
