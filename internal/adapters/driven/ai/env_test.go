package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func lookupFrom(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestApplyEnvironment(t *testing.T) {
	env := lookupFrom(map[string]string{
		EnvOpenAIKey:    "sk-env",
		EnvAnthropicKey: "ant-env",
		EnvOllamaHost:   "http://gpu:11434",
	})

	t.Run("fills missing keys per provider", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding.Provider = domain.AIProviderOpenAI
		settings.LLM.Provider = domain.AIProviderAnthropic

		ApplyEnvironment(&settings, env)

		assert.Equal(t, "sk-env", settings.Embedding.APIKey)
		assert.Equal(t, "ant-env", settings.LLM.APIKey)
		assert.Empty(t, settings.Embedding.BaseURL)
	})

	t.Run("stored values win", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.LLM.Provider = domain.AIProviderOpenAI
		settings.LLM.APIKey = "sk-stored"
		settings.Embedding.BaseURL = "http://localhost:11434"

		ApplyEnvironment(&settings, env)

		assert.Equal(t, "sk-stored", settings.LLM.APIKey)
		assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
	})

	t.Run("ollama host", func(t *testing.T) {
		settings := domain.DefaultAppSettings()

		ApplyEnvironment(&settings, env)

		assert.Equal(t, "http://gpu:11434", settings.Embedding.BaseURL)
		assert.Equal(t, "http://gpu:11434", settings.LLM.BaseURL)
		assert.Empty(t, settings.LLM.APIKey)
	})

	t.Run("empty variables are ignored", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.LLM.Provider = domain.AIProviderOpenAI

		ApplyEnvironment(&settings, lookupFrom(map[string]string{EnvOpenAIKey: ""}))

		assert.Empty(t, settings.LLM.APIKey)
	})

	t.Run("nil inputs", func(t *testing.T) {
		assert.NotPanics(t, func() {
			ApplyEnvironment(nil, env)
			settings := domain.DefaultAppSettings()
			ApplyEnvironment(&settings, nil)
		})
	})
}
