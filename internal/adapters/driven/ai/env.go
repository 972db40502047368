package ai

import (
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Environment variables read when a setting is empty.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvOllamaHost   = "OLLAMA_HOST"
)

// LookupFunc reads an environment variable, as os.LookupEnv does.
type LookupFunc func(key string) (string, bool)

// ApplyEnvironment fills empty API keys and Ollama base URLs in settings from
// the environment. Stored settings always win.
func ApplyEnvironment(settings *domain.AppSettings, lookup LookupFunc) {
	if settings == nil || lookup == nil {
		return
	}
	applyProvider(settings.Embedding.Provider, &settings.Embedding.APIKey, &settings.Embedding.BaseURL, lookup)
	applyProvider(settings.LLM.Provider, &settings.LLM.APIKey, &settings.LLM.BaseURL, lookup)
}

func applyProvider(provider domain.AIProvider, apiKey, baseURL *string, lookup LookupFunc) {
	switch provider {
	case domain.AIProviderOpenAI:
		fill(apiKey, EnvOpenAIKey, lookup)
	case domain.AIProviderAnthropic:
		fill(apiKey, EnvAnthropicKey, lookup)
	case domain.AIProviderOllama:
		fill(baseURL, EnvOllamaHost, lookup)
	}
}

func fill(dst *string, key string, lookup LookupFunc) {
	if *dst != "" {
		return
	}
	if v, ok := lookup(key); ok && v != "" {
		*dst = v
	}
}
