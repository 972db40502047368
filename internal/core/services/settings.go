package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize       = "chunking.size"
	keyChunkOverlap    = "chunking.overlap"
	keyRetrievalK      = "retrieval.k"
	keyRetrievalIndex  = "retrieval.index"
	keyIVFLists        = "retrieval.ivf_lists"
	keyIVFProbes       = "retrieval.ivf_probes"
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedRateLimit  = "embedding.rate_limit"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyLLMTemperature  = "llm.temperature"
	keyLLMMaxTokens    = "llm.max_tokens"
	keyEmbedTimeout    = "timeouts.embed_seconds"
	keyGenerateTimeout = "timeouts.generate_seconds"
	keyCacheEnabled    = "cache.enabled"
)

// settingKeys lists every recognised key in display order.
var settingKeys = []string{
	keyChunkSize, keyChunkOverlap,
	keyRetrievalK, keyRetrievalIndex, keyIVFLists, keyIVFProbes,
	keyEmbedProvider, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey, keyEmbedRateLimit,
	keyLLMProvider, keyLLMModel, keyLLMBaseURL, keyLLMAPIKey, keyLLMTemperature, keyLLMMaxTokens,
	keyEmbedTimeout, keyGenerateTimeout,
	keyCacheEnabled,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	embedProvider := s.getProvider(keyEmbedProvider, defaults.Embedding.Provider)
	llmProvider := s.getProvider(keyLLMProvider, defaults.LLM.Provider)

	settings := &domain.AppSettings{
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getIntAllowZero(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			K:         s.getInt(keyRetrievalK, defaults.Retrieval.K),
			Index:     s.getIndexStrategy(defaults.Retrieval.Index),
			IVFLists:  s.getInt(keyIVFLists, defaults.Retrieval.IVFLists),
			IVFProbes: s.getInt(keyIVFProbes, defaults.Retrieval.IVFProbes),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:  embedProvider,
			Model:     s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[embedProvider]),
			BaseURL:   s.configStore.GetString(keyEmbedBaseURL), // No default - adapters know their endpoint
			APIKey:    s.configStore.GetString(keyEmbedAPIKey),
			RateLimit: s.configStore.GetFloat(keyEmbedRateLimit),
		},
		LLM: domain.LLMSettings{
			Provider:    llmProvider,
			Model:       s.getString(keyLLMModel, domain.DefaultLLMModels()[llmProvider]),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL),
			APIKey:      s.configStore.GetString(keyLLMAPIKey),
			Temperature: s.configStore.GetFloat(keyLLMTemperature),
			MaxTokens:   s.getInt(keyLLMMaxTokens, defaults.LLM.MaxTokens),
		},
		Timeouts: domain.TimeoutSettings{
			Embed:    s.getSeconds(keyEmbedTimeout, defaults.Timeouts.Embed),
			Generate: s.getSeconds(keyGenerateTimeout, defaults.Timeouts.Generate),
		},
		Cache: domain.CacheSettings{
			Enabled: s.getBool(keyCacheEnabled, defaults.Cache.Enabled),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Chunking.Validate(); err != nil {
		return fmt.Errorf("save chunking: %w", err)
	}

	values := []struct {
		key   string
		value any
	}{
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyRetrievalK, settings.Retrieval.K},
		{keyRetrievalIndex, settings.Retrieval.Index.String()},
		{keyIVFLists, settings.Retrieval.IVFLists},
		{keyIVFProbes, settings.Retrieval.IVFProbes},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedRateLimit, settings.Embedding.RateLimit},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyEmbedTimeout, int(settings.Timeouts.Embed / time.Second)},
		{keyGenerateTimeout, int(settings.Timeouts.Generate / time.Second)},
		{keyCacheEnabled, settings.Cache.Enabled},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// API keys are only written when set, so saving never erases a stored key.
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyLLMAPIKey, err)
		}
	}

	return nil
}

// Set parses and stores a single setting.
func (s *SettingsService) Set(key, value string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	stored, err := applySetting(settings, key, strings.TrimSpace(value))
	if err != nil {
		return err
	}
	if err := settings.Chunking.Validate(); err != nil {
		return fmt.Errorf("set %s: %w: overlap must be smaller than chunk size", key, err)
	}

	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every recognised setting key in display order.
func (s *SettingsService) Keys() []string {
	return append([]string(nil), settingKeys...)
}

// Value returns the current value of a setting as display text.
// API keys are masked.
func (s *SettingsService) Value(key string) (string, error) {
	settings, err := s.Get()
	if err != nil {
		return "", err
	}

	switch key {
	case keyChunkSize:
		return strconv.Itoa(settings.Chunking.Size), nil
	case keyChunkOverlap:
		return strconv.Itoa(settings.Chunking.Overlap), nil
	case keyRetrievalK:
		return strconv.Itoa(settings.Retrieval.K), nil
	case keyRetrievalIndex:
		return settings.Retrieval.Index.String(), nil
	case keyIVFLists:
		return strconv.Itoa(settings.Retrieval.IVFLists), nil
	case keyIVFProbes:
		return strconv.Itoa(settings.Retrieval.IVFProbes), nil
	case keyEmbedProvider:
		return settings.Embedding.Provider.String(), nil
	case keyEmbedModel:
		return settings.Embedding.Model, nil
	case keyEmbedBaseURL:
		return settings.Embedding.BaseURL, nil
	case keyEmbedAPIKey:
		return maskSecret(settings.Embedding.APIKey), nil
	case keyEmbedRateLimit:
		return strconv.FormatFloat(settings.Embedding.RateLimit, 'g', -1, 64), nil
	case keyLLMProvider:
		return settings.LLM.Provider.String(), nil
	case keyLLMModel:
		return settings.LLM.Model, nil
	case keyLLMBaseURL:
		return settings.LLM.BaseURL, nil
	case keyLLMAPIKey:
		return maskSecret(settings.LLM.APIKey), nil
	case keyLLMTemperature:
		return strconv.FormatFloat(settings.LLM.Temperature, 'g', -1, 64), nil
	case keyLLMMaxTokens:
		return strconv.Itoa(settings.LLM.MaxTokens), nil
	case keyEmbedTimeout:
		return strconv.Itoa(int(settings.Timeouts.Embed / time.Second)), nil
	case keyGenerateTimeout:
		return strconv.Itoa(int(settings.Timeouts.Generate / time.Second)), nil
	case keyCacheEnabled:
		return strconv.FormatBool(settings.Cache.Enabled), nil
	default:
		return "", fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidArgument, key)
	}
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// applySetting parses value into settings and returns the value to store.
//
//nolint:gocyclo // One case per setting key.
func applySetting(settings *domain.AppSettings, key, value string) (any, error) {
	invalid := func(reason string) error {
		return fmt.Errorf("set %s: %w: %s", key, domain.ErrInvalidArgument, reason)
	}
	positive := func(dst *int) (any, error) {
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return nil, invalid("must be a positive integer")
		}
		*dst = n
		return n, nil
	}

	switch key {
	case keyChunkSize:
		return positive(&settings.Chunking.Size)
	case keyChunkOverlap:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return nil, invalid("must be a non-negative integer")
		}
		settings.Chunking.Overlap = n
		return n, nil
	case keyRetrievalK:
		return positive(&settings.Retrieval.K)
	case keyRetrievalIndex:
		strategy := domain.IndexStrategy(value)
		if !strategy.IsValid() {
			return nil, invalid("must be flat or ivf")
		}
		settings.Retrieval.Index = strategy
		return value, nil
	case keyIVFLists:
		return positive(&settings.Retrieval.IVFLists)
	case keyIVFProbes:
		return positive(&settings.Retrieval.IVFProbes)
	case keyEmbedProvider, keyLLMProvider:
		provider := domain.AIProvider(value)
		if !provider.IsValid() {
			return nil, invalid("unknown provider")
		}
		supported := domain.AllLLMProviders()
		if key == keyEmbedProvider {
			supported = domain.AllEmbeddingProviders()
		}
		if !slices.Contains(supported, provider) {
			return nil, invalid(fmt.Sprintf("%s does not support %s", provider, strings.TrimSuffix(key, ".provider")))
		}
		return value, nil
	case keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey, keyLLMModel, keyLLMBaseURL, keyLLMAPIKey:
		return value, nil
	case keyEmbedRateLimit:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return nil, invalid("must be a non-negative number")
		}
		return f, nil
	case keyLLMTemperature:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 2 {
			return nil, invalid("must be between 0 and 2")
		}
		return f, nil
	case keyLLMMaxTokens:
		return positive(&settings.LLM.MaxTokens)
	case keyEmbedTimeout, keyGenerateTimeout:
		var n int
		return positive(&n)
	case keyCacheEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, invalid("must be true or false")
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidArgument, key)
	}
}

// maskSecret hides all but the last four characters of a secret.
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

// getIntAllowZero treats a stored zero as a real value.
func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * time.Second
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getIndexStrategy(defaultVal domain.IndexStrategy) domain.IndexStrategy {
	strategy := domain.IndexStrategy(s.configStore.GetString(keyRetrievalIndex))
	if !strategy.IsValid() {
		return defaultVal
	}
	return strategy
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
