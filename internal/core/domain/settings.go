package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// IndexStrategy selects the vector index implementation.
type IndexStrategy string

// Available index strategies.
const (
	// IndexStrategyFlat is the exhaustive exact index.
	IndexStrategyFlat IndexStrategy = "flat"

	// IndexStrategyIVF is the approximate inverted-file index.
	IndexStrategyIVF IndexStrategy = "ivf"
)

// IsValid returns true if the strategy is recognised.
func (s IndexStrategy) IsValid() bool {
	return s == IndexStrategyFlat || s == IndexStrategyIVF
}

// String returns the string representation.
func (s IndexStrategy) String() string {
	return string(s)
}

// ChunkingSettings holds chunker configuration.
type ChunkingSettings struct {
	// Size is the maximum chunk length in characters.
	Size int

	// Overlap is the number of characters consecutive chunks share.
	Overlap int
}

// Validate reports ErrInvalidArgument when the parameters cannot chunk text.
func (c ChunkingSettings) Validate() error {
	if c.Size <= 0 || c.Overlap < 0 || c.Overlap >= c.Size {
		return ErrInvalidArgument
	}
	return nil
}

// RetrievalSettings holds retrieval configuration.
type RetrievalSettings struct {
	// K is the number of chunks retrieved per question.
	K int

	// Index is the vector index strategy.
	Index IndexStrategy

	// IVFLists is the number of k-means cells for the ivf index.
	IVFLists int

	// IVFProbes is the number of cells searched per query.
	IVFProbes int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama, or an OpenAI-compatible proxy).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// RateLimit caps embedding requests per second. Zero is unlimited.
	RateLimit float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Temperature is the sampling temperature.
	Temperature float64

	// MaxTokens caps the generated answer length.
	MaxTokens int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// TimeoutSettings bounds the external calls.
type TimeoutSettings struct {
	// Embed is the deadline for one embedding call.
	Embed time.Duration

	// Generate is the deadline for one generation call.
	Generate time.Duration
}

// CacheSettings controls the embedding cache.
type CacheSettings struct {
	// Enabled turns the persistent embedding cache on.
	Enabled bool
}

// AppSettings holds all application configuration.
type AppSettings struct {
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Timeouts  TimeoutSettings
	Cache     CacheSettings
}

// Default settings values.
const (
	DefaultChunkSize       = 1000
	DefaultChunkOverlap    = 200
	DefaultTopK            = 4
	DefaultIVFLists        = 16
	DefaultIVFProbes       = 4
	DefaultMaxTokens       = 512
	DefaultEmbedTimeout    = 30 * time.Second
	DefaultGenerateTimeout = 120 * time.Second
)

// DefaultAppSettings returns settings that work against a local Ollama.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{
			K:         DefaultTopK,
			Index:     IndexStrategyFlat,
			IVFLists:  DefaultIVFLists,
			IVFProbes: DefaultIVFProbes,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
		},
		LLM: LLMSettings{
			Provider:  AIProviderOllama,
			Model:     DefaultLLMModels()[AIProviderOllama],
			MaxTokens: DefaultMaxTokens,
		},
		Timeouts: TimeoutSettings{
			Embed:    DefaultEmbedTimeout,
			Generate: DefaultGenerateTimeout,
		},
		Cache: CacheSettings{
			Enabled: true,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
