// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - TextExtractor: Turns document bytes into plain text
//   - EmbeddingService: Generates vector embeddings
//   - LLMService: Condenses follow-ups and generates answers
//   - VectorIndex / IndexBuilder: Similarity search over chunk embeddings
//   - PromptStore: Prompt templates
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingCache: Reuses embeddings across runs. Without it, every chunk is embedded.
//   - SessionStore: Persists conversations. Without it, history lives only in memory.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
