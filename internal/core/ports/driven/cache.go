package driven

import "context"

// EmbeddingCache stores chunk embeddings keyed by a content hash.
// This is an optional store - when nil, every chunk is embedded on ingestion.
type EmbeddingCache interface {
	// Get returns the cached vector for key and whether it was found.
	Get(ctx context.Context, key string) ([]float64, bool, error)

	// Put stores the vector under key, replacing any previous value.
	Put(ctx context.Context, key string, vector []float64) error
}
