package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure EmbeddingCache implements the interface.
var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

// EmbeddingCache is an in-memory implementation of driven.EmbeddingCache.
// Vectors are copied on the way in and out.
type EmbeddingCache struct {
	mu      sync.RWMutex
	vectors map[string][]float64
}

// NewEmbeddingCache creates an empty cache.
func NewEmbeddingCache() *EmbeddingCache {
	return &EmbeddingCache{
		vectors: make(map[string][]float64),
	}
}

// Get returns the vector stored under key.
func (c *EmbeddingCache) Get(_ context.Context, key string) ([]float64, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vectors[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

// Put stores vector under key, replacing any previous value.
func (c *EmbeddingCache) Put(_ context.Context, key string, vector []float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vectors[key] = slices.Clone(vector)
	return nil
}

// Len returns the number of cached vectors.
func (c *EmbeddingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors)
}
