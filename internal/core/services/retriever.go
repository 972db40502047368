package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Retriever turns a query string into the most similar chunks of one document.
// It holds no mutable state and is safe for concurrent use.
type Retriever struct {
	index    driven.VectorIndex
	embedder driven.EmbeddingService
	timeout  time.Duration
}

// NewRetriever creates a retriever over index. Each query embedding is
// bounded by timeout; zero disables the bound.
func NewRetriever(index driven.VectorIndex, embedder driven.EmbeddingService, timeout time.Duration) *Retriever {
	return &Retriever{
		index:    index,
		embedder: embedder,
		timeout:  timeout,
	}
}

// Index returns the index queries run against.
func (r *Retriever) Index() driven.VectorIndex {
	return r.index
}

// Retrieve embeds query and returns its k nearest chunks, best first.
// Embedding errors, timeouts and vectors of the wrong size all fail with
// domain.ErrEmbeddingFailure. There is no retry.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("retrieve: %w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}
	if r.index == nil {
		return nil, fmt.Errorf("retrieve: %w: no index", domain.ErrEmptyInput)
	}
	if r.embedder == nil {
		return nil, fmt.Errorf("retrieve: %w", domain.ErrEmbeddingUnavailable)
	}

	ectx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	done := logger.Elapsed("embed query")
	vector, err := r.embedder.Embed(ectx, query)
	done()
	if err != nil {
		return nil, externalFailure(ectx, "embed query", domain.ErrEmbeddingFailure, err)
	}

	if len(vector) != r.index.Dimensions() {
		return nil, fmt.Errorf("embed query: %w: %w: got %d dimensions, index has %d",
			domain.ErrEmbeddingFailure, domain.ErrDimensionMismatch, len(vector), r.index.Dimensions())
	}

	result, err := r.index.Query(vector, k)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	logger.Debug("Retrieved %d chunks (k=%d, strategy=%s): %v", len(result), k, r.index.Strategy(), result.ChunkIDs())
	return result, nil
}
