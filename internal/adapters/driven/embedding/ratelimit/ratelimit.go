// Package ratelimit throttles requests to an embedding service.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService wraps another embedding service with a token bucket.
// Each Embed or EmbedBatch call spends one token.
type EmbeddingService struct {
	inner   driven.EmbeddingService
	limiter *rate.Limiter
}

// Wrap limits inner to requestsPerSecond with the given burst.
// A non-positive rate returns inner unchanged.
func Wrap(inner driven.EmbeddingService, requestsPerSecond float64, burst int) driven.EmbeddingService {
	if requestsPerSecond <= 0 {
		return inner
	}
	return New(inner, requestsPerSecond, burst)
}

// New creates a rate-limited embedding service. A burst below one is raised to one.
func New(inner driven.EmbeddingService, requestsPerSecond float64, burst int) *EmbeddingService {
	if burst < 1 {
		burst = 1
	}
	return &EmbeddingService{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Embed waits for a token then embeds text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.Embed(ctx, text)
}

// EmbedBatch waits for a token then embeds texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.EmbedBatch(ctx, texts)
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the wrapped service's model.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping is not rate limited.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the wrapped service.
func (s *EmbeddingService) Close() error {
	return s.inner.Close()
}

func (s *EmbeddingService) wait(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("rate limit: %w: %w", domain.ErrEmbeddingFailure, ctxErr)
		}
		return fmt.Errorf("rate limit: %w: %w", domain.ErrEmbeddingFailure, err)
	}
	return nil
}
