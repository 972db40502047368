package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// DefaultEmbedBatchSize is the number of chunks sent per EmbedBatch call.
const DefaultEmbedBatchSize = 32

// IngestConfig configures ingestion.
type IngestConfig struct {
	// EmbedTimeout bounds each embedding call. Zero disables the bound.
	EmbedTimeout time.Duration

	// BatchSize is the number of chunks per embedding call.
	BatchSize int
}

// IngestService turns a document on disk into a queryable index.
type IngestService struct {
	loader    driven.DocumentLoader
	extractor driven.TextExtractor
	chunker   driven.Chunker
	embedder  driven.EmbeddingService
	builder   driven.IndexBuilder
	cache     driven.EmbeddingCache
	cfg       IngestConfig
	now       func() time.Time
}

// NewIngestService creates an ingest service.
func NewIngestService(
	loader driven.DocumentLoader,
	extractor driven.TextExtractor,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	builder driven.IndexBuilder,
	cfg IngestConfig,
) *IngestService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultEmbedBatchSize
	}
	return &IngestService{
		loader:    loader,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		builder:   builder,
		cfg:       cfg,
		now:       time.Now,
	}
}

// SetEmbeddingCache enables reuse of chunk embeddings across runs.
func (s *IngestService) SetEmbeddingCache(cache driven.EmbeddingCache) {
	s.cache = cache
}

// Ingest loads, extracts, chunks, embeds and indexes the document at path.
func (s *IngestService) Ingest(ctx context.Context, path string, opts domain.IngestOptions) (*driving.IndexedDocument, error) {
	logger.Section("Ingestion")
	start := s.now()

	raw, err := s.loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	doc, err := s.extractor.Extract(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("extract text from %s: %w: document has no text", path, domain.ErrEmptyInput)
	}
	logger.Debug("Extracted %d bytes of text from %s (%s)", len(doc.Content), path, doc.MIMEType)

	chunks, err := s.chunker.Chunk(doc.Content, opts.ChunkSize, opts.Overlap)
	if err != nil {
		return nil, fmt.Errorf("chunk text: %w", err)
	}
	logger.Debug("Split into %d chunks", len(chunks))

	embedded, stats, err := s.embed(ctx, chunks, opts)
	if err != nil {
		return nil, err
	}

	index, err := s.builder.Build(embedded)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	stats.ChunkCount = len(chunks)
	stats.Duration = s.now().Sub(start)
	logger.Info("Indexed %d chunks (%d cached, %d embedded) in %s",
		stats.ChunkCount, stats.CacheHits, stats.Embedded, stats.Duration.Round(time.Millisecond))

	return &driving.IndexedDocument{
		Document: doc,
		Chunks:   chunks,
		Index:    index,
		Stats:    stats,
	}, nil
}

// embed pairs every chunk with a vector, using the cache where possible.
func (s *IngestService) embed(
	ctx context.Context, chunks []domain.Chunk, opts domain.IngestOptions,
) ([]domain.EmbeddedChunk, domain.IngestStats, error) {
	var stats domain.IngestStats
	if s.embedder == nil {
		return nil, stats, fmt.Errorf("embed chunks: %w", domain.ErrEmbeddingUnavailable)
	}

	useCache := s.cache != nil && !opts.DisableCache
	model := s.embedder.ModelName()

	out := make([]domain.EmbeddedChunk, len(chunks))
	var misses []int
	for i, c := range chunks {
		out[i].Chunk = c
		if !useCache {
			misses = append(misses, i)
			continue
		}
		vector, ok, err := s.cache.Get(ctx, CacheKey(model, c.Text))
		if err != nil {
			logger.Warn("Embedding cache lookup failed for chunk %d: %v", c.ID, err)
		}
		if err != nil || !ok {
			misses = append(misses, i)
			continue
		}
		out[i].Vector = vector
		stats.CacheHits++
	}

	for begin := 0; begin < len(misses); begin += s.cfg.BatchSize {
		batch := misses[begin:min(begin+s.cfg.BatchSize, len(misses))]
		texts := make([]string, len(batch))
		for j, i := range batch {
			texts[j] = chunks[i].Text
		}

		vectors, err := s.embedBatch(ctx, texts)
		if err != nil {
			return nil, stats, err
		}

		for j, i := range batch {
			out[i].Vector = vectors[j]
			if useCache {
				if err := s.cache.Put(ctx, CacheKey(model, chunks[i].Text), vectors[j]); err != nil {
					logger.Warn("Embedding cache store failed for chunk %d: %v", chunks[i].ID, err)
				}
			}
		}
		stats.Embedded += len(batch)
	}

	return out, stats, nil
}

// embedBatch embeds texts under the configured timeout.
func (s *IngestService) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	ectx, cancel := withTimeout(ctx, s.cfg.EmbedTimeout)
	defer cancel()

	done := logger.Elapsed(fmt.Sprintf("embed batch of %d", len(texts)))
	vectors, err := s.embedder.EmbedBatch(ectx, texts)
	done()
	if err != nil {
		return nil, externalFailure(ectx, "embed chunks", domain.ErrEmbeddingFailure, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embed chunks: %w: got %d vectors for %d texts",
			domain.ErrEmbeddingFailure, len(vectors), len(texts))
	}
	return vectors, nil
}

// CacheKey returns the embedding cache key for text under model.
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
