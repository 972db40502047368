package vector

import (
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Builder implements the interface.
var _ driven.IndexBuilder = (*Builder)(nil)

// Builder builds indexes of one strategy.
type Builder struct {
	strategy domain.IndexStrategy
	lists    int
	probes   int
}

// NewBuilder creates a builder for the configured strategy.
// An empty strategy selects flat.
func NewBuilder(settings domain.RetrievalSettings) (*Builder, error) {
	strategy := settings.Index
	if strategy == "" {
		strategy = domain.IndexStrategyFlat
	}
	if !strategy.IsValid() {
		return nil, fmt.Errorf("%w: unknown index strategy %q", domain.ErrInvalidArgument, strategy)
	}

	b := &Builder{
		strategy: strategy,
		lists:    settings.IVFLists,
		probes:   settings.IVFProbes,
	}
	if b.lists <= 0 {
		b.lists = domain.DefaultIVFLists
	}
	if b.probes <= 0 {
		b.probes = domain.DefaultIVFProbes
	}
	return b, nil
}

// Strategy returns the strategy this builder produces.
func (b *Builder) Strategy() domain.IndexStrategy {
	return b.strategy
}

// Build indexes the chunks.
func (b *Builder) Build(chunks []domain.EmbeddedChunk) (driven.VectorIndex, error) {
	if b.strategy == domain.IndexStrategyIVF {
		idx, err := BuildIVF(chunks, b.lists, b.probes)
		if err != nil {
			return nil, err
		}
		logger.Debug("Built IVF index: %d vectors in %d lists, probing %d", idx.Len(), idx.Lists(), idx.Probes())
		return idx, nil
	}

	idx, err := BuildFlat(chunks)
	if err != nil {
		return nil, err
	}
	return idx, nil
}
