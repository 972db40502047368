package vector

import (
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure FlatIndex implements the interface.
var _ driven.VectorIndex = (*FlatIndex)(nil)

// FlatIndex compares a query against every indexed vector.
type FlatIndex struct {
	*entries
	all []int
}

// BuildFlat builds an exhaustive index.
func BuildFlat(chunks []domain.EmbeddedChunk) (*FlatIndex, error) {
	e, err := prepare(chunks)
	if err != nil {
		return nil, err
	}

	all := make([]int, len(e.chunks))
	for i := range all {
		all[i] = i
	}
	return &FlatIndex{entries: e, all: all}, nil
}

// Query returns the k chunks most similar to vector.
func (f *FlatIndex) Query(vector []float64, k int) (domain.RetrievalResult, error) {
	q, err := f.checkQuery(vector, k)
	if err != nil {
		return nil, err
	}
	return topK(f.score(q, f.all), k), nil
}

// Strategy returns "flat".
func (f *FlatIndex) Strategy() string {
	return string(domain.IndexStrategyFlat)
}
