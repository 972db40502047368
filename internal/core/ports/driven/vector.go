package driven

import "github.com/custodia-labs/docqa/internal/core/domain"

// VectorIndex answers top-k cosine-similarity queries over one document's chunks.
// An index is immutable once built and safe for concurrent queries.
type VectorIndex interface {
	// Query returns the k chunks most similar to vector, best first.
	// Ties are broken by ascending chunk ID. Fewer than k results are
	// returned when the index holds fewer chunks (or, for approximate
	// indexes, when the probed cells hold fewer).
	Query(vector []float64, k int) (domain.RetrievalResult, error)

	// Len returns the number of indexed chunks.
	Len() int

	// Dimensions returns the vector length every query must match.
	Dimensions() int

	// Chunks returns the indexed chunks in ID order.
	Chunks() []domain.Chunk

	// Strategy names the implementation ("flat", "ivf").
	Strategy() string
}

// IndexBuilder constructs a VectorIndex from embedded chunks.
type IndexBuilder interface {
	// Build indexes the chunks. It fails with domain.ErrEmptyInput when there
	// is nothing to index, domain.ErrDimensionMismatch when vectors differ in
	// length, and domain.ErrInvalidArgument on duplicate chunk IDs.
	Build(chunks []domain.EmbeddedChunk) (VectorIndex, error)
}
