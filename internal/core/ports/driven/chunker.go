package driven

import "github.com/custodia-labs/docqa/internal/core/domain"

// Chunker splits extracted text into overlapping windows.
type Chunker interface {
	// Chunk splits text into windows of chunkSize characters sharing overlap
	// characters. A zero chunkSize selects the implementation's configured
	// size and overlap. Bad parameters fail with domain.ErrInvalidArgument.
	Chunk(text string, chunkSize, overlap int) ([]domain.Chunk, error)
}
