package domain

// Chunk is a contiguous span of a document's extracted text.
// Offsets and lengths are measured in characters (Unicode code points).
type Chunk struct {
	// ID is the 0-based position of the chunk in chunking order.
	ID int

	// Text is the chunk content.
	Text string

	// SourceOffset is the character offset of the chunk within the source text.
	SourceOffset int

	// SourceLength is the number of characters in Text.
	SourceLength int
}

// End returns the character offset one past the last character of the chunk.
func (c Chunk) End() int {
	return c.SourceOffset + c.SourceLength
}

// EmbeddedChunk pairs a chunk with its embedding vector.
type EmbeddedChunk struct {
	Chunk

	// Vector is the embedding of Chunk.Text.
	Vector []float64
}

// ScoredChunk is a chunk returned by a similarity query.
type ScoredChunk struct {
	Chunk

	// Score is the cosine similarity to the query, in [-1, 1].
	Score float64
}

// RetrievalResult is an ordered list of scored chunks, best first.
type RetrievalResult []ScoredChunk

// ChunkIDs returns the chunk identifiers in result order.
func (r RetrievalResult) ChunkIDs() []int {
	ids := make([]int, len(r))
	for i, sc := range r {
		ids[i] = sc.ID
	}
	return ids
}

// Chunks returns the chunks in result order without their scores.
func (r RetrievalResult) Chunks() []Chunk {
	chunks := make([]Chunk, len(r))
	for i, sc := range r {
		chunks[i] = sc.Chunk
	}
	return chunks
}
