package domain

import "time"

// Document is the extracted plain text of a source document.
// It is the canonical representation after normalisation.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the original location (file path).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full extracted text, before chunking.
	Content string

	// MIMEType is the content type the text was extracted from.
	MIMEType string

	// Metadata contains extractor-specific key-value pairs (page count etc).
	Metadata map[string]any

	// ExtractedAt is when the text was extracted.
	ExtractedAt time.Time
}

// IngestOptions controls how a document is chunked and indexed.
// A zero ChunkSize selects the configured chunk size and overlap.
type IngestOptions struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int

	// Overlap is the number of characters shared by consecutive chunks.
	Overlap int

	// DisableCache skips the embedding cache for this ingestion.
	DisableCache bool
}

// IngestStats records what an ingestion did.
type IngestStats struct {
	// ChunkCount is the number of chunks produced.
	ChunkCount int

	// CacheHits is the number of chunk embeddings served from the cache.
	CacheHits int

	// Embedded is the number of chunks sent to the embedding service.
	Embedded int

	// Duration is the wall-clock time of the ingestion.
	Duration time.Duration
}
