package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// IngestService loads a document and builds its vector index.
type IngestService interface {
	// Ingest extracts, chunks, embeds and indexes the document at path.
	Ingest(ctx context.Context, path string, opts domain.IngestOptions) (*IndexedDocument, error)
}

// IndexedDocument is a document ready to be questioned.
type IndexedDocument struct {
	// Document is the extracted text.
	Document *domain.Document

	// Chunks are the document's chunks in ID order.
	Chunks []domain.Chunk

	// Index answers similarity queries over Chunks.
	Index driven.VectorIndex

	// Stats records what the ingestion did.
	Stats domain.IngestStats
}
