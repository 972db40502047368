package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// TextExtractor turns document bytes into plain text.
// Failures are reported wrapped with domain.ErrUnreadableDocument.
type TextExtractor interface {
	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// Extract returns the document's text. Whitespace-only text is not an error
	// here; ingestion decides what to do with it.
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}
