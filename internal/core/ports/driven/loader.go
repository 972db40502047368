package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DocumentLoader reads a document's bytes from where it lives.
// Failures are reported wrapped with domain.ErrUnreadableDocument.
type DocumentLoader interface {
	// Load returns the raw document at uri with its MIME type detected.
	Load(ctx context.Context, uri string) (*domain.RawDocument, error)
}
