package normalisers

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.TextExtractor = (*Registry)(nil)

// Registry dispatches extraction to the normaliser registered for a
// document's MIME type. Later registrations replace earlier ones.
type Registry struct {
	mu      sync.RWMutex
	byMIME  map[string]driven.TextExtractor
	ordered []string
}

// NewRegistry creates a registry holding extractors.
func NewRegistry(extractors ...driven.TextExtractor) *Registry {
	r := &Registry{byMIME: make(map[string]driven.TextExtractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Register adds e for every MIME type it supports.
func (r *Registry) Register(e driven.TextExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, mimeType := range e.SupportedMIMETypes() {
		mimeType = BaseMIMEType(mimeType)
		if _, exists := r.byMIME[mimeType]; !exists {
			r.ordered = append(r.ordered, mimeType)
		}
		r.byMIME[mimeType] = e
	}
}

// SupportedMIMETypes returns every registered MIME type, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := slices.Clone(r.ordered)
	slices.Sort(out)
	return out
}

// Extract returns the text of raw using the normaliser for its MIME type.
func (r *Registry) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, fmt.Errorf("extract: %w: nil document", domain.ErrInvalidArgument)
	}

	mimeType := BaseMIMEType(raw.MIMEType)
	r.mu.RLock()
	e, ok := r.byMIME[mimeType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("extract %s: %w: unsupported type %q", raw.URI, domain.ErrUnreadableDocument, raw.MIMEType)
	}

	logger.Debug("Extracting %s as %s", raw.URI, mimeType)
	doc, err := e.Extract(ctx, raw)
	if err != nil {
		return nil, err
	}
	return doc, nil
}
