// Package pdf extracts text from PDF documents.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.TextExtractor = (*Normaliser)(nil)

// maxTitleLength is the longest first line accepted as a title.
const maxTitleLength = 200

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{domain.MIMETypePDF}
}

// Extract returns the text of every page, pages separated by a blank line.
// Pages whose text cannot be decoded are skipped.
func (n *Normaliser) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, fmt.Errorf("extract pdf: %w: nil document", domain.ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages, total, err := readPages(ctx, raw.Content)
	if err != nil {
		return nil, fmt.Errorf("extract pdf %s: %w", raw.URI, err)
	}
	if len(pages) < total {
		logger.Warn("Skipped %d unreadable pages in %s", total-len(pages), raw.URI)
	}

	content := joinPages(pages)
	doc := normalisers.NewDocument(raw, "pdf", extractTitle(content, raw), content)
	doc.Metadata["page_count"] = total
	return doc, nil
}

// readPages returns the trimmed text of each readable page and the page count.
// The parser panics on some malformed files; that is reported as unreadable.
func readPages(ctx context.Context, data []byte) (pages []string, total int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, total = nil, 0
			err = fmt.Errorf("%w: malformed pdf: %v", domain.ErrUnreadableDocument, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", domain.ErrUnreadableDocument, err)
	}

	total = reader.NumPage()
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Debug("Page %d: %v", i, err)
			continue
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return pages, total, nil
}

// joinPages concatenates non-empty pages with blank lines between them.
func joinPages(pages []string) string {
	var b strings.Builder
	for _, p := range pages {
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(p)
	}
	return b.String()
}

// extractTitle returns the first short non-empty line, or a title derived from
// the file name.
func extractTitle(content string, raw *domain.RawDocument) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len(line) <= maxTitleLength {
			return line
		}
	}
	return normalisers.TitleFromURI(raw)
}
