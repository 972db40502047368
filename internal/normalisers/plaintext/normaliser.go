// Package plaintext extracts text from plain text and source files.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.TextExtractor = (*Normaliser)(nil)

// utf8BOM is stripped from the start of text files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		domain.MIMETypePlainText,
		"text/x-go",
		"text/x-python",
		"text/x-rust",
		"text/x-java",
		"text/x-c",
		"text/x-shellscript",
		"text/csv",
		"text/yaml",
		"text/toml",
		"application/json",
		"application/xml",
	}
}

// Extract returns the file's text. Line endings are normalised to "\n" and
// invalid UTF-8 is replaced. Content with NUL bytes is treated as binary.
func (n *Normaliser) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, fmt.Errorf("extract text: %w: nil document", domain.ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := Decode(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("extract text from %s: %w", raw.URI, err)
	}

	return normalisers.NewDocument(raw, "text", normalisers.TitleFromURI(raw), content), nil
}

// Decode turns file bytes into normalised text.
func Decode(data []byte) (string, error) {
	if bytes.IndexByte(data, 0) >= 0 {
		return "", fmt.Errorf("%w: binary content", domain.ErrUnreadableDocument)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	text := strings.ToValidUTF8(string(data), "�")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text, nil
}
