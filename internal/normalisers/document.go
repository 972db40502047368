package normalisers

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// NewDocument builds the extracted document for raw with a fresh ID.
// The raw metadata is copied and the MIME type and format are recorded in it.
// Invalid UTF-8 in content is replaced with U+FFFD so rune offsets into the
// text are stable.
func NewDocument(raw *domain.RawDocument, format, title, content string) *domain.Document {
	metadata := CopyMetadata(raw.Metadata)
	if metadata == nil {
		metadata = make(map[string]any)
	}
	metadata["mime_type"] = raw.MIMEType
	metadata["format"] = format

	return &domain.Document{
		ID:          uuid.New().String(),
		URI:         raw.URI,
		Title:       title,
		Content:     strings.ToValidUTF8(content, "\uFFFD"),
		MIMEType:    raw.MIMEType,
		Metadata:    metadata,
		ExtractedAt: time.Now(),
	}
}

// TitleFromURI derives a human-readable title from a file path.
// Metadata["title"] wins when a loader set one.
func TitleFromURI(raw *domain.RawDocument) string {
	if raw.Metadata != nil {
		if title, ok := raw.Metadata["title"].(string); ok && title != "" {
			return title
		}
	}

	filename := filepath.Base(raw.URI)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}

// CopyMetadata creates a shallow copy of metadata.
func CopyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// BaseMIMEType strips parameters and case from a MIME type
// ("Text/Plain; charset=utf-8" becomes "text/plain").
func BaseMIMEType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
