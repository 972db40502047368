// Package filesystem loads documents from the local filesystem and watches
// them for changes.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// DefaultMaxFileSize is the largest document a Loader reads (64 MiB).
const DefaultMaxFileSize int64 = 64 << 20

// mimeFallbacks covers extensions the platform MIME table may not know or
// maps inconsistently.
var mimeFallbacks = map[string]string{
	".md":       domain.MIMETypeMarkdown,
	".markdown": domain.MIMETypeMarkdown,
	".txt":      domain.MIMETypePlainText,
	".text":     domain.MIMETypePlainText,
	".log":      domain.MIMETypePlainText,
	".htm":      domain.MIMETypeHTML,
	".html":     domain.MIMETypeHTML,
	".pdf":      domain.MIMETypePDF,
	".docx":     domain.MIMETypeDOCX,
	".go":       "text/x-go",
	".py":       "text/x-python",
	".rs":       "text/x-rust",
	".java":     "text/x-java",
	".c":        "text/x-c",
	".h":        "text/x-c",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".sh":       "text/x-shellscript",
	".bash":     "text/x-shellscript",
	".csv":      "text/csv",
	".json":     "application/json",
	".xml":      "application/xml",
}

// Loader reads documents from disk.
type Loader struct {
	maxSize int64
}

// NewLoader creates a loader that rejects files larger than maxSize bytes.
// A non-positive maxSize selects DefaultMaxFileSize.
func NewLoader(maxSize int64) *Loader {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Loader{maxSize: maxSize}
}

// Load reads the document at uri. Every failure wraps domain.ErrUnreadableDocument.
func (l *Loader) Load(ctx context.Context, uri string) (*domain.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w: %w", uri, domain.ErrUnreadableDocument, err)
	}

	path := ResolvePath(uri)
	if path == "" {
		return nil, fmt.Errorf("load document: %w: empty path", domain.ErrUnreadableDocument)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w: file does not exist", path, domain.ErrUnreadableDocument)
		}
		return nil, fmt.Errorf("load %s: %w: %w", path, domain.ErrUnreadableDocument, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("load %s: %w: is a directory", path, domain.ErrUnreadableDocument)
	}
	if info.Size() > l.maxSize {
		return nil, fmt.Errorf("load %s: %w: file is %d bytes, limit is %d",
			path, domain.ErrUnreadableDocument, info.Size(), l.maxSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w: %w", path, domain.ErrUnreadableDocument, err)
	}

	mimeType := detectMIMEType(path)
	if mimeType == "application/octet-stream" {
		mimeType = sniffMIMEType(content)
	}
	logger.Debug("Loaded %s (%d bytes, %s)", path, len(content), mimeType)

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return &domain.RawDocument{
		URI:      abs,
		MIMEType: mimeType,
		Content:  content,
		Metadata: map[string]any{
			"filename":    filepath.Base(path),
			"size":        info.Size(),
			"modified_at": info.ModTime().UTC(),
		},
	}, nil
}

// detectMIMEType returns the MIME type for a file based on its extension.
// Files without an extension are treated as plain text.
func detectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return domain.MIMETypePlainText
	}
	if mimeType, ok := mimeFallbacks[ext]; ok {
		return mimeType
	}
	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		return stripParams(mimeType)
	}
	return "application/octet-stream"
}

// sniffMIMEType inspects content for files with an unknown extension.
func sniffMIMEType(content []byte) string {
	return stripParams(http.DetectContentType(content))
}

func stripParams(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.TrimSpace(mimeType)
}
