package domain

// RawDocument represents opaque bytes loaded by a connector.
// It is the connector's output before text extraction.
type RawDocument struct {
	// URI is the original location (file path).
	URI string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains connector-specific key-value pairs.
	Metadata map[string]any
}

// Common MIME types understood by the text extractors.
const (
	MIMETypePDF       = "application/pdf"
	MIMETypePlainText = "text/plain"
	MIMETypeMarkdown  = "text/markdown"
	MIMETypeHTML      = "text/html"
	MIMETypeDOCX      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)
