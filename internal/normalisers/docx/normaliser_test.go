package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// createTestDOCX creates a minimal DOCX file in memory.
func createTestDOCX(t *testing.T, documentXML, coreXML string) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	write := func(name, content string) {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}

	write("[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`)
	if documentXML != "" {
		write("word/document.xml", documentXML)
	}
	if coreXML != "" {
		write("docProps/core.xml", coreXML)
	}

	require.NoError(t, w.Close())
	return buf.Bytes()
}

const bodyXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t>World</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>
</w:body>
</w:document>`

func TestSupportedMIMETypes(t *testing.T) {
	assert.Equal(t, []string{domain.MIMETypeDOCX}, New().SupportedMIMETypes())
}

func TestExtract(t *testing.T) {
	coreXML := `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
  xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title> Quarterly Report </dc:title>
</cp:coreProperties>`

	raw := &domain.RawDocument{
		URI:      "/docs/report.docx",
		MIMEType: domain.MIMETypeDOCX,
		Content:  createTestDOCX(t, bodyXML, coreXML),
	}

	doc, err := New().Extract(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, "Hello World\nSecond paragraph.", doc.Content)
	assert.Equal(t, "Quarterly Report", doc.Title)
	assert.Equal(t, "docx", doc.Metadata["format"])
	assert.Equal(t, "/docs/report.docx", doc.URI)
}

func TestExtract_TitleFromFilename(t *testing.T) {
	raw := &domain.RawDocument{
		URI:     "/docs/meeting_notes.docx",
		Content: createTestDOCX(t, bodyXML, ""),
	}

	doc, err := New().Extract(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, "meeting notes", doc.Title)
}

func TestExtract_Unreadable(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"not a zip", []byte("plain text")},
		{"no document part", createTestDOCX(t, "", "")},
		{"malformed xml", createTestDOCX(t, "<w:document><w:body>", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := &domain.RawDocument{URI: "/docs/bad.docx", Content: tt.content}

			_, err := New().Extract(context.Background(), raw)

			assert.ErrorIs(t, err, domain.ErrUnreadableDocument)
		})
	}
}

func TestExtract_NilDocument(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestExtract_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	raw := &domain.RawDocument{URI: "/docs/a.docx", Content: createTestDOCX(t, bodyXML, "")}
	_, err := New().Extract(ctx, raw)

	assert.ErrorIs(t, err, context.Canceled)
}
