package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// echoExtractor returns its name as the document text.
type echoExtractor struct {
	name  string
	types []string
}

func (e *echoExtractor) SupportedMIMETypes() []string { return e.types }

func (e *echoExtractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	return NewDocument(raw, e.name, TitleFromURI(raw), e.name), nil
}

func TestRegistry_DispatchesByMIMEType(t *testing.T) {
	r := NewRegistry(
		&echoExtractor{name: "text", types: []string{"text/plain"}},
		&echoExtractor{name: "pdf", types: []string{"application/pdf"}},
	)

	doc, err := r.Extract(context.Background(), &domain.RawDocument{URI: "/a/b.pdf", MIMEType: "application/pdf"})
	require.NoError(t, err)
	assert.Equal(t, "pdf", doc.Content)

	doc, err = r.Extract(context.Background(), &domain.RawDocument{URI: "a.txt", MIMEType: "Text/Plain; charset=utf-8"})
	require.NoError(t, err)
	assert.Equal(t, "text", doc.Content)
}

func TestRegistry_LaterRegistrationWins(t *testing.T) {
	r := NewRegistry(&echoExtractor{name: "first", types: []string{"text/plain"}})
	r.Register(&echoExtractor{name: "second", types: []string{"text/plain"}})

	doc, err := r.Extract(context.Background(), &domain.RawDocument{MIMEType: "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, "second", doc.Content)
	assert.Equal(t, []string{"text/plain"}, r.SupportedMIMETypes())
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry(&echoExtractor{name: "text", types: []string{"text/plain"}})

	_, err := r.Extract(context.Background(), &domain.RawDocument{URI: "x.bin", MIMEType: "application/octet-stream"})
	assert.ErrorIs(t, err, domain.ErrUnreadableDocument)

	_, err = r.Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestNewDocument(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "/docs/user_guide-v2.md",
		MIMEType: "text/markdown",
		Metadata: map[string]any{"size": 10},
	}

	a := NewDocument(raw, "markdown", "Title", "body")
	b := NewDocument(raw, "markdown", "Title", "body")

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, raw.URI, a.URI)
	assert.Equal(t, "text/markdown", a.MIMEType)
	assert.Equal(t, "markdown", a.Metadata["format"])
	assert.Equal(t, 10, a.Metadata["size"])
	assert.False(t, a.ExtractedAt.IsZero())
	_, leaked := raw.Metadata["format"]
	assert.False(t, leaked, "raw metadata is not modified")
}

func TestTitleFromURI(t *testing.T) {
	assert.Equal(t, "user guide v2", TitleFromURI(&domain.RawDocument{URI: "/docs/user_guide-v2.md"}))
	assert.Equal(t, "Real", TitleFromURI(&domain.RawDocument{URI: "/x.md", Metadata: map[string]any{"title": "Real"}}))
}

func TestBaseMIMEType(t *testing.T) {
	assert.Equal(t, "text/plain", BaseMIMEType("Text/Plain; charset=utf-8"))
	assert.Equal(t, "application/pdf", BaseMIMEType(" application/pdf "))
}
