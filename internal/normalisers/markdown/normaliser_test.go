package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestExtract(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "/docs/guide.md",
		MIMEType: "text/markdown",
		Content:  []byte("# Install Guide\n\nRun **make** to build.\n"),
	}

	doc, err := New().Extract(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, "Install Guide", doc.Title)
	assert.Equal(t, "Install Guide\n\nRun make to build.", doc.Content)
	assert.Equal(t, "markdown", doc.Metadata["format"])
}

func TestExtract_TitleFallsBackToFilename(t *testing.T) {
	doc, err := New().Extract(context.Background(), &domain.RawDocument{
		URI: "/docs/release_notes.md", Content: []byte("No heading here."),
	})

	require.NoError(t, err)
	assert.Equal(t, "release notes", doc.Title)
}

func TestExtract_Errors(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = New().Extract(context.Background(), &domain.RawDocument{Content: []byte{0}})
	assert.ErrorIs(t, err, domain.ErrUnreadableDocument)
}

func TestStrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"headings", "## Setup\ntext", "Setup\ntext"},
		{"links", "see [the docs](https://example.com)", "see the docs"},
		{"images", "![diagram](a.png) below", "diagram below"},
		{"emphasis", "a *b* and __c__", "a b and c"},
		{"inline code", "call `Run()` now", "call Run() now"},
		{"code block keeps body", "```go\nx := 1\n```", "x := 1"},
		{"lists", "- one\n- two\n1. three", "one\ntwo\nthree"},
		{"blockquote", "> quoted", "quoted"},
		{"rule", "a\n\n---\n\nb", "a\n\nb"},
		{"front matter", "---\ntitle: x\n---\nbody", "body"},
		{"snake case survives", "use max_tokens here", "use max_tokens here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Strip(tt.in))
		})
	}
}
