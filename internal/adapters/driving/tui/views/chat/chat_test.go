package chat

import (
	"errors"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func sampleAnswer() *domain.Answer {
	return &domain.Answer{
		Text: "Fish swim in the sea.",
		Sources: domain.RetrievalResult{
			{Chunk: domain.Chunk{ID: 3, Text: "fish swim\nin the sea"}, Score: 0.875},
		},
	}
}

func TestNewView_Empty(t *testing.T) {
	v := NewView(nil)

	require.NotNil(t, v)
	assert.Empty(t, v.Entries())
	assert.Contains(t, v.View(), "Ask a question")
	assert.False(t, v.ShowingSources())
}

func TestView_Conversation(t *testing.T) {
	v := NewView(nil)
	v.SetSize(100, 30)

	v.AddQuestion("where do fish swim?")
	v.AddAnswer(sampleAnswer())
	v.AddError(errors.New("generating: generation failure"))
	v.AddNotice("History cleared")

	entries := v.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, EntryQuestion, entries[0].Kind)
	assert.Equal(t, EntryAnswer, entries[1].Kind)
	assert.Len(t, entries[1].Sources, 1)
	assert.Equal(t, EntryError, entries[2].Kind)
	assert.Equal(t, EntryNotice, entries[3].Kind)

	view := v.View()
	assert.Contains(t, view, "You: where do fish swim?")
	assert.Contains(t, view, "Fish swim in the sea.")
	assert.Contains(t, view, "Error: generating: generation failure")
	assert.Contains(t, view, "History cleared")
	assert.NotContains(t, view, "[chunk 3", "sources are hidden by default")
}

func TestView_ToggleSources(t *testing.T) {
	v := NewView(nil)
	v.SetSize(100, 30)
	v.AddAnswer(sampleAnswer())

	assert.True(t, v.ToggleSources())
	assert.Contains(t, v.View(), "[chunk 3, 0.88] fish swim in the sea")

	assert.False(t, v.ToggleSources())
	assert.NotContains(t, v.View(), "[chunk 3")
}

func TestView_Clear(t *testing.T) {
	v := NewView(nil)
	v.AddQuestion("q")

	v.Clear()

	assert.Empty(t, v.Entries())
	assert.Contains(t, v.View(), "Ask a question")
}

func TestView_ScrollsToNewest(t *testing.T) {
	v := NewView(nil)
	v.SetSize(60, 3)

	for i := 0; i < 10; i++ {
		v.AddNotice("older line")
	}
	v.AddNotice("newest line")

	assert.Contains(t, v.View(), "newest line")
}

func TestView_SetSizeClampsHeight(t *testing.T) {
	v := NewView(nil)

	v.SetSize(40, 0)

	assert.Equal(t, 1, v.viewport.Height)
	assert.LessOrEqual(t, lipgloss.Height(v.View()), 1)
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{name: "short", text: "hello", limit: 10, want: "hello"},
		{name: "collapses whitespace", text: "a\n\n b\tc", limit: 10, want: "a b c"},
		{name: "truncates", text: "abcdefghij", limit: 6, want: "abc..."},
		{name: "counts runes", text: "ééééé", limit: 5, want: "ééééé"},
		{name: "tiny limit", text: "abcdef", limit: 2, want: "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Snippet(tt.text, tt.limit))
		})
	}
}
