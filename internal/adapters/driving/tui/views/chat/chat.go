// Package chat provides the conversation transcript view for the TUI.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// snippetLength is the number of characters of a source chunk shown.
const snippetLength = 120

// EntryKind identifies what a transcript entry holds.
type EntryKind int

const (
	// EntryQuestion is a question the user asked.
	EntryQuestion EntryKind = iota
	// EntryAnswer is a generated answer.
	EntryAnswer
	// EntryError is a failed request.
	EntryError
	// EntryNotice is an informational line.
	EntryNotice
)

// Entry is one item of the transcript.
type Entry struct {
	Kind    EntryKind
	Text    string
	Sources domain.RetrievalResult
}

// View is the scrollable conversation transcript.
type View struct {
	styles      *styles.Styles
	viewport    viewport.Model
	entries     []Entry
	showSources bool
	width       int
	height      int
}

// NewView creates a new transcript view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	v := &View{
		styles:   s,
		viewport: viewport.New(80, 20),
		width:    80,
		height:   20,
	}
	v.refresh()
	return v
}

// SetSize resizes the transcript.
func (v *View) SetSize(width, height int) {
	if height < 1 {
		height = 1
	}
	v.width = width
	v.height = height
	v.viewport.Width = width
	v.viewport.Height = height
	v.refresh()
}

// Update forwards scrolling to the viewport.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// View renders the transcript.
func (v *View) View() string {
	return v.viewport.View()
}

// AddQuestion appends a question.
func (v *View) AddQuestion(question string) {
	v.add(Entry{Kind: EntryQuestion, Text: question})
}

// AddAnswer appends an answer with its sources.
func (v *View) AddAnswer(answer *domain.Answer) {
	v.add(Entry{Kind: EntryAnswer, Text: answer.Text, Sources: answer.Sources})
}

// AddError appends a failed request.
func (v *View) AddError(err error) {
	v.add(Entry{Kind: EntryError, Text: err.Error()})
}

// AddNotice appends an informational line.
func (v *View) AddNotice(text string) {
	v.add(Entry{Kind: EntryNotice, Text: text})
}

// Clear empties the transcript.
func (v *View) Clear() {
	v.entries = nil
	v.refresh()
}

// Entries returns the transcript entries, oldest first.
func (v *View) Entries() []Entry {
	return v.entries
}

// ToggleSources switches display of answer sources and returns the new setting.
func (v *View) ToggleSources() bool {
	v.showSources = !v.showSources
	v.refresh()
	return v.showSources
}

// ShowingSources reports whether answer sources are displayed.
func (v *View) ShowingSources() bool {
	return v.showSources
}

// add appends an entry and scrolls to it.
func (v *View) add(e Entry) {
	v.entries = append(v.entries, e)
	v.refresh()
}

// refresh re-renders the content and keeps the newest entry in view.
func (v *View) refresh() {
	v.viewport.SetContent(v.render())
	v.viewport.GotoBottom()
}

// render lays out every entry for the current width.
func (v *View) render() string {
	if len(v.entries) == 0 {
		return v.styles.Muted.Render("Ask a question to start. Follow-ups may refer to earlier answers.")
	}

	width := v.width - 2
	if width < 20 {
		width = 20
	}

	blocks := make([]string, 0, len(v.entries))
	for _, e := range v.entries {
		switch e.Kind {
		case EntryQuestion:
			blocks = append(blocks, v.styles.Question.Width(width).Render("You: "+e.Text))
		case EntryAnswer:
			block := v.styles.Answer.Width(width).Render(e.Text)
			if v.showSources {
				block += "\n" + v.renderSources(e.Sources, width)
			}
			blocks = append(blocks, block)
		case EntryError:
			blocks = append(blocks, v.styles.Error.Width(width).Render("Error: "+e.Text))
		case EntryNotice:
			blocks = append(blocks, v.styles.Muted.Width(width).Render(e.Text))
		}
	}
	return strings.Join(blocks, "\n\n")
}

// renderSources lists the chunks an answer used.
func (v *View) renderSources(sources domain.RetrievalResult, width int) string {
	lines := make([]string, len(sources))
	for i, sc := range sources {
		lines[i] = v.styles.Source.Width(width).Render(
			fmt.Sprintf("[chunk %d, %.2f] %s", sc.ID, sc.Score, Snippet(sc.Text, snippetLength)))
	}
	return strings.Join(lines, "\n")
}

// Snippet returns text on one line, shortened to at most limit characters.
func Snippet(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
