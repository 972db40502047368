package status

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// wideBar returns a bar wide enough that nothing wraps.
func wideBar() *Bar {
	bar := NewBar(nil, nil)
	bar.SetWidth(200)
	return bar
}

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, domain.StateIdle, bar.Stage())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 80, bar.Width())
}

func TestNewBar_NilStyles(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestStatusBar_InitUpdate(t *testing.T) {
	bar := NewBar(nil, nil)

	assert.Nil(t, bar.Init())

	updated, cmd := bar.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, bar, updated)
	assert.Nil(t, cmd)
}

func TestStatusBar_View_Idle(t *testing.T) {
	bar := wideBar()
	bar.SetCounts(7, 2)

	view := bar.View()

	assert.Contains(t, view, "Ready")
	assert.Contains(t, view, "7 chunks")
	assert.Contains(t, view, "2 turns")
	assert.Contains(t, view, "reset")
	assert.Contains(t, view, "quit")
}

func TestStatusBar_View_Stages(t *testing.T) {
	tests := []struct {
		stage domain.EngineState
		want  string
	}{
		{stage: domain.StateCondensing, want: "Rewriting question"},
		{stage: domain.StateRetrieving, want: "Searching document"},
		{stage: domain.StateGenerating, want: "Generating answer"},
	}

	for _, tt := range tests {
		t.Run(tt.stage.String(), func(t *testing.T) {
			bar := wideBar()
			bar.SetStage(tt.stage)
			bar.SetSpinner("*")

			view := bar.View()

			assert.Contains(t, view, "* "+tt.want)
			assert.NotContains(t, view, "reset", "only quit is offered while busy")
			assert.Contains(t, view, "quit")
		})
	}
}

func TestStatusBar_StageWinsOverMessage(t *testing.T) {
	bar := wideBar()
	bar.SetError("boom")
	bar.SetStage(domain.StateRetrieving)

	view := bar.View()

	assert.Contains(t, view, "Searching document")
	assert.NotContains(t, view, "boom")
}

func TestStatusBar_Messages(t *testing.T) {
	bar := wideBar()

	bar.SetError("connection failed")
	assert.True(t, bar.IsError())
	assert.Contains(t, bar.View(), "Error: connection failed")

	bar.SetNotice("History cleared")
	assert.False(t, bar.IsError())
	assert.Equal(t, "History cleared", bar.Message())
	assert.Contains(t, bar.View(), "History cleared")
	assert.NotContains(t, bar.View(), "Error")
}

func TestStatusBar_SetWidth(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetWidth(120)

	assert.Equal(t, 120, bar.Width())
}

func TestStatusBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetStage(domain.StateGenerating)
	bar.SetSpinner("*")
	bar.SetError("error message")

	bar.Clear()

	assert.Equal(t, domain.StateIdle, bar.Stage())
	assert.Equal(t, "", bar.Message())
	assert.False(t, bar.IsError())
}
