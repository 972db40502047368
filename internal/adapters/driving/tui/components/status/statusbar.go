// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Bar displays the engine stage, notices and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	stage   domain.EngineState
	spinner string
	message string
	isError bool
	chunks  int
	turns   int
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		stage:  domain.StateIdle,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Render(left + strings.Repeat(" ", padding) + right)
}

// renderLeft renders the stage or the current notice.
func (s *Bar) renderLeft() string {
	if s.stage != domain.StateIdle {
		label := s.stage.Description()
		if s.spinner != "" {
			label = s.spinner + " " + label
		}
		return s.styles.Busy.Render(label)
	}
	if s.message != "" {
		if s.isError {
			return s.styles.Error.Render("Error: " + s.message)
		}
		return s.styles.Success.Render(s.message)
	}
	return s.styles.Muted.Render(fmt.Sprintf("%s | %d chunks | %d turns",
		domain.StateIdle.Description(), s.chunks, s.turns))
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	bindings := s.keymap.ShortHelp()
	if s.stage != domain.StateIdle {
		bindings = []key.Binding{s.keymap.Quit}
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetStage sets the engine stage shown on the left.
func (s *Bar) SetStage(stage domain.EngineState) {
	s.stage = stage
}

// Stage returns the displayed engine stage.
func (s *Bar) Stage() domain.EngineState {
	return s.stage
}

// SetSpinner sets the spinner frame drawn beside a busy stage.
func (s *Bar) SetSpinner(frame string) {
	s.spinner = frame
}

// SetNotice shows an informational message until the next change.
func (s *Bar) SetNotice(message string) {
	s.message = message
	s.isError = false
}

// SetError shows an error message until the next change.
func (s *Bar) SetError(message string) {
	s.message = message
	s.isError = true
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// IsError reports whether the current message is an error.
func (s *Bar) IsError() bool {
	return s.isError
}

// SetCounts sets the chunk and turn counts shown when idle.
func (s *Bar) SetCounts(chunks, turns int) {
	s.chunks = chunks
	s.turns = turns
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to its idle state.
func (s *Bar) Clear() {
	s.stage = domain.StateIdle
	s.spinner = ""
	s.message = ""
	s.isError = false
}
