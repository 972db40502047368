package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/views/chat"
)

// chromeHeight is the number of rows used by the header, input and status bar.
const chromeHeight = 6

// App is the chat application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles  *styles.Styles
	keymap  *keymap.KeyMap
	input   *input.QuestionInput
	chat    *chat.View
	status  *status.Bar
	spinner spinner.Model

	// busy is true while a question is being answered.
	busy bool

	// width and height are terminal dimensions.
	width  int
	height int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new chat application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Busy

	a := &App{
		ports:   ports,
		ctx:     context.Background(),
		styles:  s,
		keymap:  km,
		input:   input.NewQuestionInput(s),
		chat:    chat.NewView(s),
		status:  status.NewBar(s, km),
		spinner: sp,
	}
	a.updateCounts()
	return a, nil
}

// WithContext sets the context requests run under.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.input.Init(), a.spinner.Tick)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		if a.busy {
			a.status.SetStage(a.ports.Answer.State())
			a.status.SetSpinner(a.spinner.View())
		}
		return a, cmd

	case messages.AskCompleted:
		a.busy = false
		a.status.Clear()
		if msg.Err != nil {
			a.chat.AddError(msg.Err)
			a.status.SetError("the question was not answered")
		} else {
			a.chat.AddAnswer(msg.Answer)
		}
		a.updateCounts()
		return a, a.input.Focus()

	case messages.ResetCompleted:
		if msg.Err != nil {
			a.status.SetError(msg.Err.Error())
			return a, nil
		}
		a.chat.Clear()
		a.status.SetNotice(fmt.Sprintf("History cleared (%d turns)", msg.Cleared))
		a.updateCounts()
		return a, nil

	case messages.IndexRebuilt:
		a.chat.AddNotice(msg.Summary())
		if msg.Err != nil {
			a.status.SetError("reindex failed")
		} else {
			a.status.SetNotice("Index rebuilt")
		}
		a.updateCounts()
		return a, nil

	case messages.ErrorOccurred:
		a.status.SetError(msg.Err.Error())
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	return a, nil
}

// handleKey dispatches a key press.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch {
	case keymap.Matches(key, a.keymap.Quit):
		return a, tea.Quit

	case keymap.Matches(key, a.keymap.ScrollUp), keymap.Matches(key, a.keymap.ScrollDown):
		_, cmd := a.chat.Update(msg)
		return a, cmd

	case keymap.Matches(key, a.keymap.Sources):
		if a.chat.ToggleSources() {
			a.status.SetNotice("Showing sources")
		} else {
			a.status.SetNotice("Hiding sources")
		}
		return a, nil
	}

	if a.busy {
		// Only quit and scrolling work while a request runs.
		return a, nil
	}

	switch {
	case keymap.Matches(key, a.keymap.Reset):
		return a, a.resetCmd()

	case keymap.Matches(key, a.keymap.Submit):
		question, ok := a.input.Question()
		if !ok {
			return a, nil
		}
		a.input.Reset()
		a.input.Blur()
		a.chat.AddQuestion(question)
		a.status.Clear()
		a.busy = true
		return a, a.askCmd(question)
	}

	_, cmd := a.input.Update(msg)
	return a, cmd
}

// askCmd answers question in the background.
func (a *App) askCmd(question string) tea.Cmd {
	answer := a.ports.Answer
	ctx := a.ctx
	k := a.ports.topK()
	return func() tea.Msg {
		result, err := answer.Ask(ctx, question, k)
		return messages.AskCompleted{Question: question, Answer: result, Err: err}
	}
}

// resetCmd clears the conversation in the background.
func (a *App) resetCmd() tea.Cmd {
	answer := a.ports.Answer
	ctx := a.ctx
	return func() tea.Msg {
		cleared := len(answer.History())
		if err := answer.Reset(ctx); err != nil {
			return messages.ResetCompleted{Err: err}
		}
		return messages.ResetCompleted{Cleared: cleared}
	}
}

// resize lays the components out for a terminal of the given size.
func (a *App) resize(width, height int) {
	a.width = width
	a.height = height
	a.chat.SetSize(width, height-chromeHeight)
	a.input.SetWidth(width)
	a.status.SetWidth(width)
}

// updateCounts refreshes the idle status line.
func (a *App) updateCounts() {
	a.status.SetCounts(len(a.ports.Answer.Chunks()), len(a.ports.Answer.History()))
}

// View implements tea.Model.
func (a *App) View() string {
	title := "docqa"
	if a.ports.Title != "" {
		title += ": " + a.ports.Title
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		a.styles.Title.Render(title),
		a.chat.View(),
		a.input.View(),
		a.status.View(),
	)
}

// Busy reports whether a question is being answered.
func (a *App) Busy() bool {
	return a.busy
}

// Transcript returns the chat entries, oldest first.
func (a *App) Transcript() []chat.Entry {
	return a.chat.Entries()
}
