package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/connectors/filesystem"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

var (
	chatFlags sessionFlags
	chatWatch bool
	chatPlain bool
)

var chatCmd = &cobra.Command{
	Use:   "chat <document>",
	Short: "Hold a conversation about a document",
	Long: `Indexes the document and answers questions until you quit. Follow-up
questions may refer to earlier answers.

On a terminal the chat runs full screen:
  Enter   - Ask
  Ctrl+R  - Reset the conversation
  Ctrl+S  - Show or hide sources
  PgUp/Dn - Scroll
  Esc     - Quit

Otherwise, or with --plain, questions are read line by line. Lines starting
with a slash are commands:
  /reset    - Reset the conversation
  /history  - Print the conversation
  /sources  - Print the sources of the last answer
  /quit     - Quit

With --watch the document is indexed again whenever it changes on disk.`,
	Args: exactArgs(1),
	RunE: runChat,
}

func init() {
	addSessionFlags(chatCmd, &chatFlags)
	chatCmd.Flags().BoolVarP(&chatWatch, "watch", "w", false, "reindex the document when it changes")
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "read questions line by line even on a terminal")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	settings, err := currentSettings()
	if err != nil {
		return err
	}
	opts, err := chatFlags.openOptions(cmd, settings)
	if err != nil {
		return err
	}

	c, err := core()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	session, err := c.Sessions.Open(ctx, args[0], opts)
	if err != nil {
		return err
	}
	k := chatFlags.k(cmd, settings)

	if !chatPlain && isTerminal(cmd.InOrStdin()) && isTerminal(cmd.OutOrStdout()) {
		return runChatTUI(ctx, c.Sessions, session, k)
	}

	repl := &chatREPL{
		session: session,
		k:       k,
		in:      cmd.InOrStdin(),
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
	}

	if chatWatch {
		watcher, err := startWatcher(ctx, c.Sessions, session, func(msg messages.IndexRebuilt) {
			fmt.Fprintf(repl.errOut, "\n[%s]\n", msg.Summary())
		})
		if err != nil {
			return err
		}
		defer watcher.Close() //nolint:errcheck
	}

	return repl.run(ctx)
}

// runChatTUI runs the full-screen chat.
func runChatTUI(ctx context.Context, sessions driving.SessionService, session *driving.Session, k int) error {
	// Recover to restore the terminal with a stack trace.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	title := session.Info.Title
	if title == "" {
		title = session.Info.DocumentURI
	}

	app, err := tui.NewApp(&tui.Ports{Answer: session.Answer, Title: title, K: k})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(ctx)

	// Logs would draw over the screen.
	logger.SetOutput(io.Discard)
	defer logger.SetOutput(os.Stderr)

	p := tea.NewProgram(app, tea.WithAltScreen())

	if chatWatch {
		watcher, err := startWatcher(ctx, sessions, session, func(msg messages.IndexRebuilt) {
			p.Send(msg)
		})
		if err != nil {
			return err
		}
		defer watcher.Close() //nolint:errcheck
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// startWatcher reindexes the session's document whenever it changes and
// reports each rebuild to notify.
func startWatcher(
	ctx context.Context,
	sessions driving.SessionService,
	session *driving.Session,
	notify func(messages.IndexRebuilt),
) (*filesystem.Watcher, error) {
	path := session.Info.DocumentURI
	watcher := filesystem.NewWatcher(path, filesystem.DefaultDebounce, func(ctx context.Context) {
		err := sessions.Reindex(ctx, session)
		if err != nil {
			logger.Warn("Reindex of %s failed: %v", path, err)
		}
		notify(messages.IndexRebuilt{Chunks: len(session.Answer.Chunks()), Err: err})
	})
	if err := watcher.Start(ctx); err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	logger.Info("Watching %s for changes", watcher.Path())
	return watcher, nil
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f any) bool {
	file, ok := f.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// chatREPL is the line-oriented chat.
type chatREPL struct {
	session *driving.Session
	k       int
	in      io.Reader
	out     io.Writer
	errOut  io.Writer

	last *domain.Answer
}

// run reads questions until end of input or /quit.
func (r *chatREPL) run(ctx context.Context) error {
	fmt.Fprintf(r.out, "Chatting about %s (%d chunks).", r.session.Info.DocumentURI, len(r.session.Answer.Chunks()))
	if r.session.Resumed {
		fmt.Fprintf(r.out, " Resumed %d earlier turns.", len(r.session.Answer.History()))
	}
	fmt.Fprintln(r.out, " Type /quit to leave.")

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := r.command(ctx, line); quit {
				break
			}
			continue
		}
		r.ask(ctx, line)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read question: %w", err)
	}
	fmt.Fprintf(r.errOut, "Session: %s\n", r.session.Info.ID)
	return nil
}

// ask answers one question. Failures are reported and the chat continues.
func (r *chatREPL) ask(ctx context.Context, question string) {
	answer, err := r.session.Answer.Ask(ctx, question, r.k)
	if err != nil {
		fmt.Fprintf(r.errOut, "Error: %s\n", ErrorMessage(err))
		return
	}
	r.last = answer
	fmt.Fprintln(r.out, answer.Text)
	fmt.Fprintln(r.out)
}

// command runs a slash command and reports whether the chat should end.
func (r *chatREPL) command(ctx context.Context, line string) bool {
	switch strings.Fields(line)[0] {
	case "/quit", "/exit":
		return true

	case "/reset":
		if err := r.session.Answer.Reset(ctx); err != nil {
			fmt.Fprintf(r.errOut, "Error: %v\n", err)
			return false
		}
		r.last = nil
		fmt.Fprintln(r.out, "Conversation reset.")

	case "/history":
		printTurns(r.out, r.session.Answer.History())

	case "/sources":
		if r.last == nil {
			fmt.Fprintln(r.out, "No answer yet.")
			return false
		}
		printSources(r.out, r.last.Sources)

	case "/help":
		fmt.Fprintln(r.out, "Commands: /reset /history /sources /quit")

	default:
		fmt.Fprintf(r.errOut, "Unknown command %s. Commands: /reset /history /sources /quit\n", line)
	}
	return false
}

// printTurns prints a conversation, oldest turn first.
func printTurns(w io.Writer, turns []domain.Turn) {
	if len(turns) == 0 {
		fmt.Fprintln(w, "No turns yet.")
		return
	}
	for i, turn := range turns {
		fmt.Fprintf(w, "[%d] Q: %s\n", i+1, turn.Question)
		fmt.Fprintf(w, "    A: %s\n", turn.Answer)
	}
}
