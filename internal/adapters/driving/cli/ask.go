package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

var (
	askFlags       sessionFlags
	askJSON        bool
	askShowSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask <document> <question>",
	Short: "Answer one question about a document",
	Long: `Indexes the document and answers a single question from its most
relevant chunks.

With --session the question continues a stored conversation, so it may
refer to earlier answers.

Examples:
  docqa ask report.pdf "What was the revenue in 2023?"
  docqa ask notes.md "Who wrote it?" --show-sources
  docqa ask notes.md "And when?" --session 3f2a...`,
	Args: exactArgs(2),
	RunE: runAsk,
}

func init() {
	addSessionFlags(askCmd, &askFlags)
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVar(&askShowSources, "show-sources", false, "print the chunks the answer used")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	settings, err := currentSettings()
	if err != nil {
		return err
	}
	opts, err := askFlags.openOptions(cmd, settings)
	if err != nil {
		return err
	}

	c, err := core()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	session, err := c.Sessions.Open(ctx, args[0], opts)
	if err != nil {
		return err
	}

	answer, err := session.Answer.Ask(ctx, args[1], askFlags.k(cmd, settings))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if askJSON {
		return outputAnswerJSON(out, session, answer)
	}

	fmt.Fprintln(out, answer.Text)
	if askShowSources {
		fmt.Fprintln(out)
		printSources(out, answer.Sources)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Session: %s\n", session.Info.ID)
	return nil
}

// answerJSON is the --json form of an answer.
type answerJSON struct {
	SessionID          string       `json:"session_id"`
	Document           string       `json:"document"`
	Answer             string       `json:"answer"`
	StandaloneQuestion string       `json:"standalone_question"`
	Sources            []sourceJSON `json:"sources"`
	ElapsedMS          int64        `json:"elapsed_ms"`
}

// sourceJSON is one retrieved chunk.
type sourceJSON struct {
	ChunkID int     `json:"chunk_id"`
	Score   float64 `json:"score"`
	Offset  int     `json:"offset"`
	Length  int     `json:"length"`
	Text    string  `json:"text"`
}

func outputAnswerJSON(w io.Writer, session *driving.Session, answer *domain.Answer) error {
	out := answerJSON{
		SessionID:          session.Info.ID,
		Document:           session.Info.DocumentURI,
		Answer:             answer.Text,
		StandaloneQuestion: answer.StandaloneQuestion,
		Sources:            make([]sourceJSON, len(answer.Sources)),
		ElapsedMS:          answer.Elapsed.Milliseconds(),
	}
	for i, sc := range answer.Sources {
		out.Sources[i] = sourceJSON{
			ChunkID: sc.ID,
			Score:   sc.Score,
			Offset:  sc.SourceOffset,
			Length:  sc.SourceLength,
			Text:    sc.Text,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// printSources lists retrieved chunks, best first.
func printSources(w io.Writer, sources domain.RetrievalResult) {
	if len(sources) == 0 {
		fmt.Fprintln(w, "No sources.")
		return
	}

	fmt.Fprintln(w, "Sources:")
	for i, sc := range sources {
		// Format: [N] chunk ID (score) at offset+length
		fmt.Fprintf(w, "  [%d] chunk %d (%.2f) at %d+%d\n", i+1, sc.ID, sc.Score, sc.SourceOffset, sc.SourceLength)
		fmt.Fprintf(w, "      %s\n", chat.Snippet(sc.Text, 160))
	}
}
