package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage stored conversations",
	Long: `List, inspect and remove the conversations kept in ~/.docqa.

A stored conversation can be continued with "ask --session" or
"chat --session".`,
	RunE: runHistoryList,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations, most recent first",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a conversation",
	Args:  exactArgs(1),
	RunE:  runHistoryShow,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear <session-id>",
	Short: "Forget a conversation's turns but keep the session",
	Args:  exactArgs(1),
	RunE:  runHistoryClear,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a conversation",
	Args:  exactArgs(1),
	RunE:  runHistoryDelete,
}

func init() {
	historyListCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

// sessionJSON is the --json form of a stored session.
type sessionJSON struct {
	ID          string    `json:"id"`
	DocumentURI string    `json:"document"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	sessions, err := historyService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if historyJSON {
		out := make([]sessionJSON, len(sessions))
		for i, s := range sessions {
			out[i] = sessionJSON{
				ID:          s.ID,
				DocumentURI: s.DocumentURI,
				Title:       s.Title,
				CreatedAt:   s.CreatedAt,
				UpdatedAt:   s.UpdatedAt,
			}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal sessions: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if len(sessions) == 0 {
		cmd.Println("No conversations yet.")
		return nil
	}

	for _, s := range sessions {
		cmd.Printf("%s  %s  %s\n", s.ID, s.UpdatedAt.Local().Format("2006-01-02 15:04"), s.DocumentURI)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	session, turns, err := historyService.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	cmd.Printf("Session:  %s\n", session.ID)
	cmd.Printf("Document: %s\n", session.DocumentURI)
	cmd.Printf("Started:  %s\n", session.CreatedAt.Local().Format(time.RFC1123))
	cmd.Println()
	printTurns(cmd.OutOrStdout(), turns)
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	if err := historyService.Clear(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Cleared session %s\n", args[0])
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	if err := historyService.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Deleted session %s\n", args[0])
	return nil
}
