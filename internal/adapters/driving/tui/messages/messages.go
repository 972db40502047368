// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AskCompleted carries the outcome of one question back to the model.
type AskCompleted struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// ResetCompleted signals the conversation history was cleared.
type ResetCompleted struct {
	Cleared int
	Err     error
}

// IndexRebuilt is sent from outside the program when the document changed
// on disk and was indexed again.
type IndexRebuilt struct {
	Chunks int
	Err    error
}

// Summary returns the one-line notice shown for the rebuild.
func (m IndexRebuilt) Summary() string {
	if m.Err != nil {
		return fmt.Sprintf("Reindex failed, keeping the previous index: %v", m.Err)
	}
	return fmt.Sprintf("Document changed, reindexed into %d chunks", m.Chunks)
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
