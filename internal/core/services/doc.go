// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The question-answering core lives here: Retriever turns a question into
// ranked chunks, ConversationState keeps the turn log and condenses
// follow-ups, and AnswerEngine drives one request through the
// Condensing, Retrieving and Generating stages.
//
// Services are pure Go with no CGO or external dependencies.
package services
