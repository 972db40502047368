package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent the failure taxonomy of the question-answering core.
// Every component surfaces one of these (wrapped with context) to its caller.
var (
	// ErrInvalidArgument indicates bad chunking or query parameters.
	// This is a caller error and is never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDimensionMismatch indicates the embedding contract was violated:
	// vectors of inconsistent length were indexed or queried.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrEmptyInput indicates there is no data to index.
	ErrEmptyInput = errors.New("empty input")

	// ErrUnreadableDocument indicates text could not be extracted from a document.
	ErrUnreadableDocument = errors.New("unreadable document")

	// ErrEmbeddingFailure indicates the external embedding call failed.
	// The caller may retry the whole request.
	ErrEmbeddingFailure = errors.New("embedding failure")

	// ErrGenerationFailure indicates the external generation call failed.
	// The caller may retry the whole request.
	ErrGenerationFailure = errors.New("generation failure")

	// ErrTimeout indicates an external call exceeded its deadline.
	// It is always reported together with the failure of the call it interrupted.
	ErrTimeout = errors.New("timeout")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// taxonomy lists the classification order used by Classify.
// Timeout is deliberately absent: it is always paired with the failure it interrupted.
var taxonomy = []error{
	ErrInvalidArgument,
	ErrUnreadableDocument,
	ErrEmbeddingFailure,
	ErrGenerationFailure,
	ErrEmptyInput,
	ErrDimensionMismatch,
	ErrNotFound,
	ErrLLMUnavailable,
	ErrEmbeddingUnavailable,
}

// Classify returns the taxonomy sentinel that err belongs to, or nil when
// err is nil or unclassified. External-call failures win over the causes
// they wrap, so an embedding of the wrong size classifies as ErrEmbeddingFailure.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range taxonomy {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

// StageError reports which stage of an ask request failed.
type StageError struct {
	// Stage is the engine state that was active when the failure occurred.
	Stage EngineState

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying cause so errors.Is matches the taxonomy.
func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage extracts the failing stage from err.
// Returns StateIdle and false when err carries no stage.
func FailedStage(err error) (EngineState, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return StateIdle, false
}
