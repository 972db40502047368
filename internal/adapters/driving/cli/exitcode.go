package cli

import (
	"errors"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Process exit codes.
const (
	ExitOK                 = 0
	ExitError              = 1
	ExitInvalidArgument    = 2
	ExitUnreadableDocument = 3
	ExitEmbeddingFailure   = 4
	ExitGenerationFailure  = 5
	ExitEmptyInput         = 6
	ExitDimensionMismatch  = 7
)

// ExitCode maps err to the process exit code. A timeout carries the failure
// of the call it interrupted, so it exits with that call's code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	switch domain.Classify(err) {
	case domain.ErrInvalidArgument:
		return ExitInvalidArgument
	case domain.ErrUnreadableDocument:
		return ExitUnreadableDocument
	case domain.ErrEmbeddingFailure, domain.ErrEmbeddingUnavailable:
		return ExitEmbeddingFailure
	case domain.ErrGenerationFailure, domain.ErrLLMUnavailable:
		return ExitGenerationFailure
	case domain.ErrEmptyInput:
		return ExitEmptyInput
	case domain.ErrDimensionMismatch:
		return ExitDimensionMismatch
	}

	if isCobraUsageError(err) {
		return ExitInvalidArgument
	}
	return ExitError
}

// ErrorMessage returns the text printed for err. Failures of a request
// name the stage that failed.
func ErrorMessage(err error) string {
	var se *domain.StageError
	if errors.As(err, &se) {
		return "failed while " + se.Stage.String() + ": " + se.Err.Error()
	}
	return err.Error()
}

// isCobraUsageError recognises the errors cobra reports without passing
// them through the flag error func.
func isCobraUsageError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag") ||
		strings.Contains(msg, "required flag(s)")
}
