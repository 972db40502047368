package domain

// EngineState is the stage an ask request is in.
type EngineState int

// Engine states, in the order a successful request visits them.
const (
	// StateIdle means no request is in progress.
	StateIdle EngineState = iota

	// StateCondensing means the follow-up is being rewritten into a standalone question.
	StateCondensing

	// StateRetrieving means the standalone question is being embedded and matched.
	StateRetrieving

	// StateGenerating means the answer is being generated.
	StateGenerating
)

// String returns the lowercase stage name.
func (s EngineState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCondensing:
		return "condensing"
	case StateRetrieving:
		return "retrieving"
	case StateGenerating:
		return "generating"
	default:
		return unknownDescription
	}
}

// Description returns a human-readable label for status displays.
func (s EngineState) Description() string {
	switch s {
	case StateIdle:
		return "Ready"
	case StateCondensing:
		return "Rewriting question..."
	case StateRetrieving:
		return "Searching document..."
	case StateGenerating:
		return "Generating answer..."
	default:
		return unknownDescription
	}
}
