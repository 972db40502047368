package domain

import "time"

// Turn is one answered exchange in a conversation.
type Turn struct {
	// Question is the user's question as asked (not the standalone rewrite).
	Question string

	// Answer is the generated answer.
	Answer string

	// SourceChunkIDs lists the chunks the answer was grounded on, best first.
	SourceChunkIDs []int

	// CreatedAt is when the turn was committed.
	CreatedAt time.Time
}

// Session is a persisted conversation about a single document.
type Session struct {
	// ID is the unique identifier for the session.
	ID string

	// DocumentURI is the document the conversation is about.
	DocumentURI string

	// Title is a short label, the document title by default.
	Title string

	// CreatedAt is when the session was started.
	CreatedAt time.Time

	// UpdatedAt is when the last turn was committed.
	UpdatedAt time.Time
}

// Answer is the result of one ask request.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Sources are the retrieved chunks in descending-score order.
	Sources RetrievalResult

	// StandaloneQuestion is the condensed question used for retrieval.
	StandaloneQuestion string

	// Elapsed is the wall-clock time of the request.
	Elapsed time.Duration
}
