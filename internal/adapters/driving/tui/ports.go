// Package tui provides an interactive terminal chat for docqa.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Answer answers questions within the open session.
	Answer driving.AnswerService

	// Title names the document in the header.
	Title string

	// K is the number of chunks retrieved per question.
	K int
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	return nil
}

// topK returns K, or the default when unset.
func (p *Ports) topK() int {
	if p.K > 0 {
		return p.K
	}
	return domain.DefaultTopK
}
