package mcp

import (
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the MCP server.
type Ports struct {
	// Answer answers questions about the open document.
	Answer driving.AnswerService

	// DocumentURI names the document in the server description.
	DocumentURI string

	// DefaultK is the number of chunks retrieved when a caller gives no k.
	DefaultK int
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	return nil
}

// k returns requested, or the default when requested is unset.
func (p *Ports) k(requested int) int {
	if requested != 0 {
		return requested
	}
	if p.DefaultK > 0 {
		return p.DefaultK
	}
	return domain.DefaultTopK
}
