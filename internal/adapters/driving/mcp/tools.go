package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to ask about the document, follow-ups may refer to earlier answers"`
	K        int    `json:"k,omitempty" jsonschema:"number of document chunks to ground the answer on"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer             string         `json:"answer"`
	StandaloneQuestion string         `json:"standalone_question"`
	Sources            []SourceOutput `json:"sources"`
}

// SourceOutput is one chunk an answer was grounded on.
type SourceOutput struct {
	ChunkID int     `json:"chunk_id"`
	Score   float64 `json:"score"`
	Offset  int     `json:"offset"`
	Length  int     `json:"length"`
	Text    string  `json:"text"`
}

// ResetInput is the input schema for the reset_history tool.
type ResetInput struct{}

// ResetOutput is the output schema for the reset_history tool.
type ResetOutput struct {
	Cleared int `json:"cleared"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question about " + s.describeDocument() + " from its most relevant passages",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reset_history",
		Description: "Forget the conversation so the next question is answered on its own",
	}, s.handleReset)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Answer.Ask(ctx, input.Question, s.ports.k(input.K))
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:             answer.Text,
		StandaloneQuestion: answer.StandaloneQuestion,
		Sources:            make([]SourceOutput, len(answer.Sources)),
	}
	for i, sc := range answer.Sources {
		output.Sources[i] = SourceOutput{
			ChunkID: sc.ID,
			Score:   sc.Score,
			Offset:  sc.SourceOffset,
			Length:  sc.SourceLength,
			Text:    sc.Text,
		}
	}

	return nil, output, nil
}

// handleReset handles the reset_history tool invocation.
func (s *Server) handleReset(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ResetInput,
) (*mcp.CallToolResult, ResetOutput, error) {
	cleared := len(s.ports.Answer.History())
	if err := s.ports.Answer.Reset(ctx); err != nil {
		return nil, ResetOutput{}, err
	}
	return nil, ResetOutput{Cleared: cleared}, nil
}

// describeDocument names the document for tool descriptions.
func (s *Server) describeDocument() string {
	if s.ports.DocumentURI == "" {
		return "the open document"
	}
	return s.ports.DocumentURI
}
