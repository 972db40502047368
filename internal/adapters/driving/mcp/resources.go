package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for docqa resources.
	uriScheme = "docqa://"
)

// turnInfo is the JSON form of a conversation turn.
type turnInfo struct {
	Question       string    `json:"question"`
	Answer         string    `json:"answer"`
	SourceChunkIDs []int     `json:"source_chunk_ids"`
	CreatedAt      time.Time `json:"created_at"`
}

// chunkInfo is the JSON form of a chunk without its text.
type chunkInfo struct {
	ID     int    `json:"id"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	URI    string `json:"uri"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "history",
		Name:        "history",
		Description: "Questions and answers of the current conversation, oldest first",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "chunks",
		Name:        "chunks",
		Description: "Chunks the document was split into",
		MIMEType:    "application/json",
	}, s.handleChunksResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "chunks/{id}",
		Name:        "chunk-text",
		Description: "Text of one chunk of the document",
		MIMEType:    "text/plain",
	}, s.handleChunkResource)
}

// handleHistoryResource returns the committed turns as JSON.
func (s *Server) handleHistoryResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	turns := s.ports.Answer.History()

	infos := make([]turnInfo, len(turns))
	for i, turn := range turns {
		ids := turn.SourceChunkIDs
		if ids == nil {
			ids = []int{}
		}
		infos[i] = turnInfo{
			Question:       turn.Question,
			Answer:         turn.Answer,
			SourceChunkIDs: ids,
			CreatedAt:      turn.CreatedAt,
		}
	}

	return jsonResult(req.Params.URI, infos, "history")
}

// handleChunksResource lists the document's chunks.
func (s *Server) handleChunksResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	chunks := s.ports.Answer.Chunks()

	infos := make([]chunkInfo, len(chunks))
	for i, c := range chunks {
		infos[i] = chunkInfo{
			ID:     c.ID,
			Offset: c.SourceOffset,
			Length: c.SourceLength,
			URI:    chunkURI(c.ID),
		}
	}

	return jsonResult(req.Params.URI, infos, "chunks")
}

// handleChunkResource returns the text of one chunk.
func (s *Server) handleChunkResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id, ok := extractChunkID(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	for _, c := range s.ports.Answer.Chunks() {
		if c.ID == id {
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{{
					URI:      req.Params.URI,
					MIMEType: "text/plain",
					Text:     c.Text,
				}},
			}, nil
		}
	}

	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

// jsonResult wraps v as a JSON resource.
func jsonResult(uri string, v any, what string) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", what, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// chunkURI returns the resource URI of a chunk.
func chunkURI(id int) string {
	return uriScheme + "chunks/" + strconv.Itoa(id)
}

// extractChunkID extracts the chunk ID from a URI like docqa://chunks/{id}.
func extractChunkID(uri string) (int, bool) {
	const prefix = uriScheme + "chunks/"

	if !strings.HasPrefix(uri, prefix) {
		return 0, false
	}

	id, err := strconv.Atoi(strings.TrimPrefix(uri, prefix))
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}
