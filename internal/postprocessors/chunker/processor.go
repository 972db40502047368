// Package chunker splits document text into fixed-size overlapping windows.
//
// Sizes and offsets are counted in characters (Unicode code points), so a
// window never splits a multi-byte character.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Processor splits document content into fixed-size chunks.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a new chunker processor with the given options.
// Parameters are validated when text is split, not here.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int { return p.overlap }

// Split splits text using the processor's configuration.
func (p *Processor) Split(text string) ([]domain.Chunk, error) {
	return Split(text, p.chunkSize, p.overlap)
}

// Chunk splits text with explicit parameters. A zero chunkSize selects the
// processor's configured size and overlap.
func (p *Processor) Chunk(text string, chunkSize, overlap int) ([]domain.Chunk, error) {
	if chunkSize == 0 {
		return p.Split(text)
	}
	return Split(text, chunkSize, overlap)
}

// Split divides text into windows of at most chunkSize characters, each
// starting chunkSize-overlap characters after the previous one.
//
// Text no longer than chunkSize (including empty text) yields a single chunk.
// The walk stops at the first window that reaches the end of the text, so
// the final window is the only one that may be shorter than chunkSize.
func Split(text string, chunkSize, overlap int) ([]domain.Chunk, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size %d: %w: must be positive", chunkSize, domain.ErrInvalidArgument)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap %d: %w: must be in [0, %d)", overlap, domain.ErrInvalidArgument, chunkSize)
	}

	runes := []rune(text)
	total := len(runes)

	if total <= chunkSize {
		return []domain.Chunk{{
			ID:           0,
			Text:         text,
			SourceOffset: 0,
			SourceLength: total,
		}}, nil
	}

	stride := chunkSize - overlap
	chunks := make([]domain.Chunk, 0, (total-overlap+stride-1)/stride)

	for start := 0; ; start += stride {
		end := min(start+chunkSize, total)

		chunks = append(chunks, domain.Chunk{
			ID:           len(chunks),
			Text:         string(runes[start:end]),
			SourceOffset: start,
			SourceLength: end - start,
		})

		if end == total {
			break
		}
	}

	return chunks, nil
}

// Reconstruct reassembles the source text from chunks in ID order, dropping
// the characters each chunk shares with its predecessor. It fails when the
// chunks leave a gap, which means they do not cover the text.
func Reconstruct(chunks []domain.Chunk) (string, error) {
	var b strings.Builder
	covered := 0

	for i, c := range chunks {
		if c.SourceOffset > covered {
			return "", fmt.Errorf("chunk %d starts at %d: gap after %d", i, c.SourceOffset, covered)
		}
		if got := utf8.RuneCountInString(c.Text); got != c.SourceLength {
			return "", fmt.Errorf("chunk %d: length %d does not match text of %d characters", i, c.SourceLength, got)
		}

		skip := covered - c.SourceOffset
		if skip >= c.SourceLength {
			continue
		}

		runes := []rune(c.Text)
		b.WriteString(string(runes[skip:]))
		covered = c.End()
	}

	return b.String(), nil
}
