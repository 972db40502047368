// Package domain defines the core business entities for docqa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Extracted text of the document under question
//   - Chunk: A contiguous, overlapping span of that text
//   - EmbeddedChunk: A chunk paired with its embedding vector
//   - Turn: One answered exchange in a conversation
//   - EngineState: The stage an ask request is in
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
