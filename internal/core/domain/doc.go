// Package domain defines the core business entities for docqa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: One page of loaded source text with metadata
//   - Chunk: A retrievable span of a document
//   - ScoredChunk: A chunk paired with its similarity score
//   - Session: Per-conversation state (history, ended flag)
//   - Reply: The typed outcome of answering one input
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
