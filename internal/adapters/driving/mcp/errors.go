// Package mcp provides an MCP (Model Context Protocol) server adapter for docqa.
// It lets AI assistants ask questions about the indexed document.
package mcp

import "errors"

var (
	// ErrMissingAssistant is returned when the assistant is not provided.
	ErrMissingAssistant = errors.New("mcp: assistant is required")

	// ErrMissingRetriever is returned when the retriever is not provided.
	ErrMissingRetriever = errors.New("mcp: retriever is required")
)

// ErrSessionNotFound is returned when a tool names a session that does not exist.
var ErrSessionNotFound = errors.New("mcp: session not found")
