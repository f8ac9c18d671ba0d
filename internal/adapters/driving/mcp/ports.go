package mcp

import (
	"time"

	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Assistant answers questions within sessions.
	Assistant driving.Assistant

	// Retriever returns raw passages.
	Retriever driving.Retriever

	// Indexer exposes index metadata. Optional.
	Indexer driving.Indexer

	// TopK is the default number of passages for the retrieve tool.
	TopK int

	// SessionTTL is how long an idle conversation is kept. Zero uses the
	// registry default.
	SessionTTL time.Duration
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Assistant == nil {
		return ErrMissingAssistant
	}
	if p.Retriever == nil {
		return ErrMissingRetriever
	}
	return nil
}
