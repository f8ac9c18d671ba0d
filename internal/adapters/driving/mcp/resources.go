package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for docqa resources.
const uriScheme = "docqa://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "index",
		Name:        "index",
		Description: "Metadata of the persisted document index",
		MIMEType:    "application/json",
	}, s.handleIndexResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sessions/{sessionId}/history",
		Name:        "session-history",
		Description: "Display history of a conversation",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)
}

// handleIndexResource returns the index metadata.
func (s *Server) handleIndexResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Indexer == nil {
		return jsonResult(req.Params.URI, "{}"), nil
	}

	info, err := s.ports.Indexer.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading index info: %w", err)
	}

	data, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("marshalling index info: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

// handleHistoryResource returns the turns of a session.
func (s *Server) handleHistoryResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractSessionID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	session, ok := s.sessions.Lookup(id)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	session.Lock()
	history := session.History()
	session.Unlock()

	data, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("marshalling history: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

func jsonResult(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}

// extractSessionID extracts the session ID from a URI like docqa://sessions/{id}/history.
func extractSessionID(uri string) string {
	prefix := uriScheme + "sessions/"
	suffix := "/history"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
}
