package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AnswerInput is the input schema for the answer tool.
type AnswerInput struct {
	Question  string `json:"question" jsonschema:"the question to answer from the document"`
	SessionID string `json:"session_id,omitempty" jsonschema:"conversation to continue; omit to start a new one"`
}

// AnswerOutput is the output schema for the answer tool.
type AnswerOutput struct {
	Answer    string          `json:"answer"`
	Route     string          `json:"route"`
	Failure   string          `json:"failure,omitempty"`
	SessionID string          `json:"session_id"`
	Sources   []PassageOutput `json:"sources,omitempty"`
}

// ResetInput is the input schema for the reset tool.
type ResetInput struct {
	SessionID string `json:"session_id" jsonschema:"conversation to start over"`
}

// ResetOutput is the output schema for the reset tool.
type ResetOutput struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"text to find relevant passages for"`
	K     int    `json:"k,omitempty" jsonschema:"maximum number of passages to return (default top_k)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Passages []PassageOutput `json:"passages"`
	Count    int             `json:"count"`
}

// PassageOutput represents a single retrieved passage.
type PassageOutput struct {
	ChunkID string  `json:"chunk_id"`
	Page    int     `json:"page"`
	Score   float64 `json:"score"`
	Content string  `json:"content"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "answer",
		Description: "Answer a question using only the indexed document",
	}, s.handleAnswer)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Return the passages of the indexed document most relevant to a query",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reset",
		Description: "Clear a conversation's history, including one that has ended",
	}, s.handleReset)
}

// handleAnswer handles the answer tool invocation.
func (s *Server) handleAnswer(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnswerInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, AnswerOutput{}, fmt.Errorf("%w: question is required", domain.ErrInvalidArgument)
	}

	session := s.sessions.Get(input.SessionID)
	reply := s.ports.Assistant.Answer(ctx, session, input.Question)
	if reply.Route == domain.RouteEnded {
		return nil, AnswerOutput{}, domain.ErrSessionEnded
	}

	return nil, AnswerOutput{
		Answer:    reply.Text,
		Route:     string(reply.Route),
		Failure:   string(reply.Failure),
		SessionID: session.ID,
		Sources:   toPassages(reply.Sources),
	}, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, RetrieveOutput{}, fmt.Errorf("%w: query is required", domain.ErrInvalidArgument)
	}

	k := input.K
	if k <= 0 {
		k = s.ports.TopK
	}
	if k <= 0 {
		k = domain.DefaultSettings().TopK
	}

	scored, err := s.ports.Retriever.RetrieveScored(ctx, input.Query, k)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	passages := toPassages(scored)
	return nil, RetrieveOutput{Passages: passages, Count: len(passages)}, nil
}

// handleReset handles the reset tool invocation.
func (s *Server) handleReset(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ResetInput,
) (*mcp.CallToolResult, ResetOutput, error) {
	session, ok := s.sessions.Lookup(input.SessionID)
	if !ok {
		return nil, ResetOutput{}, fmt.Errorf("%w: %q", ErrSessionNotFound, input.SessionID)
	}
	s.ports.Assistant.Reset(session)

	session.Lock()
	state := session.State()
	session.Unlock()

	return nil, ResetOutput{SessionID: session.ID, State: string(state)}, nil
}

func toPassages(scored []domain.ScoredChunk) []PassageOutput {
	out := make([]PassageOutput, len(scored))
	for i, sc := range scored {
		out[i] = PassageOutput{
			ChunkID: sc.Chunk.ID,
			Page:    sc.Chunk.Page,
			Score:   sc.Score,
			Content: sc.Chunk.Content,
		}
	}
	return out
}
