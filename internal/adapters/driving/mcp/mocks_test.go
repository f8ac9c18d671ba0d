package mcp

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// mockAssistant is a mock implementation of driving.Assistant.
type mockAssistant struct {
	reply  domain.Reply
	inputs []string
}

func (m *mockAssistant) NewSession() *domain.Session {
	return domain.NewSession("new-session")
}

func (m *mockAssistant) Answer(_ context.Context, session *domain.Session, input string) domain.Reply {
	if session.Ended() {
		return domain.Reply{Route: domain.RouteEnded}
	}
	m.inputs = append(m.inputs, input)
	session.Append(domain.RoleUser, input)
	session.Append(domain.RoleAssistant, m.reply.Text)
	return m.reply
}

func (m *mockAssistant) Reset(session *domain.Session) {
	session.Reset()
}

// mockRetriever is a mock implementation of driving.Retriever.
type mockRetriever struct {
	scored []domain.ScoredChunk
	err    error
	k      int
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, k int) ([]domain.Chunk, error) {
	scored, err := m.RetrieveScored(ctx, query, k)
	chunks := make([]domain.Chunk, len(scored))
	for i := range scored {
		chunks[i] = scored[i].Chunk
	}
	return chunks, err
}

func (m *mockRetriever) RetrieveScored(_ context.Context, _ string, k int) ([]domain.ScoredChunk, error) {
	m.k = k
	return m.scored, m.err
}

// mockIndexer is a mock implementation of driving.Indexer.
type mockIndexer struct {
	info *domain.IndexInfo
	err  error
}

func (m *mockIndexer) Build(context.Context, string, driving.BuildProgress) (*driving.BuildReport, error) {
	return nil, m.err
}

func (m *mockIndexer) Info(context.Context) (*domain.IndexInfo, error) {
	return m.info, m.err
}

func validPorts() *Ports {
	return &Ports{Assistant: &mockAssistant{}, Retriever: &mockRetriever{}}
}
