package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Assistant answers user input within a session. It is the sole contract the
// chat front ends depend on.
type Assistant interface {
	// NewSession creates a session awaiting input.
	NewSession() *domain.Session

	// Answer classifies input and produces a reply. It never returns raw
	// retrieval or generation errors; failures become an apology reply.
	Answer(ctx context.Context, session *domain.Session, input string) domain.Reply

	// Reset clears session history and re-opens an ended session.
	Reset(session *domain.Session)
}
