package domain

import (
	"fmt"
	"strings"
	"sync"
)

// Role identifies the author of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one displayed message. History is never fed back into retrieval.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SessionState is a state of the query-time state machine.
type SessionState string

// Session states.
const (
	StateAwaitingInput SessionState = "awaiting_input"
	StateClassifying   SessionState = "classifying"
	StateGreeting      SessionState = "greeting_response"
	StateExit          SessionState = "exit_response"
	StateRAG           SessionState = "rag_response"
	StateEnded         SessionState = "ended"
)

// allowedTransitions lists the legal edges of the state machine.
var allowedTransitions = map[SessionState][]SessionState{
	StateAwaitingInput: {StateClassifying},
	StateClassifying:   {StateGreeting, StateExit, StateRAG},
	StateGreeting:      {StateAwaitingInput},
	StateRAG:           {StateAwaitingInput},
	StateExit:          {StateEnded},
	StateEnded:         nil,
}

// Route is the classification of one input.
type Route string

// Input routes.
const (
	RouteGreeting Route = "greeting"
	RouteExit     Route = "exit"
	RouteRAG      Route = "rag"

	// RouteEnded marks input rejected because the session has ended.
	RouteEnded Route = "ended"
)

// State returns the response state the route leads to.
func (r Route) State() SessionState {
	switch r {
	case RouteGreeting:
		return StateGreeting
	case RouteExit:
		return StateExit
	case RouteEnded:
		return StateEnded
	default:
		return StateRAG
	}
}

// greetingPhrases and exitPhrases are matched exactly after normalisation.
var (
	greetingPhrases = map[string]struct{}{
		"hi": {}, "hello": {}, "hey": {}, "yo": {},
	}
	exitPhrases = map[string]struct{}{
		"exit": {}, "quit": {}, "bye": {}, "goodbye": {}, "great,bye": {}, "thanks": {}, "thank you": {},
	}
)

// NormalizeInput trims and lowercases input for classification only.
func NormalizeInput(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// Classify routes raw input to a greeting, an exit or the RAG path.
func Classify(input string) Route {
	normalized := NormalizeInput(input)
	if _, ok := greetingPhrases[normalized]; ok {
		return RouteGreeting
	}
	if _, ok := exitPhrases[normalized]; ok {
		return RouteExit
	}
	return RouteRAG
}

// FailureKind explains why a RAG reply fell back to the apology.
type FailureKind string

// Failure kinds.
const (
	FailureNone       FailureKind = ""
	FailureRetrieval  FailureKind = "retrieval"
	FailureGeneration FailureKind = "generation"
	FailureTimeout    FailureKind = "timeout"
)

// Reply is the outcome of answering one input.
type Reply struct {
	// Text is the message shown to the user.
	Text string `json:"answer"`

	// Route is how the input was classified.
	Route Route `json:"route"`

	// Failure is set when the RAG path fell back to the apology message.
	Failure FailureKind `json:"failure,omitempty"`

	// Sources are the retrieved passages, in relevance order.
	Sources []ScoredChunk `json:"-"`
}

// Failed reports whether the reply is a fallback apology.
func (r Reply) Failed() bool {
	return r.Failure != FailureNone
}

// Session holds per-conversation state: the state machine position and the
// display history. A session is used by one request at a time; callers that
// share a session across goroutines serialise through Lock and Unlock.
type Session struct {
	// ID identifies the session to driving adapters.
	ID string

	mu      sync.Mutex
	state   SessionState
	history []Turn
}

// NewSession creates a session awaiting input.
func NewSession(id string) *Session {
	return &Session{ID: id, state: StateAwaitingInput}
}

// Lock acquires exclusive use of the session.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// State returns the current state.
func (s *Session) State() SessionState {
	return s.state
}

// Ended reports whether the session reached its terminal state.
func (s *Session) Ended() bool {
	return s.state == StateEnded
}

// Transition moves the session along a legal edge of the state machine.
func (s *Session) Transition(to SessionState) error {
	for _, next := range allowedTransitions[s.state] {
		if next == to {
			s.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: illegal transition %s -> %s", ErrInvalidArgument, s.state, to)
}

// Append records a turn in the display history.
func (s *Session) Append(role Role, content string) {
	s.history = append(s.history, Turn{Role: role, Content: content})
}

// History returns a copy of the display history.
func (s *Session) History() []Turn {
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// Reset clears history and returns the session to awaiting input.
func (s *Session) Reset() {
	s.history = nil
	s.state = StateAwaitingInput
}
