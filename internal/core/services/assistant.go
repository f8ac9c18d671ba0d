package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/metrics"
)

// Ensure AssistantService implements the interface.
var _ driving.Assistant = (*AssistantService)(nil)

// ApologyMessage is returned whenever retrieval or generation fails.
const ApologyMessage = "⚠️ Sorry, I couldn't process your question."

// EndedMessage is returned for input sent to an ended session.
const EndedMessage = "This conversation has ended. Reset the session to ask more questions."

// contextSeparator joins retrieved passages in the answer prompt.
const contextSeparator = "\n\n"

// AssistantConfig holds the query-time settings of the assistant.
type AssistantConfig struct {
	// Name is the persona used in greetings and the answer prompt.
	Name string

	// TopK is the number of passages retrieved per question.
	TopK int

	// MaxAnswerTokens caps the generated answer.
	MaxAnswerTokens int

	// AnswerTimeout bounds a single generation call.
	AnswerTimeout time.Duration
}

// AssistantConfigFromSettings extracts the assistant configuration.
func AssistantConfigFromSettings(settings *domain.Settings) AssistantConfig {
	return AssistantConfig{
		Name:            settings.AssistantName,
		TopK:            settings.TopK,
		MaxAnswerTokens: settings.MaxAnswerTokens,
		AnswerTimeout:   settings.AnswerTimeout,
	}
}

// AssistantService routes input through the session state machine and
// answers questions from retrieved context.
type AssistantService struct {
	retriever driving.Retriever
	llm       driven.LLMService
	prompts   driven.PromptStore
	cfg       AssistantConfig
}

// NewAssistantService creates an assistant. Zero config values fall back to
// the defaults of domain.DefaultSettings.
func NewAssistantService(
	retriever driving.Retriever,
	llm driven.LLMService,
	prompts driven.PromptStore,
	cfg AssistantConfig,
) *AssistantService {
	defaults := domain.DefaultSettings()
	if cfg.Name == "" {
		cfg.Name = defaults.AssistantName
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MaxAnswerTokens <= 0 {
		cfg.MaxAnswerTokens = defaults.MaxAnswerTokens
	}
	if cfg.AnswerTimeout <= 0 {
		cfg.AnswerTimeout = defaults.AnswerTimeout
	}
	return &AssistantService{
		retriever: retriever,
		llm:       llm,
		prompts:   prompts,
		cfg:       cfg,
	}
}

// NewSession creates a session awaiting input.
func (s *AssistantService) NewSession() *domain.Session {
	return domain.NewSession(uuid.NewString())
}

// Reset clears session history and re-opens an ended session.
func (s *AssistantService) Reset(session *domain.Session) {
	session.Lock()
	defer session.Unlock()
	session.Reset()
}

// Answer classifies input and produces a reply. Failures are logged and
// replaced by ApologyMessage.
func (s *AssistantService) Answer(ctx context.Context, session *domain.Session, input string) domain.Reply {
	session.Lock()
	defer session.Unlock()

	if session.Ended() {
		logger.Debug("session %s: input ignored, session ended", session.ID)
		return domain.Reply{Text: EndedMessage, Route: domain.RouteEnded}
	}

	if err := session.Transition(domain.StateClassifying); err != nil {
		// A previous call panicked mid-turn; start the turn over.
		logger.Warn("session %s: %v, resetting state", session.ID, err)
		session.Reset()
		_ = session.Transition(domain.StateClassifying)
	}

	route := domain.Classify(input)
	_ = session.Transition(route.State())
	session.Append(domain.RoleUser, input)

	var reply domain.Reply
	switch route {
	case domain.RouteGreeting:
		reply = s.canned(domain.RouteGreeting, driven.PromptGreeting)
	case domain.RouteExit:
		reply = s.canned(domain.RouteExit, driven.PromptFarewell)
	default:
		reply = s.rag(ctx, input)
	}

	session.Append(domain.RoleAssistant, reply.Text)
	if route == domain.RouteExit {
		_ = session.Transition(domain.StateEnded)
	} else {
		_ = session.Transition(domain.StateAwaitingInput)
	}

	metrics.AnswersTotal.WithLabelValues(string(reply.Route), metrics.FailureLabel(string(reply.Failure))).Inc()
	return reply
}

// canned renders a greeting or farewell template with the assistant name.
func (s *AssistantService) canned(route domain.Route, prompt string) domain.Reply {
	tpl, err := s.prompts.Load(prompt)
	if err != nil {
		logger.Error("load %s prompt: %v", prompt, err)
		return domain.Reply{Text: ApologyMessage, Route: route, Failure: domain.FailureGeneration}
	}
	return domain.Reply{Text: fmt.Sprintf(tpl, s.cfg.Name), Route: route}
}

// rag retrieves context for the question and asks the LLM to answer from it.
func (s *AssistantService) rag(ctx context.Context, question string) domain.Reply {
	sources, err := s.retriever.RetrieveScored(ctx, question, s.cfg.TopK)
	if err != nil {
		logger.Error("retrieval failed: %v", err)
		return s.apology(domain.FailureRetrieval, nil)
	}

	prompt, err := s.buildPrompt(question, sources)
	if err != nil {
		logger.Error("build answer prompt: %v", err)
		return s.apology(domain.FailureGeneration, sources)
	}
	logger.Debug("answer prompt: %d passages, %d chars", len(sources), len(prompt))

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.AnswerTimeout)
	defer cancel()

	start := time.Now()
	answer, err := s.llm.Generate(genCtx, prompt, driven.GenerateOptions{MaxTokens: s.cfg.MaxAnswerTokens})
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			logger.Error("generation timed out after %s: %v", s.cfg.AnswerTimeout, err)
			return s.apology(domain.FailureTimeout, sources)
		}
		logger.Error("generation failed: %v", err)
		return s.apology(domain.FailureGeneration, sources)
	}

	return domain.Reply{Text: answer, Route: domain.RouteRAG, Sources: sources}
}

// buildPrompt fills the answer template with the persona, the joined passages
// and the question.
func (s *AssistantService) buildPrompt(question string, sources []domain.ScoredChunk) (string, error) {
	tpl, err := s.prompts.Load(driven.PromptAnswer)
	if err != nil {
		return "", err
	}
	passages := make([]string, len(sources))
	for i, sc := range sources {
		passages[i] = sc.Chunk.Content
	}
	return fmt.Sprintf(tpl, s.cfg.Name, strings.Join(passages, contextSeparator), question), nil
}

func (s *AssistantService) apology(kind domain.FailureKind, sources []domain.ScoredChunk) domain.Reply {
	return domain.Reply{Text: ApologyMessage, Route: domain.RouteRAG, Failure: kind, Sources: sources}
}
